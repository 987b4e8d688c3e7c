package utils_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/devops/internal/utils"
)

const (
	testLoggerFactorySubtestTemplateConstant = "%d_%s"
	testLogMessageConstant                   = "Branch rewritten"
	testDebugMessageConstant                 = "Branch rewrite details"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                string
		requestedLogLevel   utils.LogLevel
		requestedLogFormat  utils.LogFormat
		expectError         bool
		expectStructuredLog bool
		expectDebugLog      bool
	}{
		{
			name:                "debug_structured",
			requestedLogLevel:   utils.LogLevelDebug,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
			expectDebugLog:      true,
		},
		{
			name:                "info_structured",
			requestedLogLevel:   utils.LogLevelInfo,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
		},
		{
			name:               "info_console",
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormatConsole,
		},
		{
			name:                "names_ignore_case",
			requestedLogLevel:   utils.LogLevel(" DEBUG "),
			requestedLogFormat:  utils.LogFormat("Structured"),
			expectStructuredLog: true,
			expectDebugLog:      true,
		},
		{
			name:               "unsupported_log_level",
			requestedLogLevel:  utils.LogLevel("verbose"),
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        true,
		},
		{
			name:               "unsupported_log_format",
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormat("xml"),
			expectError:        true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			var sink bytes.Buffer
			logger, creationError := utils.NewLoggerFactory(&sink).CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)

			if testCase.expectError {
				require.Error(subtest, creationError)
				require.Nil(subtest, logger)
				return
			}

			require.NoError(subtest, creationError)
			logger.Debug(testDebugMessageConstant)
			logger.Info(testLogMessageConstant)
			require.NoError(subtest, logger.Sync())

			lines := bytes.Split(bytes.TrimSpace(sink.Bytes()), []byte("\n"))
			lastLine := lines[len(lines)-1]
			require.Contains(subtest, string(lastLine), testLogMessageConstant)
			require.Equal(subtest, testCase.expectStructuredLog, json.Valid(lastLine))
			require.Equal(subtest, testCase.expectDebugLog, bytes.Contains(sink.Bytes(), []byte(testDebugMessageConstant)))
		})
	}
}
