package protection_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/devops/internal/branchmap"
	"github.com/temirov/devops/internal/gitlabapi"
	"github.com/temirov/devops/internal/protection"
)

const (
	protectedMappingFileConstant = "gitlab-protected-branch-config.json"
	protectedSampleFileConstant  = "gitlab-protected-branch-config.sample.json"
	protectedMappingConstant     = `[{"projectId":7,"projectName":"svc-a","branches":["main","release-9"]}]`
)

func executeProtectCommand(testInstance *testing.T, outputDirectory string, protector *protectorStub, output *bytes.Buffer, arguments ...string) error {
	testInstance.Helper()
	builder := protection.CommandBuilder{
		LoggerProvider:          zap.NewNop,
		ConfigurationProvider:   protection.DefaultCommandConfiguration,
		ConnectionProvider:      func() gitlabapi.Configuration { return gitlabapi.Configuration{} },
		OutputDirectoryProvider: func() string { return outputDirectory },
		Protector:               protector,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetContext(context.Background())
	command.SetOut(output)
	command.SetErr(output)
	command.SetArgs(arguments)
	return command.Execute()
}

func TestProtectBranchesCommandWritesSampleWhenMappingMissing(testInstance *testing.T) {
	outputDirectory := testInstance.TempDir()
	protector := &protectorStub{}

	executionError := executeProtectCommand(testInstance, outputDirectory, protector, &bytes.Buffer{})

	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), protectedSampleFileConstant)
	sample, loadError := branchmap.LoadProtected(filepath.Join(outputDirectory, protectedSampleFileConstant))
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, branchmap.StaticProtectedTemplate(), sample)
	require.Empty(testInstance, protector.calls)
}

func TestProtectBranchesCommandScenarios(testInstance *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		failures        map[string]error
		expectError     bool
		expectedCalls   []string
		expectedOptions gitlabapi.ProtectionOptions
		expectedOutput  string
	}{
		{
			name:            "default_access_levels",
			expectedCalls:   []string{"7:main", "7:release-9"},
			expectedOptions: gitlabapi.ProtectionOptions{PushAccessLevel: gitlabapi.AccessLevelMaintainer, MergeAccessLevel: gitlabapi.AccessLevelMaintainer},
			expectedOutput:  "2 branch(es) processed, 2 protected, 0 already protected, 0 failed",
		},
		{
			name:            "flag_access_levels",
			arguments:       []string{"--push-access-level", "no_access", "--merge-access-level", "developer"},
			expectedCalls:   []string{"7:main", "7:release-9"},
			expectedOptions: gitlabapi.ProtectionOptions{PushAccessLevel: gitlabapi.AccessLevelNoAccess, MergeAccessLevel: gitlabapi.AccessLevelDeveloper},
			expectedOutput:  "2 branch(es) processed, 2 protected, 0 already protected, 0 failed",
		},
		{
			name:            "already_protected",
			failures:        map[string]error{"7:main": statusError(http.StatusConflict)},
			expectedCalls:   []string{"7:main", "7:release-9"},
			expectedOptions: gitlabapi.ProtectionOptions{PushAccessLevel: gitlabapi.AccessLevelMaintainer, MergeAccessLevel: gitlabapi.AccessLevelMaintainer},
			expectedOutput:  "2 branch(es) processed, 1 protected, 1 already protected, 0 failed",
		},
		{
			name:            "protection_failure",
			failures:        map[string]error{"7:release-9": statusError(http.StatusForbidden)},
			expectError:     true,
			expectedCalls:   []string{"7:main", "7:release-9"},
			expectedOptions: gitlabapi.ProtectionOptions{PushAccessLevel: gitlabapi.AccessLevelMaintainer, MergeAccessLevel: gitlabapi.AccessLevelMaintainer},
			expectedOutput:  "2 branch(es) processed, 1 protected, 0 already protected, 1 failed",
		},
		{
			name:        "unknown_access_level",
			arguments:   []string{"--push-access-level", "owner"},
			expectError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(subtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			outputDirectory := subtest.TempDir()
			require.NoError(subtest, os.WriteFile(filepath.Join(outputDirectory, protectedMappingFileConstant), []byte(protectedMappingConstant), 0o600))
			protector := &protectorStub{failures: testCase.failures}
			output := &bytes.Buffer{}

			executionError := executeProtectCommand(subtest, outputDirectory, protector, output, testCase.arguments...)

			if testCase.expectError {
				require.Error(subtest, executionError)
			} else {
				require.NoError(subtest, executionError)
			}
			require.Equal(subtest, testCase.expectedCalls, protector.calls)
			for _, options := range protector.options {
				require.Equal(subtest, testCase.expectedOptions, options)
			}
			if len(testCase.expectedOutput) > 0 {
				require.Contains(subtest, output.String(), testCase.expectedOutput)
			}
		})
	}
}

func TestProtectionConfigurationSanitize(testInstance *testing.T) {
	sanitized := protection.CommandConfiguration{MappingFile: "  ", PushAccessLevel: " developer ", MergeAccessLevel: ""}.Sanitize()

	require.Equal(testInstance, protection.CommandConfiguration{
		MappingFile:      protectedMappingFileConstant,
		PushAccessLevel:  "developer",
		MergeAccessLevel: "maintainer",
	}, sanitized)
	require.Equal(testInstance, map[string]any{
		"tools.gitlab.protect_branches.mapping_file":       protectedMappingFileConstant,
		"tools.gitlab.protect_branches.push_access_level":  "maintainer",
		"tools.gitlab.protect_branches.merge_access_level": "maintainer",
	}, protection.DefaultConfigurationValues("tools.gitlab.protect_branches"))
}
