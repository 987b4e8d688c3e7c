package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/devops/cmd/cli"
	gitlabcmd "github.com/temirov/devops/cmd/cli/gitlab"
	"github.com/temirov/devops/internal/reconcile"
)

const (
	subtestNameTemplateConstant       = "%d_%s"
	testConfigurationFileNameConstant = "config.yaml"
	testUpdateBranchesCommandConstant = "gitlab update-branches"
	testBaseURLConstant               = "https://gitlab.example.com"
	testOverrideURLConstant           = "https://gitlab.internal.example.com"
	testTokenConstant                 = "glpat-secret"
	baseURLEnvironmentConstant        = "DEVOPS_TOOLS_GITLAB_BASE_URL"
	tokenEnvironmentConstant          = "DEVOPS_TOOLS_GITLAB_TOKEN"
	concurrencyEnvironmentConstant    = "DEVOPS_TOOLS_GITLAB_UPDATE_BRANCHES_PROJECT_CONCURRENCY"
	configurationHomeEnvironment      = "XDG_CONFIG_HOME"
	testConfigurationContentConstant  = "tools:\n  gitlab:\n    base_url: https://gitlab.example.com\n    update_branches:\n      mapping_file: branches.yaml\n      project_concurrency: 3\n"
)

func TestEmbeddedDefaultsMatchCommandDefaults(testInstance *testing.T) {
	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)
	require.NoError(testInstance, viperInstance.ReadConfig(bytes.NewReader(configurationData)))

	var configuration cli.ApplicationConfiguration
	require.NoError(testInstance, viperInstance.Unmarshal(&configuration))

	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", configuration.Common.LogFormat)
	require.Equal(testInstance, gitlabcmd.DefaultToolsConfiguration(), configuration.Tools.GitLab)
}

func TestEmbeddedDefaultsDeclareEveryConfigurationKey(testInstance *testing.T) {
	configurationData, _ := cli.EmbeddedDefaultConfiguration()
	var document map[string]any
	require.NoError(testInstance, yaml.Unmarshal(configurationData, &document))

	gitLabSection := document["tools"].(map[string]any)["gitlab"].(map[string]any)
	embeddedKeys := flattenKeys("tools.gitlab", gitLabSection)

	var expectedKeys []string
	for key := range gitlabcmd.DefaultConfigurationValues("tools.gitlab") {
		expectedKeys = append(expectedKeys, key)
	}
	sort.Strings(expectedKeys)
	require.Equal(testInstance, expectedKeys, embeddedKeys)

	var updateBranches reconcile.CommandConfiguration
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &updateBranches})
	require.NoError(testInstance, decoderError)
	require.NoError(testInstance, decoder.Decode(gitLabSection["update_branches"]))
	require.Equal(testInstance, reconcile.DefaultCommandConfiguration(), updateBranches)
}

func TestApplicationConfigurationPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		writeFile           bool
		environment         map[string]string
		expectedBaseURL     string
		expectedToken       string
		expectedMappingFile string
		expectedConcurrency int
	}{
		{
			name:                "embedded_defaults",
			expectedMappingFile: "gitlab-update-branch-config.json",
			expectedConcurrency: 1,
		},
		{
			name:                "configuration_file",
			writeFile:           true,
			expectedBaseURL:     testBaseURLConstant,
			expectedMappingFile: "branches.yaml",
			expectedConcurrency: 3,
		},
		{
			name:      "environment_overrides_file",
			writeFile: true,
			environment: map[string]string{
				baseURLEnvironmentConstant:     testOverrideURLConstant,
				tokenEnvironmentConstant:       testTokenConstant,
				concurrencyEnvironmentConstant: "2",
			},
			expectedBaseURL:     testOverrideURLConstant,
			expectedToken:       testTokenConstant,
			expectedMappingFile: "branches.yaml",
			expectedConcurrency: 2,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(subtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			workingDirectory := subtest.TempDir()
			subtest.Setenv(configurationHomeEnvironment, subtest.TempDir())
			for name, value := range testCase.environment {
				subtest.Setenv(name, value)
			}
			if testCase.writeFile {
				require.NoError(subtest, os.WriteFile(filepath.Join(workingDirectory, testConfigurationFileNameConstant), []byte(testConfigurationContentConstant), 0o600))
			}
			subtest.Chdir(workingDirectory)

			application, applicationError := cli.NewApplication()
			require.NoError(subtest, applicationError)
			require.NoError(subtest, application.InitializeForCommand(testUpdateBranchesCommandConstant))

			gitLab := application.Configuration().Tools.GitLab
			require.Equal(subtest, testCase.expectedBaseURL, gitLab.BaseURL)
			require.Equal(subtest, testCase.expectedToken, gitLab.Token)
			require.Equal(subtest, testCase.expectedMappingFile, gitLab.UpdateBranches.MappingFile)
			require.Equal(subtest, testCase.expectedConcurrency, gitLab.UpdateBranches.ProjectConcurrency)
		})
	}
}

func TestApplicationExecuteErrors(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedError string
	}{
		{name: "root_prints_help", arguments: []string{}},
		{name: "invalid_log_format", arguments: []string{"--log-format", "xml", "gitlab", "export-projects"}, expectedError: "unable to create logger"},
		{name: "invalid_log_level", arguments: []string{"--log-level", "verbose", "gitlab", "export-projects"}, expectedError: "unable to create logger"},
		{name: "missing_configuration_file", arguments: []string{"--config", "/nonexistent/devops.yaml", "gitlab", "export-projects"}, expectedError: "unable to load configuration"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(subtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			subtest.Setenv(configurationHomeEnvironment, subtest.TempDir())
			subtest.Chdir(subtest.TempDir())

			application, applicationError := cli.NewApplication()
			require.NoError(subtest, applicationError)
			application.SetArguments(testCase.arguments)

			executionError := application.Execute()

			if len(testCase.expectedError) == 0 {
				require.NoError(subtest, executionError)
				return
			}
			require.ErrorContains(subtest, executionError, testCase.expectedError)
		})
	}
}

func TestInitializeForCommandRejectsUnknownCommand(testInstance *testing.T) {
	application, applicationError := cli.NewApplication()
	require.NoError(testInstance, applicationError)

	require.Error(testInstance, application.InitializeForCommand("gitlab rename-branches"))
}

func flattenKeys(prefix string, section map[string]any) []string {
	var keys []string
	for key, value := range section {
		fullKey := prefix + "." + key
		if nested, isSection := value.(map[string]any); isSection {
			keys = append(keys, flattenKeys(fullKey, nested)...)
			continue
		}
		keys = append(keys, fullKey)
	}
	sort.Strings(keys)
	return keys
}
