package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/devops/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTDEVOPS"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	testConfigFileNameConstant                     = "config.yaml"
	testBaseURLKeyConstant                         = "tools.gitlab.base_url"
	testTokenKeyConstant                           = "tools.gitlab.token"
	testConcurrencyKeyConstant                     = "tools.gitlab.update_branches.project_concurrency"
	testTokenEnvironmentVariableConstant           = "TESTDEVOPS_TOOLS_GITLAB_TOKEN"
	testConcurrencyEnvironmentVariableConstant     = "TESTDEVOPS_TOOLS_GITLAB_UPDATE_BRANCHES_PROJECT_CONCURRENCY"
	testEmbeddedURLConstant                        = "https://embedded.example.com"
	testFileURLConstant                            = "https://file.example.com"
	testConfigurationTemplateConstant              = "tools:\n  gitlab:\n    base_url: %s\n    update_branches:\n      project_concurrency: %d\n"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
)

type configurationFixture struct {
	Tools struct {
		GitLab struct {
			BaseURL        string `mapstructure:"base_url"`
			Token          string `mapstructure:"token"`
			UpdateBranches struct {
				ProjectConcurrency int `mapstructure:"project_concurrency"`
			} `mapstructure:"update_branches"`
		} `mapstructure:"gitlab"`
	} `mapstructure:"tools"`
}

func gitLabDefaults() map[string]any {
	return map[string]any{
		testBaseURLKeyConstant:     "",
		testTokenKeyConstant:       "",
		testConcurrencyKeyConstant: 1,
	}
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embedded            bool
		file                bool
		environment         map[string]string
		expectedBaseURL     string
		expectedToken       string
		expectedConcurrency int
	}{
		{
			name:                "defaults_are_applied",
			expectedConcurrency: 1,
		},
		{
			name:                "embedded_configuration_merges",
			embedded:            true,
			expectedBaseURL:     testEmbeddedURLConstant,
			expectedConcurrency: 2,
		},
		{
			name:                "file_overrides_embedded",
			embedded:            true,
			file:                true,
			expectedBaseURL:     testFileURLConstant,
			expectedConcurrency: 4,
		},
		{
			name:     "environment_overrides_file",
			embedded: true,
			file:     true,
			environment: map[string]string{
				testTokenEnvironmentVariableConstant:       "glpat-secret",
				testConcurrencyEnvironmentVariableConstant: "8",
			},
			expectedBaseURL:     testFileURLConstant,
			expectedToken:       "glpat-secret",
			expectedConcurrency: 8,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			searchDirectory := subtest.TempDir()
			for name, value := range testCase.environment {
				subtest.Setenv(name, value)
			}

			configurationFilePath := ""
			if testCase.file {
				configurationFilePath = filepath.Join(searchDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigurationTemplateConstant, testFileURLConstant, 4)
				require.NoError(subtest, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{searchDirectory})
			if testCase.embedded {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigurationTemplateConstant, testEmbeddedURLConstant, 2)), testConfigurationTypeConstant)
			}

			var loadedConfiguration configurationFixture
			metadata, loadError := configurationLoader.LoadConfiguration("", gitLabDefaults(), &loadedConfiguration)

			require.NoError(subtest, loadError)
			require.Equal(subtest, configurationFilePath, metadata.ConfigFileUsed)
			require.Equal(subtest, testCase.expectedBaseURL, loadedConfiguration.Tools.GitLab.BaseURL)
			require.Equal(subtest, testCase.expectedToken, loadedConfiguration.Tools.GitLab.Token)
			require.Equal(subtest, testCase.expectedConcurrency, loadedConfiguration.Tools.GitLab.UpdateBranches.ProjectConcurrency)
		})
	}
}

func TestConfigurationLoaderFailures(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		embeddedContent       string
		configurationFilePath func(directory string) string
		expectedError         string
	}{
		{
			name:            "malformed_embedded_configuration",
			embeddedContent: "tools: [unterminated",
			configurationFilePath: func(string) string {
				return ""
			},
			expectedError: "failed to merge embedded configuration",
		},
		{
			name: "explicit_file_missing",
			configurationFilePath: func(directory string) string {
				return filepath.Join(directory, "absent.yaml")
			},
			expectedError: "failed to read configuration",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			directory := subtest.TempDir()
			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{directory})
			configurationLoader.SetEmbeddedConfiguration([]byte(testCase.embeddedContent), testConfigurationTypeConstant)

			var loadedConfiguration configurationFixture
			_, loadError := configurationLoader.LoadConfiguration(testCase.configurationFilePath(directory), gitLabDefaults(), &loadedConfiguration)

			require.ErrorContains(subtest, loadError, testCase.expectedError)
		})
	}
}

func TestConfigurationLoaderSearchesPathsInOrder(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	userDirectory := testInstance.TempDir()
	userFilePath := filepath.Join(userDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(userFilePath, []byte(fmt.Sprintf(testConfigurationTemplateConstant, testFileURLConstant, 3)), 0o600))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{workingDirectory, userDirectory})

	var loadedConfiguration configurationFixture
	metadata, loadError := configurationLoader.LoadConfiguration("", gitLabDefaults(), &loadedConfiguration)

	require.NoError(testInstance, loadError)
	require.Equal(testInstance, userFilePath, metadata.ConfigFileUsed)
	require.Equal(testInstance, 3, loadedConfiguration.Tools.GitLab.UpdateBranches.ProjectConcurrency)

	workingFilePath := filepath.Join(workingDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(workingFilePath, []byte(fmt.Sprintf(testConfigurationTemplateConstant, testFileURLConstant, 5)), 0o600))

	metadata, loadError = configurationLoader.LoadConfiguration("", gitLabDefaults(), &loadedConfiguration)

	require.NoError(testInstance, loadError)
	require.Equal(testInstance, workingFilePath, metadata.ConfigFileUsed)
	require.Equal(testInstance, 5, loadedConfiguration.Tools.GitLab.UpdateBranches.ProjectConcurrency)
}
