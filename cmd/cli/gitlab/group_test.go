package gitlab_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/devops/cmd/cli/gitlab"
	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	subtestNameTemplateConstant = "%d_%s"
	testBaseURLConstant         = "https://gitlab.example.com"
)

func TestCommandGroupRegistersSubcommands(testInstance *testing.T) {
	builder := gitlab.CommandGroupBuilder{LoggerProvider: zap.NewNop}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var names []string
	for _, subcommand := range command.Commands() {
		names = append(names, subcommand.Name())
	}
	require.ElementsMatch(testInstance, []string{"update-branches", "protect-branches", "export-projects"}, names)
}

func TestCommandGroupRequiresToken(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "export_projects", arguments: []string{"export-projects"}},
		{name: "update_branches", arguments: []string{"update-branches", "--mapping-file", "missing.json"}},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(subtestNameTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			outputDirectory := subtest.TempDir()
			builder := gitlab.CommandGroupBuilder{
				LoggerProvider: zap.NewNop,
				ConfigurationProvider: func() gitlab.ToolsConfiguration {
					configuration := gitlab.DefaultToolsConfiguration()
					configuration.BaseURL = testBaseURLConstant
					configuration.OutputDirectory = outputDirectory
					return configuration
				},
			}
			command, buildError := builder.Build()
			require.NoError(subtest, buildError)
			command.SetContext(context.Background())
			command.SetOut(&bytes.Buffer{})
			command.SetErr(&bytes.Buffer{})
			command.SetArgs(testCase.arguments)

			executionError := command.Execute()

			require.Error(subtest, executionError)
			if testCase.name == "export_projects" {
				require.ErrorIs(subtest, executionError, gitlabapi.ErrTokenNotConfigured)
			}
		})
	}
}

func TestToolsConfigurationConnection(testInstance *testing.T) {
	configuration := gitlab.ToolsConfiguration{BaseURL: " " + testBaseURLConstant + " ", Token: " secret "}

	require.Equal(testInstance, gitlabapi.Configuration{BaseURL: testBaseURLConstant, Token: "secret"}, configuration.Connection())
	require.Equal(testInstance, "~/Desktop/gitlab", configuration.ResolvedOutputDirectory())
}

func TestDefaultConfigurationValuesCoverEverySection(testInstance *testing.T) {
	values := gitlab.DefaultConfigurationValues("tools.gitlab")

	require.Equal(testInstance, "", values["tools.gitlab.token"])
	require.Equal(testInstance, "~/Desktop/gitlab", values["tools.gitlab.output_directory"])
	require.Equal(testInstance, "gitlab-update-branch-config.json", values["tools.gitlab.update_branches.mapping_file"])
	require.Equal(testInstance, 1, values["tools.gitlab.update_branches.project_concurrency"])
	require.Equal(testInstance, "gitlab-protected-branch-config.json", values["tools.gitlab.protect_branches.mapping_file"])
	require.Equal(testInstance, "projects.json", values["tools.gitlab.export_projects.output_file"])
}
