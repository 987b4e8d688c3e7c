package gitlab

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/devops/internal/gitlabapi"
	"github.com/temirov/devops/internal/inventory"
	"github.com/temirov/devops/internal/protection"
	"github.com/temirov/devops/internal/reconcile"
)

const (
	groupUseConstant      = "gitlab"
	groupShortDescription = "Maintain branches across GitLab projects"
	groupLongDescription  = "gitlab groups subcommands that reconcile, protect and export branches of GitLab projects using the configured base URL and access token."
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandGroupBuilder assembles the gitlab command group.
type CommandGroupBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() ToolsConfiguration
}

// Build constructs the gitlab command hierarchy.
func (builder *CommandGroupBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescription,
		Long:  groupLongDescription,
	}

	updateBuilder := reconcile.CommandBuilder{
		LoggerProvider:               reconcile.LoggerProvider(builder.LoggerProvider),
		HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
		ConfigurationProvider: func() reconcile.CommandConfiguration {
			return builder.configuration().UpdateBranches
		},
		ConnectionProvider:      builder.connection,
		OutputDirectoryProvider: builder.outputDirectory,
	}
	updateCommand, updateError := updateBuilder.Build()
	if updateError != nil {
		return nil, updateError
	}
	command.AddCommand(updateCommand)

	protectBuilder := protection.CommandBuilder{
		LoggerProvider:               protection.LoggerProvider(builder.LoggerProvider),
		HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
		ConfigurationProvider: func() protection.CommandConfiguration {
			return builder.configuration().ProtectBranches
		},
		ConnectionProvider:      builder.connection,
		OutputDirectoryProvider: builder.outputDirectory,
	}
	protectCommand, protectError := protectBuilder.Build()
	if protectError != nil {
		return nil, protectError
	}
	command.AddCommand(protectCommand)

	exportBuilder := inventory.CommandBuilder{
		LoggerProvider:               inventory.LoggerProvider(builder.LoggerProvider),
		HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
		ConfigurationProvider: func() inventory.CommandConfiguration {
			return builder.configuration().ExportProjects
		},
		ConnectionProvider:      builder.connection,
		OutputDirectoryProvider: builder.outputDirectory,
	}
	exportCommand, exportError := exportBuilder.Build()
	if exportError != nil {
		return nil, exportError
	}
	command.AddCommand(exportCommand)

	return command, nil
}

func (builder *CommandGroupBuilder) configuration() ToolsConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultToolsConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandGroupBuilder) connection() gitlabapi.Configuration {
	return builder.configuration().Connection()
}

func (builder *CommandGroupBuilder) outputDirectory() string {
	return builder.configuration().ResolvedOutputDirectory()
}
