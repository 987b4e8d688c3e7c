package inventory

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/devops/internal/branchmap"
	"github.com/temirov/devops/internal/gitlabapi"
	"github.com/temirov/devops/internal/gitlabapi/dependencies"
	"github.com/temirov/devops/internal/utils"
	pathutils "github.com/temirov/devops/internal/utils/path"
)

const (
	commandUseConstant              = "export-projects"
	commandShortDescriptionConstant = "Export every GitLab project with its branches and webhooks"
	commandLongDescriptionConstant  = "export-projects writes the id, name, default branch, branch names and webhook URLs of every project visible to the token into a JSON or YAML file."
	outputFileFlagNameConstant      = "output-file"
	outputFileFlagUsageConstant     = "Export file, relative to the output directory unless absolute"
	exportErrorTemplateConstant     = "project export failed: %w"
	exportWriteErrorTemplate        = "unable to write project export: %w"
	exportCompletedTemplateConstant = "Exported %d project(s) to %s\n"
	logMessageExportWritten         = "Project export written"
	logFieldOutputFileConstant      = "output_file"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the export-projects command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	ConnectionProvider           func() gitlabapi.Configuration
	OutputDirectoryProvider      func() string
	Lister                       ProjectLister
	HomeExpander                 *pathutils.HomeExpander
}

// Build constructs the export-projects command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	command.Flags().String(outputFileFlagNameConstant, "", outputFileFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(outputFileFlagNameConstant) {
		configuration.OutputFile, _ = command.Flags().GetString(outputFileFlagNameConstant)
		configuration = configuration.Sanitize()
	}

	logger := builder.resolveLogger()
	lister, listerError := builder.resolveLister(logger)
	if listerError != nil {
		return listerError
	}

	service, serviceError := NewService(ServiceDependencies{Logger: logger, Lister: lister})
	if serviceError != nil {
		return serviceError
	}

	infos, exportError := service.Export(command.Context())
	if exportError != nil {
		return fmt.Errorf(exportErrorTemplateConstant, exportError)
	}

	expander := builder.HomeExpander
	if expander == nil {
		expander = pathutils.NewHomeExpander()
	}
	outputPath := expander.ResolveFile(builder.resolveOutputDirectory(), configuration.OutputFile)
	if writeError := branchmap.WriteFile(outputPath, infos); writeError != nil {
		return fmt.Errorf(exportWriteErrorTemplate, writeError)
	}

	logger.Info(logMessageExportWritten, zap.String(logFieldOutputFileConstant, outputPath))
	return utils.NewConsoleWriter(command.OutOrStdout()).Printf(exportCompletedTemplateConstant, len(infos), outputPath)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveLister(logger *zap.Logger) (ProjectLister, error) {
	if builder.Lister != nil {
		return builder.Lister, nil
	}

	var connection gitlabapi.Configuration
	if builder.ConnectionProvider != nil {
		connection = builder.ConnectionProvider()
	}
	humanReadableLogging := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()
	client, clientError := dependencies.ResolveClient(connection, logger, humanReadableLogging)
	if clientError != nil {
		return nil, clientError
	}
	return client, nil
}

func (builder *CommandBuilder) resolveOutputDirectory() string {
	if builder.OutputDirectoryProvider == nil {
		return ""
	}
	return builder.OutputDirectoryProvider()
}
