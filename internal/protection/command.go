package protection

import (
	"errors"
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
	commandUseConstant                = "protect-branches"
	commandShortDescriptionConstant   = "Protect the branches listed in a mapping file"
	commandLongDescriptionConstant    = "protect-branches reads a JSON or YAML file listing branches per GitLab project and marks each one protected with the configured push and merge access levels. Branches that are already protected are left untouched."
	mappingFileFlagNameConstant       = "mapping-file"
	mappingFileFlagUsageConstant      = "Protected branch mapping file, relative to the output directory unless absolute"
	pushAccessLevelFlagNameConstant   = "push-access-level"
	pushAccessLevelFlagUsageConstant  = "Access level allowed to push (no_access, developer, maintainer)"
	mergeAccessLevelFlagNameConstant  = "merge-access-level"
	mergeAccessLevelFlagUsageConstant = "Access level allowed to merge (no_access, developer, maintainer)"
	sampleWriteErrorTemplateConstant  = "protected branch mapping %s not found and sample could not be written: %w"
	sampleWrittenTemplateConstant     = "protected branch mapping %s not found; sample written to %s, edit it and save it as %s"
	protectionFailedTemplateConstant  = "branch protection failed:\n%w"
	logMessageSampleWrittenConstant   = "Protected branch mapping sample written"
	logFieldMappingFileConstant       = "mapping_file"
	logFieldSampleFileConstant        = "sample_file"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the protect-branches command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	ConnectionProvider           func() gitlabapi.Configuration
	OutputDirectoryProvider      func() string
	Protector                    BranchProtector
	HomeExpander                 *pathutils.HomeExpander
}

// Build constructs the protect-branches command.
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

	command.Flags().String(mappingFileFlagNameConstant, "", mappingFileFlagUsageConstant)
	command.Flags().String(pushAccessLevelFlagNameConstant, "", pushAccessLevelFlagUsageConstant)
	command.Flags().String(mergeAccessLevelFlagNameConstant, "", mergeAccessLevelFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration(command)
	options, optionsError := configuration.ProtectionOptions()
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	expander := builder.HomeExpander
	if expander == nil {
		expander = pathutils.NewHomeExpander()
	}
	mappingPath := expander.ResolveFile(builder.resolveOutputDirectory(), configuration.MappingFile)

	mappings, loadError := branchmap.LoadProtected(mappingPath)
	if errors.Is(loadError, branchmap.ErrMappingFileMissing) {
		samplePath, writeError := branchmap.WriteSample(mappingPath, branchmap.StaticProtectedTemplate())
		if writeError != nil {
			return fmt.Errorf(sampleWriteErrorTemplateConstant, mappingPath, writeError)
		}
		logger.Info(logMessageSampleWrittenConstant,
			zap.String(logFieldMappingFileConstant, mappingPath),
			zap.String(logFieldSampleFileConstant, samplePath),
		)
		return fmt.Errorf(sampleWrittenTemplateConstant, mappingPath, samplePath, mappingPath)
	}
	if loadError != nil {
		return loadError
	}

	protector, protectorError := builder.resolveProtector(logger)
	if protectorError != nil {
		return protectorError
	}
	service, serviceError := NewService(ServiceDependencies{Logger: logger, Protector: protector})
	if serviceError != nil {
		return serviceError
	}

	outcomes := service.Protect(command.Context(), mappings, options)
	if reportError := WriteReport(utils.NewConsoleWriter(command.OutOrStdout()), outcomes); reportError != nil {
		return reportError
	}
	if failureError := Failures(outcomes); failureError != nil {
		return fmt.Errorf(protectionFailedTemplateConstant, failureError)
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flags := command.Flags()
	if flags.Changed(mappingFileFlagNameConstant) {
		configuration.MappingFile, _ = flags.GetString(mappingFileFlagNameConstant)
	}
	if flags.Changed(pushAccessLevelFlagNameConstant) {
		configuration.PushAccessLevel, _ = flags.GetString(pushAccessLevelFlagNameConstant)
	}
	if flags.Changed(mergeAccessLevelFlagNameConstant) {
		configuration.MergeAccessLevel, _ = flags.GetString(mergeAccessLevelFlagNameConstant)
	}
	return configuration.Sanitize()
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

func (builder *CommandBuilder) resolveProtector(logger *zap.Logger) (BranchProtector, error) {
	if builder.Protector != nil {
		return builder.Protector, nil
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
