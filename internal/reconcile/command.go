package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/devops/internal/branchmap"
	"github.com/temirov/devops/internal/gitlabapi"
	"github.com/temirov/devops/internal/gitlabapi/dependencies"
	"github.com/temirov/devops/internal/utils"
	pathutils "github.com/temirov/devops/internal/utils/path"
)

const (
	commandUseConstant                      = "update-branches"
	commandShortDescriptionConstant         = "Recreate GitLab branches from a branch mapping file"
	commandLongDescriptionConstant          = "update-branches validates every {oldBranch, newBranch} pair of the mapping file against GitLab, asks once before overwriting existing branches, and recreates each newBranch from the tip of its oldBranch project by project."
	mappingFileFlagNameConstant             = "mapping-file"
	mappingFileFlagUsageConstant            = "Branch mapping file (JSON or YAML), relative to the output directory unless absolute"
	assumeYesFlagNameConstant               = "yes"
	assumeYesFlagUsageConstant              = "Overwrite existing target branches without prompting"
	projectConcurrencyFlagNameConstant      = "project-concurrency"
	projectConcurrencyFlagUsageConstant     = "Number of projects rewritten at the same time"
	branchConcurrencyFlagNameConstant       = "branch-concurrency"
	branchConcurrencyFlagUsageConstant      = "Number of branches of one project rewritten at the same time (0 for unlimited)"
	mappingLoadErrorTemplateConstant        = "unable to load branch mapping: %w"
	sampleWrittenTemplateConstant           = "branch mapping %s not found; sample written to %s, edit it and save it as %s"
	sampleWriteErrorTemplateConstant        = "branch mapping %s not found and sample could not be written: %w"
	reconciliationErrorTemplateConstant     = "branch update failed: %w"
	summaryWriteErrorTemplateConstant       = "unable to print summary: %w"
	declinedNoticeConstant                  = "Aborted; no branches were changed."
	logMessageLiveSampleUnavailableConstant = "Unable to build sample from GitLab, writing static template"
	logMessageSampleWrittenConstant         = "Branch mapping sample written"
	logFieldMappingFileConstant             = "mapping_file"
	logFieldSampleFileConstant              = "sample_file"
)

// CommandHost combines the GitLab calls needed by update-branches.
type CommandHost interface {
	HostClient
	ListProjects(executionContext context.Context) ([]gitlabapi.Project, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// PrompterFactory creates a prompter bound to the command input and the shared
// console output.
type PrompterFactory func(command *cobra.Command, output io.Writer) Prompter

// CommandBuilder assembles the update-branches command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	ConnectionProvider           func() gitlabapi.Configuration
	OutputDirectoryProvider      func() string
	Host                         CommandHost
	PrompterFactory              PrompterFactory
	HomeExpander                 *pathutils.HomeExpander
}

// Build constructs the update-branches command.
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
	command.Flags().Bool(assumeYesFlagNameConstant, false, assumeYesFlagUsageConstant)
	command.Flags().Int(projectConcurrencyFlagNameConstant, defaultProjectConcurrencyConstant, projectConcurrencyFlagUsageConstant)
	command.Flags().Int(branchConcurrencyFlagNameConstant, unlimitedBranchConcurrencyConstant, branchConcurrencyFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.parseConfiguration(command)
	logger := builder.resolveLogger()
	output := utils.NewConsoleWriter(command.OutOrStdout())
	mappingPath := builder.resolveHomeExpander().ResolveFile(builder.resolveOutputDirectory(), configuration.MappingFile)

	mappings, loadError := branchmap.Load(mappingPath)
	if errors.Is(loadError, branchmap.ErrMappingFileMissing) {
		return builder.writeSample(command.Context(), logger, mappingPath)
	}
	if loadError != nil {
		return fmt.Errorf(mappingLoadErrorTemplateConstant, loadError)
	}

	host, hostError := builder.resolveHost(logger)
	if hostError != nil {
		return hostError
	}

	reconciler, reconcilerError := NewReconciler(ServiceDependencies{
		Logger:    logger,
		Validator: Validator{States: StateReader{Host: host}},
		Gate: ConfirmationGate{
			Prompter:  builder.resolvePrompter(command, output),
			Output:    output,
			AssumeYes: configuration.AssumeYes,
		},
		Sequencer: BatchSequencer{
			Rewriter:           RewriteExecutor{Host: host, Logger: logger},
			ProjectConcurrency: configuration.ProjectConcurrency,
			BranchConcurrency:  configuration.BranchConcurrency,
			Logger:             logger,
		},
	})
	if reconcilerError != nil {
		return reconcilerError
	}

	summary, reconcileError := reconciler.Reconcile(command.Context(), mappings)
	if errors.Is(reconcileError, ErrConfirmationDeclined) {
		if _, writeError := fmt.Fprintln(output, declinedNoticeConstant); writeError != nil {
			return writeError
		}
		return fmt.Errorf(reconciliationErrorTemplateConstant, reconcileError)
	}
	if reconcileError != nil {
		return fmt.Errorf(reconciliationErrorTemplateConstant, reconcileError)
	}

	if summaryError := WriteSummary(output, summary); summaryError != nil {
		return fmt.Errorf(summaryWriteErrorTemplateConstant, summaryError)
	}

	if failureError := summary.Err(); failureError != nil {
		return fmt.Errorf(reconciliationErrorTemplateConstant, failureError)
	}
	return nil
}

func (builder *CommandBuilder) writeSample(executionContext context.Context, logger *zap.Logger, mappingPath string) error {
	sample := branchmap.StaticTemplate()
	if host, hostError := builder.resolveHost(logger); hostError == nil {
		liveSample, sampleError := branchmap.SampleBuilder{Lister: host}.Build(executionContext)
		if sampleError == nil {
			sample = liveSample
		} else {
			logger.Warn(logMessageLiveSampleUnavailableConstant, zap.Error(sampleError))
		}
	} else {
		logger.Warn(logMessageLiveSampleUnavailableConstant, zap.Error(hostError))
	}

	samplePath, writeError := branchmap.WriteSample(mappingPath, sample)
	if writeError != nil {
		return fmt.Errorf(sampleWriteErrorTemplateConstant, mappingPath, writeError)
	}

	logger.Info(
		logMessageSampleWrittenConstant,
		zap.String(logFieldMappingFileConstant, mappingPath),
		zap.String(logFieldSampleFileConstant, samplePath),
	)
	return fmt.Errorf(sampleWrittenTemplateConstant, mappingPath, samplePath, mappingPath)
}

func (builder *CommandBuilder) parseConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := builder.resolveConfiguration()
	if command == nil {
		return configuration
	}

	flags := command.Flags()
	if flags.Changed(mappingFileFlagNameConstant) {
		configuration.MappingFile, _ = flags.GetString(mappingFileFlagNameConstant)
	}
	if flags.Changed(assumeYesFlagNameConstant) {
		configuration.AssumeYes, _ = flags.GetBool(assumeYesFlagNameConstant)
	}
	if flags.Changed(projectConcurrencyFlagNameConstant) {
		configuration.ProjectConcurrency, _ = flags.GetInt(projectConcurrencyFlagNameConstant)
	}
	if flags.Changed(branchConcurrencyFlagNameConstant) {
		configuration.BranchConcurrency, _ = flags.GetInt(branchConcurrencyFlagNameConstant)
	}
	return configuration.Sanitize()
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

func (builder *CommandBuilder) resolveHost(logger *zap.Logger) (CommandHost, error) {
	if builder.Host != nil {
		return builder.Host, nil
	}

	var connection gitlabapi.Configuration
	if builder.ConnectionProvider != nil {
		connection = builder.ConnectionProvider()
	}
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	client, clientError := dependencies.ResolveClient(connection, logger, humanReadableLogging)
	if clientError != nil {
		return nil, clientError
	}
	return client, nil
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command, output io.Writer) Prompter {
	if builder.PrompterFactory != nil {
		return builder.PrompterFactory(command, output)
	}
	return NewIOConfirmationPrompter(command.InOrStdin(), output)
}

func (builder *CommandBuilder) resolveOutputDirectory() string {
	if builder.OutputDirectoryProvider == nil {
		return ""
	}
	return builder.OutputDirectoryProvider()
}

func (builder *CommandBuilder) resolveHomeExpander() *pathutils.HomeExpander {
	if builder.HomeExpander != nil {
		return builder.HomeExpander
	}
	return pathutils.NewHomeExpander()
}
