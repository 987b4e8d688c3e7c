package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	operationStartedMessageTemplateConstant   = "Running %s"
	operationCompletedMessageTemplateConstant = "Completed %s"
	operationFailedMessageTemplateConstant    = "%s failed: %s"
	operationLabelTemplateConstant            = "%s (%s)"
	projectDetailTemplateConstant             = "project %d"
	branchDetailTemplateConstant              = "branch %s"
	referenceDetailTemplateConstant           = "from %s"
	detailSeparatorConstant                   = ", "
	unknownFailureMessageConstant             = "unknown error"
)

// OperationEventFormatter builds human-readable messages for GitLab operation events.
type OperationEventFormatter struct{}

// BuildStartedMessage formats the message describing an operation about to run.
func (formatter OperationEventFormatter) BuildStartedMessage(event gitlabapi.OperationEvent) string {
	return fmt.Sprintf(operationStartedMessageTemplateConstant, formatter.formatLabel(event))
}

// BuildSuccessMessage formats the message describing a completed operation.
func (formatter OperationEventFormatter) BuildSuccessMessage(event gitlabapi.OperationEvent) string {
	return fmt.Sprintf(operationCompletedMessageTemplateConstant, formatter.formatLabel(event))
}

// BuildFailureMessage formats the message describing a failed operation.
func (formatter OperationEventFormatter) BuildFailureMessage(event gitlabapi.OperationEvent, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(operationFailedMessageTemplateConstant, formatter.formatLabel(event), failureMessage)
}

func (formatter OperationEventFormatter) formatLabel(event gitlabapi.OperationEvent) string {
	details := make([]string, 0, 3)
	if event.ProjectID > 0 {
		details = append(details, fmt.Sprintf(projectDetailTemplateConstant, event.ProjectID))
	}
	if branch := strings.TrimSpace(event.Branch); len(branch) > 0 {
		details = append(details, fmt.Sprintf(branchDetailTemplateConstant, branch))
	}
	if reference := strings.TrimSpace(event.Reference); len(reference) > 0 {
		details = append(details, fmt.Sprintf(referenceDetailTemplateConstant, reference))
	}
	if len(details) == 0 {
		return string(event.Operation)
	}
	return fmt.Sprintf(operationLabelTemplateConstant, event.Operation, strings.Join(details, detailSeparatorConstant))
}

// ConsoleOperationEventLogger renders GitLab operation events through a zap logger configured for console output.
type ConsoleOperationEventLogger struct {
	logger    *zap.Logger
	formatter OperationEventFormatter
}

// NewConsoleOperationEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleOperationEventLogger(logger *zap.Logger) *ConsoleOperationEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleOperationEventLogger{logger: logger, formatter: OperationEventFormatter{}}
}

// OperationStarted implements gitlabapi.OperationObserver.
func (eventLogger *ConsoleOperationEventLogger) OperationStarted(event gitlabapi.OperationEvent) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Debug(eventLogger.formatter.BuildStartedMessage(event))
}

// OperationCompleted implements gitlabapi.OperationObserver.
func (eventLogger *ConsoleOperationEventLogger) OperationCompleted(event gitlabapi.OperationEvent) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(event))
}

// OperationFailed implements gitlabapi.OperationObserver.
func (eventLogger *ConsoleOperationEventLogger) OperationFailed(event gitlabapi.OperationEvent, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(event, failure))
}
