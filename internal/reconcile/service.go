package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/devops/internal/branchmap"
)

const (
	validationFailedTemplateConstant     = "validation failed for %d project(s):\n%s"
	validationFailedItemTemplateConstant = "  - %s"
	confirmationDeclinedMessageConstant  = "overwrite of existing branches declined"
	confirmationErrorTemplateConstant    = "confirmation failed: %w"
	rewriteFailureTemplateConstant       = "project %d (%s) branch %q: %s"
	gateMissingMessageConstant           = "confirmation gate not configured"
	logMessageValidationFailedConstant   = "Branch mapping validation failed"
	logMessageValidationPassedConstant   = "Branch mapping validated"
	logMessageConfirmationDeclined       = "Overwrite declined"
	logMessageReconciliationDoneConstant = "Reconciliation finished"
	logFieldErrorCountConstant           = "errors"
	logFieldPendingCountConstant         = "pending"
	logFieldProjectCountConstant         = "projects"
	logFieldOutcomeCountConstant         = "outcomes"
	logFieldFailureCountConstant         = "failures"
)

var (
	// ErrConfirmationDeclined indicates the operator refused to overwrite existing branches.
	ErrConfirmationDeclined = errors.New(confirmationDeclinedMessageConstant)
	errGateMissing          = errors.New(gateMissingMessageConstant)
)

// ValidationFailedError carries every fatal validation finding.
type ValidationFailedError struct {
	Errors []ValidationError
}

// Error lists each failing project on its own line.
func (failure ValidationFailedError) Error() string {
	items := make([]string, 0, len(failure.Errors))
	for _, validationError := range failure.Errors {
		items = append(items, fmt.Sprintf(validationFailedItemTemplateConstant, validationError.Message))
	}
	return fmt.Sprintf(validationFailedTemplateConstant, len(failure.Errors), strings.Join(items, "\n"))
}

// Gate decides whether pending conflicts may be overwritten.
type Gate interface {
	Confirm(pending []PendingConflict) (bool, error)
}

// Summary aggregates the outcomes of one reconciliation.
type Summary struct {
	Report   ValidationReport
	Outcomes []RewriteOutcome
}

// Failures returns the outcomes that did not succeed.
func (summary Summary) Failures() []RewriteOutcome {
	var failures []RewriteOutcome
	for _, outcome := range summary.Outcomes {
		if !outcome.Success {
			failures = append(failures, outcome)
		}
	}
	return failures
}

// Err joins one error per failed branch, or returns nil.
func (summary Summary) Err() error {
	var failureErrors []error
	for _, failure := range summary.Failures() {
		failureErrors = append(failureErrors, fmt.Errorf(rewriteFailureTemplateConstant, failure.ProjectID, failure.ProjectName, failure.BranchName, failure.Error))
	}
	return errors.Join(failureErrors...)
}

// ServiceDependencies describes the collaborators of a Reconciler.
type ServiceDependencies struct {
	Logger    *zap.Logger
	Validator Validator
	Gate      Gate
	Sequencer BatchSequencer
}

// Reconciler validates, confirms and executes a branch mapping.
type Reconciler struct {
	logger    *zap.Logger
	validator Validator
	gate      Gate
	sequencer BatchSequencer
}

// NewReconciler constructs a Reconciler.
func NewReconciler(dependencies ServiceDependencies) (*Reconciler, error) {
	if dependencies.Validator.States == nil {
		return nil, errHostClientMissing
	}
	if dependencies.Sequencer.Rewriter == nil {
		return nil, errHostClientMissing
	}
	if dependencies.Gate == nil {
		return nil, errGateMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reconciler{
		logger:    logger,
		validator: dependencies.Validator,
		gate:      dependencies.Gate,
		sequencer: dependencies.Sequencer,
	}, nil
}

// Reconcile validates mappings and, when nothing is fatal and any overwrite is
// confirmed, rewrites every branch. No host mutation happens unless validation
// passes and the gate accepts.
func (reconciler *Reconciler) Reconcile(executionContext context.Context, mappings []branchmap.ProjectMapping) (Summary, error) {
	report := reconciler.validator.Validate(executionContext, mappings)
	summary := Summary{Report: report}

	if report.HasErrors() {
		reconciler.logger.Error(
			logMessageValidationFailedConstant,
			zap.Int(logFieldErrorCountConstant, len(report.Errors)),
			zap.Int(logFieldPendingCountConstant, len(report.Pending)),
		)
		return summary, ValidationFailedError{Errors: report.Errors}
	}

	reconciler.logger.Info(
		logMessageValidationPassedConstant,
		zap.Int(logFieldProjectCountConstant, len(mappings)),
		zap.Int(logFieldPendingCountConstant, len(report.Pending)),
	)

	confirmed, confirmationError := reconciler.gate.Confirm(report.Pending)
	if confirmationError != nil {
		return summary, fmt.Errorf(confirmationErrorTemplateConstant, confirmationError)
	}
	if !confirmed {
		reconciler.logger.Warn(logMessageConfirmationDeclined, zap.Int(logFieldPendingCountConstant, len(report.Pending)))
		return summary, ErrConfirmationDeclined
	}

	summary.Outcomes = reconciler.sequencer.Run(executionContext, mappings, report.ConflictSet(), confirmed)

	reconciler.logger.Info(
		logMessageReconciliationDoneConstant,
		zap.Int(logFieldOutcomeCountConstant, len(summary.Outcomes)),
		zap.Int(logFieldFailureCountConstant, len(summary.Failures())),
	)

	return summary, nil
}
