package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	overwriteNotConfirmedMessageConstant  = "target branch exists and overwrite not confirmed"
	createBranchErrorTemplateConstant     = "unable to create %q from %q: %w"
	deleteBranchErrorTemplateConstant     = "unable to delete %q: %w"
	readDefaultBranchErrorTemplate        = "unable to read default branch: %w"
	rehomeDefaultBranchErrorTemplate      = "unable to move default branch from %q to %q: %w"
	restoreDefaultBranchErrorTemplate     = "unable to restore default branch to %q (left on %q): %w"
	defaultBranchLeftOnSourceTemplate     = "default branch left on %q"
	logMessageBranchRewrittenConstant     = "Branch rewritten"
	logMessageBranchRewriteFailedConstant = "Branch rewrite failed"
	logMessageDefaultBranchRehomed        = "Default branch moved to source during hard reset"
	logMessageDefaultBranchRestored       = "Default branch restored"
	logFieldProjectIDConstant             = "project_id"
	logFieldProjectNameConstant           = "project_name"
	logFieldTargetBranchConstant          = "target_branch"
	logFieldSourceBranchConstant          = "source_branch"
	logFieldModeConstant                  = "mode"
	logFieldDefaultBranchConstant         = "default_branch"
)

// RewriteMode names the strategy applied to a target branch.
type RewriteMode string

// Supported rewrite modes.
const (
	RewriteModeCreate    RewriteMode = "create"
	RewriteModeHardReset RewriteMode = "hard-reset"
	RewriteModeSkipped   RewriteMode = "skipped"
)

var errOverwriteNotConfirmed = errors.New(overwriteNotConfirmedMessageConstant)

// RewriteRequest describes one target branch to (re)create from its source.
type RewriteRequest struct {
	ProjectID    int
	ProjectName  string
	OldBranch    string
	NewBranch    string
	TargetExists bool
	MayOverwrite bool
}

// RewriteOutcome records the result of one branch operation.
type RewriteOutcome struct {
	ProjectID    int
	ProjectName  string
	BranchName   string
	SourceBranch string
	Mode         RewriteMode
	Success      bool
	Error        string
}

// RewriteExecutor creates or hard-resets target branches.
type RewriteExecutor struct {
	Host   HostClient
	Logger *zap.Logger
}

// Rewrite creates NewBranch from the tip of OldBranch, deleting an existing
// NewBranch first when overwriting is allowed. Once started the host calls
// ignore cancellation of executionContext so a delete is never left without
// its recreate. Completed steps are not rolled back.
func (executor RewriteExecutor) Rewrite(executionContext context.Context, request RewriteRequest) RewriteOutcome {
	outcome := RewriteOutcome{
		ProjectID:    request.ProjectID,
		ProjectName:  request.ProjectName,
		BranchName:   request.NewBranch,
		SourceBranch: request.OldBranch,
		Mode:         RewriteModeCreate,
	}

	var rewriteError error
	switch {
	case executor.Host == nil:
		rewriteError = errHostClientMissing
	case request.TargetExists && !request.MayOverwrite:
		outcome.Mode = RewriteModeSkipped
		rewriteError = errOverwriteNotConfirmed
	case request.TargetExists:
		outcome.Mode = RewriteModeHardReset
		rewriteError = executor.hardReset(context.WithoutCancel(executionContext), request)
	default:
		rewriteError = executor.create(context.WithoutCancel(executionContext), request)
	}

	if rewriteError != nil {
		outcome.Error = rewriteError.Error()
		executor.logger().Warn(
			logMessageBranchRewriteFailedConstant,
			zap.Int(logFieldProjectIDConstant, request.ProjectID),
			zap.String(logFieldProjectNameConstant, request.ProjectName),
			zap.String(logFieldTargetBranchConstant, request.NewBranch),
			zap.String(logFieldSourceBranchConstant, request.OldBranch),
			zap.String(logFieldModeConstant, string(outcome.Mode)),
			zap.Error(rewriteError),
		)
		return outcome
	}

	outcome.Success = true
	executor.logger().Info(
		logMessageBranchRewrittenConstant,
		zap.Int(logFieldProjectIDConstant, request.ProjectID),
		zap.String(logFieldProjectNameConstant, request.ProjectName),
		zap.String(logFieldTargetBranchConstant, request.NewBranch),
		zap.String(logFieldSourceBranchConstant, request.OldBranch),
		zap.String(logFieldModeConstant, string(outcome.Mode)),
	)
	return outcome
}

func (executor RewriteExecutor) create(executionContext context.Context, request RewriteRequest) error {
	if createError := executor.Host.CreateBranch(executionContext, request.ProjectID, request.NewBranch, request.OldBranch); createError != nil {
		return fmt.Errorf(createBranchErrorTemplateConstant, request.NewBranch, request.OldBranch, createError)
	}
	return nil
}

func (executor RewriteExecutor) hardReset(executionContext context.Context, request RewriteRequest) error {
	project, projectError := executor.Host.GetProject(executionContext, request.ProjectID)
	if projectError != nil {
		return fmt.Errorf(readDefaultBranchErrorTemplate, projectError)
	}

	guard := &defaultBranchGuard{
		host:         executor.Host,
		logger:       executor.logger(),
		projectID:    request.ProjectID,
		targetBranch: request.NewBranch,
		sourceBranch: request.OldBranch,
	}

	if project.DefaultBranch == request.NewBranch {
		if rehomeError := guard.rehome(executionContext); rehomeError != nil {
			return rehomeError
		}
	}

	deleteError := executor.Host.DeleteBranch(executionContext, request.ProjectID, request.NewBranch)
	if deleteError != nil && !gitlabapi.IsNotFound(deleteError) {
		return errors.Join(fmt.Errorf(deleteBranchErrorTemplateConstant, request.NewBranch, deleteError), guard.restore(executionContext))
	}

	if createError := executor.create(executionContext, request); createError != nil {
		return errors.Join(createError, guard.abandon())
	}

	return guard.restore(executionContext)
}

func (executor RewriteExecutor) logger() *zap.Logger {
	if executor.Logger == nil {
		return zap.NewNop()
	}
	return executor.Logger
}

type guardState int

const (
	guardStable guardState = iota
	guardRehomed
)

// defaultBranchGuard moves the default branch off a target branch for the
// duration of a hard reset. The default only ever points at a ref that exists.
type defaultBranchGuard struct {
	host         HostClient
	logger       *zap.Logger
	projectID    int
	targetBranch string
	sourceBranch string
	state        guardState
}

func (guard *defaultBranchGuard) rehome(executionContext context.Context) error {
	if setError := guard.host.SetDefaultBranch(executionContext, guard.projectID, guard.sourceBranch); setError != nil {
		return fmt.Errorf(rehomeDefaultBranchErrorTemplate, guard.targetBranch, guard.sourceBranch, setError)
	}
	guard.state = guardRehomed
	guard.logger.Debug(
		logMessageDefaultBranchRehomed,
		zap.Int(logFieldProjectIDConstant, guard.projectID),
		zap.String(logFieldDefaultBranchConstant, guard.sourceBranch),
	)
	return nil
}

// restore points the default back at the target branch. Callers invoke it only
// while the target ref exists.
func (guard *defaultBranchGuard) restore(executionContext context.Context) error {
	if guard.state != guardRehomed {
		return nil
	}
	if setError := guard.host.SetDefaultBranch(executionContext, guard.projectID, guard.targetBranch); setError != nil {
		return fmt.Errorf(restoreDefaultBranchErrorTemplate, guard.targetBranch, guard.sourceBranch, setError)
	}
	guard.state = guardStable
	guard.logger.Debug(
		logMessageDefaultBranchRestored,
		zap.Int(logFieldProjectIDConstant, guard.projectID),
		zap.String(logFieldDefaultBranchConstant, guard.targetBranch),
	)
	return nil
}

// abandon leaves the default on the source branch because the target ref is gone.
func (guard *defaultBranchGuard) abandon() error {
	if guard.state != guardRehomed {
		return nil
	}
	return fmt.Errorf(defaultBranchLeftOnSourceTemplate, guard.sourceBranch)
}
