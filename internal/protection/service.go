package protection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/devops/internal/branchmap"
	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	protectorMissingMessageConstant    = "GitLab client not configured"
	blankBranchMessageConstant         = "branch name is empty"
	failureEntryTemplateConstant       = "project %d (%s) branch %q: %s"
	logMessageBranchProtectedConstant  = "Branch protected"
	logMessageAlreadyProtectedConstant = "Branch already protected"
	logMessageProtectFailedConstant    = "Branch protection failed"
	logFieldProjectIDConstant          = "project_id"
	logFieldProjectNameConstant        = "project_name"
	logFieldBranchConstant             = "branch"
)

var errProtectorMissing = errors.New(protectorMissingMessageConstant)

// BranchProtector protects a single branch.
type BranchProtector interface {
	ProtectBranch(executionContext context.Context, projectID int, branchName string, options gitlabapi.ProtectionOptions) error
}

// ProtectOutcome reports the result for one branch.
type ProtectOutcome struct {
	ProjectID        int
	ProjectName      string
	BranchName       string
	Success          bool
	AlreadyProtected bool
	Error            string
}

// ServiceDependencies describes the collaborators of Service.
type ServiceDependencies struct {
	Logger    *zap.Logger
	Protector BranchProtector
}

// Service applies branch protection one branch at a time.
type Service struct {
	logger    *zap.Logger
	protector BranchProtector
}

// NewService constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Protector == nil {
		return nil, errProtectorMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, protector: dependencies.Protector}, nil
}

// Protect processes every listed branch in mapping order. A branch GitLab
// reports as already protected counts as a success. Once executionContext is
// cancelled the remaining branches are reported as failed without a call.
func (service *Service) Protect(executionContext context.Context, mappings []branchmap.ProtectedBranchMapping, options gitlabapi.ProtectionOptions) []ProtectOutcome {
	var outcomes []ProtectOutcome
	for _, mapping := range mappings {
		for _, branchName := range mapping.Branches {
			outcomes = append(outcomes, service.protect(executionContext, mapping, strings.TrimSpace(branchName), options))
		}
	}
	return outcomes
}

func (service *Service) protect(executionContext context.Context, mapping branchmap.ProtectedBranchMapping, branchName string, options gitlabapi.ProtectionOptions) ProtectOutcome {
	outcome := ProtectOutcome{ProjectID: mapping.ProjectID, ProjectName: mapping.ProjectName, BranchName: branchName}
	if len(branchName) == 0 {
		outcome.Error = blankBranchMessageConstant
		return outcome
	}
	if contextError := executionContext.Err(); contextError != nil {
		outcome.Error = contextError.Error()
		return outcome
	}

	fields := []zap.Field{
		zap.Int(logFieldProjectIDConstant, mapping.ProjectID),
		zap.String(logFieldProjectNameConstant, mapping.ProjectName),
		zap.String(logFieldBranchConstant, branchName),
	}

	protectError := service.protector.ProtectBranch(executionContext, mapping.ProjectID, branchName, options)
	switch {
	case protectError == nil:
		outcome.Success = true
		service.logger.Info(logMessageBranchProtectedConstant, fields...)
	case gitlabapi.IsConflict(protectError):
		outcome.Success = true
		outcome.AlreadyProtected = true
		service.logger.Info(logMessageAlreadyProtectedConstant, fields...)
	default:
		outcome.Error = protectError.Error()
		service.logger.Warn(logMessageProtectFailedConstant, append(fields, zap.Error(protectError))...)
	}
	return outcome
}

// Failures joins every unsuccessful outcome into one error, or returns nil.
func Failures(outcomes []ProtectOutcome) error {
	var failures []error
	for _, outcome := range outcomes {
		if outcome.Success {
			continue
		}
		failures = append(failures, fmt.Errorf(failureEntryTemplateConstant, outcome.ProjectID, outcome.ProjectName, outcome.BranchName, outcome.Error))
	}
	return errors.Join(failures...)
}
