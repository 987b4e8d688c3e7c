package reconcile

import (
	"context"

	"github.com/temirov/devops/internal/gitlabapi"
)

// HostClient exposes the GitLab calls used during reconciliation.
type HostClient interface {
	GetProject(executionContext context.Context, projectID int) (gitlabapi.Project, error)
	ListBranches(executionContext context.Context, projectID int) ([]gitlabapi.Branch, error)
	CreateBranch(executionContext context.Context, projectID int, branchName string, reference string) error
	DeleteBranch(executionContext context.Context, projectID int, branchName string) error
	SetDefaultBranch(executionContext context.Context, projectID int, branchName string) error
}
