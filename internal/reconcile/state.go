package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	hostClientMissingMessageConstant   = "GitLab client not configured"
	projectReadErrorTemplateConstant   = "unable to read project %d: %w"
	projectNotFoundTemplateConstant    = "project %d not found"
	projectForbiddenTemplateConstant   = "project %d is not accessible with the configured token"
	branchListingErrorTemplateConstant = "unable to list branches of project %d: %w"
)

var errHostClientMissing = errors.New(hostClientMissingMessageConstant)

// RepositoryState is a point-in-time view of a project's branches.
type RepositoryState struct {
	ProjectID           int
	Name                string
	DefaultBranch       string
	ExistingBranchNames map[string]struct{}
}

// HasBranch reports whether branchName exists in the project.
func (state RepositoryState) HasBranch(branchName string) bool {
	_, exists := state.ExistingBranchNames[branchName]
	return exists
}

// StateReader fetches repository state from GitLab. Every call goes to the
// host; nothing is cached.
type StateReader struct {
	Host HostClient
}

// Read returns the project name, default branch and branch set of projectID.
func (reader StateReader) Read(executionContext context.Context, projectID int) (RepositoryState, error) {
	if reader.Host == nil {
		return RepositoryState{}, errHostClientMissing
	}

	project, projectError := reader.Host.GetProject(executionContext, projectID)
	if projectError != nil {
		switch {
		case gitlabapi.IsNotFound(projectError):
			return RepositoryState{}, fmt.Errorf(projectNotFoundTemplateConstant, projectID)
		case gitlabapi.IsForbidden(projectError):
			return RepositoryState{}, fmt.Errorf(projectForbiddenTemplateConstant, projectID)
		default:
			return RepositoryState{}, fmt.Errorf(projectReadErrorTemplateConstant, projectID, projectError)
		}
	}

	branches, branchesError := reader.Host.ListBranches(executionContext, projectID)
	if branchesError != nil {
		return RepositoryState{}, fmt.Errorf(branchListingErrorTemplateConstant, projectID, branchesError)
	}

	branchNames := make(map[string]struct{}, len(branches))
	for _, branch := range branches {
		branchNames[branch.Name] = struct{}{}
	}

	return RepositoryState{
		ProjectID:           project.ID,
		Name:                project.Name,
		DefaultBranch:       project.DefaultBranch,
		ExistingBranchNames: branchNames,
	}, nil
}
