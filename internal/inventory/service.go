package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	listerMissingMessageConstant       = "GitLab client not configured"
	projectListingErrorTemplate        = "unable to list projects: %w"
	branchListingErrorTemplate         = "unable to list branches of project %d: %w"
	hookListingErrorTemplate           = "unable to list hooks of project %d: %w"
	logMessageProjectsExportedConstant = "Projects exported"
	logFieldProjectCountConstant       = "projects"
)

var errListerMissing = errors.New(listerMissingMessageConstant)

// ProjectInfo is one exported project.
type ProjectInfo struct {
	ProjectID     int      `json:"projectId" yaml:"projectId"`
	ProjectName   string   `json:"projectName" yaml:"projectName"`
	DefaultBranch string   `json:"defaultBranch" yaml:"defaultBranch"`
	Branches      []string `json:"branches" yaml:"branches"`
	Hooks         []string `json:"hooks" yaml:"hooks"`
}

// ProjectLister lists projects, branches and webhooks.
type ProjectLister interface {
	ListProjects(executionContext context.Context) ([]gitlabapi.Project, error)
	ListBranches(executionContext context.Context, projectID int) ([]gitlabapi.Branch, error)
	ListProjectHooks(executionContext context.Context, projectID int) ([]gitlabapi.Hook, error)
}

// ServiceDependencies describes the collaborators of Service.
type ServiceDependencies struct {
	Logger *zap.Logger
	Lister ProjectLister
}

// Service collects project snapshots.
type Service struct {
	logger *zap.Logger
	lister ProjectLister
}

// NewService constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Lister == nil {
		return nil, errListerMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, lister: dependencies.Lister}, nil
}

// Export lists every project and fetches its branches and hooks concurrently.
// Results keep the project listing order.
func (service *Service) Export(executionContext context.Context) ([]ProjectInfo, error) {
	projects, listError := service.lister.ListProjects(executionContext)
	if listError != nil {
		return nil, fmt.Errorf(projectListingErrorTemplate, listError)
	}

	infos := make([]ProjectInfo, len(projects))
	group, groupContext := errgroup.WithContext(executionContext)
	for projectIndex := range projects {
		project := projects[projectIndex]
		group.Go(func() error {
			info, describeError := service.describe(groupContext, project)
			if describeError != nil {
				return describeError
			}
			infos[projectIndex] = info
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}

	service.logger.Info(logMessageProjectsExportedConstant, zap.Int(logFieldProjectCountConstant, len(infos)))
	return infos, nil
}

func (service *Service) describe(executionContext context.Context, project gitlabapi.Project) (ProjectInfo, error) {
	branches, branchesError := service.lister.ListBranches(executionContext, project.ID)
	if branchesError != nil {
		return ProjectInfo{}, fmt.Errorf(branchListingErrorTemplate, project.ID, branchesError)
	}
	hooks, hooksError := service.lister.ListProjectHooks(executionContext, project.ID)
	if hooksError != nil {
		return ProjectInfo{}, fmt.Errorf(hookListingErrorTemplate, project.ID, hooksError)
	}

	info := ProjectInfo{
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		DefaultBranch: project.DefaultBranch,
		Branches:      make([]string, 0, len(branches)),
		Hooks:         make([]string, 0, len(hooks)),
	}
	for _, branch := range branches {
		info.Branches = append(info.Branches, branch.Name)
	}
	for _, hook := range hooks {
		info.Hooks = append(info.Hooks, hook.URL)
	}
	return info, nil
}
