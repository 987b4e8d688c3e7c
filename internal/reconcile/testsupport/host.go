// Package testsupport provides an in-memory GitLab host for reconciliation tests.
package testsupport

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	gitlab "github.com/xanzy/go-gitlab"

	"github.com/temirov/devops/internal/gitlabapi"
)

const (
	fakeAPIBaseURLConstant              = "https://gitlab.test/api/v4/"
	projectPathTemplateConstant         = "projects/%d"
	branchPathTemplateConstant          = "projects/%d/repository/branches/%s"
	commitTemplateConstant              = "sha-%s"
	projectNotFoundMessageConstant      = "404 Project Not Found"
	branchNotFoundMessageConstant       = "404 Branch Not Found"
	branchExistsMessageConstant         = "Branch already exists"
	invalidReferenceMessageConstant     = "Invalid reference name"
	defaultBranchDeleteMessageConstant  = "The default branch of a project cannot be deleted"
	defaultBranchMissingMessageConstant = "Default branch does not exist"
)

// Mutation records a state-changing host call.
type Mutation struct {
	Operation gitlabapi.OperationName
	ProjectID int
	Branch    string
	Reference string
}

// DefaultBranchObservation captures the default branch after a mutation.
type DefaultBranchObservation struct {
	ProjectID     int
	DefaultBranch string
	Exists        bool
}

type failureKey struct {
	operation gitlabapi.OperationName
	projectID int
	branch    string
}

type fakeProject struct {
	name          string
	defaultBranch string
	branches      map[string]string
}

// Host is an in-memory GitLab that enforces the default branch rules of the
// real service: the default branch cannot be deleted and cannot be set to a
// missing ref.
type Host struct {
	mutex        sync.Mutex
	projects     map[int]*fakeProject
	failures     map[failureKey]error
	mutations    []Mutation
	observations []DefaultBranchObservation
	readCount    int
}

// NewHost constructs an empty Host.
func NewHost() *Host {
	return &Host{projects: map[int]*fakeProject{}, failures: map[failureKey]error{}}
}

// AddProject registers a project whose branches point at distinct commits.
func (host *Host) AddProject(projectID int, name string, defaultBranch string, branchNames ...string) *Host {
	host.mutex.Lock()
	defer host.mutex.Unlock()

	branches := make(map[string]string, len(branchNames))
	for _, branchName := range branchNames {
		branches[branchName] = fmt.Sprintf(commitTemplateConstant, branchName)
	}
	host.projects[projectID] = &fakeProject{name: name, defaultBranch: defaultBranch, branches: branches}
	return host
}

// FailOn makes the named operation fail for the project and branch. An empty
// branch matches project level calls.
func (host *Host) FailOn(operation gitlabapi.OperationName, projectID int, branch string, failure error) *Host {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	host.failures[failureKey{operation: operation, projectID: projectID, branch: branch}] = failure
	return host
}

// GetProject returns the project or a 404 error.
func (host *Host) GetProject(_ context.Context, projectID int) (gitlabapi.Project, error) {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	host.readCount++

	if failure := host.failureFor(gitlabapi.OperationGetProject, projectID, ""); failure != nil {
		return gitlabapi.Project{}, failure
	}
	project, exists := host.projects[projectID]
	if !exists {
		return gitlabapi.Project{}, hostError(gitlabapi.OperationGetProject, http.StatusNotFound, http.MethodGet, fmt.Sprintf(projectPathTemplateConstant, projectID), projectNotFoundMessageConstant)
	}
	return gitlabapi.Project{ID: projectID, Name: project.name, DefaultBranch: project.defaultBranch}, nil
}

// ListProjects returns every project ordered by identifier.
func (host *Host) ListProjects(context.Context) ([]gitlabapi.Project, error) {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	host.readCount++

	if failure := host.failureFor(gitlabapi.OperationListProjects, 0, ""); failure != nil {
		return nil, failure
	}
	projects := make([]gitlabapi.Project, 0, len(host.projects))
	for projectID, project := range host.projects {
		projects = append(projects, gitlabapi.Project{ID: projectID, Name: project.name, DefaultBranch: project.defaultBranch})
	}
	sort.Slice(projects, func(left, right int) bool { return projects[left].ID < projects[right].ID })
	return projects, nil
}

// ListBranches returns the branches of a project ordered by name.
func (host *Host) ListBranches(_ context.Context, projectID int) ([]gitlabapi.Branch, error) {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	host.readCount++

	if failure := host.failureFor(gitlabapi.OperationListBranches, projectID, ""); failure != nil {
		return nil, failure
	}
	project, exists := host.projects[projectID]
	if !exists {
		return nil, hostError(gitlabapi.OperationListBranches, http.StatusNotFound, http.MethodGet, fmt.Sprintf(projectPathTemplateConstant, projectID), projectNotFoundMessageConstant)
	}
	branches := make([]gitlabapi.Branch, 0, len(project.branches))
	for branchName, commitID := range project.branches {
		branches = append(branches, gitlabapi.Branch{Name: branchName, CommitID: commitID, Default: branchName == project.defaultBranch})
	}
	sort.Slice(branches, func(left, right int) bool { return branches[left].Name < branches[right].Name })
	return branches, nil
}

// CreateBranch points branchName at the commit of reference.
func (host *Host) CreateBranch(_ context.Context, projectID int, branchName string, reference string) error {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	host.record(gitlabapi.OperationCreateBranch, projectID, branchName, reference)

	branchPath := fmt.Sprintf(branchPathTemplateConstant, projectID, branchName)
	if failure := host.failureFor(gitlabapi.OperationCreateBranch, projectID, branchName); failure != nil {
		return failure
	}
	project, exists := host.projects[projectID]
	if !exists {
		return hostError(gitlabapi.OperationCreateBranch, http.StatusNotFound, http.MethodPost, branchPath, projectNotFoundMessageConstant)
	}
	if _, branchExists := project.branches[branchName]; branchExists {
		return hostError(gitlabapi.OperationCreateBranch, http.StatusBadRequest, http.MethodPost, branchPath, branchExistsMessageConstant)
	}
	commitID, referenceExists := project.branches[reference]
	if !referenceExists {
		return hostError(gitlabapi.OperationCreateBranch, http.StatusBadRequest, http.MethodPost, branchPath, invalidReferenceMessageConstant)
	}
	project.branches[branchName] = commitID
	host.observe(projectID, project)
	return nil
}

// DeleteBranch removes branchName unless it is the default branch.
func (host *Host) DeleteBranch(_ context.Context, projectID int, branchName string) error {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	host.record(gitlabapi.OperationDeleteBranch, projectID, branchName, "")

	branchPath := fmt.Sprintf(branchPathTemplateConstant, projectID, branchName)
	if failure := host.failureFor(gitlabapi.OperationDeleteBranch, projectID, branchName); failure != nil {
		return failure
	}
	project, exists := host.projects[projectID]
	if !exists {
		return hostError(gitlabapi.OperationDeleteBranch, http.StatusNotFound, http.MethodDelete, branchPath, projectNotFoundMessageConstant)
	}
	if _, branchExists := project.branches[branchName]; !branchExists {
		return hostError(gitlabapi.OperationDeleteBranch, http.StatusNotFound, http.MethodDelete, branchPath, branchNotFoundMessageConstant)
	}
	if project.defaultBranch == branchName {
		return hostError(gitlabapi.OperationDeleteBranch, http.StatusBadRequest, http.MethodDelete, branchPath, defaultBranchDeleteMessageConstant)
	}
	delete(project.branches, branchName)
	host.observe(projectID, project)
	return nil
}

// SetDefaultBranch changes the default branch to an existing branch.
func (host *Host) SetDefaultBranch(_ context.Context, projectID int, branchName string) error {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	host.record(gitlabapi.OperationSetDefaultBranch, projectID, branchName, "")

	projectPath := fmt.Sprintf(projectPathTemplateConstant, projectID)
	if failure := host.failureFor(gitlabapi.OperationSetDefaultBranch, projectID, branchName); failure != nil {
		return failure
	}
	project, exists := host.projects[projectID]
	if !exists {
		return hostError(gitlabapi.OperationSetDefaultBranch, http.StatusNotFound, http.MethodPut, projectPath, projectNotFoundMessageConstant)
	}
	if _, branchExists := project.branches[branchName]; !branchExists {
		return hostError(gitlabapi.OperationSetDefaultBranch, http.StatusBadRequest, http.MethodPut, projectPath, defaultBranchMissingMessageConstant)
	}
	project.defaultBranch = branchName
	host.observe(projectID, project)
	return nil
}

// ReadCount returns the number of project and branch reads served so far.
func (host *Host) ReadCount() int {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	return host.readCount
}

// Mutations returns every state-changing call in call order, including failed ones.
func (host *Host) Mutations() []Mutation {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	return append([]Mutation(nil), host.mutations...)
}

// DefaultBranchObservations returns the default branch seen after every
// successful mutation.
func (host *Host) DefaultBranchObservations() []DefaultBranchObservation {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	return append([]DefaultBranchObservation(nil), host.observations...)
}

// DefaultBranch returns the current default branch of a project.
func (host *Host) DefaultBranch(projectID int) string {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	if project, exists := host.projects[projectID]; exists {
		return project.defaultBranch
	}
	return ""
}

// Commit returns the commit a branch points at.
func (host *Host) Commit(projectID int, branchName string) (string, bool) {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	project, exists := host.projects[projectID]
	if !exists {
		return "", false
	}
	commitID, branchExists := project.branches[branchName]
	return commitID, branchExists
}

// Advance moves branchName to a new commit, simulating a push.
func (host *Host) Advance(projectID int, branchName string, commitID string) {
	host.mutex.Lock()
	defer host.mutex.Unlock()
	if project, exists := host.projects[projectID]; exists {
		project.branches[branchName] = commitID
	}
}

func (host *Host) record(operation gitlabapi.OperationName, projectID int, branch string, reference string) {
	host.mutations = append(host.mutations, Mutation{Operation: operation, ProjectID: projectID, Branch: branch, Reference: reference})
}

func (host *Host) observe(projectID int, project *fakeProject) {
	_, exists := project.branches[project.defaultBranch]
	host.observations = append(host.observations, DefaultBranchObservation{ProjectID: projectID, DefaultBranch: project.defaultBranch, Exists: exists})
}

func (host *Host) failureFor(operation gitlabapi.OperationName, projectID int, branch string) error {
	return host.failures[failureKey{operation: operation, projectID: projectID, branch: branch}]
}

func hostError(operation gitlabapi.OperationName, statusCode int, method string, path string, message string) error {
	request, _ := http.NewRequest(method, fakeAPIBaseURLConstant+path, nil)
	return gitlabapi.OperationError{
		Operation: operation,
		Cause: &gitlab.ErrorResponse{
			Response: &http.Response{StatusCode: statusCode, Request: request},
			Message:  message,
		},
	}
}
