package gitlabapi

import (
	"context"
	"net/http"
	"strings"

	gitlab "github.com/xanzy/go-gitlab"
)

const (
	projectIDFieldNameConstant = "project_id"
	branchFieldNameConstant    = "branch"
	referenceFieldNameConstant = "reference"
	listPageSizeConstant       = 100
	firstPageConstant          = 1
)

// Configuration describes how to reach a GitLab instance.
type Configuration struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

// Client coordinates GitLab REST calls through go-gitlab.
type Client struct {
	api      *gitlab.Client
	observer OperationObserver
}

// ClientOption customizes a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	observer   OperationObserver
}

// WithHTTPClient overrides the HTTP client used for API requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(options *clientOptions) {
		options.httpClient = httpClient
	}
}

// WithObserver registers an observer notified around every API call.
func WithObserver(observer OperationObserver) ClientOption {
	return func(options *clientOptions) {
		options.observer = observer
	}
}

// NewClient constructs a GitLab client from the provided configuration.
func NewClient(configuration Configuration, options ...ClientOption) (*Client, error) {
	baseURL := strings.TrimSpace(configuration.BaseURL)
	if len(baseURL) == 0 {
		return nil, ErrBaseURLNotConfigured
	}
	token := strings.TrimSpace(configuration.Token)
	if len(token) == 0 {
		return nil, ErrTokenNotConfigured
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	resolvedOptions := clientOptions{}
	for _, option := range options {
		if option != nil {
			option(&resolvedOptions)
		}
	}

	gitlabOptions := []gitlab.ClientOptionFunc{gitlab.WithBaseURL(baseURL)}
	if resolvedOptions.httpClient != nil {
		gitlabOptions = append(gitlabOptions, gitlab.WithHTTPClient(resolvedOptions.httpClient))
	}

	api, creationError := gitlab.NewClient(token, gitlabOptions...)
	if creationError != nil {
		return nil, creationError
	}

	return &Client{api: api, observer: resolvedOptions.observer}, nil
}

// GetProject fetches a single project by numeric identifier.
func (client *Client) GetProject(executionContext context.Context, projectID int) (Project, error) {
	if projectID <= 0 {
		return Project{}, InvalidInputError{FieldName: projectIDFieldNameConstant, Message: positiveValueMessageConstant}
	}

	var project Project
	event := OperationEvent{Operation: OperationGetProject, ProjectID: projectID}
	operationError := client.observe(event, func() error {
		response, _, requestError := client.api.Projects.GetProject(projectID, nil, gitlab.WithContext(executionContext))
		if requestError != nil {
			return requestError
		}
		project = convertProject(response)
		return nil
	})

	return project, operationError
}

// ListProjects enumerates every project visible to the token.
func (client *Client) ListProjects(executionContext context.Context) ([]Project, error) {
	projects := make([]Project, 0)
	event := OperationEvent{Operation: OperationListProjects}
	operationError := client.observe(event, func() error {
		listOptions := &gitlab.ListProjectsOptions{
			ListOptions: gitlab.ListOptions{Page: firstPageConstant, PerPage: listPageSizeConstant},
		}
		for {
			page, response, requestError := client.api.Projects.ListProjects(listOptions, gitlab.WithContext(executionContext))
			if requestError != nil {
				return requestError
			}
			for _, project := range page {
				projects = append(projects, convertProject(project))
			}
			if response == nil || response.NextPage == 0 {
				return nil
			}
			listOptions.Page = response.NextPage
		}
	})
	if operationError != nil {
		return nil, operationError
	}

	return projects, nil
}

// ListBranches enumerates every branch of a project.
func (client *Client) ListBranches(executionContext context.Context, projectID int) ([]Branch, error) {
	if projectID <= 0 {
		return nil, InvalidInputError{FieldName: projectIDFieldNameConstant, Message: positiveValueMessageConstant}
	}

	branches := make([]Branch, 0)
	event := OperationEvent{Operation: OperationListBranches, ProjectID: projectID}
	operationError := client.observe(event, func() error {
		listOptions := &gitlab.ListBranchesOptions{
			ListOptions: gitlab.ListOptions{Page: firstPageConstant, PerPage: listPageSizeConstant},
		}
		for {
			page, response, requestError := client.api.Branches.ListBranches(projectID, listOptions, gitlab.WithContext(executionContext))
			if requestError != nil {
				return requestError
			}
			for _, branch := range page {
				branches = append(branches, convertBranch(branch))
			}
			if response == nil || response.NextPage == 0 {
				return nil
			}
			listOptions.Page = response.NextPage
		}
	})
	if operationError != nil {
		return nil, operationError
	}

	return branches, nil
}

// CreateBranch creates branchName pointing at the tip of reference.
func (client *Client) CreateBranch(executionContext context.Context, projectID int, branchName string, reference string) error {
	if validationError := validateBranchInputs(projectID, branchName); validationError != nil {
		return validationError
	}
	if len(strings.TrimSpace(reference)) == 0 {
		return InvalidInputError{FieldName: referenceFieldNameConstant, Message: requiredValueMessageConstant}
	}

	event := OperationEvent{Operation: OperationCreateBranch, ProjectID: projectID, Branch: branchName, Reference: reference}
	return client.observe(event, func() error {
		_, _, requestError := client.api.Branches.CreateBranch(projectID, &gitlab.CreateBranchOptions{
			Branch: gitlab.Ptr(branchName),
			Ref:    gitlab.Ptr(reference),
		}, gitlab.WithContext(executionContext))
		return requestError
	})
}

// DeleteBranch removes branchName from the project.
func (client *Client) DeleteBranch(executionContext context.Context, projectID int, branchName string) error {
	if validationError := validateBranchInputs(projectID, branchName); validationError != nil {
		return validationError
	}

	event := OperationEvent{Operation: OperationDeleteBranch, ProjectID: projectID, Branch: branchName}
	return client.observe(event, func() error {
		_, requestError := client.api.Branches.DeleteBranch(projectID, branchName, gitlab.WithContext(executionContext))
		return requestError
	})
}

// SetDefaultBranch updates the project's default branch.
func (client *Client) SetDefaultBranch(executionContext context.Context, projectID int, branchName string) error {
	if validationError := validateBranchInputs(projectID, branchName); validationError != nil {
		return validationError
	}

	event := OperationEvent{Operation: OperationSetDefaultBranch, ProjectID: projectID, Branch: branchName}
	return client.observe(event, func() error {
		_, _, requestError := client.api.Projects.EditProject(projectID, &gitlab.EditProjectOptions{
			DefaultBranch: gitlab.Ptr(branchName),
		}, gitlab.WithContext(executionContext))
		return requestError
	})
}

// ListProjectHooks enumerates the webhooks configured on a project.
func (client *Client) ListProjectHooks(executionContext context.Context, projectID int) ([]Hook, error) {
	if projectID <= 0 {
		return nil, InvalidInputError{FieldName: projectIDFieldNameConstant, Message: positiveValueMessageConstant}
	}

	hooks := make([]Hook, 0)
	event := OperationEvent{Operation: OperationListProjectHooks, ProjectID: projectID}
	operationError := client.observe(event, func() error {
		listOptions := &gitlab.ListProjectHooksOptions{Page: firstPageConstant, PerPage: listPageSizeConstant}
		for {
			page, response, requestError := client.api.Projects.ListProjectHooks(projectID, listOptions, gitlab.WithContext(executionContext))
			if requestError != nil {
				return requestError
			}
			for _, hook := range page {
				if hook == nil {
					continue
				}
				hooks = append(hooks, Hook{ID: hook.ID, URL: hook.URL})
			}
			if response == nil || response.NextPage == 0 {
				return nil
			}
			listOptions.Page = response.NextPage
		}
	})
	if operationError != nil {
		return nil, operationError
	}

	return hooks, nil
}

// ProtectBranch marks branchName as protected with the requested access levels.
func (client *Client) ProtectBranch(executionContext context.Context, projectID int, branchName string, options ProtectionOptions) error {
	if validationError := validateBranchInputs(projectID, branchName); validationError != nil {
		return validationError
	}

	event := OperationEvent{Operation: OperationProtectBranch, ProjectID: projectID, Branch: branchName}
	return client.observe(event, func() error {
		_, _, requestError := client.api.ProtectedBranches.ProtectRepositoryBranches(projectID, &gitlab.ProtectRepositoryBranchesOptions{
			Name:             gitlab.Ptr(branchName),
			PushAccessLevel:  gitlab.Ptr(gitlab.AccessLevelValue(options.PushAccessLevel)),
			MergeAccessLevel: gitlab.Ptr(gitlab.AccessLevelValue(options.MergeAccessLevel)),
		}, gitlab.WithContext(executionContext))
		return requestError
	})
}

func (client *Client) observe(event OperationEvent, call func() error) error {
	if client.observer != nil {
		client.observer.OperationStarted(event)
	}

	callError := call()
	if callError != nil {
		wrappedError := OperationError{Operation: event.Operation, Cause: callError}
		if client.observer != nil {
			client.observer.OperationFailed(event, wrappedError)
		}
		return wrappedError
	}

	if client.observer != nil {
		client.observer.OperationCompleted(event)
	}
	return nil
}

func validateBranchInputs(projectID int, branchName string) error {
	if projectID <= 0 {
		return InvalidInputError{FieldName: projectIDFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if len(strings.TrimSpace(branchName)) == 0 {
		return InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

func convertProject(project *gitlab.Project) Project {
	if project == nil {
		return Project{}
	}
	return Project{
		ID:                project.ID,
		Name:              project.Name,
		PathWithNamespace: project.PathWithNamespace,
		DefaultBranch:     project.DefaultBranch,
	}
}

func convertBranch(branch *gitlab.Branch) Branch {
	if branch == nil {
		return Branch{}
	}
	converted := Branch{
		Name:      branch.Name,
		Protected: branch.Protected,
		Default:   branch.Default,
	}
	if branch.Commit != nil {
		converted.CommitID = branch.Commit.ID
	}
	return converted
}
