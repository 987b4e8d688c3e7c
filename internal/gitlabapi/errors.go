package gitlabapi

import (
	"errors"
	"fmt"
	"net/http"

	gitlab "github.com/xanzy/go-gitlab"
)

const (
	invalidInputErrorTemplateConstant       = "%s: %s"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	requiredValueMessageConstant            = "value required"
	positiveValueMessageConstant            = "positive value required"
	baseURLMissingMessageConstant           = "gitlab base url not configured"
	tokenMissingMessageConstant             = "gitlab token not configured"
)

var (
	// ErrBaseURLNotConfigured indicates the client was constructed without a GitLab URL.
	ErrBaseURLNotConfigured = errors.New(baseURLMissingMessageConstant)
	// ErrTokenNotConfigured indicates the client was constructed without an access token.
	ErrTokenNotConfigured = errors.New(tokenMissingMessageConstant)
)

// OperationName describes a named GitLab API call supported by the client.
type OperationName string

// Supported operations.
const (
	OperationGetProject       OperationName = "GetProject"
	OperationListProjects     OperationName = "ListProjects"
	OperationListBranches     OperationName = "ListBranches"
	OperationCreateBranch     OperationName = "CreateBranch"
	OperationDeleteBranch     OperationName = "DeleteBranch"
	OperationSetDefaultBranch OperationName = "SetDefaultBranch"
	OperationListProjectHooks OperationName = "ListProjectHooks"
	OperationProtectBranch    OperationName = "ProtectBranch"
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps failures returned by GitLab.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// IsNotFound reports whether err carries a GitLab 404 response.
func IsNotFound(err error) bool {
	return hasStatusCode(err, http.StatusNotFound)
}

// IsForbidden reports whether err carries a GitLab 401 or 403 response.
func IsForbidden(err error) bool {
	return hasStatusCode(err, http.StatusForbidden) || hasStatusCode(err, http.StatusUnauthorized)
}

// IsConflict reports whether err carries a GitLab 409 response.
func IsConflict(err error) bool {
	return hasStatusCode(err, http.StatusConflict)
}

func hasStatusCode(err error, statusCode int) bool {
	var responseError *gitlab.ErrorResponse
	if !errors.As(err, &responseError) || responseError.Response == nil {
		return false
	}
	return responseError.Response.StatusCode == statusCode
}
