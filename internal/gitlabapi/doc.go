// Package gitlabapi wraps the GitLab REST API for the devops commands.
//
// Client exposes the narrow set of project, branch, hook, and protection calls
// the commands need, paginates list endpoints, and reports every call to an
// optional OperationObserver.
package gitlabapi
