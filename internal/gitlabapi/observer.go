package gitlabapi

// OperationEvent identifies a single GitLab API call.
type OperationEvent struct {
	Operation OperationName
	ProjectID int
	Branch    string
	Reference string
}

// OperationObserver receives lifecycle notifications for GitLab API calls.
type OperationObserver interface {
	OperationStarted(event OperationEvent)
	OperationCompleted(event OperationEvent)
	OperationFailed(event OperationEvent, failure error)
}
