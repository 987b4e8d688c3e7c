// Package dependencies constructs GitLab clients for command builders.
package dependencies

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/devops/internal/gitlabapi"
	"github.com/temirov/devops/internal/ui"
)

const clientCreationErrorTemplateConstant = "unable to construct GitLab client: %w"

// ResolveClient builds a GitLab client. Host operation events are rendered
// through logger when humanReadableLogging is enabled.
func ResolveClient(configuration gitlabapi.Configuration, logger *zap.Logger, humanReadableLogging bool) (*gitlabapi.Client, error) {
	var options []gitlabapi.ClientOption
	if humanReadableLogging && logger != nil {
		options = append(options, gitlabapi.WithObserver(ui.NewConsoleOperationEventLogger(logger)))
	}

	client, creationError := gitlabapi.NewClient(configuration, options...)
	if creationError != nil {
		return nil, fmt.Errorf(clientCreationErrorTemplateConstant, creationError)
	}
	return client, nil
}
