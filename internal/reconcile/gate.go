package reconcile

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	pendingHeaderTemplateConstant    = "%d project(s) have target branches that already exist:"
	pendingItemTemplateConstant      = "  - %s"
	overwritePromptConstant          = "Delete and recreate every listed branch? [y/N]: "
	assumeYesNoticeConstant          = "Overwrite confirmed by configuration."
	prompterMissingMessageConstant   = "confirmation required but no prompter configured"
	pendingListingErrorTemplate      = "unable to print pending conflicts: %w"
	pendingConfirmationErrorTemplate = "unable to read confirmation: %w"
)

var (
	errPrompterMissing = errors.New(prompterMissingMessageConstant)
	pendingHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	pendingItemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// ConfirmationGate obtains a single batch-wide decision for every pending
// conflict.
type ConfirmationGate struct {
	Prompter  Prompter
	Output    io.Writer
	AssumeYes bool
}

// Confirm returns true without prompting when nothing is pending. Otherwise it
// lists every pending message before asking once.
func (gate ConfirmationGate) Confirm(pending []PendingConflict) (bool, error) {
	if len(pending) == 0 {
		return true, nil
	}

	if listingError := gate.printPending(pending); listingError != nil {
		return false, fmt.Errorf(pendingListingErrorTemplate, listingError)
	}

	if gate.AssumeYes {
		if gate.Output != nil {
			if _, writeError := fmt.Fprintln(gate.Output, assumeYesNoticeConstant); writeError != nil {
				return false, fmt.Errorf(pendingListingErrorTemplate, writeError)
			}
		}
		return true, nil
	}

	if gate.Prompter == nil {
		return false, errPrompterMissing
	}

	confirmed, promptError := gate.Prompter.Confirm(overwritePromptConstant)
	if promptError != nil {
		return false, fmt.Errorf(pendingConfirmationErrorTemplate, promptError)
	}
	return confirmed, nil
}

func (gate ConfirmationGate) printPending(pending []PendingConflict) error {
	if gate.Output == nil {
		return nil
	}

	if _, writeError := fmt.Fprintln(gate.Output, pendingHeaderStyle.Render(fmt.Sprintf(pendingHeaderTemplateConstant, len(pending)))); writeError != nil {
		return writeError
	}
	for _, conflict := range pending {
		if _, writeError := fmt.Fprintln(gate.Output, pendingItemStyle.Render(fmt.Sprintf(pendingItemTemplateConstant, conflict.Message))); writeError != nil {
			return writeError
		}
	}
	return nil
}
