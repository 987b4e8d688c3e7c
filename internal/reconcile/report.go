package reconcile

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	summaryHeaderTemplateConstant  = "%d branch operation(s), %d succeeded, %d failed"
	summarySuccessTemplateConstant = "ok    %d %-24s %-24s <- %s (%s)"
	summaryFailureTemplateConstant = "FAIL  %d %-24s %-24s <- %s (%s): %s"
)

var (
	summaryHeaderStyle  = lipgloss.NewStyle().Bold(true)
	summarySuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	summaryFailureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// WriteSummary prints one line per outcome followed by totals.
func WriteSummary(writer io.Writer, summary Summary) error {
	if writer == nil {
		return nil
	}

	failureCount := len(summary.Failures())
	header := fmt.Sprintf(summaryHeaderTemplateConstant, len(summary.Outcomes), len(summary.Outcomes)-failureCount, failureCount)
	if _, writeError := fmt.Fprintln(writer, summaryHeaderStyle.Render(header)); writeError != nil {
		return writeError
	}

	for _, outcome := range summary.Outcomes {
		var line string
		if outcome.Success {
			line = summarySuccessStyle.Render(fmt.Sprintf(summarySuccessTemplateConstant, outcome.ProjectID, outcome.ProjectName, outcome.BranchName, outcome.SourceBranch, outcome.Mode))
		} else {
			line = summaryFailureStyle.Render(fmt.Sprintf(summaryFailureTemplateConstant, outcome.ProjectID, outcome.ProjectName, outcome.BranchName, outcome.SourceBranch, outcome.Mode, outcome.Error))
		}
		if _, writeError := fmt.Fprintln(writer, line); writeError != nil {
			return writeError
		}
	}
	return nil
}
