package protection

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	reportHeaderTemplateConstant    = "%d branch(es) processed, %d protected, %d already protected, %d failed"
	reportProtectedTemplateConstant = "ok    %d %-24s %s"
	reportExistingTemplateConstant  = "kept  %d %-24s %s (already protected)"
	reportFailureTemplateConstant   = "FAIL  %d %-24s %s: %s"
)

var (
	reportHeaderStyle  = lipgloss.NewStyle().Bold(true)
	reportSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	reportFailureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// WriteReport prints totals followed by one line per outcome.
func WriteReport(writer io.Writer, outcomes []ProtectOutcome) error {
	var protectedCount, existingCount, failedCount int
	lines := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		switch {
		case outcome.AlreadyProtected:
			existingCount++
			lines = append(lines, reportSuccessStyle.Render(fmt.Sprintf(reportExistingTemplateConstant, outcome.ProjectID, outcome.ProjectName, outcome.BranchName)))
		case outcome.Success:
			protectedCount++
			lines = append(lines, reportSuccessStyle.Render(fmt.Sprintf(reportProtectedTemplateConstant, outcome.ProjectID, outcome.ProjectName, outcome.BranchName)))
		default:
			failedCount++
			lines = append(lines, reportFailureStyle.Render(fmt.Sprintf(reportFailureTemplateConstant, outcome.ProjectID, outcome.ProjectName, outcome.BranchName, outcome.Error)))
		}
	}

	header := fmt.Sprintf(reportHeaderTemplateConstant, len(outcomes), protectedCount, existingCount, failedCount)
	if _, writeError := fmt.Fprintln(writer, reportHeaderStyle.Render(header)); writeError != nil {
		return writeError
	}
	for _, line := range lines {
		if _, writeError := fmt.Fprintln(writer, line); writeError != nil {
			return writeError
		}
	}
	return nil
}
