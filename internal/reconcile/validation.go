package reconcile

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/devops/internal/branchmap"
)

const (
	validationMessageTemplateConstant     = "project %d (%s): %s"
	reasonSeparatorConstant               = "; "
	conflictSeparatorConstant             = ", "
	nameMismatchTemplateConstant          = "project name mismatch: mapping has %q, GitLab has %q"
	sourceBranchEmptyMessageConstant      = "source branch name is empty"
	sourceBranchMissingTemplateConstant   = "source branch %q does not exist"
	targetBranchEmptyTemplateConstant     = "target branch name for source %q is empty"
	targetBranchInvalidTemplateConstant   = "target branch %q contains characters outside [A-Za-z0-9_-]"
	targetBranchIsSourceTemplateConstant  = "target branch %q is the same as its source branch"
	targetBranchDuplicateTemplateConstant = "target branch %q is listed more than once"
	targetBranchChainedTemplateConstant   = "target branch %q is the source branch of another entry"
	pendingMessageTemplateConstant        = "target branches already exist and will be overwritten: %s"
	targetBranchPatternConstant           = `^[A-Za-z0-9_-]+$`
)

var targetBranchPattern = regexp.MustCompile(targetBranchPatternConstant)

// ValidationError is a fatal finding for one project. Batch execution is
// withheld while any exist.
type ValidationError struct {
	ProjectID   int
	ProjectName string
	Message     string
	Reasons     []string
}

// Error returns the validation message.
func (validationError ValidationError) Error() string {
	return validationError.Message
}

// PendingConflict lists target branches of one project that already exist
// and need operator confirmation before being overwritten.
type PendingConflict struct {
	ProjectID              int
	ProjectName            string
	ConflictingNewBranches []string
	Message                string
}

// ValidationReport holds the fatal and pending findings of a validation run in
// mapping file order. A project appears in at most one list.
type ValidationReport struct {
	Errors  []ValidationError
	Pending []PendingConflict
}

// HasErrors reports whether any fatal finding exists.
func (report ValidationReport) HasErrors() bool {
	return len(report.Errors) > 0
}

// ConflictSet returns every pending target branch per project.
func (report ValidationReport) ConflictSet() map[int]map[string]struct{} {
	conflicts := make(map[int]map[string]struct{}, len(report.Pending))
	for _, pending := range report.Pending {
		projectConflicts, exists := conflicts[pending.ProjectID]
		if !exists {
			projectConflicts = make(map[string]struct{}, len(pending.ConflictingNewBranches))
			conflicts[pending.ProjectID] = projectConflicts
		}
		for _, branchName := range pending.ConflictingNewBranches {
			projectConflicts[branchName] = struct{}{}
		}
	}
	return conflicts
}

// StateProvider supplies repository state for validation.
type StateProvider interface {
	Read(executionContext context.Context, projectID int) (RepositoryState, error)
}

// Validator cross-checks branch mappings against live repository state. It
// performs only reads.
type Validator struct {
	States StateProvider
}

type projectVerdict struct {
	failure *ValidationError
	pending *PendingConflict
}

// Validate checks every project concurrently and classifies the findings.
func (validator Validator) Validate(executionContext context.Context, mappings []branchmap.ProjectMapping) ValidationReport {
	verdicts := make([]projectVerdict, len(mappings))

	var group errgroup.Group
	for mappingIndex := range mappings {
		mapping := mappings[mappingIndex]
		group.Go(func() error {
			verdicts[mappingIndex] = validator.validateProject(executionContext, mapping)
			return nil
		})
	}
	_ = group.Wait()

	report := ValidationReport{}
	for _, verdict := range verdicts {
		switch {
		case verdict.failure != nil:
			report.Errors = append(report.Errors, *verdict.failure)
		case verdict.pending != nil:
			report.Pending = append(report.Pending, *verdict.pending)
		}
	}
	return report
}

func (validator Validator) validateProject(executionContext context.Context, mapping branchmap.ProjectMapping) projectVerdict {
	if validator.States == nil {
		return failedVerdict(mapping, []string{errHostClientMissing.Error()})
	}

	state, stateError := validator.States.Read(executionContext, mapping.ProjectID)
	if stateError != nil {
		return failedVerdict(mapping, []string{stateError.Error()})
	}

	if state.Name != mapping.ProjectName {
		return failedVerdict(mapping, []string{fmt.Sprintf(nameMismatchTemplateConstant, mapping.ProjectName, state.Name)})
	}

	var reasons []string
	var conflicts []string
	seenTargets := make(map[string]int, len(mapping.Branches))
	seenConflicts := make(map[string]struct{})
	sourceCounts := make(map[string]int, len(mapping.Branches))
	for _, entry := range mapping.Branches {
		sourceCounts[entry.OldBranch]++
	}

	for _, entry := range mapping.Branches {
		sourceBranch := entry.OldBranch
		targetBranch := entry.NewBranch

		switch {
		case len(strings.TrimSpace(sourceBranch)) == 0:
			reasons = append(reasons, sourceBranchEmptyMessageConstant)
		case !state.HasBranch(sourceBranch):
			reasons = append(reasons, fmt.Sprintf(sourceBranchMissingTemplateConstant, sourceBranch))
		}

		if len(strings.TrimSpace(targetBranch)) == 0 {
			reasons = append(reasons, fmt.Sprintf(targetBranchEmptyTemplateConstant, sourceBranch))
			continue
		}
		if !targetBranchPattern.MatchString(targetBranch) {
			reasons = append(reasons, fmt.Sprintf(targetBranchInvalidTemplateConstant, targetBranch))
		}
		otherSources := sourceCounts[targetBranch]
		if targetBranch == sourceBranch {
			reasons = append(reasons, fmt.Sprintf(targetBranchIsSourceTemplateConstant, targetBranch))
			otherSources--
		}
		// Entries of one project run concurrently, so none may read a branch another rewrites.
		if otherSources > 0 {
			reasons = append(reasons, fmt.Sprintf(targetBranchChainedTemplateConstant, targetBranch))
		}

		seenTargets[targetBranch]++
		if seenTargets[targetBranch] == 2 {
			reasons = append(reasons, fmt.Sprintf(targetBranchDuplicateTemplateConstant, targetBranch))
		}

		if state.HasBranch(targetBranch) {
			if _, recorded := seenConflicts[targetBranch]; !recorded {
				seenConflicts[targetBranch] = struct{}{}
				conflicts = append(conflicts, targetBranch)
			}
		}
	}

	if len(reasons) > 0 {
		return failedVerdict(mapping, reasons)
	}

	if len(conflicts) > 0 {
		message := fmt.Sprintf(pendingMessageTemplateConstant, strings.Join(conflicts, conflictSeparatorConstant))
		return projectVerdict{pending: &PendingConflict{
			ProjectID:              mapping.ProjectID,
			ProjectName:            mapping.ProjectName,
			ConflictingNewBranches: conflicts,
			Message:                fmt.Sprintf(validationMessageTemplateConstant, mapping.ProjectID, mapping.ProjectName, message),
		}}
	}

	return projectVerdict{}
}

func failedVerdict(mapping branchmap.ProjectMapping, reasons []string) projectVerdict {
	return projectVerdict{failure: &ValidationError{
		ProjectID:   mapping.ProjectID,
		ProjectName: mapping.ProjectName,
		Message:     fmt.Sprintf(validationMessageTemplateConstant, mapping.ProjectID, mapping.ProjectName, strings.Join(reasons, reasonSeparatorConstant)),
		Reasons:     reasons,
	}}
}
