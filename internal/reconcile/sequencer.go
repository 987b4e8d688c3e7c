package reconcile

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/devops/internal/branchmap"
)

const (
	defaultProjectConcurrencyConstant = 1
	logMessageProjectStartedConstant  = "Reconciling project"
	logMessageProjectSkippedConstant  = "Project skipped after cancellation"
	logFieldBranchCountConstant       = "branches"
)

// Rewriter applies a single rewrite request.
type Rewriter interface {
	Rewrite(executionContext context.Context, request RewriteRequest) RewriteOutcome
}

// BatchSequencer drives the rewriter across projects. ProjectConcurrency bounds
// how many projects are in flight; values below one mean one, so each project
// finishes before the next starts. BranchConcurrency bounds the branches of a
// project rewritten at once; zero means unlimited.
type BatchSequencer struct {
	Rewriter           Rewriter
	ProjectConcurrency int
	BranchConcurrency  int
	Logger             *zap.Logger
}

// Run rewrites every branch entry and returns one outcome per entry in mapping
// order. conflicts names the target branches known to exist per project;
// mayOverwrite reports whether the operator allowed overwriting them. Once
// executionContext is cancelled no further project is started and the
// remaining entries are reported as failed.
func (sequencer BatchSequencer) Run(executionContext context.Context, mappings []branchmap.ProjectMapping, conflicts map[int]map[string]struct{}, mayOverwrite bool) []RewriteOutcome {
	projectOutcomes := make([][]RewriteOutcome, len(mappings))

	projectConcurrency := sequencer.ProjectConcurrency
	if projectConcurrency < defaultProjectConcurrencyConstant {
		projectConcurrency = defaultProjectConcurrencyConstant
	}

	var projectGroup errgroup.Group
	projectGroup.SetLimit(projectConcurrency)
	for mappingIndex := range mappings {
		mapping := mappings[mappingIndex]
		projectGroup.Go(func() error {
			if contextError := executionContext.Err(); contextError != nil {
				sequencer.logger().Warn(
					logMessageProjectSkippedConstant,
					zap.Int(logFieldProjectIDConstant, mapping.ProjectID),
					zap.Error(contextError),
				)
				projectOutcomes[mappingIndex] = skippedOutcomes(mapping, contextError)
				return nil
			}
			projectOutcomes[mappingIndex] = sequencer.runProject(executionContext, mapping, conflicts[mapping.ProjectID], mayOverwrite)
			return nil
		})
	}
	_ = projectGroup.Wait()

	var outcomes []RewriteOutcome
	for _, outcomesForProject := range projectOutcomes {
		outcomes = append(outcomes, outcomesForProject...)
	}
	return outcomes
}

func (sequencer BatchSequencer) runProject(executionContext context.Context, mapping branchmap.ProjectMapping, projectConflicts map[string]struct{}, mayOverwrite bool) []RewriteOutcome {
	sequencer.logger().Info(
		logMessageProjectStartedConstant,
		zap.Int(logFieldProjectIDConstant, mapping.ProjectID),
		zap.String(logFieldProjectNameConstant, mapping.ProjectName),
		zap.Int(logFieldBranchCountConstant, len(mapping.Branches)),
	)

	outcomes := make([]RewriteOutcome, len(mapping.Branches))

	var branchGroup errgroup.Group
	if sequencer.BranchConcurrency > 0 {
		branchGroup.SetLimit(sequencer.BranchConcurrency)
	}
	for entryIndex := range mapping.Branches {
		entry := mapping.Branches[entryIndex]
		_, targetExists := projectConflicts[entry.NewBranch]
		request := RewriteRequest{
			ProjectID:    mapping.ProjectID,
			ProjectName:  mapping.ProjectName,
			OldBranch:    entry.OldBranch,
			NewBranch:    entry.NewBranch,
			TargetExists: targetExists,
			MayOverwrite: mayOverwrite,
		}
		branchGroup.Go(func() error {
			outcomes[entryIndex] = sequencer.Rewriter.Rewrite(executionContext, request)
			return nil
		})
	}
	_ = branchGroup.Wait()

	return outcomes
}

func (sequencer BatchSequencer) logger() *zap.Logger {
	if sequencer.Logger == nil {
		return zap.NewNop()
	}
	return sequencer.Logger
}

func skippedOutcomes(mapping branchmap.ProjectMapping, cause error) []RewriteOutcome {
	outcomes := make([]RewriteOutcome, 0, len(mapping.Branches))
	for _, entry := range mapping.Branches {
		outcomes = append(outcomes, RewriteOutcome{
			ProjectID:    mapping.ProjectID,
			ProjectName:  mapping.ProjectName,
			BranchName:   entry.NewBranch,
			SourceBranch: entry.OldBranch,
			Mode:         RewriteModeSkipped,
			Error:        cause.Error(),
		})
	}
	return outcomes
}
