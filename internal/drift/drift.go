// Package drift decides how a stale layer should be refreshed (§4.9): by
// doing nothing, reparsing a handful of changed files, reconciling against
// a new base, or discarding and rebuilding the layer outright.
package drift

import "context"

// UpdateStrategy is the drift detector's verdict for one layer.
type UpdateStrategy int

const (
	// Fresh means no files changed; no action needed.
	Fresh UpdateStrategy = iota
	// Incremental means fewer than 10 files changed; reparse them directly.
	Incremental
	// Rebase means 10 or more files changed, but under 30% of the repo;
	// reconcile the overlay against the new base.
	Rebase
	// FullRebuild means 30% or more of the repo changed; discard the
	// layer and recreate it from scratch.
	FullRebuild
)

func (s UpdateStrategy) String() string {
	switch s {
	case Fresh:
		return "Fresh"
	case Incremental:
		return "Incremental"
	case Rebase:
		return "Rebase"
	case FullRebuild:
		return "FullRebuild"
	default:
		return "Unknown"
	}
}

// incrementalFileCap is the file-count ceiling for Incremental (§4.9: "<10
// files"), independent of the percentage-based Rebase/FullRebuild split.
const incrementalFileCap = 10

// rebaseFraction is the minimum changed-file fraction that escalates a
// layer from Incremental past Rebase (§4.9: "<30% of repo").
const rebaseFraction = 0.30

// GitProvider is the narrow git surface the drift detector needs (§6.6):
// finding what changed between two refs and counting the repo's total
// files, so a percentage can be computed. Concrete implementations (e.g.
// internal/git.Provider) satisfy this with their existing methods.
type GitProvider interface {
	GetChangedFiles(ctx context.Context, baseRef, headRef string) ([]string, error)
	ListAllFiles(ctx context.Context) ([]string, error)
}

// Detector classifies how out-of-date a layer is relative to a new base.
type Detector struct {
	Git GitProvider
}

// NewDetector returns a detector backed by the given git provider.
func NewDetector(git GitProvider) *Detector {
	return &Detector{Git: git}
}

// Status is the outcome of a drift check: how many files changed, how many
// exist in total, and the resulting strategy.
type Status struct {
	ChangedFiles []string
	TotalFiles   int
	Strategy     UpdateStrategy
}

// Check compares baseRef against headRef and classifies the result
// (§4.9's threshold table). An empty changed-file list with no error
// always yields Fresh, regardless of total repo size.
func (d *Detector) Check(ctx context.Context, baseRef, headRef string) (Status, error) {
	changed, err := d.Git.GetChangedFiles(ctx, baseRef, headRef)
	if err != nil {
		return Status{}, err
	}
	if len(changed) == 0 {
		return Status{Strategy: Fresh}, nil
	}

	all, err := d.Git.ListAllFiles(ctx)
	if err != nil {
		return Status{}, err
	}
	total := len(all)

	strategy := classify(len(changed), total)
	return Status{ChangedFiles: changed, TotalFiles: total, Strategy: strategy}, nil
}

func classify(changedCount, totalCount int) UpdateStrategy {
	if changedCount == 0 {
		return Fresh
	}
	if changedCount < incrementalFileCap {
		return Incremental
	}
	if totalCount == 0 {
		return FullRebuild
	}
	fraction := float64(changedCount) / float64(totalCount)
	if fraction >= rebaseFraction {
		return FullRebuild
	}
	return Rebase
}
