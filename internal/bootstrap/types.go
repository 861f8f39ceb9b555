// Package bootstrap prepares a freshly created or cloned repository by
// running a list of steps in order.
package bootstrap

import (
	"context"

	"github.com/naoray/hubber/internal/labels"
)

// RepoContext is the state shared by the steps of one bootstrap run.
type RepoContext struct {
	Repo labels.RepositoryRef

	// ParentDir is where the repository is cloned; Dir is the clone itself.
	ParentDir string
	Dir       string

	// CloneURL may carry an access token.
	CloneURL string

	// Labels are seeded into the remote repository.
	Labels []labels.Label

	// Written collects the paths steps wrote, relative to Dir.
	Written []string
}

// Options control how steps run.
type Options struct {
	DryRun  bool
	Verbose bool
}

// Step is one unit of bootstrap work. Condition decides whether Run applies
// to the current state.
type Step interface {
	Name() string
	Condition(rc *RepoContext) bool
	Run(ctx context.Context, rc *RepoContext, opts Options) error
}
