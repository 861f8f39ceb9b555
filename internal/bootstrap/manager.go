package bootstrap

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/naoray/hubber/internal/exec"
	"github.com/naoray/hubber/internal/labels"
)

// NewRepoContext describes repo cloned from cloneURL into parentDir.
func NewRepoContext(repo labels.RepositoryRef, parentDir, cloneURL string, seed []labels.Label) *RepoContext {
	return &RepoContext{
		Repo:      repo,
		ParentDir: parentDir,
		Dir:       filepath.Join(parentDir, repo.Name),
		CloneURL:  cloneURL,
		Labels:    seed,
	}
}

// NewRepositorySteps returns the steps for a repository that was just
// created on GitHub: seed labels, clone, add issue templates, publish.
func NewRepositorySteps(reconciler *labels.Reconciler, commander exec.Commander) []Step {
	return []Step{
		NewLabelSeedStep(reconciler),
		NewCloneStep(commander),
		NewTemplatesCopyStep(),
		NewInitialCommitStep(commander),
	}
}

// CloneSteps returns the steps for cloning an existing repository.
func CloneSteps(commander exec.Commander) []Step {
	return []Step{NewCloneStep(commander)}
}

// Run executes steps against rc and returns the per-step results.
func Run(ctx context.Context, steps []Step, rc *RepoContext, opts Options, logger *log.Logger) ([]Result, error) {
	executor := NewExecutor(steps, rc, opts, logger)
	err := executor.Execute(ctx)
	return executor.Results(), err
}
