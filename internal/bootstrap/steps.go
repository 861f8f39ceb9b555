package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/naoray/hubber/internal/exec"
	"github.com/naoray/hubber/internal/git"
	"github.com/naoray/hubber/internal/labels"
	"github.com/naoray/hubber/internal/templates"
)

// LabelSeedStep creates the context's labels on the remote repository.
// Labels that already exist are left alone.
type LabelSeedStep struct {
	reconciler *labels.Reconciler
}

func NewLabelSeedStep(reconciler *labels.Reconciler) *LabelSeedStep {
	return &LabelSeedStep{reconciler: reconciler}
}

func (s *LabelSeedStep) Name() string {
	return "labels.seed"
}

func (s *LabelSeedStep) Condition(rc *RepoContext) bool {
	return len(rc.Labels) > 0
}

func (s *LabelSeedStep) Run(ctx context.Context, rc *RepoContext, opts Options) error {
	_, err := s.reconciler.Apply(ctx, rc.Repo, rc.Labels)
	var failed []*labels.Error
	for _, f := range labels.Failures(err) {
		if f.Kind != labels.KindAlreadyExists {
			failed = append(failed, f)
		}
	}
	if len(failed) > 0 {
		return &labels.BatchError{Errors: failed}
	}
	return nil
}

// CloneStep clones the repository unless the target directory exists.
type CloneStep struct {
	commander exec.Commander
}

func NewCloneStep(commander exec.Commander) *CloneStep {
	return &CloneStep{commander: commander}
}

func (s *CloneStep) Name() string {
	return "git.clone"
}

func (s *CloneStep) Condition(rc *RepoContext) bool {
	if rc.CloneURL == "" {
		return false
	}
	_, err := os.Stat(rc.Dir)
	return errors.Is(err, os.ErrNotExist)
}

func (s *CloneStep) Run(ctx context.Context, rc *RepoContext, opts Options) error {
	return git.Clone(ctx, s.commander, rc.ParentDir, rc.CloneURL, rc.Dir)
}

// TemplatesCopyStep writes the default issue templates into the clone.
type TemplatesCopyStep struct{}

func NewTemplatesCopyStep() *TemplatesCopyStep {
	return &TemplatesCopyStep{}
}

func (s *TemplatesCopyStep) Name() string {
	return "templates.copy"
}

func (s *TemplatesCopyStep) Condition(rc *RepoContext) bool {
	info, err := os.Stat(rc.Dir)
	return err == nil && info.IsDir()
}

func (s *TemplatesCopyStep) Run(ctx context.Context, rc *RepoContext, opts Options) error {
	written, err := templates.CopyDefaults(rc.Dir)
	rc.Written = append(rc.Written, written...)
	return err
}

// InitialCommitStep commits whatever the previous steps wrote and pushes the
// first branch upstream.
type InitialCommitStep struct {
	commander exec.Commander
}

func NewInitialCommitStep(commander exec.Commander) *InitialCommitStep {
	return &InitialCommitStep{commander: commander}
}

func (s *InitialCommitStep) Name() string {
	return "git.initial_commit"
}

func (s *InitialCommitStep) Condition(rc *RepoContext) bool {
	_, err := os.Stat(rc.Dir)
	return err == nil
}

func (s *InitialCommitStep) Run(ctx context.Context, rc *RepoContext, opts Options) error {
	repo := git.NewRepository(rc.Dir, s.commander)
	if err := repo.AddAll(ctx); err != nil {
		return err
	}
	if err := repo.Commit(ctx, git.InitialCommitMessage, true); err != nil {
		return err
	}
	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if err := repo.Push(ctx, "origin", branch, true); err != nil {
		return fmt.Errorf("publishing %s: %w", branch, err)
	}
	return nil
}
