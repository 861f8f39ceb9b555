// Package git wraps the git commands hubber needs. Every command goes through
// an exec.Commander so callers can swap in a mock.
package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	hubbererrors "github.com/naoray/hubber/internal/errors"
	"github.com/naoray/hubber/internal/exec"
)

// InitialCommitMessage is used for the empty commit that opens a new branch
// or repository.
const InitialCommitMessage = "initial commit"

// Repository is a local git working copy.
type Repository struct {
	Dir string
	git *exec.CommandExecutor
}

// NewRepository returns a Repository rooted at dir. A nil commander runs the
// real git binary.
func NewRepository(dir string, commander exec.Commander) *Repository {
	return &Repository{Dir: dir, git: exec.NewCommandExecutor(commander)}
}

// IsRepository reports whether Dir is inside a git work tree.
func (r *Repository) IsRepository(ctx context.Context) bool {
	out, err := r.git.Git(ctx, r.Dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// TopLevel returns the root directory of the work tree containing Dir.
func (r *Repository) TopLevel(ctx context.Context) (string, error) {
	out, err := r.git.Git(ctx, r.Dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %w", hubbererrors.ErrNotGitRepository, err)
	}
	return out, nil
}

// RemoteURL returns the URL of remote, or "" when it is not configured.
func (r *Repository) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := r.git.Git(ctx, r.Dir, "config", "--get", fmt.Sprintf("remote.%s.url", remote))
	if err != nil {
		if exitCode(err) == 1 {
			return "", nil
		}
		return "", opError("getting remote URL", err)
	}
	return out, nil
}

// SetRemoteURL points remote at url.
func (r *Repository) SetRemoteURL(ctx context.Context, remote, url string) error {
	if _, err := r.git.Git(ctx, r.Dir, "remote", "set-url", remote, url); err != nil {
		return opError("setting remote URL", err)
	}
	return nil
}

// CurrentBranch returns the checked out branch.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.git.Git(ctx, r.Dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", opError("getting current branch", err)
	}
	return out, nil
}

// BranchExists reports whether a local branch named branch exists.
func (r *Repository) BranchExists(ctx context.Context, branch string) (bool, error) {
	_, err := r.git.Git(ctx, r.Dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	if err != nil {
		if exitCode(err) == 1 {
			return false, nil
		}
		return false, opError("checking branch "+branch, err)
	}
	return true, nil
}

// Checkout switches to an existing branch.
func (r *Repository) Checkout(ctx context.Context, branch string) error {
	if _, err := r.git.Git(ctx, r.Dir, "checkout", branch); err != nil {
		return opError("checking out "+branch, err)
	}
	return nil
}

// CreateBranch creates branch from HEAD and switches to it.
func (r *Repository) CreateBranch(ctx context.Context, branch string) error {
	if _, err := r.git.Git(ctx, r.Dir, "checkout", "-b", branch); err != nil {
		return opError("creating branch "+branch, err)
	}
	return nil
}

// HasChanges reports whether the work tree has anything to commit,
// untracked files included.
func (r *Repository) HasChanges(ctx context.Context) (bool, error) {
	out, err := r.git.Git(ctx, r.Dir, "status", "--porcelain")
	if err != nil {
		return false, opError("checking status", err)
	}
	return out != "", nil
}

// AddAll stages everything in the work tree.
func (r *Repository) AddAll(ctx context.Context) error {
	if _, err := r.git.Git(ctx, r.Dir, "add", "."); err != nil {
		return opError("staging changes", err)
	}
	return nil
}

// Commit records staged changes. allowEmpty permits a commit without changes.
func (r *Repository) Commit(ctx context.Context, message string, allowEmpty bool) error {
	args := []string{"commit"}
	if allowEmpty {
		args = append(args, "--allow-empty")
	}
	args = append(args, "-m", message)
	if _, err := r.git.Git(ctx, r.Dir, args...); err != nil {
		return opError("committing", err)
	}
	return nil
}

// Push pushes branch to remote, optionally recording it as upstream.
func (r *Repository) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "--set-upstream")
	}
	args = append(args, remote, branch)
	if _, err := r.git.Git(ctx, r.Dir, args...); err != nil {
		return opError("pushing "+branch, err)
	}
	return nil
}

// SwitchToIssueBranch checks out branch, creating it with an empty initial
// commit when it does not exist yet. It reports whether the branch was new.
func (r *Repository) SwitchToIssueBranch(ctx context.Context, branch string) (bool, error) {
	exists, err := r.BranchExists(ctx, branch)
	if err != nil {
		return false, err
	}
	if exists {
		return false, r.Checkout(ctx, branch)
	}
	if err := r.CreateBranch(ctx, branch); err != nil {
		return false, err
	}
	return true, r.Commit(ctx, InitialCommitMessage, true)
}

// Clone clones url into dest, which is resolved relative to dir.
func Clone(ctx context.Context, commander exec.Commander, dir, url, dest string) error {
	if _, err := exec.NewCommandExecutor(commander).Git(ctx, dir, "clone", url, dest); err != nil {
		return opError("cloning "+dest, redact(err, url))
	}
	return nil
}

// SetGlobalIdentity sets user.name and user.email in the global git config.
// Empty values are left untouched.
func SetGlobalIdentity(ctx context.Context, commander exec.Commander, name, email string) error {
	git := exec.NewCommandExecutor(commander)
	if name != "" {
		if _, err := git.Git(ctx, "", "config", "--global", "user.name", name); err != nil {
			return opError("setting git user.name", err)
		}
	}
	if email != "" {
		if _, err := git.Git(ctx, "", "config", "--global", "user.email", email); err != nil {
			return opError("setting git user.email", err)
		}
	}
	return nil
}

func opError(action string, err error) error {
	return fmt.Errorf("%s: %w: %w", action, hubbererrors.ErrGitOperationFailed, err)
}

// exitCode returns the exit status carried by err, or -1.
func exitCode(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}

// redact strips a token embedded in url from err's message.
func redact(err error, url string) error {
	clean := StripToken(url)
	if clean == url {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), url, clean), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }
