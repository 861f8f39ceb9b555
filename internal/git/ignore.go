package git

import "context"

// IsIgnored reports whether the given path is ignored by git.
func (r *Repository) IsIgnored(ctx context.Context, relativePath string) (bool, error) {
	if _, err := r.git.Git(ctx, r.Dir, "check-ignore", "-q", "--", relativePath); err != nil {
		if exitCode(err) == 1 {
			return false, nil
		}
		return false, opError("checking ignore rules", err)
	}
	return true, nil
}
