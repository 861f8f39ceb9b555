package git

import (
	"fmt"
	"regexp"
	"strings"

	hubbererrors "github.com/naoray/hubber/internal/errors"
)

// GitHubRemote identifies a repository on github.com.
type GitHubRemote struct {
	Owner string
	Repo  string
}

func (r GitHubRemote) String() string {
	return r.Owner + "/" + r.Repo
}

var (
	sshRemote   = regexp.MustCompile(`^(?:ssh://)?git@github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`)
	httpsRemote = regexp.MustCompile(`^(?:https?|git)://(?:[^@/]+@)?(?:www\.)?github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// ParseGitHubRemote extracts owner and repository from a GitHub remote URL in
// SSH, scp-like or HTTPS form. An HTTPS URL may carry credentials.
func ParseGitHubRemote(url string) (GitHubRemote, error) {
	url = strings.TrimSpace(url)
	for _, pattern := range []*regexp.Regexp{sshRemote, httpsRemote} {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return GitHubRemote{Owner: m[1], Repo: m[2]}, nil
		}
	}
	return GitHubRemote{}, fmt.Errorf("parsing %q: %w", StripToken(url), hubbererrors.ErrNotGitHubRemote)
}

// HTTPSURL returns the clone URL of owner/repo.
func HTTPSURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)
}

// InsertToken embeds token as the user of an HTTPS URL so git can push
// without prompting. Other URLs are returned unchanged.
func InsertToken(url, token string) string {
	if token == "" || !strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + token + "@" + strings.TrimPrefix(StripToken(url), "https://")
}

// StripToken removes credentials from an HTTPS URL.
func StripToken(url string) string {
	if !strings.HasPrefix(url, "https://") {
		return url
	}
	rest := strings.TrimPrefix(url, "https://")
	slash := strings.Index(rest, "/")
	if at := strings.Index(rest, "@"); at >= 0 && (slash < 0 || at < slash) {
		rest = rest[at+1:]
	}
	return "https://" + rest
}
