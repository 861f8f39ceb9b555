package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/naoray/hubber/internal/labels"
)

// Repository is the subset of repository metadata hubber shows and acts on.
type Repository struct {
	Ref         labels.RepositoryRef
	Description string
	Private     bool
	HasIssues   bool
	CloneURL    string
	HTMLURL     string
}

func toRepository(r *gh.Repository) Repository {
	return Repository{
		Ref:         labels.RepositoryRef{Owner: r.GetOwner().GetLogin(), Name: r.GetName()},
		Description: r.GetDescription(),
		Private:     r.GetPrivate(),
		HasIssues:   r.GetHasIssues(),
		CloneURL:    r.GetCloneURL(),
		HTMLURL:     r.GetHTMLURL(),
	}
}

func toRepositories(repos []*gh.Repository) []Repository {
	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, toRepository(r))
	}
	return out
}

// ListUserRepositories lists every repository the authenticated user can
// access: owned, collaborated on and through organization membership.
func (c *Client) ListUserRepositories(ctx context.Context) ([]Repository, error) {
	repos, err := c.listOwnRepositories(ctx, "owner,collaborator,organization_member")
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", translate(err, labels.RepositoryRef{}, ""))
	}
	return toRepositories(repos), nil
}

// GetRepository fetches repo.
func (c *Client) GetRepository(ctx context.Context, repo labels.RepositoryRef) (*Repository, error) {
	r, _, err := c.gh.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s: %w", repo, translate(err, repo, ""))
	}
	out := toRepository(r)
	return &out, nil
}

// EnableIssues turns on the issue tracker of repo.
func (c *Client) EnableIssues(ctx context.Context, repo labels.RepositoryRef) error {
	_, _, err := c.gh.Repositories.Edit(ctx, repo.Owner, repo.Name, &gh.Repository{HasIssues: gh.Bool(true)})
	if err != nil {
		return fmt.Errorf("enabling issues on %s: %w", repo, translate(err, repo, ""))
	}
	return nil
}

// NewRepository describes a repository to create.
type NewRepository struct {
	// Org is empty for a personal repository.
	Org         string
	Name        string
	Description string
	Private     bool
}

// CreateRepository creates a repository with issues enabled.
func (c *Client) CreateRepository(ctx context.Context, req NewRepository) (*Repository, error) {
	r, _, err := c.gh.Repositories.Create(ctx, req.Org, &gh.Repository{
		Name:        gh.String(req.Name),
		Description: gh.String(req.Description),
		Private:     gh.Bool(req.Private),
		HasIssues:   gh.Bool(true),
	})
	if err != nil {
		owner := req.Org
		if owner == "" {
			owner, _ = c.Login(ctx)
		}
		return nil, fmt.Errorf("creating repository %s: %w", req.Name, translate(err, labels.RepositoryRef{Owner: owner, Name: req.Name}, ""))
	}
	out := toRepository(r)
	return &out, nil
}

// ListOrganizations returns the logins of the organizations the
// authenticated user belongs to.
func (c *Client) ListOrganizations(ctx context.Context) ([]string, error) {
	var orgs []string
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Organizations.List(ctx, "", &gh.ListOptions{Page: page, PerPage: perPage})
		for _, o := range items {
			orgs = append(orgs, o.GetLogin())
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", translate(err, labels.RepositoryRef{}, ""))
	}
	return orgs, nil
}

// ListContributors returns the logins of the contributors to repo.
func (c *Client) ListContributors(ctx context.Context, repo labels.RepositoryRef) ([]string, error) {
	var logins []string
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Repositories.ListContributors(ctx, repo.Owner, repo.Name, &gh.ListContributorsOptions{
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		for _, contributor := range items {
			logins = append(logins, contributor.GetLogin())
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing contributors of %s: %w", repo, translate(err, repo, ""))
	}
	return logins, nil
}

func (c *Client) listOrgRepositories(ctx context.Context, org string) ([]*gh.Repository, error) {
	var repos []*gh.Repository
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Repositories.ListByOrg(ctx, org, &gh.RepositoryListByOrgOptions{
			Type:        "all",
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		repos = append(repos, items...)
		return resp, err
	})
	return repos, err
}

func (c *Client) listUserRepositories(ctx context.Context, user string) ([]*gh.Repository, error) {
	var repos []*gh.Repository
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Repositories.ListByUser(ctx, user, &gh.RepositoryListByUserOptions{
			Type:        "owner",
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		repos = append(repos, items...)
		return resp, err
	})
	return repos, err
}

func (c *Client) listOwnRepositories(ctx context.Context, affiliation string) ([]*gh.Repository, error) {
	var repos []*gh.Repository
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, &gh.RepositoryListByAuthenticatedUserOptions{
			Affiliation: affiliation,
			Sort:        "full_name",
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		repos = append(repos, items...)
		return resp, err
	})
	return repos, err
}

// parseRepositoryURL extracts owner/name from an API repository URL such as
// https://api.github.com/repos/acme/widgets.
func parseRepositoryURL(raw string) labels.RepositoryRef {
	_, path, ok := strings.Cut(raw, "/repos/")
	if !ok {
		return labels.RepositoryRef{}
	}
	ref, err := labels.ParseRepositoryRef(strings.TrimSuffix(path, "/"))
	if err != nil {
		return labels.RepositoryRef{}
	}
	return ref
}
