package github

import (
	"context"
	"net/url"

	gh "github.com/google/go-github/v66/github"

	"github.com/naoray/hubber/internal/labels"
)

func toLabel(l *gh.Label) labels.Label {
	return labels.Label{Name: l.GetName(), Description: l.GetDescription(), Color: l.GetColor()}
}

func fromLabel(l labels.Label) *gh.Label {
	return &gh.Label{
		Name:        gh.String(l.Name),
		Description: gh.String(l.Description),
		Color:       gh.String(l.Color),
	}
}

// ListLabels returns every label of repo.
func (c *Client) ListLabels(ctx context.Context, repo labels.RepositoryRef) ([]labels.Label, error) {
	var set []labels.Label
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Issues.ListLabels(ctx, repo.Owner, repo.Name, &gh.ListOptions{Page: page, PerPage: perPage})
		for _, item := range items {
			set = append(set, toLabel(item))
		}
		return resp, err
	})
	if err != nil {
		return nil, translate(err, repo, "")
	}
	return set, nil
}

// CreateLabel creates label on repo.
func (c *Client) CreateLabel(ctx context.Context, repo labels.RepositoryRef, label labels.Label) (labels.Label, error) {
	created, _, err := c.gh.Issues.CreateLabel(ctx, repo.Owner, repo.Name, fromLabel(label))
	if err != nil {
		return labels.Label{}, translate(err, repo, label.Name)
	}
	c.logger.Debug("created label", "repo", repo, "label", label.Name)
	return toLabel(created), nil
}

// GetLabel fetches the label called name. go-github puts label names into
// the path verbatim, so they are escaped here and in the calls below.
func (c *Client) GetLabel(ctx context.Context, repo labels.RepositoryRef, name string) (labels.Label, error) {
	l, _, err := c.gh.Issues.GetLabel(ctx, repo.Owner, repo.Name, url.PathEscape(name))
	if err != nil {
		return labels.Label{}, translate(err, repo, name)
	}
	return toLabel(l), nil
}

// UpdateLabel replaces the label called oldName, renaming it if needed.
func (c *Client) UpdateLabel(ctx context.Context, repo labels.RepositoryRef, oldName string, label labels.Label) (labels.Label, error) {
	updated, _, err := c.gh.Issues.EditLabel(ctx, repo.Owner, repo.Name, url.PathEscape(oldName), fromLabel(label))
	if err != nil {
		return labels.Label{}, translate(err, repo, oldName)
	}
	c.logger.Debug("updated label", "repo", repo, "label", oldName, "name", label.Name)
	return toLabel(updated), nil
}

// DeleteLabel removes the label called name.
func (c *Client) DeleteLabel(ctx context.Context, repo labels.RepositoryRef, name string) error {
	if _, err := c.gh.Issues.DeleteLabel(ctx, repo.Owner, repo.Name, url.PathEscape(name)); err != nil {
		return translate(err, repo, name)
	}
	c.logger.Debug("deleted label", "repo", repo, "label", name)
	return nil
}

// ListRepositoriesForOwner lists the repositories of an organization or
// user. The authenticated user's own listing includes private repositories.
func (c *Client) ListRepositoriesForOwner(ctx context.Context, owner string) ([]labels.RepositoryRef, error) {
	repos, err := c.listOrgRepositories(ctx, owner)
	if err == nil {
		return refs(repos), nil
	}
	if !isNotFound(err) {
		return nil, translate(err, labels.RepositoryRef{Owner: owner}, "")
	}

	c.logger.Debug("owner is not an organization, listing user repositories", "owner", owner)
	if login, loginErr := c.Login(ctx); loginErr == nil && login == owner {
		repos, err = c.listOwnRepositories(ctx, "owner")
	} else {
		repos, err = c.listUserRepositories(ctx, owner)
	}
	if err != nil {
		return nil, translate(err, labels.RepositoryRef{Owner: owner}, "")
	}
	return refs(repos), nil
}

func refs(repos []*gh.Repository) []labels.RepositoryRef {
	out := make([]labels.RepositoryRef, 0, len(repos))
	for _, r := range repos {
		out = append(out, labels.RepositoryRef{Owner: r.GetOwner().GetLogin(), Name: r.GetName()})
	}
	return out
}
