package github

import (
	"context"
	"fmt"
	"net/url"

	gh "github.com/google/go-github/v66/github"

	"github.com/naoray/hubber/internal/labels"
)

// Issue is an issue without its pull request variants.
type Issue struct {
	Repo      labels.RepositoryRef
	Number    int
	Title     string
	Body      string
	State     string
	HTMLURL   string
	Labels    []string
	Assignees []string
	Milestone string
}

func toIssue(i *gh.Issue, repo labels.RepositoryRef) Issue {
	if r := i.GetRepository(); r != nil {
		repo = labels.RepositoryRef{Owner: r.GetOwner().GetLogin(), Name: r.GetName()}
	} else if repo == (labels.RepositoryRef{}) {
		repo = parseRepositoryURL(i.GetRepositoryURL())
	}

	issue := Issue{
		Repo:      repo,
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		State:     i.GetState(),
		HTMLURL:   i.GetHTMLURL(),
		Milestone: i.GetMilestone().GetTitle(),
	}
	for _, l := range i.Labels {
		issue.Labels = append(issue.Labels, l.GetName())
	}
	for _, a := range i.Assignees {
		issue.Assignees = append(issue.Assignees, a.GetLogin())
	}
	return issue
}

// toIssues converts issues, dropping pull requests.
func toIssues(items []*gh.Issue, repo labels.RepositoryRef) []Issue {
	var out []Issue
	for _, i := range items {
		if i.IsPullRequest() {
			continue
		}
		out = append(out, toIssue(i, repo))
	}
	return out
}

// ListIssues returns the open issues of repo.
func (c *Client) ListIssues(ctx context.Context, repo labels.RepositoryRef) ([]Issue, error) {
	var issues []Issue
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Issues.ListByRepo(ctx, repo.Owner, repo.Name, &gh.IssueListByRepoOptions{
			State:       "open",
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		issues = append(issues, toIssues(items, repo)...)
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing issues of %s: %w", repo, translate(err, repo, ""))
	}
	return issues, nil
}

// ListMyIssues returns the open issues across every repository the
// authenticated user can see that are assigned to, created by or mention them.
func (c *Client) ListMyIssues(ctx context.Context) ([]Issue, error) {
	var issues []Issue
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Issues.List(ctx, true, &gh.IssueListOptions{
			Filter:      "all",
			State:       "open",
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		issues = append(issues, toIssues(items, labels.RepositoryRef{})...)
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", translate(err, labels.RepositoryRef{}, ""))
	}
	return issues, nil
}

// NewIssue describes an issue to create.
type NewIssue struct {
	Title     string
	Body      string
	Labels    []string
	Assignees []string
}

// CreateIssue opens an issue on repo.
func (c *Client) CreateIssue(ctx context.Context, repo labels.RepositoryRef, req NewIssue) (*Issue, error) {
	request := &gh.IssueRequest{
		Title: gh.String(req.Title),
		Body:  gh.String(req.Body),
	}
	if len(req.Labels) > 0 {
		request.Labels = &req.Labels
	}
	if len(req.Assignees) > 0 {
		request.Assignees = &req.Assignees
	}

	created, _, err := c.gh.Issues.Create(ctx, repo.Owner, repo.Name, request)
	if err != nil {
		return nil, fmt.Errorf("creating issue on %s: %w", repo, translate(err, repo, ""))
	}
	issue := toIssue(created, repo)
	return &issue, nil
}

// AddIssueLabels attaches labels to issue number.
func (c *Client) AddIssueLabels(ctx context.Context, repo labels.RepositoryRef, number int, names ...string) error {
	if _, _, err := c.gh.Issues.AddLabelsToIssue(ctx, repo.Owner, repo.Name, number, names); err != nil {
		return fmt.Errorf("adding labels to #%d: %w", number, translate(err, repo, ""))
	}
	return nil
}

// RemoveIssueLabel detaches a label from issue number. A label that is not
// attached is not an error.
func (c *Client) RemoveIssueLabel(ctx context.Context, repo labels.RepositoryRef, number int, name string) error {
	if _, err := c.gh.Issues.RemoveLabelForIssue(ctx, repo.Owner, repo.Name, number, url.PathEscape(name)); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("removing label from #%d: %w", number, translate(err, repo, name))
	}
	return nil
}

// MoveIssueLabel replaces label from with label to on issue number.
func (c *Client) MoveIssueLabel(ctx context.Context, repo labels.RepositoryRef, number int, from, to string) error {
	if from != "" {
		if err := c.RemoveIssueLabel(ctx, repo, number, from); err != nil {
			return err
		}
	}
	if to == "" {
		return nil
	}
	return c.AddIssueLabels(ctx, repo, number, to)
}

// CreateComment posts body as a comment on issue number.
func (c *Client) CreateComment(ctx context.Context, repo labels.RepositoryRef, number int, body string) error {
	if _, _, err := c.gh.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, &gh.IssueComment{Body: gh.String(body)}); err != nil {
		return fmt.Errorf("commenting on #%d: %w", number, translate(err, repo, ""))
	}
	return nil
}

// SearchIssues runs an issue search query and returns the issues found.
func (c *Client) SearchIssues(ctx context.Context, query string) ([]Issue, error) {
	var issues []Issue
	err := paginate(func(page int) (*gh.Response, error) {
		result, resp, err := c.gh.Search.Issues(ctx, query, &gh.SearchOptions{
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		if result != nil {
			issues = append(issues, toIssues(result.Issues, labels.RepositoryRef{})...)
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("searching issues: %w", translate(err, labels.RepositoryRef{}, ""))
	}
	return issues, nil
}

// ListAssignees returns the logins that can be assigned issues on repo.
func (c *Client) ListAssignees(ctx context.Context, repo labels.RepositoryRef) ([]string, error) {
	var logins []string
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Issues.ListAssignees(ctx, repo.Owner, repo.Name, &gh.ListOptions{Page: page, PerPage: perPage})
		for _, u := range items {
			logins = append(logins, u.GetLogin())
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing assignees of %s: %w", repo, translate(err, repo, ""))
	}
	return logins, nil
}

// ListMilestones returns the titles of the open milestones of repo.
func (c *Client) ListMilestones(ctx context.Context, repo labels.RepositoryRef) ([]string, error) {
	var titles []string
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.Issues.ListMilestones(ctx, repo.Owner, repo.Name, &gh.MilestoneListOptions{
			State:       "open",
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		for _, m := range items {
			titles = append(titles, m.GetTitle())
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing milestones of %s: %w", repo, translate(err, repo, ""))
	}
	return titles, nil
}
