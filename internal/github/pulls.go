package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v66/github"

	"github.com/naoray/hubber/internal/labels"
)

// PullRequest is an open pull request.
type PullRequest struct {
	Number  int
	Title   string
	Author  string
	Head    string
	Base    string
	HTMLURL string
}

func toPullRequest(pr *gh.PullRequest) PullRequest {
	return PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		Author:  pr.GetUser().GetLogin(),
		Head:    pr.GetHead().GetRef(),
		Base:    pr.GetBase().GetRef(),
		HTMLURL: pr.GetHTMLURL(),
	}
}

// NewPullRequest describes a pull request to open.
type NewPullRequest struct {
	Title string
	Head  string
	Base  string
	Body  string
}

// CreatePullRequest opens a pull request on repo.
func (c *Client) CreatePullRequest(ctx context.Context, repo labels.RepositoryRef, req NewPullRequest) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, repo.Owner, repo.Name, &gh.NewPullRequest{
		Title: gh.String(req.Title),
		Head:  gh.String(req.Head),
		Base:  gh.String(req.Base),
		Body:  gh.String(req.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("opening pull request from %s: %w", req.Head, translate(err, repo, ""))
	}
	out := toPullRequest(pr)
	return &out, nil
}

// ListPullRequests returns the open pull requests of repo.
func (c *Client) ListPullRequests(ctx context.Context, repo labels.RepositoryRef) ([]PullRequest, error) {
	var pulls []PullRequest
	err := paginate(func(page int) (*gh.Response, error) {
		items, resp, err := c.gh.PullRequests.List(ctx, repo.Owner, repo.Name, &gh.PullRequestListOptions{
			State:       "open",
			ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
		})
		for _, pr := range items {
			pulls = append(pulls, toPullRequest(pr))
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing pull requests of %s: %w", repo, translate(err, repo, ""))
	}
	return pulls, nil
}
