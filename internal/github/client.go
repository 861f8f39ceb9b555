// Package github talks to the GitHub REST API. Client implements
// labels.Store and the issue, pull request and repository calls the
// commands need.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	gh "github.com/google/go-github/v66/github"

	"github.com/naoray/hubber/internal/labels"
)

const perPage = 100

// Client is an authenticated GitHub API client.
type Client struct {
	gh     *gh.Client
	logger *log.Logger

	mu    sync.Mutex
	login string
}

var _ labels.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base URL: %w", err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// NewClient creates a client authenticated with token. A zero timeout
// disables the per-request deadline.
func NewClient(token string, timeout time.Duration, opts ...Option) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}
	c := &Client{
		gh:     gh.NewClient(httpClient).WithAuthToken(token),
		logger: log.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// User is the authenticated account.
type User struct {
	Login string
	Name  string
	Email string
}

// Authenticate fetches the account the token belongs to. A rejected token
// yields an error matching errors.ErrInvalidCredentials.
func (c *Client) Authenticate(ctx context.Context) (*User, error) {
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", translate(err, labels.RepositoryRef{}, ""))
	}

	c.mu.Lock()
	c.login = u.GetLogin()
	c.mu.Unlock()

	return &User{Login: u.GetLogin(), Name: u.GetName(), Email: u.GetEmail()}, nil
}

// Login returns the authenticated login, fetching it on first use.
func (c *Client) Login(ctx context.Context) (string, error) {
	c.mu.Lock()
	login := c.login
	c.mu.Unlock()
	if login != "" {
		return login, nil
	}

	u, err := c.Authenticate(ctx)
	if err != nil {
		return "", err
	}
	return u.Login, nil
}

// paginate calls fetch for every page until the API reports no next page.
func paginate(fetch func(page int) (*gh.Response, error)) error {
	page := 1
	for {
		resp, err := fetch(page)
		if err != nil {
			return err
		}
		if resp == nil || resp.NextPage == 0 {
			return nil
		}
		page = resp.NextPage
	}
}
