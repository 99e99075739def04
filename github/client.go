package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPIURL is the github.com REST endpoint.
	DefaultAPIURL = "https://api.github.com"
	// DefaultServerURL is the github.com web origin.
	DefaultServerURL = "https://github.com"

	perPage = 100
)

// Client is a GitHub API client for Advanced Security reporting.
type Client struct {
	gh        *gh.Client
	http      *http.Client
	serverURL string
}

// NewClient creates a client authenticated with a personal access token.
// apiURL selects the REST endpoint (github.com or a GHES /api/v3 URL);
// serverURL is the web origin, used for server-level report downloads.
func NewClient(apiURL, serverURL, token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("access token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Transport = newRetryTransport(httpClient.Transport)
	httpClient.Timeout = 2 * time.Minute

	ghClient := gh.NewClient(httpClient)
	if apiURL != "" && apiURL != DefaultAPIURL {
		var err error
		ghClient, err = ghClient.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure API endpoint %q: %w", apiURL, err)
		}
	}

	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	return &Client{
		gh:        ghClient,
		http:      httpClient,
		serverURL: strings.TrimRight(serverURL, "/"),
	}, nil
}

// ServerVersion returns the GHES version string (e.g. "3.7.2"), or an
// empty string on github.com where no installed version is reported. The
// client library's meta type has no field for it, so the endpoint is
// decoded directly.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	req, err := c.gh.NewRequest(http.MethodGet, "meta", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build meta request: %w", err)
	}
	var meta struct {
		InstalledVersion string `json:"installed_version"`
	}
	if _, err := c.gh.Do(ctx, req, &meta); err != nil {
		return "", fmt.Errorf("failed to get server metadata: %w", err)
	}
	return meta.InstalledVersion, nil
}

// RateLimitRemaining returns the remaining core API quota.
func (c *Client) RateLimitRemaining(ctx context.Context) (int, error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limit: %w", err)
	}
	return limits.GetCore().Remaining, nil
}
