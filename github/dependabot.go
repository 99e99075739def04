package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v68/github"
)

// DependabotAlerts returns every Dependabot alert visible on the target.
// The organization endpoint prefers cursor pagination but falls back to
// page numbers when the server only advertises those.
func (c *Client) DependabotAlerts(ctx context.Context, scope Scope, target string) ([]*gh.DependabotAlert, error) {
	switch scope {
	case ScopeRepository:
		repo, err := SplitRepository(target)
		if err != nil {
			return nil, err
		}
		return c.repoDependabotAlerts(ctx, repo)
	case ScopeOrganization:
		return c.orgDependabotAlerts(ctx, target)
	case ScopeEnterprise:
		return c.enterpriseDependabotAlerts(ctx, target)
	default:
		return nil, fmt.Errorf("unknown scope %q", scope)
	}
}

func (c *Client) repoDependabotAlerts(ctx context.Context, repo Repository) ([]*gh.DependabotAlert, error) {
	opts := &gh.ListAlertsOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	var alerts []*gh.DependabotAlert
	for {
		page, resp, err := c.gh.Dependabot.ListRepoAlerts(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("list dependabot alerts for %s: %w", repo.FullName(), err)
		}
		alerts = append(alerts, page...)
		if resp.NextPage == 0 {
			return alerts, nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

func (c *Client) orgDependabotAlerts(ctx context.Context, org string) ([]*gh.DependabotAlert, error) {
	opts := &gh.ListAlertsOptions{
		ListCursorOptions: gh.ListCursorOptions{PerPage: perPage},
	}
	var alerts []*gh.DependabotAlert
	for {
		page, resp, err := c.gh.Dependabot.ListOrgAlerts(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("list dependabot alerts for organization %s: %w", org, err)
		}
		alerts = append(alerts, page...)
		switch {
		case resp.After != "":
			opts.ListCursorOptions.After = resp.After
		case resp.NextPage != 0:
			opts.ListCursorOptions.Page = fmt.Sprint(resp.NextPage)
		default:
			return alerts, nil
		}
	}
}

// enterpriseDependabotAlerts calls the enterprise endpoint directly; the
// client library has no wrapper for it.
func (c *Client) enterpriseDependabotAlerts(ctx context.Context, enterprise string) ([]*gh.DependabotAlert, error) {
	base := fmt.Sprintf("enterprises/%s/dependabot/alerts?per_page=%d", enterprise, perPage)
	u := base
	var alerts []*gh.DependabotAlert
	for {
		req, err := c.gh.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("build dependabot request for enterprise %s: %w", enterprise, err)
		}
		var page []*gh.DependabotAlert
		resp, err := c.gh.Do(ctx, req, &page)
		if err != nil {
			return nil, fmt.Errorf("list dependabot alerts for enterprise %s: %w", enterprise, err)
		}
		alerts = append(alerts, page...)
		switch {
		case resp.After != "":
			u = base + "&after=" + url.QueryEscape(resp.After)
		case resp.NextPage != 0:
			u = fmt.Sprintf("%s&page=%d", base, resp.NextPage)
		default:
			return alerts, nil
		}
	}
}
