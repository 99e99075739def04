package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v68/github"
)

// SecretScanningAlerts returns every secret scanning alert visible on the
// target. Repository and organization endpoints paginate by page number,
// the enterprise endpoint by cursor.
func (c *Client) SecretScanningAlerts(ctx context.Context, scope Scope, target string) ([]*gh.SecretScanningAlert, error) {
	switch scope {
	case ScopeRepository:
		repo, err := SplitRepository(target)
		if err != nil {
			return nil, err
		}
		return c.repoSecretScanningAlerts(ctx, repo)
	case ScopeOrganization:
		return c.orgSecretScanningAlerts(ctx, target)
	case ScopeEnterprise:
		return c.enterpriseSecretScanningAlerts(ctx, target)
	default:
		return nil, fmt.Errorf("unknown scope %q", scope)
	}
}

func (c *Client) repoSecretScanningAlerts(ctx context.Context, repo Repository) ([]*gh.SecretScanningAlert, error) {
	opts := &gh.SecretScanningAlertListOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	var alerts []*gh.SecretScanningAlert
	for {
		page, resp, err := c.gh.SecretScanning.ListAlertsForRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("list secret scanning alerts for %s: %w", repo.FullName(), err)
		}
		alerts = append(alerts, page...)
		if resp.NextPage == 0 {
			return alerts, nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

func (c *Client) orgSecretScanningAlerts(ctx context.Context, org string) ([]*gh.SecretScanningAlert, error) {
	opts := &gh.SecretScanningAlertListOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	var alerts []*gh.SecretScanningAlert
	for {
		page, resp, err := c.gh.SecretScanning.ListAlertsForOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("list secret scanning alerts for organization %s: %w", org, err)
		}
		alerts = append(alerts, page...)
		if resp.NextPage == 0 {
			return alerts, nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

func (c *Client) enterpriseSecretScanningAlerts(ctx context.Context, enterprise string) ([]*gh.SecretScanningAlert, error) {
	opts := &gh.SecretScanningAlertListOptions{
		ListCursorOptions: gh.ListCursorOptions{PerPage: perPage},
	}
	var alerts []*gh.SecretScanningAlert
	for {
		page, resp, err := c.gh.SecretScanning.ListAlertsForEnterprise(ctx, enterprise, opts)
		if err != nil {
			return nil, fmt.Errorf("list secret scanning alerts for enterprise %s: %w", enterprise, err)
		}
		alerts = append(alerts, page...)
		if resp.After == "" {
			return alerts, nil
		}
		opts.ListCursorOptions.After = resp.After
	}
}
