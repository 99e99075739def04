package github

import (
	"context"
	"fmt"
	"sort"

	gh "github.com/google/go-github/v68/github"
)

// ListRepositoryAdmins returns the logins of collaborators with admin
// permission on the repository, sorted for stable report output.
func (c *Client) ListRepositoryAdmins(ctx context.Context, repo Repository) ([]string, error) {
	opts := &gh.ListCollaboratorsOptions{
		Permission:  "admin",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	var admins []string
	for {
		users, resp, err := c.gh.Repositories.ListCollaborators(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("list collaborators for %s: %w", repo.FullName(), err)
		}
		// Older servers ignore the permission filter, so check each
		// collaborator's permissions as well.
		for _, u := range users {
			if u.GetPermissions()["admin"] {
				admins = append(admins, u.GetLogin())
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	sort.Strings(admins)
	return admins, nil
}
