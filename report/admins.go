package report

import (
	"context"
	"log/slog"

	"github.com/github-devtools-2022/ghas-to-csv/github"
)

// adminDirectory caches per-repository admin lookups for the admins
// column so each repository is queried at most once per run.
type adminDirectory struct {
	client Client
	cache  map[string][]string
}

func newAdminDirectory(client Client) *adminDirectory {
	return &adminDirectory{
		client: client,
		cache:  map[string][]string{},
	}
}

// collect fetches and caches the admins of fullName. Errors are returned
// to the caller.
func (d *adminDirectory) collect(ctx context.Context, fullName string) ([]string, error) {
	if admins, ok := d.cache[fullName]; ok {
		return admins, nil
	}
	repo, err := github.SplitRepository(fullName)
	if err != nil {
		return nil, err
	}
	admins, err := d.client.ListRepositoryAdmins(ctx, repo)
	if err != nil {
		return nil, err
	}
	d.cache[fullName] = admins
	return admins, nil
}

// lookup is the forgiving variant used while writing rows: a failed
// lookup logs a warning and yields no admins, and is cached so one broken
// repository does not warn on every row.
func (d *adminDirectory) lookup(ctx context.Context, fullName string) []string {
	if fullName == "" {
		return nil
	}
	if admins, ok := d.cache[fullName]; ok {
		return admins
	}
	admins, err := d.collect(ctx, fullName)
	if err != nil {
		slog.Warn("could not resolve repository admins", "repository", fullName, "error", err)
		d.cache[fullName] = nil
		return nil
	}
	return admins
}
