package github

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
)

// ListServerRepositories downloads the sitewide repository report from the
// stafftools endpoint of a GitHub Enterprise Server instance. The server
// regenerates the report asynchronously; a 202 means it is not ready yet
// and the caller should try again later.
func (c *Client) ListServerRepositories(ctx context.Context) ([]Repository, error) {
	u := c.serverURL + "/stafftools/reports/all_repositories.csv"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build repository report request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download repository report: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusAccepted:
		return nil, fmt.Errorf("repository report is still being generated, try again in a few minutes")
	default:
		return nil, fmt.Errorf("download repository report: %s returned %s", u, resp.Status)
	}

	repos, err := parseRepositoryReport(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse repository report: %w", err)
	}
	return repos, nil
}

// parseRepositoryReport reads the stafftools all_repositories.csv format.
// Columns are located by header name so the surrounding columns can change
// between server versions without breaking the parse.
func parseRepositoryReport(r io.Reader) ([]Repository, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	ownerCol, nameCol := -1, -1
	for i, col := range header {
		switch col {
		case "owner_name":
			ownerCol = i
		case "name":
			nameCol = i
		}
	}
	if ownerCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("header %v is missing owner_name or name", header)
	}

	var repos []Repository
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return repos, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		owner, name := record[ownerCol], record[nameCol]
		if owner == "" || name == "" {
			continue
		}
		repos = append(repos, Repository{Owner: owner, Name: name})
	}
}
