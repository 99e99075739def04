package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// Column sets are fixed so report consumers can rely on a stable layout.
// Every feature carries a trailing admins column with the admin logins of
// the row's repository.

var secretScanningColumns = []string{
	"number", "state", "created_at", "updated_at", "secret_type",
	"secret_type_display_name", "resolution", "resolved_at", "resolved_by",
	"push_protection_bypassed", "html_url", "repository", "admins",
}

var codeScanningColumns = []string{
	"number", "state", "created_at", "updated_at", "rule_id",
	"rule_severity", "rule_security_severity", "rule_description", "tool",
	"most_recent_instance_ref", "most_recent_instance_state",
	"most_recent_instance_location", "fixed_at", "dismissed_at",
	"dismissed_by", "dismissed_reason", "html_url", "repository", "admins",
}

var dependabotColumns = []string{
	"number", "state", "created_at", "updated_at", "package_ecosystem",
	"package_name", "manifest_path", "severity", "summary", "cve_id",
	"ghsa_id", "fixed_at", "dismissed_at", "dismissed_by",
	"dismissed_reason", "html_url", "repository", "admins",
}

// Alerts from repository-level endpoints carry no repository of their
// own; rows fall back to the target name in that case.

func (g *Generator) secretScanningRow(ctx context.Context, a *gh.SecretScanningAlert, fallbackRepo string) []string {
	repo := a.GetRepository().GetFullName()
	if repo == "" {
		repo = fallbackRepo
	}
	return []string{
		strconv.Itoa(a.GetNumber()),
		a.GetState(),
		timestamp(a.GetCreatedAt()),
		timestamp(a.GetUpdatedAt()),
		a.GetSecretType(),
		a.GetSecretTypeDisplayName(),
		a.GetResolution(),
		timestamp(a.GetResolvedAt()),
		a.GetResolvedBy().GetLogin(),
		strconv.FormatBool(a.GetPushProtectionBypassed()),
		a.GetHTMLURL(),
		repo,
		strings.Join(g.admins.lookup(ctx, repo), ", "),
	}
}

func (g *Generator) codeScanningRow(ctx context.Context, a *gh.Alert, fallbackRepo string) []string {
	repo := a.GetRepository().GetFullName()
	if repo == "" {
		repo = fallbackRepo
	}
	return []string{
		strconv.Itoa(a.GetNumber()),
		a.GetState(),
		timestamp(a.GetCreatedAt()),
		timestamp(a.GetUpdatedAt()),
		a.GetRule().GetID(),
		a.GetRule().GetSeverity(),
		a.GetRule().GetSecuritySeverityLevel(),
		a.GetRule().GetDescription(),
		a.GetTool().GetName(),
		a.GetMostRecentInstance().GetRef(),
		a.GetMostRecentInstance().GetState(),
		instanceLocation(a.GetMostRecentInstance()),
		timestamp(a.GetFixedAt()),
		timestamp(a.GetDismissedAt()),
		a.GetDismissedBy().GetLogin(),
		a.GetDismissedReason(),
		a.GetHTMLURL(),
		repo,
		strings.Join(g.admins.lookup(ctx, repo), ", "),
	}
}

func (g *Generator) dependabotRow(ctx context.Context, a *gh.DependabotAlert, fallbackRepo string) []string {
	repo := a.GetRepository().GetFullName()
	if repo == "" {
		repo = fallbackRepo
	}
	advisory := a.GetSecurityAdvisory()
	return []string{
		strconv.Itoa(a.GetNumber()),
		a.GetState(),
		timestamp(a.GetCreatedAt()),
		timestamp(a.GetUpdatedAt()),
		a.GetDependency().GetPackage().GetEcosystem(),
		a.GetDependency().GetPackage().GetName(),
		a.GetDependency().GetManifestPath(),
		advisory.GetSeverity(),
		advisory.GetSummary(),
		advisory.GetCVEID(),
		advisory.GetGHSAID(),
		timestamp(a.GetFixedAt()),
		timestamp(a.GetDismissedAt()),
		a.GetDismissedBy().GetLogin(),
		a.GetDismissedReason(),
		a.GetHTMLURL(),
		repo,
		strings.Join(g.admins.lookup(ctx, repo), ", "),
	}
}

// instanceLocation renders the most recent instance as path:line.
func instanceLocation(mri *gh.MostRecentInstance) string {
	loc := mri.GetLocation()
	if loc.GetPath() == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", loc.GetPath(), loc.GetStartLine())
}

func timestamp(ts gh.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339)
}
