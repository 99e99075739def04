// Package report generates the per-scope GitHub Advanced Security CSV
// reports: secret scanning, code scanning, and Dependabot alerts written
// as {scope}_{feature}.csv files.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/github-devtools-2022/ghas-to-csv/github"
)

// Client is the part of the GitHub client the generator needs.
type Client interface {
	SecretScanningAlerts(ctx context.Context, scope github.Scope, target string) ([]*gh.SecretScanningAlert, error)
	CodeScanningAlerts(ctx context.Context, scope github.Scope, target string) ([]*gh.Alert, error)
	DependabotAlerts(ctx context.Context, scope github.Scope, target string) ([]*gh.DependabotAlert, error)
	ListServerRepositories(ctx context.Context) ([]github.Repository, error)
	ListRepositoryAdmins(ctx context.Context, repo github.Repository) ([]string, error)
}

// Target pairs a scope with the name reports are generated for: an
// enterprise slug, an organization name, or an owner/repo.
type Target struct {
	Scope github.Scope
	Name  string
}

// Plan describes a full report run.
type Plan struct {
	Targets  []Target
	Features []github.Feature
}

// Generator fetches alerts and writes them as CSV files.
type Generator struct {
	client        Client
	outputDir     string
	serverVersion string
	admins        *adminDirectory
}

// NewGenerator returns a Generator writing into outputDir. serverVersion
// is the GHES installed version; github.com reports none and passes "".
func NewGenerator(client Client, outputDir, serverVersion string) *Generator {
	return &Generator{
		client:        client,
		outputDir:     outputDir,
		serverVersion: serverVersion,
		admins:        newAdminDirectory(client),
	}
}

// CollectAdmins resolves and caches the admin list for a repository.
// Report generation later reuses the cache; unlike the lazy lookups done
// while writing rows, the error here is returned so the caller can fail
// the run when its primary repository cannot be resolved.
func (g *Generator) CollectAdmins(ctx context.Context, fullName string) ([]string, error) {
	return g.admins.collect(ctx, fullName)
}

// Generate writes one CSV per target x feature and returns the paths
// written. Targets with secret scanning or Dependabot disabled skip that
// file without failing the run; code scanning errors are fatal.
func (g *Generator) Generate(ctx context.Context, plan Plan) ([]string, error) {
	var written []string
	for _, target := range plan.Targets {
		for _, feature := range plan.Features {
			path, err := g.generate(ctx, target, feature)
			if err != nil {
				return written, fmt.Errorf("%s %s report: %w", target.Scope, feature, err)
			}
			if path == "" {
				continue
			}
			slog.Info("report written", "scope", target.Scope, "feature", feature, "path", path)
			written = append(written, path)
		}
	}
	return written, nil
}

func (g *Generator) generate(ctx context.Context, target Target, feature github.Feature) (string, error) {
	switch feature {
	case github.FeatureSecretScanning:
		return g.generateSecretScanning(ctx, target)
	case github.FeatureCodeScanning:
		return g.generateCodeScanning(ctx, target)
	case github.FeatureDependabot:
		return g.generateDependabot(ctx, target)
	default:
		return "", fmt.Errorf("unknown feature %q", feature)
	}
}

func (g *Generator) generateSecretScanning(ctx context.Context, target Target) (string, error) {
	alerts, err := g.client.SecretScanningAlerts(ctx, target.Scope, target.Name)
	if err != nil {
		if github.IsFeatureDisabled(err) {
			slog.Info("skipping secret scanning, feature is not enabled",
				"scope", target.Scope, "target", target.Name, "reason", err)
			return "", nil
		}
		return "", err
	}
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, g.secretScanningRow(ctx, a, target.Name))
	}
	return g.write(target.Scope, github.FeatureSecretScanning, secretScanningColumns, rows)
}

func (g *Generator) generateCodeScanning(ctx context.Context, target Target) (string, error) {
	var rows [][]string
	if target.Scope == github.ScopeEnterprise && needsRepositoryWalk(g.serverVersion) {
		repos, err := g.client.ListServerRepositories(ctx)
		if err != nil {
			return "", err
		}
		slog.Info("server version has no enterprise code scanning endpoint, walking repositories",
			"version", g.serverVersion, "repositories", len(repos))
		for _, repo := range repos {
			alerts, err := g.client.CodeScanningAlerts(ctx, github.ScopeRepository, repo.FullName())
			if err != nil {
				// Most repositories on a server have no code scanning
				// set up at all.
				if github.IsNotFound(err) || github.IsFeatureDisabled(err) {
					continue
				}
				return "", err
			}
			for _, a := range alerts {
				rows = append(rows, g.codeScanningRow(ctx, a, repo.FullName()))
			}
		}
	} else {
		alerts, err := g.client.CodeScanningAlerts(ctx, target.Scope, target.Name)
		if err != nil {
			return "", err
		}
		for _, a := range alerts {
			rows = append(rows, g.codeScanningRow(ctx, a, target.Name))
		}
	}
	return g.write(target.Scope, github.FeatureCodeScanning, codeScanningColumns, rows)
}

func (g *Generator) generateDependabot(ctx context.Context, target Target) (string, error) {
	alerts, err := g.client.DependabotAlerts(ctx, target.Scope, target.Name)
	if err != nil {
		if github.IsFeatureDisabled(err) {
			slog.Info("skipping dependabot, feature is not enabled",
				"scope", target.Scope, "target", target.Name, "reason", err)
			return "", nil
		}
		return "", err
	}
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, g.dependabotRow(ctx, a, target.Name))
	}
	return g.write(target.Scope, github.FeatureDependabot, dependabotColumns, rows)
}

// needsRepositoryWalk reports whether enterprise code scanning must walk
// the repository inventory. GHES 3.5 and 3.6 have no enterprise-level
// code scanning endpoint; 3.7+ and github.com do.
func needsRepositoryWalk(serverVersion string) bool {
	return strings.HasPrefix(serverVersion, "3.5") || strings.HasPrefix(serverVersion, "3.6")
}

func (g *Generator) write(scope github.Scope, feature github.Feature, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", g.outputDir, err)
	}
	path := filepath.Join(g.outputDir, fmt.Sprintf("%s_%s.csv", scope, feature.Slug()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
