package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/github-devtools-2022/ghas-to-csv/artifact"
	"github.com/github-devtools-2022/ghas-to-csv/config"
	"github.com/github-devtools-2022/ghas-to-csv/github"
	"github.com/github-devtools-2022/ghas-to-csv/report"
	"github.com/github-devtools-2022/ghas-to-csv/workflow"
)

// Client is what the job needs from the GitHub API layer: the report
// generator's surface plus endpoint metadata.
type Client interface {
	report.Client
	ServerVersion(ctx context.Context) (string, error)
	RateLimitRemaining(ctx context.Context) (int, error)
}

// Publisher bundles the report files after a successful run.
type Publisher interface {
	Publish(name, runID, sourceDir string, paths []string) (*artifact.Manifest, error)
}

// securityReport carries state between the job's steps.
type securityReport struct {
	cfg       *config.Config
	def       *workflow.Definition
	client    Client
	publisher Publisher

	plan    report.Plan
	gen     *report.Generator
	written []string
}

// NewSecurityReport assembles the report job declared by the workflow
// definition: resolve the plan, probe the endpoint, collect admins,
// generate the reports, verify them, publish the artifact.
func NewSecurityReport(cfg *config.Config, def *workflow.Definition, client Client, publisher Publisher) *Runner {
	s := &securityReport{
		cfg:       cfg,
		def:       def,
		client:    client,
		publisher: publisher,
	}
	jobID, _ := def.Job()
	return NewRunner(jobID, []Step{
		{Name: "resolve config", Run: s.resolveConfig},
		{Name: "probe endpoint", Run: s.probeEndpoint},
		{Name: "collect repository admins", Run: s.collectAdmins},
		{Name: "generate reports", Run: s.generateReports},
		{Name: "verify outputs", Run: s.verifyOutputs},
		{Name: "publish artifact", Run: s.publishArtifact},
	})
}

func (s *securityReport) resolveConfig(_ context.Context, _ string) error {
	if unknown := s.cfg.Report.UnknownFeatures; len(unknown) != 0 {
		slog.Warn("ignoring unknown features", "features", unknown, "valid", github.Features)
	}
	s.plan = report.Plan{Features: s.cfg.Report.Features}
	for _, scope := range s.cfg.Report.Scopes {
		target := s.cfg.Report.Target(scope)
		if target == "" {
			return fmt.Errorf("no target configured for %s scope", scope)
		}
		s.plan.Targets = append(s.plan.Targets, report.Target{Scope: scope, Name: target})
		slog.Info("report target resolved", "scope", scope, "target", target)
	}
	return nil
}

func (s *securityReport) probeEndpoint(ctx context.Context, _ string) error {
	version, err := s.client.ServerVersion(ctx)
	if err != nil {
		return fmt.Errorf("probe %s: %w", s.cfg.GitHub.APIURL, err)
	}
	if version == "" {
		slog.Info("endpoint probed", "api_url", s.cfg.GitHub.APIURL, "server", "github.com")
	} else {
		slog.Info("endpoint probed", "api_url", s.cfg.GitHub.APIURL, "server_version", version)
	}
	if remaining, err := s.client.RateLimitRemaining(ctx); err != nil {
		// GHES instances can run with rate limiting disabled.
		slog.Warn("could not read rate limit", "error", err)
	} else {
		slog.Info("rate limit checked", "remaining", remaining)
	}
	s.gen = report.NewGenerator(s.client, s.cfg.Output.Dir, version)
	return nil
}

func (s *securityReport) collectAdmins(ctx context.Context, _ string) error {
	for _, target := range s.plan.Targets {
		if target.Scope != github.ScopeRepository {
			continue
		}
		admins, err := s.gen.CollectAdmins(ctx, target.Name)
		if err != nil {
			return fmt.Errorf("collect admins for %s: %w", target.Name, err)
		}
		slog.Info("repository admins collected", "repository", target.Name, "admins", len(admins))
	}
	return nil
}

func (s *securityReport) generateReports(ctx context.Context, _ string) error {
	written, err := s.gen.Generate(ctx, s.plan)
	if err != nil {
		return err
	}
	s.written = written
	return nil
}

func (s *securityReport) verifyOutputs(_ context.Context, _ string) error {
	_, job := s.def.Job()
	declared := map[string]bool{}
	for _, path := range job.ArtifactSpec().Paths {
		declared[path] = true
	}
	for _, path := range s.written {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("report %s missing after generation: %w", path, err)
		}
		if len(declared) != 0 && !declared[filepath.Base(path)] {
			slog.Warn("report is not declared in the workflow artifact and will not be bundled",
				"path", path)
		}
	}
	slog.Info("outputs verified", "reports", len(s.written))
	return nil
}

func (s *securityReport) publishArtifact(_ context.Context, runID string) error {
	_, job := s.def.Job()
	spec := job.ArtifactSpec()
	if spec.Name == "" {
		slog.Info("workflow declares no artifact, skipping publish")
		return nil
	}
	manifest, err := s.publisher.Publish(spec.Name, runID, s.cfg.Output.Dir, spec.Paths)
	if err != nil {
		return err
	}
	slog.Info("artifact bundled", "artifact", manifest.Name, "files", len(manifest.Files))
	return nil
}
