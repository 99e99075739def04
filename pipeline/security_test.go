package pipeline

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"testing"

	gh "github.com/google/go-github/v68/github"

	"github.com/github-devtools-2022/ghas-to-csv/artifact"
	"github.com/github-devtools-2022/ghas-to-csv/config"
	"github.com/github-devtools-2022/ghas-to-csv/github"
	"github.com/github-devtools-2022/ghas-to-csv/workflow"
)

// mockClient is a mock GitHub client for testing.
type mockClient struct {
	version    string
	versionErr error
	rateErr    error

	ssErr error
	csErr error
	dbErr error

	admins    map[string][]string
	adminsErr error
}

func (m *mockClient) SecretScanningAlerts(_ context.Context, _ github.Scope, _ string) ([]*gh.SecretScanningAlert, error) {
	if m.ssErr != nil {
		return nil, m.ssErr
	}
	return []*gh.SecretScanningAlert{{Number: gh.Int(1), State: gh.String("open")}}, nil
}

func (m *mockClient) CodeScanningAlerts(_ context.Context, _ github.Scope, _ string) ([]*gh.Alert, error) {
	if m.csErr != nil {
		return nil, m.csErr
	}
	return []*gh.Alert{{Number: gh.Int(2), State: gh.String("open")}}, nil
}

func (m *mockClient) DependabotAlerts(_ context.Context, _ github.Scope, _ string) ([]*gh.DependabotAlert, error) {
	if m.dbErr != nil {
		return nil, m.dbErr
	}
	return []*gh.DependabotAlert{{Number: gh.Int(3), State: gh.String("open")}}, nil
}

func (m *mockClient) ListServerRepositories(_ context.Context) ([]github.Repository, error) {
	return nil, nil
}

func (m *mockClient) ListRepositoryAdmins(_ context.Context, repo github.Repository) ([]string, error) {
	if m.adminsErr != nil {
		return nil, m.adminsErr
	}
	return m.admins[repo.FullName()], nil
}

func (m *mockClient) ServerVersion(_ context.Context) (string, error) {
	return m.version, m.versionErr
}

func (m *mockClient) RateLimitRemaining(_ context.Context) (int, error) {
	if m.rateErr != nil {
		return 0, m.rateErr
	}
	return 4999, nil
}

// mockPublisher is a mock artifact publisher for testing.
type mockPublisher struct {
	calls     int
	name      string
	runID     string
	sourceDir string
	paths     []string
	err       error
}

func (m *mockPublisher) Publish(name, runID, sourceDir string, paths []string) (*artifact.Manifest, error) {
	m.calls++
	m.name, m.runID, m.sourceDir, m.paths = name, runID, sourceDir, paths
	if m.err != nil {
		return nil, m.err
	}
	return &artifact.Manifest{Name: name, RunID: runID}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		GitHub: config.GitHubConfig{APIURL: github.DefaultAPIURL, Token: "token"},
		Report: config.ReportConfig{
			Scopes:    []github.Scope{github.ScopeRepository},
			Features:  github.Features,
			ScopeName: "octo-org/hello-world",
		},
		Output: config.OutputConfig{Dir: t.TempDir()},
	}
}

func stepNames(run *Run) []string {
	names := make([]string, len(run.Steps))
	for i, s := range run.Steps {
		names[i] = s.Name
	}
	return names
}

var wantSteps = []string{
	"resolve config",
	"probe endpoint",
	"collect repository admins",
	"generate reports",
	"verify outputs",
	"publish artifact",
}

func TestSecurityReport_Success(t *testing.T) {
	cfg := testConfig(t)
	client := &mockClient{admins: map[string][]string{"octo-org/hello-world": {"alice"}}}
	publisher := &mockPublisher{}
	runner := NewSecurityReport(cfg, workflow.DefaultDefinition(), client, publisher)

	run := runner.Execute(context.Background(), "schedule")

	if run.Status != StatusSuccess {
		t.Fatalf("run status = %q (%s), want %q", run.Status, run.Error, StatusSuccess)
	}
	if run.Job != "run-security-report" {
		t.Errorf("run job = %q, want %q", run.Job, "run-security-report")
	}
	got := stepNames(run)
	if len(got) != len(wantSteps) {
		t.Fatalf("ran steps %v, want %v", got, wantSteps)
	}
	for i, name := range wantSteps {
		if got[i] != name {
			t.Errorf("step %d = %q, want %q", i, got[i], name)
		}
	}

	entries, err := os.ReadDir(cfg.Output.Dir)
	if err != nil {
		t.Fatal(err)
	}
	var files []string
	for _, e := range entries {
		files = append(files, e.Name())
	}
	sort.Strings(files)
	wantFiles := []string{
		"repository_code_scanning.csv",
		"repository_dependabot.csv",
		"repository_secret_scanning.csv",
	}
	if len(files) != len(wantFiles) {
		t.Fatalf("output dir has %v, want %v", files, wantFiles)
	}
	for i := range wantFiles {
		if files[i] != wantFiles[i] {
			t.Errorf("output file %d = %q, want %q", i, files[i], wantFiles[i])
		}
	}

	if publisher.calls != 1 {
		t.Fatalf("publisher called %d times, want 1", publisher.calls)
	}
	if publisher.name != "security-reports" {
		t.Errorf("artifact name = %q, want %q", publisher.name, "security-reports")
	}
	if publisher.runID != run.ID {
		t.Errorf("publish run ID = %q, want %q", publisher.runID, run.ID)
	}
	if publisher.sourceDir != cfg.Output.Dir {
		t.Errorf("publish source dir = %q, want %q", publisher.sourceDir, cfg.Output.Dir)
	}
	if len(publisher.paths) != 9 {
		t.Errorf("publish got %d declared paths, want 9", len(publisher.paths))
	}
}

func TestSecurityReport_ProbeFailureSkipsRest(t *testing.T) {
	cfg := testConfig(t)
	client := &mockClient{versionErr: errors.New("connection refused")}
	publisher := &mockPublisher{}
	runner := NewSecurityReport(cfg, workflow.DefaultDefinition(), client, publisher)

	run := runner.Execute(context.Background(), "push")

	if run.Status != StatusFailed {
		t.Fatalf("run status = %q, want %q", run.Status, StatusFailed)
	}
	if !strings.Contains(run.Error, "connection refused") {
		t.Errorf("run error = %q, want probe cause", run.Error)
	}
	if run.Steps[1].Status != StatusFailed {
		t.Errorf("probe step status = %q, want %q", run.Steps[1].Status, StatusFailed)
	}
	for _, sr := range run.Steps[2:] {
		if sr.Status != StatusSkipped {
			t.Errorf("step %q status = %q, want %q", sr.Name, sr.Status, StatusSkipped)
		}
	}
	if publisher.calls != 0 {
		t.Errorf("publisher called %d times after failed probe", publisher.calls)
	}
}

func TestSecurityReport_AdminCollectionFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	client := &mockClient{adminsErr: errors.New("403 token lacks repo scope")}
	runner := NewSecurityReport(cfg, workflow.DefaultDefinition(), client, &mockPublisher{})

	run := runner.Execute(context.Background(), "push")

	if run.Status != StatusFailed {
		t.Fatalf("run status = %q, want %q", run.Status, StatusFailed)
	}
	if !strings.Contains(run.Error, `step "collect repository admins"`) {
		t.Errorf("run error = %q, want admin step failure", run.Error)
	}
}

func TestSecurityReport_DisabledFeaturesStillSucceed(t *testing.T) {
	cfg := testConfig(t)
	client := &mockClient{
		ssErr:  errors.New("404 Secret scanning is disabled for this repository"),
		dbErr:  errors.New("403 Dependabot alerts are disabled for this repository"),
		admins: map[string][]string{"octo-org/hello-world": {"alice"}},
	}
	publisher := &mockPublisher{}
	runner := NewSecurityReport(cfg, workflow.DefaultDefinition(), client, publisher)

	run := runner.Execute(context.Background(), "schedule")

	if run.Status != StatusSuccess {
		t.Fatalf("run status = %q (%s), want %q", run.Status, run.Error, StatusSuccess)
	}
	entries, err := os.ReadDir(cfg.Output.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "repository_code_scanning.csv" {
		t.Fatalf("output dir has %d entries, want only the code scanning report", len(entries))
	}
	if publisher.calls != 1 {
		t.Errorf("publisher called %d times, want 1", publisher.calls)
	}
}

func TestSecurityReport_PublishFailure(t *testing.T) {
	cfg := testConfig(t)
	client := &mockClient{admins: map[string][]string{"octo-org/hello-world": {"alice"}}}
	publisher := &mockPublisher{err: errors.New("disk full")}
	runner := NewSecurityReport(cfg, workflow.DefaultDefinition(), client, publisher)

	run := runner.Execute(context.Background(), "push")

	if run.Status != StatusFailed {
		t.Fatalf("run status = %q, want %q", run.Status, StatusFailed)
	}
	last := run.Steps[len(run.Steps)-1]
	if last.Name != "publish artifact" || last.Status != StatusFailed {
		t.Errorf("last step = %q %q, want failed publish", last.Name, last.Status)
	}
}

func TestSecurityReport_MissingTargetFailsResolve(t *testing.T) {
	cfg := testConfig(t)
	cfg.Report.Scopes = []github.Scope{github.ScopeEnterprise}
	cfg.Report.ScopeName = ""
	runner := NewSecurityReport(cfg, workflow.DefaultDefinition(), &mockClient{}, &mockPublisher{})

	run := runner.Execute(context.Background(), "push")

	if run.Status != StatusFailed {
		t.Fatalf("run status = %q, want %q", run.Status, StatusFailed)
	}
	if run.Steps[0].Status != StatusFailed {
		t.Errorf("resolve step status = %q, want %q", run.Steps[0].Status, StatusFailed)
	}
}
