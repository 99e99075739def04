package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/github-devtools-2022/ghas-to-csv/github"
)

// Config represents the entire application configuration.
type Config struct {
	GitHub GitHubConfig
	Report ReportConfig
	Output OutputConfig
	Log    LogConfig
	WebAPI WebAPIConfig
	Serve  ServeConfig
}

// GitHubConfig holds API endpoint and credential settings. The variable
// names match what GitHub Actions injects so the binary picks them up
// without extra wiring when run as a workflow step.
type GitHubConfig struct {
	APIURL    string
	ServerURL string
	Token     string
}

// ReportConfig selects which reports to generate and for which targets.
type ReportConfig struct {
	Scopes   []github.Scope
	Features []github.Feature

	// UnknownFeatures holds FEATURES entries that did not name a known
	// feature. They are dropped from the run; callers log them.
	UnknownFeatures []string

	// ScopeName is the shared target name (SCOPE_NAME, falling back to
	// GITHUB_REPOSITORY). Enterprise and Organization override it for
	// their scopes; repository targets always use ScopeName, since the
	// runner injects GITHUB_REPOSITORY into every Actions job and it
	// must not shadow an explicit SCOPE_NAME.
	ScopeName    string
	Enterprise   string
	Organization string
}

// Target returns the name reports are generated for at the given scope.
func (rc *ReportConfig) Target(scope github.Scope) string {
	switch scope {
	case github.ScopeEnterprise:
		if rc.Enterprise != "" {
			return rc.Enterprise
		}
	case github.ScopeOrganization:
		if rc.Organization != "" {
			return rc.Organization
		}
	}
	return rc.ScopeName
}

// OutputConfig holds file output settings.
type OutputConfig struct {
	Dir          string
	ArtifactDir  string
	WorkflowFile string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// SlogLevel converts the Level string to slog.Level.
func (lc *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(lc.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WebAPIConfig holds web API server settings.
type WebAPIConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// ServeConfig holds daemon mode settings.
type ServeConfig struct {
	SyncIntervalMinutes int
	RunOnStart          bool
	Timezone            string
}

// Load reads configuration from the environment. Report settings use the
// GITHUB_* / SCOPE_NAME / FEATURES variables the original Actions setup
// relies on; service settings use a GHAS_ prefix.
func Load() (*Config, error) {
	token, _ := lo.Coalesce(os.Getenv("GITHUB_PAT"), os.Getenv("GITHUB_TOKEN"))
	scopeName, _ := lo.Coalesce(os.Getenv("SCOPE_NAME"), os.Getenv("GITHUB_REPOSITORY"))

	scopes, err := github.ParseScopes(envStr("GITHUB_REPORT_SCOPE", "repository"))
	if err != nil {
		return nil, fmt.Errorf("invalid GITHUB_REPORT_SCOPE: %w", err)
	}

	features, unknown := github.ParseFeatures(envStr("FEATURES", "all"))

	syncIntervalMinutes, err := envInt("GHAS_SYNC_INTERVAL_MINUTES", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid GHAS_SYNC_INTERVAL_MINUTES: %w", err)
	}

	runOnStart, err := envBool("GHAS_RUN_ON_START", false)
	if err != nil {
		return nil, fmt.Errorf("invalid GHAS_RUN_ON_START: %w", err)
	}

	timezone := envStr("GHAS_TIMEZONE", "UTC")

	logLevel := envStr("GHAS_LOG_LEVEL", "info")
	logFormat := envStr("GHAS_LOG_FORMAT", "json")

	webapiEnabled, err := envBool("GHAS_WEBAPI_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid GHAS_WEBAPI_ENABLED: %w", err)
	}

	webapiHost := envStr("GHAS_WEBAPI_HOST", "0.0.0.0")

	webapiPort, err := envInt("GHAS_WEBAPI_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid GHAS_WEBAPI_PORT: %w", err)
	}

	config := &Config{
		GitHub: GitHubConfig{
			APIURL:    envStr("GITHUB_API_URL", github.DefaultAPIURL),
			ServerURL: envStr("GITHUB_SERVER_URL", github.DefaultServerURL),
			Token:     token,
		},
		Report: ReportConfig{
			Scopes:          scopes,
			Features:        features,
			UnknownFeatures: unknown,
			ScopeName:       scopeName,
			Enterprise:      os.Getenv("GITHUB_ENTERPRISE"),
			Organization:    os.Getenv("GITHUB_ORGANIZATION"),
		},
		Output: OutputConfig{
			Dir:          envStr("GHAS_OUTPUT_DIR", "."),
			ArtifactDir:  envStr("GHAS_ARTIFACT_DIR", "artifacts"),
			WorkflowFile: os.Getenv("GHAS_WORKFLOW_FILE"),
		},
		Log: LogConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		WebAPI: WebAPIConfig{
			Enabled: webapiEnabled,
			Host:    webapiHost,
			Port:    webapiPort,
		},
		Serve: ServeConfig{
			SyncIntervalMinutes: syncIntervalMinutes,
			RunOnStart:          runOnStart,
			Timezone:            timezone,
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.GitHub.Token == "" {
		return errors.New("GITHUB_PAT or GITHUB_TOKEN is required")
	}
	if len(c.Report.Scopes) == 0 {
		return errors.New("GITHUB_REPORT_SCOPE selected no scopes")
	}
	if len(c.Report.Features) == 0 {
		return fmt.Errorf("FEATURES selected no known features (valid features are %v)", github.Features)
	}
	for _, scope := range c.Report.Scopes {
		target := c.Report.Target(scope)
		if target == "" {
			return fmt.Errorf("no target for %s scope: set SCOPE_NAME or GITHUB_%s", scope, strings.ToUpper(string(scope)))
		}
		if scope == github.ScopeRepository {
			if _, err := github.SplitRepository(target); err != nil {
				return fmt.Errorf("invalid repository target: %w", err)
			}
		}
	}
	if _, err := time.LoadLocation(c.Serve.Timezone); err != nil {
		return fmt.Errorf("invalid GHAS_TIMEZONE (%q): %w", c.Serve.Timezone, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
		// OK
	default:
		return fmt.Errorf("invalid GHAS_LOG_LEVEL (%q): must be one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
		// OK
	default:
		return fmt.Errorf("invalid GHAS_LOG_FORMAT (%q): must be one of json, text", c.Log.Format)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("expected integer for %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("expected boolean for %s: %w", key, err)
	}
	return b, nil
}
