// Package workflow models the security report workflow definition: the
// triggers that fire it, its single job, and the artifact the job
// publishes. Definitions use a subset of the GitHub Actions schema, so
// the original workflow file parses unmodified.
package workflow

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Definition is a parsed workflow file.
type Definition struct {
	Name string         `yaml:"name"`
	On   Triggers       `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Triggers holds the workflow's trigger configuration.
type Triggers struct {
	Push        *BranchFilter `yaml:"push"`
	PullRequest *BranchFilter `yaml:"pull_request"`
	Schedule    []Schedule    `yaml:"schedule"`
}

// BranchFilter restricts a trigger to certain branches. An empty list
// matches any branch.
type BranchFilter struct {
	Branches []string `yaml:"branches"`
}

func (f *BranchFilter) matches(branch string) bool {
	if len(f.Branches) == 0 {
		return true
	}
	for _, b := range f.Branches {
		if b == branch {
			return true
		}
	}
	return false
}

// Schedule is one cron entry of the schedule trigger.
type Schedule struct {
	Cron string `yaml:"cron"`
}

// Job is a workflow job. Steps are kept for Actions compatibility; the
// runner executes its own step sequence and only consults them when no
// native artifact block is declared.
type Job struct {
	Name     string   `yaml:"name"`
	RunsOn   string   `yaml:"runs-on"`
	Steps    []Step   `yaml:"steps"`
	Artifact Artifact `yaml:"artifact"`
}

// Step is one entry of a job's steps list.
type Step struct {
	Name string            `yaml:"name"`
	Uses string            `yaml:"uses"`
	Run  string            `yaml:"run"`
	With map[string]string `yaml:"with"`
}

// Artifact declares the file bundle a job publishes.
type Artifact struct {
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

// Five-field cron, same dialect the scheduler runs.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Load reads a workflow definition from path, or returns the built-in
// default when path is empty.
func Load(path string) (*Definition, error) {
	if path == "" {
		return DefaultDefinition(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("workflow file %s: %w", path, err)
	}
	return def, nil
}

// Parse unmarshals and validates a workflow definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition is runnable: one job, at least one
// trigger, and parseable cron expressions.
func (d *Definition) Validate() error {
	if len(d.Jobs) == 0 {
		return errors.New("workflow has no jobs")
	}
	if len(d.Jobs) > 1 {
		return fmt.Errorf("workflow has %d jobs, expected exactly one", len(d.Jobs))
	}
	if d.On.Push == nil && d.On.PullRequest == nil && len(d.On.Schedule) == 0 {
		return errors.New("workflow has no triggers")
	}
	for _, s := range d.On.Schedule {
		if _, err := cronParser.Parse(s.Cron); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", s.Cron, err)
		}
	}
	return nil
}

// Job returns the workflow's single job and its id.
func (d *Definition) Job() (string, Job) {
	for id, job := range d.Jobs {
		return id, job
	}
	return "", Job{}
}

// ArtifactSpec returns the job's declared artifact. A native artifact
// block wins; otherwise an actions/upload-artifact step supplies the name
// and paths, so unmodified Actions workflow files keep working.
func (j Job) ArtifactSpec() Artifact {
	if j.Artifact.Name != "" || len(j.Artifact.Paths) != 0 {
		return j.Artifact
	}
	for _, step := range j.Steps {
		if !strings.HasPrefix(step.Uses, "actions/upload-artifact") {
			continue
		}
		return Artifact{
			Name:  step.With["name"],
			Paths: splitPaths(step.With["path"]),
		}
	}
	return Artifact{}
}

// splitPaths splits the multi-line path value of an upload-artifact step.
func splitPaths(path string) []string {
	var paths []string
	for _, line := range strings.Split(path, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}
