// Package cmd holds the CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/github-devtools-2022/ghas-to-csv/config"
	"github.com/github-devtools-2022/ghas-to-csv/workflow"
)

var version = "dev"

var workflowFile string

// Root is the top-level command.
var Root = &cobra.Command{
	Use:           "ghas-to-csv",
	Short:         "Export GitHub security alerts to CSV reports",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Bootstrap logger with JSON/stdout defaults (before config is available)
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	},
}

func init() {
	Root.PersistentFlags().StringVarP(&workflowFile, "workflow", "w", "",
		"workflow file overriding the built-in definition")

	Root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version of ghas-to-csv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	Root.AddCommand(Run, Serve)
}

// setup loads the configuration, reconfigures the logger from it, and
// parses the workflow definition the run is driven by.
func setup() (*config.Config, *workflow.Definition, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Re-initialize logger with configured level and format
	initLogger(&cfg.Log)

	if workflowFile != "" {
		cfg.Output.WorkflowFile = workflowFile
	}
	def, err := workflow.Load(cfg.Output.WorkflowFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load workflow definition: %w", err)
	}

	return cfg, def, nil
}

func initLogger(logCfg *config.LogConfig) {
	level := logCfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(logCfg.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
