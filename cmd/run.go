package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/github-devtools-2022/ghas-to-csv/artifact"
	"github.com/github-devtools-2022/ghas-to-csv/github"
	"github.com/github-devtools-2022/ghas-to-csv/pipeline"
	"github.com/github-devtools-2022/ghas-to-csv/workflow"
)

var force bool

// Run executes the report job once, the way a CI runner would.
var Run = &cobra.Command{
	Use:   "run",
	Short: "Run the security report job once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, def, err := setup()
		if err != nil {
			return err
		}

		slog.Info("starting ghas-to-csv", "version", version)

		event := workflow.EventFromEnv()
		if event.Name != workflow.EventManual && !def.Matches(event) && !force {
			slog.Info("event matches no workflow trigger, skipping run",
				"event", event.Name,
				"branch", event.Branch(),
			)
			return nil
		}

		client, err := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.ServerURL, cfg.GitHub.Token)
		if err != nil {
			return fmt.Errorf("failed to initialize GitHub client: %w", err)
		}

		publisher := artifact.NewPublisher(cfg.Output.ArtifactDir, artifact.MissingWarn)
		runner := pipeline.NewSecurityReport(cfg, def, client, publisher)

		run := runner.Execute(cmd.Context(), event.Name)
		if run.Status != pipeline.StatusSuccess {
			return fmt.Errorf("run %s failed: %s", run.ID, run.Error)
		}
		return nil
	},
}

func init() {
	Run.Flags().BoolVar(&force, "force", false, "run even when the event matches no trigger")
}
