package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/github-devtools-2022/ghas-to-csv/api"
	"github.com/github-devtools-2022/ghas-to-csv/artifact"
	"github.com/github-devtools-2022/ghas-to-csv/github"
	"github.com/github-devtools-2022/ghas-to-csv/pipeline"
	"github.com/github-devtools-2022/ghas-to-csv/scheduler"
	"github.com/github-devtools-2022/ghas-to-csv/workflow"
)

// Serve runs the scheduler daemon with the status API.
var Serve = &cobra.Command{
	Use:   "serve",
	Short: "Run the workflow schedules and status API until terminated",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, def, err := setup()
		if err != nil {
			return err
		}

		slog.Info("starting ghas-to-csv", "version", version)

		client, err := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.ServerURL, cfg.GitHub.Token)
		if err != nil {
			return fmt.Errorf("failed to initialize GitHub client: %w", err)
		}

		publisher := artifact.NewPublisher(cfg.Output.ArtifactDir, artifact.MissingWarn)
		runner := pipeline.NewSecurityReport(cfg, def, client, publisher)

		loc, err := time.LoadLocation(cfg.Serve.Timezone)
		if err != nil {
			return fmt.Errorf("failed to load timezone: %w", err)
		}

		// Syncs re-read the workflow file so schedule edits apply live.
		load := func() (*workflow.Definition, error) {
			return workflow.Load(cfg.Output.WorkflowFile)
		}
		sched := scheduler.New(runner, load, loc)

		apiServer := api.NewServer(&cfg.WebAPI, cfg)
		apiServer.SetStatusProvider(sched)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		go sched.RunSyncLoop(ctx, time.Duration(cfg.Serve.SyncIntervalMinutes)*time.Minute)

		if cfg.Serve.RunOnStart {
			go sched.RunNow(ctx, workflow.EventManual)
		}

		slog.Info("ghas-to-csv started",
			"sync_interval_minutes", cfg.Serve.SyncIntervalMinutes,
			"run_on_start", cfg.Serve.RunOnStart,
			"timezone", cfg.Serve.Timezone,
		)

		// Wait for shutdown signal
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		sig := <-sigChan
		slog.Info("received signal, shutting down", "signal", sig.String())

		cancel()
		sched.Stop()
		apiServer.Stop()

		slog.Info("ghas-to-csv stopped")
		return nil
	},
}
