package main

import (
	"log/slog"
	"os"

	"github.com/github-devtools-2022/ghas-to-csv/cmd"
)

func main() {
	if err := cmd.Root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
