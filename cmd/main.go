package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/desertthunder/teltube/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if p := os.Getenv("TELTUBE_CONFIG"); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("invalid configuration: %v", err)
		}
		config = loaded
	}
	if err := shared.ApplyEnv(config); err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		HTTPClient: &http.Client{Timeout: config.Endpoints.Timeout()},
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "teltube",
		Usage:    "Browse, sign in to and upload videos to a teltube server",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented", "error", err)
			runner.Close()
			os.Exit(0)
		}
		runner.Close()
		logger.Fatalf("%s", shared.UserMessage(err))
	}
}
