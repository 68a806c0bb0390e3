package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-maintenance/internal/app"
	"github.com/ukydev/fleet-maintenance/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "predictor",
	Short:         "Vehicle maintenance prediction service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "optional YAML configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// newApp loads configuration and wires the application.
func newApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(ctx, cfg, log.StandardLogger())
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		log.WithError(err).Error("close")
	}
}
