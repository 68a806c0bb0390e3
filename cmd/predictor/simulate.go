package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	simDays int
	simSeed int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Advance odometers of active vehicles by simulated daily driving",
	Args:  cobra.NoArgs,
	RunE:  simulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simDays, "days", 0, "number of simulated days (0 runs until interrupted)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed (0 uses the current time)")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	seed := simSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.WithFields(log.Fields{
		"days": simDays,
		"tick": a.Config.Simulator.Tick,
		"seed": seed,
	}).Info("Starting fleet simulation")

	err = a.Simulator(seed).Run(ctx, a.Config.Simulator.Tick, simDays)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
