// cmd/dashctl is the operator CLI for the indicator dashboard: it manages
// users, drives the synthetic feed and prints dashboards in the terminal.
//
// Usage:
//
//	go run ./cmd/dashctl user add admin@example.com --password=secret --access=admin --totp
//	go run ./cmd/dashctl feed simulate --symbols=NIFTY,BANKNIFTY --interval=500ms
//	go run ./cmd/dashctl render NIFTY --timeframes=5m,15m,1h
//	go run ./cmd/dashctl watch NIFTY BANKNIFTY
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"indicator-dashboard/config"
)

var rootCmd = &cobra.Command{
	Use:           "dashctl",
	Short:         "Operator tools for the indicator dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	rootCmd.AddCommand(userCmd(), feedCmd(), renderCmd(), watchCmd())
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("[dashctl] %v", err)
	}
}

// loadConfig reads the same environment as cmd/dashboard.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[dashctl] %v", err)
	}
	return cfg
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
