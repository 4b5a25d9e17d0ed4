package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/semilink/semilink/pkg/connector"
	"github.com/semilink/semilink/pkg/semilinkgo/debug"
)

// Information to find out exactly which commit the binary was built from.
// These are filled at build time with the -X linker flag.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const Version = "0.1.0"

var (
	configPath string
	debugLog   bool
	ephemeral  bool

	sl *connector.SemiLinkConnector
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := connector.LoadConfig(configPath)
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if debugLog {
		level = zerolog.DebugLevel
	}
	log := debug.NewStderrLogger(level)
	ctx := log.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	sl, err = connector.Open(ctx, cfg, ephemeral, prometheus.DefaultRegisterer, log)
	if err != nil {
		return err
	}
	return sl.Start(ctx)
}

func teardown(cmd *cobra.Command, _ []string) error {
	if sl == nil {
		return nil
	}
	err := sl.Stop(context.WithoutCancel(cmd.Context()))
	sl = nil
	if err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	return nil
}
