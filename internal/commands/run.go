package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/temidaradev/coinwatch/internal/coin"
	"github.com/temidaradev/coinwatch/internal/config"
	"github.com/temidaradev/coinwatch/internal/controller"
	"github.com/temidaradev/coinwatch/internal/status"
	"github.com/temidaradev/coinwatch/internal/widget"
)

var (
	runTicker   string
	runInterval int
	runStatus   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the price widget",
	Long: `Open the floating price window and start polling.

Keys:
  Space        next favorite
  R            refresh now
  Tab          settings
  Esc          quit

Examples:
  coinwatch run                         # Track the configured ticker
  coinwatch run --ticker ethereum       # Track ethereum
  coinwatch run --interval 120 --status # Poll every 2 minutes and serve /status`,
	RunE: runWidget,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runTicker, "ticker", "t", "", "coin id to track, e.g. bitcoin")
	cmd.Flags().IntVarP(&runInterval, "interval", "i", 0, "poll interval in seconds (30-1500)")
	cmd.Flags().BoolVar(&runStatus, "status", false, "serve the local status endpoint")
}

// applyRunFlags overrides the configuration with explicitly set flags.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("ticker") {
		cfg.Ticker = runTicker
	}
	if cmd.Flags().Changed("interval") {
		cfg.IntervalSeconds = runInterval
	}
	if cmd.Flags().Changed("status") {
		cfg.Status.Enabled = runStatus
	}
	return cfg.Validate()
}

func runWidget(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, &cfg); err != nil {
		return err
	}

	favs, err := openFavorites(cfg, log)
	if err != nil {
		return err
	}

	src := newSource(cfg, log, cfg.Status.Enabled)
	ctrl, err := controller.New(src, favs, coin.Normalize(cfg.Ticker), cfg.IntervalSeconds, log)
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Run(ctx); err != nil {
			log.WithError(err).Error("Controller stopped with error")
		}
	}()

	if cfg.Status.Enabled {
		srv := status.New(cfg.Status.Addr, cfg.Status.MetricsSubsystem, ctrl, log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.WithError(err).Error("Status server stopped")
			}
		}()
	}

	log.WithField("version", rootCmd.Version).Info("Starting coinwatch")
	err = widget.Run(ctx, ctrl, cfg.Widget, log)
	stop()
	<-done
	log.Info("Shutdown complete")
	return err
}
