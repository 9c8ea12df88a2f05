package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/temidaradev/coinwatch/internal/coin"
	"github.com/temidaradev/coinwatch/internal/tracker"
)

var priceCmd = &cobra.Command{
	Use:   "price [ticker]",
	Short: "Print the current price once",
	Long: `Fetch the USD price of a coin once and print the widget label.
Without an argument the configured ticker is used. Favorite thresholds
are applied to the reported state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		input := cfg.Ticker
		if len(args) == 1 {
			input = args[0]
		}
		ticker, err := coin.Parse(input)
		if err != nil {
			return err
		}

		favs, err := openFavorites(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		res := tracker.New(newSource(cfg, log, false), favs, ticker).Poll(ctx)
		if !res.OK() {
			return fmt.Errorf("failed to get price for %s: %w", ticker, res.Err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Label)
		if res.State != tracker.NoFavorite {
			fmt.Fprintf(cmd.OutOrStdout(), "State: %s\n", res.State)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(priceCmd)
}
