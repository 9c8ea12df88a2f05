package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/temidaradev/coinwatch/internal/coin"
	"github.com/temidaradev/coinwatch/internal/favorites"
)

var (
	favColor     string
	favTextColor string
	favLow       string
	favHigh      string
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage favorite tickers",
	Long:    "Commands for listing and editing favorite tickers, their colors and alert thresholds",
}

var listFavoritesCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		favs, err := loadFavorites()
		if err != nil {
			return err
		}
		printFavorites(cmd.OutOrStdout(), favs.All())
		return nil
	},
}

var addFavoriteCmd = &cobra.Command{
	Use:   "add <ticker>",
	Short: "Add a favorite",
	Long: `Add a favorite ticker. Colors default to the widget scheme; thresholds
may be set at the same time.

Examples:
  coinwatch favorites add bitcoin --color "#f7931a" --low 40000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		favs, err := loadFavorites()
		if err != nil {
			return err
		}
		ticker, err := coin.Parse(args[0])
		if err != nil {
			return err
		}

		bg, fg := favorites.DefaultBackground, favorites.DefaultText
		if cmd.Flags().Changed("color") {
			if bg, err = favorites.ParseColor(favColor); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("text-color") {
			if fg, err = favorites.ParseColor(favTextColor); err != nil {
				return err
			}
		}
		patch, err := thresholdPatch(cmd)
		if err != nil {
			return err
		}

		if err := favs.Add(ticker, bg, fg); err != nil {
			return err
		}
		if patch.Low != nil || patch.High != nil {
			if err := favs.Update(ticker, patch); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", ticker)
		return nil
	},
}

var removeFavoriteCmd = &cobra.Command{
	Use:     "remove <ticker>",
	Aliases: []string{"rm"},
	Short:   "Remove a favorite",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		favs, err := loadFavorites()
		if err != nil {
			return err
		}
		ticker := coin.Normalize(args[0])
		if err := favs.Remove(ticker); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", ticker)
		return nil
	},
}

var setFavoriteCmd = &cobra.Command{
	Use:   "set <ticker>",
	Short: "Change a favorite's colors or thresholds",
	Long: `Change only the given fields of a favorite. An empty threshold clears it.

Examples:
  coinwatch favorites set bitcoin --high 75000
  coinwatch favorites set bitcoin --low ""
  coinwatch favorites set bitcoin --text-color "#000"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		favs, err := loadFavorites()
		if err != nil {
			return err
		}

		patch, err := thresholdPatch(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("color") {
			bg, err := favorites.ParseColor(favColor)
			if err != nil {
				return err
			}
			patch.Background = &bg
		}
		if cmd.Flags().Changed("text-color") {
			fg, err := favorites.ParseColor(favTextColor)
			if err != nil {
				return err
			}
			patch.Text = &fg
		}

		ticker := coin.Normalize(args[0])
		if err := favs.Update(ticker, patch); err != nil {
			return err
		}
		e, _ := favs.Get(ticker)
		printFavorites(cmd.OutOrStdout(), []favorites.Entry{e})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(listFavoritesCmd, addFavoriteCmd, removeFavoriteCmd, setFavoriteCmd)

	for _, cmd := range []*cobra.Command{addFavoriteCmd, setFavoriteCmd} {
		cmd.Flags().StringVar(&favColor, "color", "", "background color, e.g. #4b0082")
		cmd.Flags().StringVar(&favTextColor, "text-color", "", "text color, e.g. #ffffff")
		cmd.Flags().StringVar(&favLow, "low", "", "low alert threshold in USD (empty clears)")
		cmd.Flags().StringVar(&favHigh, "high", "", "high alert threshold in USD (empty clears)")
	}
}

func loadFavorites() (*favorites.Collection, error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, err
	}
	return openFavorites(cfg, log)
}

// thresholdPatch turns the --low and --high flags that were given into a
// patch.
func thresholdPatch(cmd *cobra.Command) (favorites.Patch, error) {
	var patch favorites.Patch
	parse := func(flag, value string) (*decimal.NullDecimal, error) {
		if !cmd.Flags().Changed(flag) {
			return nil, nil
		}
		v, err := favorites.ParseThreshold(value)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", flag, err)
		}
		return &v, nil
	}

	var err error
	if patch.Low, err = parse("low", favLow); err != nil {
		return patch, err
	}
	if patch.High, err = parse("high", favHigh); err != nil {
		return patch, err
	}
	return patch, nil
}

func printFavorites(w io.Writer, entries []favorites.Entry) {
	fmt.Fprintf(w, "%-20s %-8s %-8s %-14s %-14s\n", "Ticker", "Color", "Text", "Low", "High")
	fmt.Fprintln(w, strings.Repeat("-", 68))
	for _, e := range entries {
		fmt.Fprintf(w, "%-20s %-8s %-8s %-14s %-14s\n",
			e.Ticker,
			e.Background,
			e.Text,
			orDash(favorites.FormatThreshold(e.Low)),
			orDash(favorites.FormatThreshold(e.High)),
		)
	}
	fmt.Fprintf(w, "\nTotal: %d favorites\n", len(entries))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
