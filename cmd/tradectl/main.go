// tradectl is an operator CLI for inspecting and repairing the trade store
// without going through the bot's HTTP surface.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eddiefleurent/trade_scribe/internal/render"
	"github.com/eddiefleurent/trade_scribe/internal/stats"
	"github.com/eddiefleurent/trade_scribe/internal/storage"
	"github.com/eddiefleurent/trade_scribe/internal/util"
)

var (
	storeDriver string
	storePath   string
)

func main() {
	root := &cobra.Command{
		Use:           "tradectl",
		Short:         "Inspect and manage the trade store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&storeDriver, "driver", "json", "storage driver (json or sqlite)")
	root.PersistentFlags().StringVar(&storePath, "store", "data/trades.json", "path to the trade store")

	root.AddCommand(listCmd(), statsCmd(), summaryCmd(), deleteCmd(), purgeCmd(), usersCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore() (storage.Interface, error) {
	return storage.NewStorage(storeDriver, storePath)
}

func listCmd() *cobra.Command {
	var openOnly bool
	cmd := &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's trades",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			trades, err := store.GetTrades(args[0])
			if err != nil {
				return err
			}
			if openOnly {
				trades, err = store.GetOpenTrades(args[0])
				if err != nil {
					return err
				}
			}
			if len(trades) == 0 {
				fmt.Println("No trades found.")
				return nil
			}
			for _, t := range trades {
				state := "CLOSED"
				if t.IsOpen {
					state = "OPEN"
				}
				fmt.Printf("%s  %-6s %-12s exp %s  %dx @ $%s  sold %d  [%s]\n",
					t.ID, t.Symbol, t.Contract, t.Expiration.Format("01/02/2006"),
					t.BuyQuantity, util.FormatPrice(t.BuyPrice), t.SoldQuantity, state)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "only open trades")
	return cmd
}

func statsCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "stats <user-id>",
		Short: "Show a user's daily stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			target := time.Now()
			if day != "" {
				target, err = time.Parse("2006-01-02", day)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", day, err)
				}
			}
			trades, err := store.GetTrades(args[0])
			if err != nil {
				return err
			}
			s := stats.Daily(trades, target)
			fmt.Printf("Trades: %d  W: %d  L: %d  Win rate: %d%%  P/L: $%s\n",
				s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate, util.FormatPrice(s.TotalPL))
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "day to report (YYYY-MM-DD, default today)")
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <user-id>",
		Short: "Render the daily summary for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			trades, err := store.GetTrades(args[0])
			if err != nil {
				return err
			}
			fmt.Println(render.DailySummary(stats.Summarize(trades, time.Now())))
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Delete a single trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			trade, err := store.GetTrade(args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(trade.ID, trade.Revision); err != nil {
				return err
			}
			fmt.Printf("Deleted trade %s (%s %s)\n", trade.ID, trade.Symbol, trade.Contract)
			return nil
		},
	}
}

func purgeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge <user-id>",
		Short: "Delete all trades for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge without --yes")
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.DeleteUserTrades(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d trades for %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List user IDs present in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			users, err := store.ListUsers()
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Println(u)
			}
			return nil
		},
	}
}
