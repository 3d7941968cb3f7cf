package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show persisted trades and signals",
	}

	trades := &cobra.Command{
		Use:   "trades",
		Short: "Show the closed trade ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			trades, err := app.Store.Trades(limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("no trades recorded")
				return nil
			}
			table := NewTable(output, "TIME", "SYMBOL", "SIDE", "ENTRY", "EXIT", "REASON", "PNL")
			for _, t := range trades {
				table.AddRow(
					t.ExitTime.Format("2006-01-02 15:04"),
					t.Symbol,
					string(t.Side),
					fmt.Sprintf("%.2f", t.EntryPrice),
					fmt.Sprintf("%.2f", t.ExitPrice),
					string(t.ExitReason),
					output.FormatPnL(t.RealizedPnL),
				)
			}
			table.Render()
			return nil
		},
	}

	signals := &cobra.Command{
		Use:   "signals <symbol>",
		Short: "Show the signal journal for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			signals, err := app.Store.Signals(strings.ToUpper(args[0]), limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(signals)
			}
			if len(signals) == 0 {
				output.Dim("no signals recorded")
				return nil
			}
			table := NewTable(output, "TIME", "ACTION", "STRENGTH", "SCORE", "CONFIDENCE", "PRICE")
			for _, s := range signals {
				table.AddRow(
					s.Timestamp.Format("2006-01-02 15:04"),
					output.Action(string(s.Action)),
					string(s.Strength),
					fmt.Sprintf("%+.1f", s.Score),
					fmt.Sprintf("%.1f", s.Confidence),
					fmt.Sprintf("%.2f", s.Price),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.PersistentFlags().IntVar(&limit, "limit", 50, "maximum records to show")
	cmd.AddCommand(trades, signals)
	return cmd
}
