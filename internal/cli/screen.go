package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crypto-trader/internal/models"
	"crypto-trader/internal/screener"
)

func newScreenCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen [symbols...]",
		Short: "Screen symbols for trading signals",
		Long: `Evaluates the given symbols concurrently (configured symbols when none
are given) and ranks the results by signal confidence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbols := app.Config.Trading.Symbols
			if len(args) > 0 {
				symbols = make([]string, len(args))
				for i, a := range args {
					symbols[i] = strings.ToUpper(a)
				}
			}

			s := screener.New(app.Config, app.Provider, app.Analyzer, app.Logger)
			results := s.Screen(cmd.Context(), symbols, analyzeLookback)

			if output.IsJSON() {
				return output.JSON(results)
			}

			table := NewTable(output, "SYMBOL", "ACTION", "STRENGTH", "CONFIDENCE", "PRICE")
			for _, r := range results {
				if r.Err != nil {
					table.AddRow(r.Symbol, output.Action("HOLD"), "-", "-", "unavailable")
					continue
				}
				sig := r.Signal
				table.AddRow(
					r.Symbol,
					output.Action(string(sig.Action)),
					string(sig.Strength),
					fmt.Sprintf("%.1f", sig.Confidence),
					fmt.Sprintf("%.2f", sig.Price),
				)
			}
			table.Render()

			actionable := 0
			for _, r := range results {
				if r.Err == nil && r.Signal.Action != models.ActionHold {
					actionable++
				}
			}
			output.Println()
			output.Dim("%d of %d symbols actionable", actionable, len(results))
			return nil
		},
	}
	return cmd
}
