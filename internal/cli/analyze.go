package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crypto-trader/internal/models"
)

const analyzeLookback = 200

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Run the full analysis pipeline for one symbol",
		Long: `Fetches recent candles and runs indicators, pattern detection and the
signal ensemble, printing the factor breakdown and the resulting signal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])
			interval := models.Interval(app.Config.Trading.Interval)

			series, err := app.Provider.FetchSeries(cmd.Context(), symbol, interval, analyzeLookback)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", symbol, err)
			}
			eval := app.Analyzer.Analyze(cmd.Context(), series)
			signal := eval.Signal

			if app.Store != nil && signal.Action != models.ActionHold {
				if err := app.Store.SaveSignal(signal); err != nil {
					app.Logger.Error().Err(err).Msg("persisting signal")
				}
			}

			if output.IsJSON() {
				return output.JSON(eval)
			}

			output.Printf("%s %s @ %.2f\n\n", symbol, interval, signal.Price)

			table := NewTable(output, "SOURCE", "WEIGHT", "SCORE")
			for _, f := range signal.Factors {
				table.AddRow(f.Source, fmt.Sprintf("%.2f", f.Weight), fmt.Sprintf("%+.1f", f.Score))
			}
			table.Render()

			if len(eval.Patterns) > 0 {
				output.Println()
				for _, p := range eval.Patterns {
					output.Printf("pattern: %s (%s, confidence %.0f)\n", p.Name, p.Direction, p.Confidence)
				}
			}

			if len(eval.Levels) > 0 {
				output.Println()
				for _, l := range eval.Levels {
					output.Printf("%s: %.2f (%d touches)\n", l.Type, l.Price, l.TouchCount)
				}
			}

			output.Println()
			output.Printf("signal:     %s (%s)\n", output.Action(string(signal.Action)), signal.Strength)
			output.Printf("strength:   %+.1f\n", signal.Score)
			output.Printf("confidence: %.1f\n", signal.Confidence)
			if signal.HasStopLoss() {
				output.Printf("stop loss:  %.2f\n", signal.StopLoss)
				output.Printf("take profit: %.2f\n", signal.TakeProfit)
			}
			return nil
		},
	}
	return cmd
}
