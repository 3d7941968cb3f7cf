package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crypto-trader/internal/models"
	"crypto-trader/internal/trading"
)

func newBacktestCmd(app *App) *cobra.Command {
	var lookback int

	cmd := &cobra.Command{
		Use:   "backtest [symbols...]",
		Short: "Replay historical candles through the trading engine",
		Long: `Fetches historical candles for the given symbols (configured symbols
when none are given) and replays them through the signal pipeline, risk
checks and portfolio simulation, printing the performance report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbols := app.Config.Trading.Symbols
			if len(args) > 0 {
				symbols = make([]string, len(args))
				for i, a := range args {
					symbols[i] = strings.ToUpper(a)
				}
			}
			interval := models.Interval(app.Config.Trading.Interval)

			series := make(map[string]*models.PriceSeries)
			for _, symbol := range symbols {
				s, err := app.Provider.FetchSeries(cmd.Context(), symbol, interval, lookback)
				if err != nil {
					return fmt.Errorf("fetching %s: %w", symbol, err)
				}
				series[symbol] = s
			}

			backtester := trading.NewBacktester(app.Config, app.Analyzer, app.Risk, nil, app.Logger)
			report, err := backtester.Run(cmd.Context(), series)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}
			printReport(output, report)
			return nil
		},
	}

	cmd.Flags().IntVar(&lookback, "lookback", 500, "number of historical candles per symbol")
	return cmd
}

func printReport(output *Output, report *trading.Report) {
	m := report.Metrics

	output.Printf("Backtest %s (%s)\n", strings.Join(report.Symbols, ", "), report.Interval)
	output.Dim("%s -> %s", report.Start.Format("2006-01-02 15:04"), report.End.Format("2006-01-02 15:04"))
	output.Println()

	output.Printf("initial capital: %.2f\n", report.InitialCapital)
	output.Printf("final value:     %.2f\n", report.FinalValue)
	output.Printf("total return:    %s\n", output.FormatPercent(m.TotalReturnPct))
	output.Printf("max drawdown:    %.2f%%\n", m.MaxDrawdown*100)
	output.Printf("sharpe:          %.2f\n", m.Sharpe)
	output.Printf("sortino:         %.2f\n", m.Sortino)
	output.Printf("trades:          %d (%.0f%% wins)\n", m.TotalTrades, m.WinRate*100)
	if m.ProfitFactorDefined {
		output.Printf("profit factor:   %.2f\n", m.ProfitFactor)
	} else {
		output.Printf("profit factor:   n/a (no losing trades)\n")
	}

	if len(report.Trades) == 0 {
		return
	}
	output.Println()
	table := NewTable(output, "SYMBOL", "SIDE", "ENTRY", "EXIT", "REASON", "PNL")
	for _, t := range report.Trades {
		table.AddRow(
			t.Symbol,
			string(t.Side),
			fmt.Sprintf("%.2f", t.EntryPrice),
			fmt.Sprintf("%.2f", t.ExitPrice),
			string(t.ExitReason),
			output.FormatPnL(t.RealizedPnL),
		)
	}
	table.Render()
}
