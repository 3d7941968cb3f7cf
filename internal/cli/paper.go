package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"crypto-trader/internal/notify"
	"crypto-trader/internal/trading"
)

func newPaperCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paper",
		Short: "Run live paper trading",
		Long: `Runs the trading engine against live Binance candles with simulated
fills. One step per interval; Ctrl-C stops the loop between steps.
Signals, trades and the equity curve are persisted to the local store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var notifiers []notify.Notifier
			notifiers = append(notifiers, notify.NewTerminalNotifier())
			if app.Config.Alerts.WebhookURL != "" {
				notifiers = append(notifiers, notify.NewWebhookNotifier(app.Config.Alerts.WebhookURL))
			}
			dispatcher := notify.NewDispatcher(app.Logger, notifiers...)

			var recorder trading.Recorder
			if app.Store != nil {
				recorder = app.Store
			}

			trader := trading.NewPaperTrader(app.Config, app.Provider, app.Analyzer,
				app.Risk, recorder, dispatcher, app.Logger)

			output.Printf("paper trading %v on %s, %.2f starting capital\n",
				app.Config.Trading.Symbols, app.Config.Trading.Interval,
				app.Config.Trading.InitialCapital)
			output.Dim("press Ctrl-C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err := trader.Run(ctx)
			if errors.Is(err, context.Canceled) {
				portfolio := trader.Engine().Portfolio()
				output.Println()
				output.Printf("final value: %.2f (cash %.2f, %d open positions, %d trades)\n",
					portfolio.TotalValue(), portfolio.Cash(),
					portfolio.OpenPositionCount(), len(portfolio.Trades()))
				return nil
			}
			return err
		},
	}
	return cmd
}
