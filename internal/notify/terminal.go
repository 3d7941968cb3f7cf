package notify

import (
	"fmt"
	"io"
	"os"

	"crypto-trader/internal/models"
)

// TerminalNotifier prints events to the terminal.
type TerminalNotifier struct {
	out io.Writer
}

// NewTerminalNotifier writes to stdout.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{out: os.Stdout}
}

// Send implements Notifier.
func (t *TerminalNotifier) Send(event models.TradeEvent) error {
	var err error
	switch event.Type {
	case models.EventSignal:
		_, err = fmt.Fprintf(t.out, "🔔 %s %s @ %.2f (confidence %.0f)\n",
			event.Action, event.Symbol, event.Price, event.Confidence)
	case models.EventPositionOpen:
		_, err = fmt.Fprintf(t.out, "📈 opened %s %s @ %.2f\n",
			event.Action, event.Symbol, event.Price)
	case models.EventPositionExit:
		_, err = fmt.Fprintf(t.out, "📉 closed %s @ %.2f (%s, PnL %.2f)\n",
			event.Symbol, event.Price, event.ExitReason, event.PnL)
	}
	return err
}
