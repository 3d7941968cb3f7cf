package trading

import (
	"testing"
	"time"

	"crypto-trader/internal/config"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/models"
	"crypto-trader/internal/risk"
)

func testEngine(t *testing.T, mutate func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	logger := logging.NewLogger()
	return NewEngine(cfg, risk.NewManager(cfg, logger), nil, logger)
}

func stepAt(at time.Time, symbol string, candle models.Candle) Step {
	return Step{
		Time:    at,
		Candles: map[string]models.Candle{symbol: candle},
		Signals: map[string]SignalInput{},
	}
}

func openLong(t *testing.T, e *Engine, symbol string, price, stop, take float64, opts PositionOptions) *models.Position {
	t.Helper()
	signal := testSignal(symbol, price)
	signal.StopLoss = stop
	signal.TakeProfit = take
	pos, err := e.Portfolio().Open(signal, 0.10, opts, time.Now())
	if err != nil {
		t.Fatalf("opening position: %v", err)
	}
	return pos
}

func TestStopLossExecutesAtLevel(t *testing.T) {
	e := testEngine(t, nil)
	openLong(t, e, "BTCUSDT", 100, 95, 120, PositionOptions{})

	// The candle trades down through the stop: the fill is the stop
	// level, not the candle close.
	at := time.Now()
	e.ProcessStep(stepAt(at, "BTCUSDT", models.Candle{
		Timestamp: at, Open: 98, High: 99, Low: 90, Close: 91, Volume: 100,
	}))

	trades := e.Portfolio().Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].ExitPrice != 95 {
		t.Errorf("exit price = %v, want stop level 95", trades[0].ExitPrice)
	}
	if trades[0].ExitReason != models.ExitStopLoss {
		t.Errorf("exit reason = %v, want STOP_LOSS", trades[0].ExitReason)
	}
}

func TestTakeProfitExecutesAtLevel(t *testing.T) {
	e := testEngine(t, nil)
	openLong(t, e, "BTCUSDT", 100, 90, 110, PositionOptions{})

	at := time.Now()
	e.ProcessStep(stepAt(at, "BTCUSDT", models.Candle{
		Timestamp: at, Open: 102, High: 115, Low: 101, Close: 112, Volume: 100,
	}))

	trades := e.Portfolio().Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].ExitPrice != 110 {
		t.Errorf("exit price = %v, want take profit level 110", trades[0].ExitPrice)
	}
	if trades[0].ExitReason != models.ExitTakeProfit {
		t.Errorf("exit reason = %v, want TAKE_PROFIT", trades[0].ExitReason)
	}
}

func TestStopWinsWhenBothLevelsInRange(t *testing.T) {
	e := testEngine(t, nil)
	openLong(t, e, "BTCUSDT", 100, 95, 110, PositionOptions{})

	at := time.Now()
	e.ProcessStep(stepAt(at, "BTCUSDT", models.Candle{
		Timestamp: at, Open: 100, High: 115, Low: 90, Close: 100, Volume: 100,
	}))

	trades := e.Portfolio().Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].ExitReason != models.ExitStopLoss {
		t.Errorf("exit reason = %v, want the conservative STOP_LOSS", trades[0].ExitReason)
	}
}

func TestTrailingStopRatchetsOnlyFavorably(t *testing.T) {
	e := testEngine(t, nil)
	pos := openLong(t, e, "BTCUSDT", 100, 95, 0, PositionOptions{TrailingStop: true})
	if pos.TrailDistance != 5 {
		t.Fatalf("trail distance = %v, want 5", pos.TrailDistance)
	}

	at := time.Now()
	// Favorable move: stop follows price up.
	e.ProcessStep(stepAt(at, "BTCUSDT", models.Candle{
		Timestamp: at, Open: 100, High: 111, Low: 99, Close: 110, Volume: 100,
	}))
	if pos.StopLoss != 105 {
		t.Fatalf("stop after favorable move = %v, want 105", pos.StopLoss)
	}

	// Adverse move that stays above the stop: the stop must not loosen.
	at = at.Add(time.Hour)
	e.ProcessStep(stepAt(at, "BTCUSDT", models.Candle{
		Timestamp: at, Open: 110, High: 110, Low: 106, Close: 107, Volume: 100,
	}))
	if pos.StopLoss != 105 {
		t.Errorf("stop after adverse move = %v, want unchanged 105", pos.StopLoss)
	}
	if len(e.Portfolio().Trades()) != 0 {
		t.Error("position closed without the stop being hit")
	}
}

func TestTimeoutExit(t *testing.T) {
	e := testEngine(t, nil)
	openLong(t, e, "BTCUSDT", 100, 50, 500, PositionOptions{MaxHoldSteps: 2})

	at := time.Now()
	flat := models.Candle{Open: 100, High: 101, Low: 99, Close: 100, Volume: 100}

	flat.Timestamp = at
	e.ProcessStep(stepAt(at, "BTCUSDT", flat))
	if len(e.Portfolio().Trades()) != 0 {
		t.Fatal("position closed before the hold limit")
	}

	at = at.Add(time.Hour)
	flat.Timestamp = at
	e.ProcessStep(stepAt(at, "BTCUSDT", flat))

	trades := e.Portfolio().Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].ExitReason != models.ExitTimeout {
		t.Errorf("exit reason = %v, want TIMEOUT", trades[0].ExitReason)
	}
}

func TestSignalOpensPosition(t *testing.T) {
	e := testEngine(t, nil)

	at := time.Now()
	step := stepAt(at, "BTCUSDT", models.Candle{
		Timestamp: at, Open: 99, High: 101, Low: 98, Close: 100, Volume: 100,
	})
	step.Signals["BTCUSDT"] = SignalInput{
		Signal:     testSignal("BTCUSDT", 100),
		Volatility: 0.015,
	}
	e.ProcessStep(step)

	pos, ok := e.Portfolio().Position("BTCUSDT")
	if !ok {
		t.Fatal("no position opened for approved signal")
	}
	if pos.EntryPrice != 100 {
		t.Errorf("entry price = %v, want 100", pos.EntryPrice)
	}
	if e.Portfolio().Cash() >= 10000 {
		t.Error("cash not reduced by the entry")
	}
}

func TestLowConfidenceSignalDoesNotOpen(t *testing.T) {
	e := testEngine(t, nil)

	at := time.Now()
	signal := testSignal("BTCUSDT", 100)
	signal.Confidence = 40
	step := stepAt(at, "BTCUSDT", models.Candle{
		Timestamp: at, Open: 99, High: 101, Low: 98, Close: 100, Volume: 100,
	})
	step.Signals["BTCUSDT"] = SignalInput{Signal: signal, Volatility: 0.015}
	e.ProcessStep(step)

	if e.Portfolio().OpenPositionCount() != 0 {
		t.Error("rejected signal opened a position")
	}
}

func TestSignalReversalClosesPosition(t *testing.T) {
	e := testEngine(t, nil)
	openLong(t, e, "BTCUSDT", 100, 50, 500, PositionOptions{})

	at := time.Now()
	sell := testSignal("BTCUSDT", 100)
	sell.Action = models.ActionSell
	sell.StopLoss = 105
	sell.TakeProfit = 90

	step := stepAt(at, "BTCUSDT", models.Candle{
		Timestamp: at, Open: 100, High: 101, Low: 99, Close: 100, Volume: 100,
	})
	step.Signals["BTCUSDT"] = SignalInput{Signal: sell, Volatility: 0.015}
	e.ProcessStep(step)

	trades := e.Portfolio().Trades()
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].ExitReason != models.ExitSignalReversal {
		t.Errorf("exit reason = %v, want SIGNAL_REVERSAL", trades[0].ExitReason)
	}
	// The reversal close takes effect this step; no short opens until a
	// later step.
	if e.Portfolio().OpenPositionCount() != 0 {
		t.Error("reversal opened a new position in the same step")
	}
}

func TestPortfolioRiskBudgetSpansSteps(t *testing.T) {
	e := testEngine(t, func(cfg *config.Config) {
		// Budget for roughly one position at this volatility; the book
		// opened in an earlier step must count against it.
		cfg.Risk.MaxPortfolioRisk = 0.0032
		cfg.Risk.CorrelationLimit = 0.9
	})

	at := time.Now()
	flat := models.Candle{Timestamp: at, Open: 100, High: 101, Low: 99, Close: 100, Volume: 100}

	first := Step{
		Time:    at,
		Candles: map[string]models.Candle{"AAAUSDT": flat},
		Signals: map[string]SignalInput{
			"AAAUSDT": {Signal: testSignal("AAAUSDT", 100), Volatility: 0.04},
		},
	}
	e.ProcessStep(first)
	if e.Portfolio().OpenPositionCount() != 1 {
		t.Fatal("first entry not opened")
	}
	pos, _ := e.Portfolio().Position("AAAUSDT")
	if pos.EntryVolatility != 0.04 {
		t.Fatalf("entry volatility = %v, want 0.04", pos.EntryVolatility)
	}

	at = at.Add(time.Hour)
	flat.Timestamp = at
	second := Step{
		Time: at,
		Candles: map[string]models.Candle{
			"AAAUSDT": flat,
			"BBBUSDT": flat,
		},
		Signals: map[string]SignalInput{
			"BBBUSDT": {Signal: testSignal("BBBUSDT", 100), Volatility: 0.04},
		},
	}
	e.ProcessStep(second)

	if e.Portfolio().OpenPositionCount() != 1 {
		t.Error("second entry approved despite the book consuming the risk budget")
	}
	if _, open := e.Portfolio().Position("BBBUSDT"); open {
		t.Error("budget-exceeding position opened")
	}
}

func TestDataGapKeepsPositionMarked(t *testing.T) {
	e := testEngine(t, nil)
	pos := openLong(t, e, "BTCUSDT", 100, 50, 500, PositionOptions{})

	at := time.Now()
	step := Step{
		Time:    at,
		Candles: map[string]models.Candle{},
		Signals: map[string]SignalInput{},
	}
	point := e.ProcessStep(step)

	if pos.LastPrice != 100 {
		t.Errorf("last price = %v, want last known 100", pos.LastPrice)
	}
	if point.Value <= 0 {
		t.Errorf("equity point value = %v during data gap", point.Value)
	}
	if len(e.Portfolio().Trades()) != 0 {
		t.Error("data gap closed a position")
	}
}

func TestEquityPointPerStep(t *testing.T) {
	e := testEngine(t, nil)

	at := time.Now()
	for i := 0; i < 3; i++ {
		c := models.Candle{Timestamp: at, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
		e.ProcessStep(stepAt(at, "BTCUSDT", c))
		at = at.Add(time.Hour)
	}
	if got := len(e.Portfolio().Equity()); got != 3 {
		t.Errorf("equity curve has %d points after 3 steps, want 3", got)
	}
}
