package trading

import (
	"testing"
	"time"

	apperrors "crypto-trader/internal/errors"
	"crypto-trader/internal/models"
)

func testSignal(symbol string, price float64) *models.Signal {
	return &models.Signal{
		Symbol:     symbol,
		Action:     models.ActionBuy,
		Confidence: 90,
		Price:      price,
		StopLoss:   price * 0.95,
		TakeProfit: price * 1.10,
		Timestamp:  time.Now(),
	}
}

func TestOpenChargesCommission(t *testing.T) {
	p := NewPortfolio(10000, 0.001)
	at := time.Now()

	pos, err := p.Open(testSignal("BTCUSDT", 100), 0.10, PositionOptions{}, at)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if pos.Quantity != 10 {
		t.Errorf("quantity = %v, want 10", pos.Quantity)
	}
	// 1000 cost + 1 commission.
	if want := 10000.0 - 1001; p.Cash() != want {
		t.Errorf("cash = %v, want %v", p.Cash(), want)
	}
}

func TestOpenRejectsInsufficientCash(t *testing.T) {
	p := NewPortfolio(10000, 0.001)

	// Full portfolio value plus commission exceeds cash.
	_, err := p.Open(testSignal("BTCUSDT", 100), 1.0, PositionOptions{}, time.Now())
	if !apperrors.Is(err, apperrors.ErrInsufficientCash) {
		t.Fatalf("err = %v, want ErrInsufficientCash", err)
	}
	if p.Cash() != 10000 {
		t.Errorf("rejected order changed cash to %v", p.Cash())
	}
	if p.OpenPositionCount() != 0 {
		t.Error("rejected order opened a position")
	}
}

func TestCashNeverNegativeAfterFills(t *testing.T) {
	p := NewPortfolio(1000, 0.01)
	at := time.Now()

	for i := 0; i < 20; i++ {
		symbol := string(rune('A'+i)) + "USDT"
		_, err := p.Open(testSignal(symbol, 50), 0.3, PositionOptions{}, at)
		if err != nil && !apperrors.Is(err, apperrors.ErrInsufficientCash) {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Cash() < 0 {
			t.Fatalf("cash went negative: %v", p.Cash())
		}
	}
}

func TestCloseProducesExactlyOneTrade(t *testing.T) {
	p := NewPortfolio(10000, 0.001)
	at := time.Now()

	pos, err := p.Open(testSignal("BTCUSDT", 100), 0.10, PositionOptions{}, at)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	trade, err := p.Close("BTCUSDT", 110, models.ExitTakeProfit, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if len(p.Trades()) != 1 {
		t.Fatalf("ledger has %d trades, want 1", len(p.Trades()))
	}
	if trade.PositionID != pos.ID {
		t.Error("trade does not reference its position")
	}
	if trade.ExitReason != models.ExitTakeProfit {
		t.Errorf("exit reason = %v, want TAKE_PROFIT", trade.ExitReason)
	}

	// A second close must fail and leave the ledger untouched.
	if _, err := p.Close("BTCUSDT", 110, models.ExitManual, at.Add(2*time.Hour)); err == nil {
		t.Fatal("second close succeeded")
	}
	if len(p.Trades()) != 1 {
		t.Errorf("ledger has %d trades after double close attempt, want 1", len(p.Trades()))
	}
}

func TestCloseRealizedPnLIncludesCommissions(t *testing.T) {
	p := NewPortfolio(10000, 0.001)
	at := time.Now()

	if _, err := p.Open(testSignal("BTCUSDT", 100), 0.10, PositionOptions{}, at); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	trade, err := p.Close("BTCUSDT", 110, models.ExitTakeProfit, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Gross 100, entry commission 1, exit commission 1.1.
	if want := 100.0 - 1 - 1.1; !almostEqual(trade.RealizedPnL, want) {
		t.Errorf("realized pnl = %v, want %v", trade.RealizedPnL, want)
	}
	if want := 10000.0 - 1 - 1.1 + 100; !almostEqual(p.Cash(), want) {
		t.Errorf("cash = %v, want %v", p.Cash(), want)
	}
}

func TestShortPositionPnL(t *testing.T) {
	p := NewPortfolio(10000, 0)
	at := time.Now()

	signal := testSignal("BTCUSDT", 100)
	signal.Action = models.ActionSell
	signal.StopLoss = 105
	signal.TakeProfit = 90

	pos, err := p.Open(signal, 0.10, PositionOptions{}, at)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if pos.Side != models.SideShort {
		t.Fatalf("side = %v, want SHORT", pos.Side)
	}

	p.MarkToMarket("BTCUSDT", 90)
	if pos.UnrealizedPnL <= 0 {
		t.Errorf("short unrealized pnl = %v on a favorable move", pos.UnrealizedPnL)
	}

	trade, err := p.Close("BTCUSDT", 90, models.ExitTakeProfit, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if want := 100.0; !almostEqual(trade.RealizedPnL, want) {
		t.Errorf("short realized pnl = %v, want %v", trade.RealizedPnL, want)
	}
	if want := 10100.0; !almostEqual(p.Cash(), want) {
		t.Errorf("cash = %v, want %v", p.Cash(), want)
	}
}

func TestShortEquityFollowsMark(t *testing.T) {
	p := NewPortfolio(10000, 0)
	at := time.Now()

	signal := testSignal("BTCUSDT", 100)
	signal.Action = models.ActionSell
	signal.StopLoss = 105
	signal.TakeProfit = 90

	if _, err := p.Open(signal, 0.10, PositionOptions{}, at); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	// A favorable move for the short raises equity.
	p.MarkToMarket("BTCUSDT", 90)
	if want := 10100.0; !almostEqual(p.TotalValue(), want) {
		t.Errorf("total value after favorable move = %v, want %v", p.TotalValue(), want)
	}

	// An adverse move lowers it below the starting capital.
	p.MarkToMarket("BTCUSDT", 110)
	if want := 9900.0; !almostEqual(p.TotalValue(), want) {
		t.Errorf("total value after adverse move = %v, want %v", p.TotalValue(), want)
	}

	// Closing at the marked price must not move equity.
	before := p.TotalValue()
	if _, err := p.Close("BTCUSDT", 110, models.ExitStopLoss, at.Add(time.Hour)); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !almostEqual(p.TotalValue(), before) {
		t.Errorf("equity jumped at close: %v -> %v", before, p.TotalValue())
	}
}

func TestOpenRecordsEntryVolatility(t *testing.T) {
	p := NewPortfolio(10000, 0)

	pos, err := p.Open(testSignal("BTCUSDT", 100), 0.10, PositionOptions{Volatility: 0.03}, time.Now())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if pos.EntryVolatility != 0.03 {
		t.Errorf("entry volatility = %v, want 0.03", pos.EntryVolatility)
	}
}

func TestTotalValueIncludesOpenPositions(t *testing.T) {
	p := NewPortfolio(10000, 0)
	at := time.Now()

	if _, err := p.Open(testSignal("BTCUSDT", 100), 0.10, PositionOptions{}, at); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	p.MarkToMarket("BTCUSDT", 120)

	// 9000 cash + 10 units at 120.
	if want := 9000.0 + 1200; !almostEqual(p.TotalValue(), want) {
		t.Errorf("total value = %v, want %v", p.TotalValue(), want)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
