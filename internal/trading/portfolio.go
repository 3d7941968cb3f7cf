// Package trading owns the simulated portfolio and the step loop shared
// by backtesting and paper trading.
package trading

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "crypto-trader/internal/errors"
	"crypto-trader/internal/models"
)

// Portfolio holds cash, open positions, the immutable trade ledger and
// the equity curve. It has a single owner: the engine mutates it one
// step at a time, never concurrently.
type Portfolio struct {
	initialCapital float64
	cash           float64
	commissionRate float64

	positions map[string]*models.Position
	// entryCommissions accumulates per-position entry fees so the closed
	// trade records its full round-trip cost.
	entryCommissions map[string]float64

	trades []models.Trade
	equity []models.EquityPoint

	newID func() string
}

// NewPortfolio creates a portfolio with the given starting cash.
func NewPortfolio(initialCapital, commissionRate float64) *Portfolio {
	return &Portfolio{
		initialCapital:   initialCapital,
		cash:             initialCapital,
		commissionRate:   commissionRate,
		positions:        make(map[string]*models.Position),
		entryCommissions: make(map[string]float64),
		newID:            uuid.NewString,
	}
}

// UseSequentialIDs replaces random position and trade IDs with a
// deterministic counter, so replaying a backtest on identical input
// reproduces the ledger bit for bit.
func (p *Portfolio) UseSequentialIDs() {
	counter := 0
	p.newID = func() string {
		counter++
		return fmt.Sprintf("sim-%06d", counter)
	}
}

// Cash returns the free cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// InitialCapital returns the starting cash.
func (p *Portfolio) InitialCapital() float64 { return p.initialCapital }

// TotalValue is cash plus the market value of every open position.
func (p *Portfolio) TotalValue() float64 {
	total := p.cash
	// Sum in sorted symbol order so float accumulation is deterministic
	// across runs, matching the backtester's reproducibility guarantee.
	for _, symbol := range p.OpenSymbols() {
		total += p.positions[symbol].MarketValue()
	}
	return total
}

// Position returns the open position for a symbol, if any.
func (p *Portfolio) Position(symbol string) (*models.Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// OpenSymbols returns the symbols with open positions in sorted order,
// so every step iterates the book deterministically.
func (p *Portfolio) OpenSymbols() []string {
	symbols := make([]string, 0, len(p.positions))
	for s := range p.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// OpenPositionCount returns the number of open positions.
func (p *Portfolio) OpenPositionCount() int { return len(p.positions) }

// Trades returns the closed trade ledger in close order.
func (p *Portfolio) Trades() []models.Trade { return p.trades }

// Equity returns the recorded equity curve.
func (p *Portfolio) Equity() []models.EquityPoint { return p.equity }

// MarkToMarket updates an open position to the latest price.
func (p *Portfolio) MarkToMarket(symbol string, price float64) {
	pos, ok := p.positions[symbol]
	if !ok {
		return
	}
	pos.LastPrice = price
	if pos.Side == models.SideLong {
		pos.UnrealizedPnL = (price - pos.EntryPrice) * pos.Quantity
	} else {
		pos.UnrealizedPnL = (pos.EntryPrice - price) * pos.Quantity
	}
}

// Open opens a position sized to fraction of total portfolio value at
// the signal's price. An order the cash cannot cover is rejected with
// ErrInsufficientCash, never partially filled or clamped.
func (p *Portfolio) Open(signal *models.Signal, fraction float64, opts PositionOptions, at time.Time) (*models.Position, error) {
	if _, exists := p.positions[signal.Symbol]; exists {
		return nil, apperrors.NewInvariantError("one position per symbol", "position already open for "+signal.Symbol)
	}
	if signal.Price <= 0 || fraction <= 0 {
		return nil, apperrors.NewInvariantError("positive entry", "open with non-positive price or fraction")
	}

	cost := p.TotalValue() * fraction
	commission := cost * p.commissionRate
	if cost+commission > p.cash {
		return nil, apperrors.Wrapf(apperrors.ErrInsufficientCash,
			"need %.2f, have %.2f", cost+commission, p.cash)
	}

	side := models.SideLong
	if signal.Action == models.ActionSell {
		side = models.SideShort
	}

	pos := &models.Position{
		ID:           p.newID(),
		Symbol:       signal.Symbol,
		Side:         side,
		Quantity:     cost / signal.Price,
		EntryPrice:   signal.Price,
		EntryTime:    at,
		StopLoss:     signal.StopLoss,
		TakeProfit:   signal.TakeProfit,
		TrailingStop: opts.TrailingStop,
		MaxHoldSteps: opts.MaxHoldSteps,
		Status:       models.PositionOpen,
		LastPrice:    signal.Price,

		EntryVolatility: opts.Volatility,
	}
	if pos.TrailingStop && pos.StopLoss > 0 {
		if side == models.SideLong {
			pos.TrailDistance = pos.EntryPrice - pos.StopLoss
		} else {
			pos.TrailDistance = pos.StopLoss - pos.EntryPrice
		}
	}

	p.cash -= cost + commission
	p.positions[pos.Symbol] = pos
	p.entryCommissions[pos.ID] = commission
	return pos, nil
}

// Close closes an open position at the given execution price and
// appends exactly one trade to the ledger. Closing a position twice is
// a state machine bug and returns an invariant error.
func (p *Portfolio) Close(symbol string, price float64, reason models.ExitReason, at time.Time) (models.Trade, error) {
	pos, ok := p.positions[symbol]
	if !ok {
		return models.Trade{}, apperrors.Wrapf(apperrors.ErrPositionNotFound, "no open position for %s", symbol)
	}
	if pos.Status == models.PositionClosed {
		return models.Trade{}, apperrors.NewInvariantError("single close", "double close of position "+pos.ID)
	}

	proceeds := price * pos.Quantity
	exitCommission := proceeds * p.commissionRate

	var gross float64
	if pos.Side == models.SideLong {
		gross = (price - pos.EntryPrice) * pos.Quantity
		p.cash += proceeds - exitCommission
	} else {
		gross = (pos.EntryPrice - price) * pos.Quantity
		// A short releases its reserved margin plus the gross PnL.
		p.cash += pos.EntryPrice*pos.Quantity + gross - exitCommission
	}
	if p.cash < 0 {
		return models.Trade{}, apperrors.NewInvariantError("non-negative cash", "negative cash after close of "+pos.ID)
	}

	entryCommission := p.entryCommissions[pos.ID]
	commission := entryCommission + exitCommission

	pos.Status = models.PositionClosed
	delete(p.positions, symbol)
	delete(p.entryCommissions, pos.ID)

	trade := models.Trade{
		ID:          p.newID(),
		PositionID:  pos.ID,
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		Quantity:    pos.Quantity,
		EntryPrice:  pos.EntryPrice,
		EntryTime:   pos.EntryTime,
		ExitPrice:   price,
		ExitTime:    at,
		ExitReason:  reason,
		RealizedPnL: gross - commission,
		Commission:  commission,
	}
	p.trades = append(p.trades, trade)
	return trade, nil
}

// RecordEquity appends one equity curve point at the step's timestamp.
func (p *Portfolio) RecordEquity(at time.Time) models.EquityPoint {
	point := models.EquityPoint{Timestamp: at, Value: p.TotalValue()}
	p.equity = append(p.equity, point)
	return point
}

// PositionOptions carries the entry parameters that come from trading
// configuration or the risk assessment rather than the signal.
type PositionOptions struct {
	TrailingStop bool
	MaxHoldSteps int
	// Volatility is the asset's per-candle relative volatility at entry.
	Volatility float64
}
