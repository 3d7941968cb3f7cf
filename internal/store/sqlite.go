package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"crypto-trader/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		action TEXT NOT NULL,
		strength TEXT NOT NULL,
		score REAL NOT NULL,
		confidence REAL NOT NULL,
		price REAL NOT NULL,
		stop_loss REAL NOT NULL,
		take_profit REAL NOT NULL,
		factors TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol, created_at);

	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		position_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity REAL NOT NULL,
		entry_price REAL NOT NULL,
		entry_time DATETIME NOT NULL,
		exit_price REAL NOT NULL,
		exit_time DATETIME NOT NULL,
		exit_reason TEXT NOT NULL,
		realized_pnl REAL NOT NULL,
		commission REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, exit_time);

	CREATE TABLE IF NOT EXISTS equity (
		timestamp DATETIME PRIMARY KEY,
		value REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS candles (
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (symbol, interval, timestamp)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSignal implements DataStore.
func (s *SQLiteStore) SaveSignal(signal *models.Signal) error {
	factors, err := json.Marshal(signal.Factors)
	if err != nil {
		return fmt.Errorf("marshaling factors: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO signals (symbol, action, strength, score, confidence, price, stop_loss, take_profit, factors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		signal.Symbol, string(signal.Action), string(signal.Strength),
		signal.Score, signal.Confidence, signal.Price,
		signal.StopLoss, signal.TakeProfit, string(factors), signal.Timestamp)
	if err != nil {
		return fmt.Errorf("saving signal: %w", err)
	}
	return nil
}

// Signals implements DataStore, newest first.
func (s *SQLiteStore) Signals(symbol string, limit int) ([]models.Signal, error) {
	rows, err := s.db.Query(`
		SELECT symbol, action, strength, score, confidence, price, stop_loss, take_profit, factors, created_at
		FROM signals WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("querying signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		var sig models.Signal
		var action, strength, factors string
		if err := rows.Scan(&sig.Symbol, &action, &strength, &sig.Score, &sig.Confidence,
			&sig.Price, &sig.StopLoss, &sig.TakeProfit, &factors, &sig.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning signal: %w", err)
		}
		sig.Action = models.SignalAction(action)
		sig.Strength = models.SignalStrength(strength)
		if err := json.Unmarshal([]byte(factors), &sig.Factors); err != nil {
			return nil, fmt.Errorf("unmarshaling factors: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// SaveTrade implements DataStore.
func (s *SQLiteStore) SaveTrade(trade models.Trade) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO trades
		(id, position_id, symbol, side, quantity, entry_price, entry_time, exit_price, exit_time, exit_reason, realized_pnl, commission)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.PositionID, trade.Symbol, string(trade.Side), trade.Quantity,
		trade.EntryPrice, trade.EntryTime, trade.ExitPrice, trade.ExitTime,
		string(trade.ExitReason), trade.RealizedPnL, trade.Commission)
	if err != nil {
		return fmt.Errorf("saving trade: %w", err)
	}
	return nil
}

// Trades implements DataStore, newest first.
func (s *SQLiteStore) Trades(limit int) ([]models.Trade, error) {
	rows, err := s.db.Query(`
		SELECT id, position_id, symbol, side, quantity, entry_price, entry_time, exit_price, exit_time, exit_reason, realized_pnl, commission
		FROM trades ORDER BY exit_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var side, reason string
		if err := rows.Scan(&t.ID, &t.PositionID, &t.Symbol, &side, &t.Quantity,
			&t.EntryPrice, &t.EntryTime, &t.ExitPrice, &t.ExitTime,
			&reason, &t.RealizedPnL, &t.Commission); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		t.Side = models.PositionSide(side)
		t.ExitReason = models.ExitReason(reason)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveEquityPoint implements DataStore.
func (s *SQLiteStore) SaveEquityPoint(point models.EquityPoint) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO equity (timestamp, value) VALUES (?, ?)`,
		point.Timestamp, point.Value)
	if err != nil {
		return fmt.Errorf("saving equity point: %w", err)
	}
	return nil
}

// EquityCurve implements DataStore, oldest first.
func (s *SQLiteStore) EquityCurve(limit int) ([]models.EquityPoint, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, value FROM (
			SELECT timestamp, value FROM equity ORDER BY timestamp DESC LIMIT ?
		) ORDER BY timestamp ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying equity curve: %w", err)
	}
	defer rows.Close()

	var points []models.EquityPoint
	for rows.Next() {
		var p models.EquityPoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning equity point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// SaveCandles implements DataStore. Existing rows are replaced, so
// refetching overlapping history is safe.
func (s *SQLiteStore) SaveCandles(series *models.PriceSeries) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles (symbol, interval, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing candle insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range series.Candles {
		if _, err := stmt.Exec(series.Symbol, string(series.Interval), c.Timestamp,
			c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting candle: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing candles: %w", err)
	}
	return nil
}

// Candles implements DataStore, oldest first.
func (s *SQLiteStore) Candles(symbol string, interval models.Interval, limit int) (*models.PriceSeries, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, open, high, low, close, volume FROM (
			SELECT timestamp, open, high, low, close, volume FROM candles
			WHERE symbol = ? AND interval = ? ORDER BY timestamp DESC LIMIT ?
		) ORDER BY timestamp ASC`, symbol, string(interval), limit)
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer rows.Close()

	series := &models.PriceSeries{Symbol: symbol, Interval: interval}
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scanning candle: %w", err)
		}
		series.Candles = append(series.Candles, c)
	}
	return series, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
