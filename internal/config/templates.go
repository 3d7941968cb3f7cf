package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# crypto-trader configuration

[trading]
symbols = ["BTCUSDT", "ETHUSDT"]
interval = "1h"
initial_capital = 10000.0
commission_rate = 0.001
stop_loss_atr_multiplier = 2.0
take_profit_ratio = 2.0
trailing_stop = false
max_hold_candles = 0

[risk]
min_signal_confidence = 75.0
min_position_size = 0.01
max_position_size = 0.10
max_sector_exposure = 0.40
max_portfolio_risk = 0.25
correlation_limit = 0.7
liquidity_floor = 0.10
max_open_positions = 10
kelly_win_rate = 0.55

[ensemble]
signal_threshold = 15.0
strong_threshold = 30.0

[ensemble.weights]
rsi = 0.15
macd = 0.15
bollinger = 0.20
stochastic = 0.10
patterns = 0.25
sentiment = 0.15

[alerts]
enabled = true
threshold = 85.0
webhook_url = ""

[binance]
api_key = ""
api_secret = ""
testnet = false
`

// writeTemplate creates a template config file in the given directory.
func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
