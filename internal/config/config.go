// Package config provides configuration management for the trading engine.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading  TradingConfig  `mapstructure:"trading"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Ensemble EnsembleConfig `mapstructure:"ensemble"`
	Alerts   AlertConfig    `mapstructure:"alerts"`
	Binance  BinanceConfig  `mapstructure:"binance"`
}

// TradingConfig holds simulation and sizing parameters shared by backtest
// and paper trading.
type TradingConfig struct {
	Symbols        []string `mapstructure:"symbols"`
	Interval       string   `mapstructure:"interval"`
	InitialCapital float64  `mapstructure:"initial_capital"`
	CommissionRate float64  `mapstructure:"commission_rate"`
	// StopLossATRMultiplier scales the ATR to the stop distance of new
	// positions.
	StopLossATRMultiplier float64 `mapstructure:"stop_loss_atr_multiplier"`
	// TakeProfitRatio is the reward:risk multiple applied to the stop
	// distance.
	TakeProfitRatio float64 `mapstructure:"take_profit_ratio"`
	TrailingStop    bool    `mapstructure:"trailing_stop"`
	// MaxHoldCandles force-closes positions with reason TIMEOUT when
	// positive.
	MaxHoldCandles int `mapstructure:"max_hold_candles"`
}

// RiskConfig holds risk management configuration. Fractions are of total
// portfolio value in [0, 1].
type RiskConfig struct {
	MinSignalConfidence float64 `mapstructure:"min_signal_confidence"`
	MinPositionSize     float64 `mapstructure:"min_position_size"`
	MaxPositionSize     float64 `mapstructure:"max_position_size"`
	MaxSectorExposure   float64 `mapstructure:"max_sector_exposure"`
	MaxPortfolioRisk    float64 `mapstructure:"max_portfolio_risk"`
	CorrelationLimit    float64 `mapstructure:"correlation_limit"`
	LiquidityFloor      float64 `mapstructure:"liquidity_floor"`
	MaxOpenPositions    int     `mapstructure:"max_open_positions"`
	// KellyWinRate is the assumed win rate for Kelly sizing until the
	// trade ledger has enough history to measure one.
	KellyWinRate float64 `mapstructure:"kelly_win_rate"`
	// Sectors maps symbols to an exposure category. Unmapped symbols
	// fall into the "crypto" category.
	Sectors map[string]string `mapstructure:"sectors"`
}

// EnsembleConfig holds the signal ensemble weights and thresholds.
// Weights must sum to 1.0.
type EnsembleConfig struct {
	Weights         WeightConfig `mapstructure:"weights"`
	SignalThreshold float64      `mapstructure:"signal_threshold"`
	StrongThreshold float64      `mapstructure:"strong_threshold"`
}

// WeightConfig defines the weight of each contributing source.
type WeightConfig struct {
	RSI        float64 `mapstructure:"rsi"`
	MACD       float64 `mapstructure:"macd"`
	Bollinger  float64 `mapstructure:"bollinger"`
	Stochastic float64 `mapstructure:"stochastic"`
	Patterns   float64 `mapstructure:"patterns"`
	Sentiment  float64 `mapstructure:"sentiment"`
}

// Sum returns the total of all weights.
func (w WeightConfig) Sum() float64 {
	return w.RSI + w.MACD + w.Bollinger + w.Stochastic + w.Patterns + w.Sentiment
}

// AlertConfig holds notification configuration.
type AlertConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Threshold  float64 `mapstructure:"threshold"`
	WebhookURL string  `mapstructure:"webhook_url"`
}

// BinanceConfig holds market-data provider credentials.
type BinanceConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Testnet   bool   `mapstructure:"testnet"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Symbols:               []string{"BTCUSDT", "ETHUSDT"},
			Interval:              "1h",
			InitialCapital:        10000,
			CommissionRate:        0.001,
			StopLossATRMultiplier: 2.0,
			TakeProfitRatio:       2.0,
			TrailingStop:          false,
			MaxHoldCandles:        0,
		},
		Risk: RiskConfig{
			MinSignalConfidence: 75,
			MinPositionSize:     0.01,
			MaxPositionSize:     0.10,
			MaxSectorExposure:   0.40,
			MaxPortfolioRisk:    0.25,
			CorrelationLimit:    0.7,
			LiquidityFloor:      0.10,
			MaxOpenPositions:    10,
			KellyWinRate:        0.55,
		},
		Ensemble: EnsembleConfig{
			Weights: WeightConfig{
				RSI:        0.15,
				MACD:       0.15,
				Bollinger:  0.20,
				Stochastic: 0.10,
				Patterns:   0.25,
				Sentiment:  0.15,
			},
			SignalThreshold: 15,
			StrongThreshold: 30,
		},
		Alerts: AlertConfig{
			Enabled:   true,
			Threshold: 85,
		},
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/crypto-trader"
	}
	return filepath.Join(home, ".config", "crypto-trader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// Invalid configurations fail here, never mid-run.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := writeTemplate(configDir); werr != nil {
				return nil, fmt.Errorf("creating config template: %w", werr)
			}
		} else {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("trading.symbols", def.Trading.Symbols)
	v.SetDefault("trading.interval", def.Trading.Interval)
	v.SetDefault("trading.initial_capital", def.Trading.InitialCapital)
	v.SetDefault("trading.commission_rate", def.Trading.CommissionRate)
	v.SetDefault("trading.stop_loss_atr_multiplier", def.Trading.StopLossATRMultiplier)
	v.SetDefault("trading.take_profit_ratio", def.Trading.TakeProfitRatio)
	v.SetDefault("trading.trailing_stop", def.Trading.TrailingStop)
	v.SetDefault("trading.max_hold_candles", def.Trading.MaxHoldCandles)
	v.SetDefault("risk.min_signal_confidence", def.Risk.MinSignalConfidence)
	v.SetDefault("risk.min_position_size", def.Risk.MinPositionSize)
	v.SetDefault("risk.max_position_size", def.Risk.MaxPositionSize)
	v.SetDefault("risk.max_sector_exposure", def.Risk.MaxSectorExposure)
	v.SetDefault("risk.max_portfolio_risk", def.Risk.MaxPortfolioRisk)
	v.SetDefault("risk.correlation_limit", def.Risk.CorrelationLimit)
	v.SetDefault("risk.liquidity_floor", def.Risk.LiquidityFloor)
	v.SetDefault("risk.max_open_positions", def.Risk.MaxOpenPositions)
	v.SetDefault("risk.kelly_win_rate", def.Risk.KellyWinRate)
	v.SetDefault("ensemble.weights.rsi", def.Ensemble.Weights.RSI)
	v.SetDefault("ensemble.weights.macd", def.Ensemble.Weights.MACD)
	v.SetDefault("ensemble.weights.bollinger", def.Ensemble.Weights.Bollinger)
	v.SetDefault("ensemble.weights.stochastic", def.Ensemble.Weights.Stochastic)
	v.SetDefault("ensemble.weights.patterns", def.Ensemble.Weights.Patterns)
	v.SetDefault("ensemble.weights.sentiment", def.Ensemble.Weights.Sentiment)
	v.SetDefault("ensemble.signal_threshold", def.Ensemble.SignalThreshold)
	v.SetDefault("ensemble.strong_threshold", def.Ensemble.StrongThreshold)
	v.SetDefault("alerts.enabled", def.Alerts.Enabled)
	v.SetDefault("alerts.threshold", def.Alerts.Threshold)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Binance.APISecret = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if sum := c.Ensemble.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("ensemble weights must sum to 1.0, got %.6f", sum)
	}
	if c.Ensemble.SignalThreshold < 0 || c.Ensemble.SignalThreshold > 100 {
		return fmt.Errorf("ensemble.signal_threshold must be in [0, 100]")
	}
	if c.Ensemble.StrongThreshold < c.Ensemble.SignalThreshold {
		return fmt.Errorf("ensemble.strong_threshold must be >= signal_threshold")
	}
	if c.Risk.MinSignalConfidence < 0 || c.Risk.MinSignalConfidence > 100 {
		return fmt.Errorf("risk.min_signal_confidence must be in [0, 100]")
	}
	if c.Risk.MinPositionSize <= 0 || c.Risk.MaxPositionSize <= 0 {
		return fmt.Errorf("position size limits must be positive")
	}
	if c.Risk.MinPositionSize > c.Risk.MaxPositionSize {
		return fmt.Errorf("risk.min_position_size must not exceed max_position_size")
	}
	if c.Risk.MaxPositionSize > 1 || c.Risk.MaxSectorExposure > 1 || c.Risk.LiquidityFloor > 1 {
		return fmt.Errorf("risk fractions must be in (0, 1]")
	}
	if c.Risk.CorrelationLimit < 0 || c.Risk.CorrelationLimit > 1 {
		return fmt.Errorf("risk.correlation_limit must be in [0, 1]")
	}
	if c.Risk.MaxOpenPositions <= 0 {
		return fmt.Errorf("risk.max_open_positions must be positive")
	}
	if c.Risk.KellyWinRate <= 0 || c.Risk.KellyWinRate >= 1 {
		return fmt.Errorf("risk.kelly_win_rate must be in (0, 1)")
	}
	if c.Trading.InitialCapital <= 0 {
		return fmt.Errorf("trading.initial_capital must be positive")
	}
	if c.Trading.CommissionRate < 0 || c.Trading.CommissionRate >= 1 {
		return fmt.Errorf("trading.commission_rate must be in [0, 1)")
	}
	if c.Trading.StopLossATRMultiplier <= 0 {
		return fmt.Errorf("trading.stop_loss_atr_multiplier must be positive")
	}
	if c.Trading.TakeProfitRatio <= 0 {
		return fmt.Errorf("trading.take_profit_ratio must be positive")
	}
	if c.Alerts.Threshold < 0 || c.Alerts.Threshold > 100 {
		return fmt.Errorf("alerts.threshold must be in [0, 100]")
	}
	return nil
}

// Sector returns the exposure category for a symbol.
func (c *RiskConfig) Sector(symbol string) string {
	if s, ok := c.Sectors[symbol]; ok {
		return s
	}
	return "crypto"
}
