package marketdata

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"crypto-trader/internal/config"
	apperrors "crypto-trader/internal/errors"
	"crypto-trader/internal/models"
)

const binanceTestnetURL = "https://testnet.binance.vision"

// BinanceProvider serves candles and prices from Binance spot markets.
// Public market data needs no API key; credentials are only required
// when the testnet is used with a funded account.
type BinanceProvider struct {
	client *binance.Client
}

// NewBinanceProvider creates a provider from configuration.
func NewBinanceProvider(cfg config.BinanceConfig) *BinanceProvider {
	client := binance.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.Testnet {
		client.BaseURL = binanceTestnetURL
	}
	return &BinanceProvider{client: client}
}

// FetchSeries implements Provider.
func (p *BinanceProvider) FetchSeries(ctx context.Context, symbol string, interval models.Interval, lookback int) (*models.PriceSeries, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(symbol).
		Interval(string(interval)).
		Limit(lookback).
		Do(ctx)
	if err != nil {
		return nil, apperrors.NewDataError("fetch_series", symbol, "fetching klines", err)
	}

	series := &models.PriceSeries{
		Symbol:   symbol,
		Interval: interval,
		Candles:  make([]models.Candle, 0, len(klines)),
	}
	for _, k := range klines {
		candle, err := parseKline(k)
		if err != nil {
			return nil, apperrors.NewDataError("fetch_series", symbol, "parsing kline", err)
		}
		series.Candles = append(series.Candles, candle)
	}
	return series, nil
}

// CurrentPrice implements Provider.
func (p *BinanceProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := p.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, apperrors.NewDataError("current_price", symbol, "fetching price", err)
	}
	if len(prices) == 0 {
		return 0, apperrors.NewDataError("current_price", symbol, "no price returned", apperrors.ErrSymbolNotFound)
	}
	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, apperrors.NewDataError("current_price", symbol, "parsing price", err)
	}
	return price, nil
}

func parseKline(k *binance.Kline) (models.Candle, error) {
	var (
		candle models.Candle
		err    error
	)
	candle.Timestamp = time.UnixMilli(k.OpenTime).UTC()
	if candle.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return candle, err
	}
	if candle.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return candle, err
	}
	if candle.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return candle, err
	}
	if candle.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return candle, err
	}
	if candle.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return candle, err
	}
	return candle, nil
}
