// Package screener evaluates many symbols concurrently and ranks the
// resulting signals.
package screener

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"crypto-trader/internal/analysis/ensemble"
	"crypto-trader/internal/config"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/marketdata"
	"crypto-trader/internal/models"
)

// Result is one symbol's evaluation. Err is set when market data could
// not be fetched; the other fields are then empty.
type Result struct {
	Symbol string
	Signal *models.Signal
	// Volatility is the per-candle relative volatility.
	Volatility float64
	Err        error
}

// Screener fans analysis out across symbols. Analysis is pure per
// symbol, so the fan-out shares nothing but the provider.
type Screener struct {
	cfg      *config.Config
	provider marketdata.Provider
	analyzer *ensemble.Analyzer
	workers  int
	log      zerolog.Logger
}

// New creates a screener sized to the machine's CPU count.
func New(cfg *config.Config, provider marketdata.Provider, analyzer *ensemble.Analyzer, logger zerolog.Logger) *Screener {
	return &Screener{
		cfg:      cfg,
		provider: provider,
		analyzer: analyzer,
		workers:  runtime.NumCPU(),
		log:      logger.With().Str("component", "screener").Logger(),
	}
}

// Screen evaluates every symbol and returns results sorted by
// descending signal confidence, actionable signals first. Fetch
// failures are returned as per-symbol results, not a run failure.
func (s *Screener) Screen(ctx context.Context, symbols []string, lookback int) []Result {
	interval := models.Interval(s.cfg.Trading.Interval)

	jobs := make(chan string)
	results := make(chan Result)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				results <- s.screenOne(ctx, symbol, interval, lookback)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, symbol := range symbols {
			select {
			case jobs <- symbol:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var all []Result
	for r := range results {
		all = append(all, r)
	}
	sortResults(all)
	return all
}

func (s *Screener) screenOne(ctx context.Context, symbol string, interval models.Interval, lookback int) Result {
	series, err := s.provider.FetchSeries(ctx, symbol, interval, lookback)
	if err != nil {
		logging.LogDataGap(s.log, symbol, err)
		return Result{Symbol: symbol, Err: err}
	}
	eval := s.analyzer.Analyze(ctx, series)
	return Result{
		Symbol:     symbol,
		Signal:     eval.Signal,
		Volatility: eval.Volatility,
	}
}

// sortResults orders actionable signals by descending confidence, then
// holds, then errors, ties broken by symbol for stable output.
func sortResults(results []Result) {
	rank := func(r Result) int {
		switch {
		case r.Err != nil:
			return 2
		case r.Signal == nil || r.Signal.Action == models.ActionHold:
			return 1
		default:
			return 0
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := rank(results[i]), rank(results[j])
		if ri != rj {
			return ri < rj
		}
		if ri == 0 && results[i].Signal.Confidence != results[j].Signal.Confidence {
			return results[i].Signal.Confidence > results[j].Signal.Confidence
		}
		return results[i].Symbol < results[j].Symbol
	})
}
