package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"crypto-trader/internal/analysis/ensemble"
	"crypto-trader/internal/config"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/marketdata"
	"crypto-trader/internal/risk"
	"crypto-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.DataStore
	Provider marketdata.Provider
	Analyzer *ensemble.Analyzer
	Risk     *risk.Manager
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := filepath.Join(config.DefaultConfigDir(), "trader.db")
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, persistence disabled")
	} else {
		app.Store = dataStore
	}

	var provider marketdata.Provider = marketdata.NewBinanceProvider(cfg.Binance)
	provider = marketdata.NewResilientProvider(provider, logger)
	if app.Store != nil {
		provider = marketdata.NewCachedProvider(provider, app.Store, logger)
	}
	app.Provider = provider

	engine := ensemble.New(cfg)
	app.Analyzer = ensemble.NewAnalyzer(engine, nil, logger)
	app.Risk = risk.NewManager(cfg, logger)

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Crypto signal trader - technical analysis and simulated trading CLI",
		Long: `Crypto signal trader analyzes cryptocurrency markets with a weighted
ensemble of technical indicators, chart patterns and sentiment, sizes
positions through layered risk checks, and simulates the results in
backtests or live paper trading against Binance market data.

Use 'trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/crypto-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newScreenCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newPaperCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Crypto signal trader v%s\n", Version)
			}
		},
	}
}
