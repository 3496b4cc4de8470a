// Package cmd implements the ecotrace CLI commands.
package cmd

import (
	"errors"
	"os"

	"github.com/ecotracehq/ecotrace/internal/carbon"
	"github.com/ecotracehq/ecotrace/internal/config"
	"github.com/ecotracehq/ecotrace/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagAccount string
	flagDBPath  string
	flagDays    int
	flagLimit   int
)

var rootCmd = &cobra.Command{
	Use:   "ecotrace",
	Short: "Prompt optimization and carbon accounting for LLM workloads",
	Long: "Strip filler from prompts, convert the saved tokens into energy and\n" +
		"CO₂ figures, and track the receipts per account.",
	RunE: runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagAccount, "account", "a", "", "Account id (or ECOTRACE_ACCOUNT)")
	rootCmd.PersistentFlags().StringVarP(&flagDBPath, "db", "d", "", "Receipt database path")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Time window in days for timeseries views")
	rootCmd.PersistentFlags().IntVarP(&flagLimit, "limit", "l", 0, "Max receipts to list")
}

// loadConfig reads the config file, falling back to defaults on error so
// every command can still run.
func loadConfig() config.Config {
	cfg, _ := config.Load()
	return cfg
}

// openStore resolves the database path (flag > config > default) and opens it.
func openStore(cfg config.Config) (*store.Store, error) {
	path := flagDBPath
	if path == "" {
		path = config.DBPath(cfg)
	}
	return store.Open(path)
}

// resolveAccount resolves the account id (flag > env > config).
func resolveAccount(cfg config.Config) (string, error) {
	if flagAccount != "" {
		return flagAccount, nil
	}
	if id := config.GetAccountID(cfg); id != "" {
		return id, nil
	}
	return "", errors.New("no account id; pass --account or run `ecotrace setup`")
}

// carbonModel builds the carbon model from config.
func carbonModel(cfg config.Config) carbon.Model {
	m := carbon.Default()
	if cfg.Carbon.GridIntensity > 0 {
		m.GridIntensity = cfg.Carbon.GridIntensity
	}
	return m
}

// windowDays resolves the timeseries window (flag > config > default).
func windowDays(cfg config.Config) int {
	if flagDays > 0 {
		return flagDays
	}
	if cfg.General.DefaultDays > 0 {
		return cfg.General.DefaultDays
	}
	return 30
}

// listLimit resolves the receipt list limit (flag > config > default).
func listLimit(cfg config.Config) int {
	if flagLimit > 0 {
		return flagLimit
	}
	if cfg.General.DefaultLimit > 0 {
		return cfg.General.DefaultLimit
	}
	return store.DefaultListLimit
}
