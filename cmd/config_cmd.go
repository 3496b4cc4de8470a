package cmd

import (
	"fmt"
	"strconv"

	"github.com/ecotracehq/ecotrace/internal/cli"
	"github.com/ecotracehq/ecotrace/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	source := config.Path()
	if !config.Exists() {
		source = "defaults (no config file)"
	}

	account := config.GetAccountID(cfg)
	if account == "" {
		account = "(unset)"
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CONFIGURATION"))
	fmt.Println()
	fmt.Println(cli.RenderLabel("  Source: " + source))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Setting", "Value"},
		Rows: [][]string{
			{"general.account_id", account},
			{"general.default_days", strconv.Itoa(cfg.General.DefaultDays)},
			{"general.default_limit", strconv.Itoa(cfg.General.DefaultLimit)},
			{"---"},
			{"server.addr", cfg.Server.Addr},
			{"server.rate_per_sec", strconv.FormatFloat(cfg.Server.RatePerSec, 'f', -1, 64)},
			{"server.rate_burst", strconv.Itoa(cfg.Server.RateBurst)},
			{"---"},
			{"storage.db_path", config.DBPath(cfg)},
			{"---"},
			{"carbon.grid_intensity_g_per_kwh", strconv.FormatFloat(cfg.Carbon.GridIntensity, 'f', -1, 64)},
			{"optimizer.default_strategy", cfg.Optimizer.DefaultStrategy},
		},
	}))
	return nil
}
