package cmd

import (
	"fmt"
	"strconv"

	"github.com/ecotracehq/ecotrace/internal/config"
	"github.com/ecotracehq/ecotrace/internal/optimizer"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive first-run configuration",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	account := cfg.General.AccountID
	strategy := cfg.Optimizer.DefaultStrategy
	if strategy == "" {
		strategy = string(optimizer.Balanced)
	}
	grid := strconv.FormatFloat(cfg.Carbon.GridIntensity, 'f', -1, 64)

	strategyOpts := make([]huh.Option[string], 0, len(optimizer.Strategies()))
	for _, s := range optimizer.Strategies() {
		strategyOpts = append(strategyOpts, huh.NewOption(string(s), string(s)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account id").
				Description("Opaque id your receipts are recorded under").
				Value(&account),

			huh.NewSelect[string]().
				Title("Default strategy").
				Description("How aggressively to strip filler from prompts").
				Options(strategyOpts...).
				Value(&strategy),

			huh.NewInput().
				Title("Grid intensity (gCO₂/kWh)").
				Description("Carbon intensity of your electricity grid").
				Value(&grid).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(s, 64)
					if err != nil || v <= 0 {
						return fmt.Errorf("enter a positive number")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	gridVal, err := strconv.ParseFloat(grid, 64)
	if err != nil {
		return fmt.Errorf("parsing grid intensity: %w", err)
	}

	cfg.General.AccountID = account
	cfg.Optimizer.DefaultStrategy = strategy
	cfg.Carbon.GridIntensity = gridVal

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("  Saved %s\n", config.Path())
	return nil
}
