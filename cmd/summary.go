package cmd

import (
	"fmt"

	"github.com/ecotracehq/ecotrace/internal/cli"
	"github.com/ecotracehq/ecotrace/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show total savings for the account",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	account, err := resolveAccount(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	agg := pipeline.Aggregator{Store: st}
	summary, err := agg.Summary(account)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ECOTRACE  %s", account)))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Receipts", cli.FormatNumber(int64(summary.Events))},
			{"Tokens saved", cli.FormatNumber(summary.TokensSaved)},
			{"---"},
			{"CO₂ saved", cli.FormatCO2(summary.CO2GSaved)},
			{"Avg quality", fmt.Sprintf("%.2f", summary.AvgQuality)},
		},
	}))
	return nil
}
