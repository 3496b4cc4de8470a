package cmd

import (
	"fmt"

	"github.com/ecotracehq/ecotrace/internal/cli"
	"github.com/ecotracehq/ecotrace/internal/pipeline"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show per-day savings over the trailing window",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
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

	days := windowDays(cfg)
	agg := pipeline.Aggregator{Store: st}
	series, err := agg.Timeseries(account, days)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY SAVINGS  Last %dd", days)))
	fmt.Println()

	if len(series) == 0 {
		fmt.Println(cli.RenderLabel("  No receipts in the window."))
		return nil
	}

	rows := make([][]string, 0, len(series))
	values := make([]float64, 0, len(series))
	for _, ds := range series {
		rows = append(rows, []string{
			ds.Day.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(ds.Day.Weekday())),
			cli.FormatNumber(int64(ds.Events)),
			cli.FormatTokens(ds.TokensSaved),
			cli.FormatCO2(ds.CO2GSaved),
		})
		values = append(values, ds.CO2GSaved)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Day", "", "Receipts", "Tokens", "CO₂"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Printf("  %s %s\n", cli.RenderLabel("CO₂ trend:"), cli.RenderSparkline(values))
	return nil
}
