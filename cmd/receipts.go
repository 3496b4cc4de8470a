package cmd

import (
	"fmt"

	"github.com/ecotracehq/ecotrace/internal/cli"

	"github.com/spf13/cobra"
)

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "List recent receipts, newest first",
	RunE:  runReceipts,
}

func init() {
	rootCmd.AddCommand(receiptsCmd)
}

func runReceipts(_ *cobra.Command, _ []string) error {
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

	receipts, err := st.ListByAccount(account, listLimit(cfg))
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RECEIPTS  %s", account)))
	fmt.Println()

	if len(receipts) == 0 {
		fmt.Println(cli.RenderLabel("  No receipts yet. Run `ecotrace optimize` to create one."))
		return nil
	}

	rows := make([][]string, 0, len(receipts))
	for _, r := range receipts {
		rows = append(rows, []string{
			cli.TruncateID(r.ReceiptID, 26),
			r.Timestamp.Format("2006-01-02 15:04"),
			cli.FormatTokens(r.TokensSaved()),
			cli.FormatCO2(r.CO2GSaved()),
			cli.FormatQuality(r.QualityScore),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Receipt", "When", "Tokens", "CO₂", "Quality"},
		Rows:    rows,
	}))
	return nil
}
