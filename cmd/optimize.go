package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ecotracehq/ecotrace/internal/cli"
	"github.com/ecotracehq/ecotrace/internal/optimizer"
	"github.com/ecotracehq/ecotrace/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagStrategy string
	flagModel    string
	flagRegion   string
	flagDryRun   bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [prompt]",
	Short: "Optimize a prompt and record a savings receipt",
	Long: "Strips the strategy's filler terms from the prompt, estimates the token\n" +
		"and CO₂ savings, and stores a receipt. Reads the prompt from stdin when\n" +
		"no argument is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&flagStrategy, "strategy", "s", "", "Strategy: conservative, balanced, or aggressive")
	optimizeCmd.Flags().StringVar(&flagModel, "model", "", "Model label recorded on the receipt")
	optimizeCmd.Flags().StringVar(&flagRegion, "region", "", "Region label recorded on the receipt")
	optimizeCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print the result without storing a receipt")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(_ *cobra.Command, args []string) error {
	cfg := loadConfig()

	var prompt string
	if len(args) == 1 {
		prompt = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading prompt from stdin: %w", err)
		}
		prompt = string(data)
	}

	name := flagStrategy
	if name == "" {
		name = cfg.Optimizer.DefaultStrategy
	}
	strategy, err := optimizer.Parse(name)
	if err != nil {
		return err
	}

	res := optimizer.Optimize(prompt, strategy)

	account := ""
	if !flagDryRun {
		account, err = resolveAccount(cfg)
		if err != nil {
			return err
		}
	}

	builder := pipeline.Builder{Carbon: carbonModel(cfg)}
	receipt := builder.Build(account, res, flagModel, flagRegion)

	if !flagDryRun {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Upsert(receipt); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("OPTIMIZED  %s", strings.ToUpper(string(strategy)))))
	fmt.Println()

	removed := "none"
	if len(res.Optimizations) > 0 {
		removed = strings.Join(res.Optimizations, ", ")
	}

	reduction := "0.0%"
	if res.TokensBefore > 0 {
		reduction = cli.FormatPercent(float64(res.TokensBefore-res.TokensAfter) / float64(res.TokensBefore))
	}

	rows := [][]string{
		{"Tokens before", cli.FormatNumber(res.TokensBefore)},
		{"Tokens after", cli.FormatNumber(res.TokensAfter)},
		{"Tokens saved", cli.FormatNumber(res.TokensBefore - res.TokensAfter)},
		{"Reduction", reduction},
		{"---"},
		{"Energy saved", cli.FormatEnergy(receipt.KWhSaved())},
		{"CO₂ saved", cli.FormatCO2(receipt.CO2GSaved())},
		{"Quality", fmt.Sprintf("%.2f", res.QualityScore)},
		{"---"},
		{"Applied", removed},
	}
	if !flagDryRun {
		rows = append(rows, []string{"Receipt", receipt.ReceiptID})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Println(cli.RenderLabel("  Optimized prompt:"))
	fmt.Printf("  %s\n", res.OptimizedText)
	return nil
}
