package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ecotracehq/ecotrace/internal/cli"
	"github.com/ecotracehq/ecotrace/internal/server"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the portal server is running",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&flagAddr, "addr", "", "Server address (default from config)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	addr := flagAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/v1/status", addr))
	if err != nil {
		fmt.Printf("  Server not reachable at %s\n", addr)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	var st server.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SERVER STATUS"))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Address", st.Addr},
			{"Started", st.StartedAt.Local().Format("2006-01-02 15:04:05")},
			{"Uptime", (time.Duration(st.UptimeSec) * time.Second).String()},
			{"---"},
			{"Requests", cli.FormatNumber(st.Requests)},
			{"Ingested", cli.FormatNumber(st.Ingested)},
			{"Stored receipts", cli.FormatNumber(st.ReceiptCount)},
		},
	}))
	return nil
}
