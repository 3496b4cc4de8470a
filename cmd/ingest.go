package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecotracehq/ecotrace/internal/cli"
	"github.com/ecotracehq/ecotrace/internal/ingest"
	"github.com/ecotracehq/ecotrace/internal/watcher"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagWatch        bool
	flagPollInterval time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.jsonl>... | --watch <dir>...",
	Short: "Ingest receipt events from JSONL spool files",
	Long: "Reads receipt events (one JSON object per line) and stores them for the\n" +
		"account. Malformed lines and invalid events are skipped, never fatal.\n" +
		"With --watch, directories are monitored and growing .jsonl files are\n" +
		"re-ingested; duplicate receipt ids make re-reads harmless.",
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch directories for spool files")
	ingestCmd.Flags().DurationVar(&flagPollInterval, "poll-interval", 5*time.Second, "Polling fallback interval in watch mode")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, args []string) error {
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

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ing := ingest.Ingestor{Store: st, Log: log}

	if flagWatch {
		return watchSpools(ing, account, args)
	}

	var ingested, skipped, parseErrors int
	for _, path := range args {
		res, err := ingest.ReadFile(path)
		if err != nil {
			return err
		}
		n := ing.IngestBatch(account, res.Events)
		ingested += n
		skipped += len(res.Events) - n
		parseErrors += res.ParseErrors
	}

	fmt.Printf("  Ingested %d receipt(s)", ingested)
	if skipped > 0 {
		fmt.Printf(", skipped %d invalid event(s)", skipped)
	}
	if parseErrors > 0 {
		fmt.Printf(", %d malformed line(s)", parseErrors)
	}
	fmt.Println()
	return nil
}

func watchSpools(ing ingest.Ingestor, account string, dirs []string) error {
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("spool directory %s: %w", dir, err)
		}
		if !info.IsDir() {
			return errors.New("--watch takes directories, not files")
		}
	}

	ingestPaths := func(paths []string) {
		for _, path := range paths {
			res, err := ingest.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
				continue
			}
			n := ing.IngestBatch(account, res.Events)
			fmt.Printf("  %s: ingested %d receipt(s)\n", path, n)
		}
	}

	var w *watcher.Watcher
	w = watcher.New(dirs, flagPollInterval, func(paths []string) {
		ingestPaths(paths)
		for _, p := range paths {
			w.MarkIngested(p)
		}
	})

	// Catch up on files already present before watching for growth.
	existing, err := w.Scan()
	if err != nil {
		return err
	}
	ingestPaths(existing)
	for _, p := range existing {
		w.MarkIngested(p)
	}

	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Println(cli.RenderLabel("  Watching for spool files. Ctrl-C to stop."))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}
