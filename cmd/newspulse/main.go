// newspulse enriches company news with event types, cross-referenced ticker
// prices, sentiment and anomaly flags.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/newspulse/api"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root command.
var (
	cfg    *config.Config
	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newspulse",
	Short: "Company news enrichment and anomaly detection",
	Long: `newspulse fetches recent company news for groups of tracked tickers,
classifies each article's event type, attaches live prices of the other
tracked tickers it names, scores its sentiment and flags articles whose
polarity stands out from the rest of the batch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tickerCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// skip config loading
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newspulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run [group]",
	Short: "Run the pipeline over a ticker group",
	Long:  "Fetch the trailing news of every ticker in a group and print the enriched articles.",
	Example: `  newspulse run Tech
  newspulse run "Oil & Gas" --json
  newspulse run Finance --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cfg, logger, seedFlag(cmd))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := svc.RunGroup(ctx, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

// --- Ticker Command ---

var tickerCmd = &cobra.Command{
	Use:   "ticker [symbol]",
	Short: "Run the pipeline over a single ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cfg, logger, seedFlag(cmd))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := svc.RunTicker(ctx, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, tickerCmd} {
		c.Flags().Bool("json", false, "print the raw result as JSON")
		c.Flags().Uint64("seed", 0, "seed the sampler for a reproducible run (0 = random)")
	}
}

func seedFlag(cmd *cobra.Command) uint64 {
	seed, _ := cmd.Flags().GetUint64("seed")
	return seed
}

func printResult(cmd *cobra.Command, res *models.RunResult) error {
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(out, renderResult(res))
	fmt.Fprintln(out, summaryLine(res))
	return nil
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cfg, logger, 0)
		if err != nil {
			return err
		}
		api.Version = version
		srv := api.NewServer(cfg, svc, logger)
		return srv.ListenAndServe(context.Background(), cfg.Addr())
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  newspulse System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Market Status: %s\n", utils.MarketStatus())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    News Provider:  %s\n", cfg.News.Provider)
		fmt.Fprintf(out, "    Sentiment:      %s\n", cfg.Sentiment.Provider)
		fmt.Fprintf(out, "    Sample Size:    %d\n", cfg.Pipeline.SampleSize)
		fmt.Fprintf(out, "    Deviation (k):  %g\n", cfg.Pipeline.DeviationThreshold)
		fmt.Fprintf(out, "    Lookback:       %d days\n", cfg.Pipeline.LookbackDays)
		fmt.Fprintf(out, "    API Server:     %s\n", cfg.Addr())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Ticker Groups:")
		fmt.Fprintln(out, renderGroups(groupsFromConfig(cfg)))
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			if k.Required {
				status += " [required]"
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}
