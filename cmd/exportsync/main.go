// Command exportsync extracts exported workbooks and syncs them into a
// spreadsheet from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"exportsync/pkg/config"
	"exportsync/pkg/extract"
	"exportsync/pkg/history"
	"exportsync/pkg/pipeline"
	"exportsync/pkg/policy"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	cfg     *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "exportsync",
		Short:         "Normalize exported workbooks and sync them into Google Sheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			log.SetFormatter(&log.TextFormatter{
				FullTimestamp: true,
			})
			log.SetLevel(cfg.Level())
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(extractCmd(), syncCmd(), runsCmd(), policiesCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "extract [input.xlsx]",
		Short: "Extract a workbook to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := extract.Load(args[0])
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}
			if outputPath == "" || outputPath == "-" {
				return extract.WriteJSON(cmd.OutOrStdout(), wb)
			}
			if err := extract.WriteJSONFile(outputPath, wb); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			log.WithField("path", outputPath).Info("Wrote JSON")
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

func syncCmd() *cobra.Command {
	var (
		target    string
		allSheets bool
		noClear   bool
		keep      bool
		since     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sync [input.xlsx]",
		Short: "Extract a workbook and sync it into the spreadsheet",
		Long: `Extract a workbook and sync it into the spreadsheet.

Without an input path the newest file matching EXPORTSYNC_DOWNLOAD_PATTERN in
EXPORTSYNC_DOWNLOAD_DIR is used, waiting up to EXPORTSYNC_DOWNLOAD_TIMEOUT.
The workbook is deleted after a fully successful sync unless --keep is given
or EXPORTSYNC_DELETE_SOURCE=false.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if keep {
				cfg.DeleteSource = false
			}
			runner, store, err := pipeline.FromConfig(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			req := pipeline.Request{Target: cfg.TargetSheet, Clear: cfg.Clear && !noClear}
			if cmd.Flags().Changed("target") {
				req.Target = target
			}
			if allSheets {
				req.Target = ""
			}
			if len(args) == 1 {
				req.Path = args[0]
			} else if since > 0 {
				req.Since = time.Now().Add(-since)
			}

			res, err := runner.Run(ctx, req)
			if res != nil {
				printResult(cmd, res)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Destination worksheet for the first sheet (default: GOOGLE_SHEET_TAB)")
	cmd.Flags().BoolVar(&allSheets, "all", false, "Sync every sheet to a worksheet of the same name")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "Keep existing data rows")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the workbook after a successful sync")
	cmd.Flags().DurationVar(&since, "since", 0, "Only pick downloads modified within this window")
	return cmd
}

func printResult(cmd *cobra.Command, res *pipeline.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run %s\t%s\n", res.RunID, res.Source)
	for _, sr := range res.Report.Results {
		status := "ok"
		if sr.Err != nil {
			status = sr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d rows\t%s\n", sr.Sheet, sr.Rows, status)
	}
	_ = w.Flush()
}

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return errors.New("no runs recorded")
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tRUN\tSHEET\tROWS\tSTATUS")
			for _, e := range entries {
				status := "ok"
				if !e.OK {
					status = e.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.StartedAt.Local().Format(time.DateTime), e.RunID, e.Sheet, e.Rows, status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func policiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "Print the effective sync policies as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := policy.LoadRegistry(cfg.PolicyFile)
			if err != nil {
				return err
			}
			return policy.WriteTOML(cmd.OutOrStdout(), registry.All())
		},
	}
}
