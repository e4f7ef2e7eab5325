package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/calllist-cli/internal/worklist"
)

var (
	enrichIn          string
	enrichOut         string
	enrichLimit       int
	enrichConcurrency int
	enrichDryRun      bool
	enrichNoCache     bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill missing phone numbers in a call-list workbook",
	Long: `Reads the 架電リスト sheet, searches a phone number for every row
whose output column is still empty, and writes the result back.

Rows that already have a value in the output column are skipped and left
unchanged. Other sheets in the workbook are preserved.

Examples:
  # Enrich in place
  calllist-cli enrich --in calls.xlsx

  # Write to a new file, first 10 rows only
  calllist-cli enrich --in calls.xlsx --out calls_out.xlsx --limit 10

  # Show which rows would be searched, no API calls
  calllist-cli enrich --in calls.xlsx --dry-run`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		wb, err := worklist.Open(enrichIn, cfg.Excel)
		if err != nil {
			return err
		}

		if enrichDryRun {
			return printDryRun(wb)
		}

		env, err := initEnrich(!enrichNoCache)
		if err != nil {
			return eris.Wrap(err, "enrich: init")
		}
		defer env.Close()

		if env.Pool.Size() == 0 {
			return eris.New("enrich: no SerpAPI key configured (set SERPAPI_KEY or the secrets file)")
		}

		stats, err := env.newProcessor(enrichConcurrency).Run(ctx, wb, enrichLimit)
		if err != nil {
			return eris.Wrap(err, "enrich: process")
		}

		out := enrichOut
		if out == "" {
			out = enrichIn
		}
		if err := wb.Save(out); err != nil {
			return err
		}

		zap.L().Info("workbook saved",
			zap.String("path", out),
			zap.Int("searched", stats.Searched),
			zap.Int("found", stats.Found),
			zap.Int("skipped", stats.Skipped),
		)
		if stats.Exhausted {
			return eris.New("enrich: stopped early, all api keys exhausted")
		}
		return nil
	},
}

func printDryRun(wb *worklist.Workbook) error {
	var pending, skipped int
	for _, row := range wb.Rows() {
		if row.Phone != "" {
			skipped++
			continue
		}
		pending++
		fmt.Printf("row %d: %s", row.Index+1, row.Subject)
		if row.Region != "" {
			fmt.Printf(" (%s)", row.Region)
		}
		fmt.Println()
	}
	fmt.Printf("would search %d rows, skip %d\n", pending, skipped)
	return nil
}

func init() {
	enrichCmd.Flags().StringVar(&enrichIn, "in", "", "input workbook path (required)")
	enrichCmd.Flags().StringVar(&enrichOut, "out", "", "output workbook path (default: overwrite input)")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "search at most N rows (0 = all)")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 1, "rows processed at once")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "list rows that would be searched, no API calls")
	enrichCmd.Flags().BoolVar(&enrichNoCache, "no-cache", false, "bypass the local lookup cache")
	_ = enrichCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(enrichCmd)
}
