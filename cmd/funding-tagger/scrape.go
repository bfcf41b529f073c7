// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/funding-tagger/internal/ingest"
	"github.com/pdiddy/funding-tagger/internal/ledger"
	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/internal/pipeline"
	"github.com/pdiddy/funding-tagger/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the funding sources, classify listings and deliver them",
	Long: `Scrape fetches the listing page of every known source, classifies each
listing with the keyword engine and posts the result to the ingest backend.
Listings the ledger already records as delivered are skipped unless --force
is given. Every attempt is recorded in the ledger.

With --dry-run nothing is posted and nothing is recorded; the calls that
would be sent are logged instead.`,
	RunE: runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	names, _ := cmd.Flags().GetStringSlice("source")
	force, _ := cmd.Flags().GetBool("force")
	reportPath, _ := cmd.Flags().GetString("report")

	cfg := loadConfig()
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	sources, err := scrape.Select(scrape.Builtin(), names)
	if err != nil {
		return err
	}

	store, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := pipeline.Deps{
		Engine:  engine,
		Fetcher: scrape.NewFetcher(&http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch, logger.With(logging.String("stage", "fetch"))),
		Sources: sources,
		Sender:  ingest.NewClient(nil, cfg.Ingest, logger.With(logging.String("stage", "ingest"))),
		Ledger:  store,
		Log:     logger,
	}
	opts := pipeline.Options{Force: force, DeadlineWindow: cfg.DeadlineWindow}

	started := time.Now()
	summary, runErr := pipeline.Run(ctx, deps, opts, os.Stdout)

	if reportPath != "" {
		info := pipeline.RunInfo{
			Force:     force,
			DryRun:    cfg.Ingest.DryRun,
			Deadline:  pipeline.DefaultDeadline(started, cfg.DeadlineWindow),
			Timestamp: started,
		}
		for _, s := range sources {
			info.Sources = append(info.Sources, s.Name())
		}
		if err := pipeline.WriteReport(reportPath, info, summary); err != nil {
			return errors.Join(runErr, err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportPath)
	}

	if runErr != nil {
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d delivery failure(s), %d source error(s)", summary.Failed, len(summary.SourceErrors))
	}
	return nil
}

func init() {
	scrapeCmd.Flags().StringSlice("source", nil, "source to scrape (repeatable; default: all): universitystudy.ca, scholarship-positions.com")
	scrapeCmd.Flags().Bool("dry-run", false, "log calls instead of posting them")
	scrapeCmd.Flags().Bool("force", false, "resend listings already delivered")
	scrapeCmd.Flags().String("report", "", "write a YAML run report to this path")

	viper.BindPFlag("ingest.dry_run", scrapeCmd.Flags().Lookup("dry-run"))

	rootCmd.AddCommand(scrapeCmd)
}
