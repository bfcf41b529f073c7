// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/funding-tagger/internal/ledger"
	"github.com/pdiddy/funding-tagger/pkg/types"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the local delivery ledger (list, export, stats)",
	Long: `Ledger reads the SQLite database in which scrape records every
delivery attempt, keyed by listing URL.`,
}

// --- list subcommand ---

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded deliveries, most recent first",
	RunE:  runLedgerList,
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	store, err := ledger.Open(loadConfig().Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), filterFromFlags(cmd))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatLedgerList(os.Stdout, entries, jsonOutput)
}

func formatLedgerList(w io.Writer, entries []ledger.Entry, jsonOutput bool) error {
	if jsonOutput {
		if entries == nil {
			entries = []ledger.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No deliveries recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-9s  %-3s  %-8s  %-16s  %-40s  %s\n",
		"Status", "Try", "HTTP", "Last attempt", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, e := range entries {
		title := e.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		code := "-"
		if e.HTTPStatus != 0 {
			code = fmt.Sprint(e.HTTPStatus)
		}
		fmt.Fprintf(w, "%-9s  %-3d  %-8s  %-16s  %-40s  %s\n",
			e.Status, e.Attempts, code, e.LastAttempt.Local().Format("2006-01-02 15:04"), title, e.SourceURL)
	}

	fmt.Fprintf(w, "\n%d entries\n", len(entries))
	return nil
}

// --- export subcommand ---

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to YAML or JSON",
	Long: `Export writes the ledger (or the subset selected by --status,
--source and --limit) to a YAML or JSON file.`,
	RunE: runLedgerExport,
}

func runLedgerExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := ledger.Open(loadConfig().Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	f := filterFromFlags(cmd)
	switch format {
	case "yaml", "":
		if output == "" {
			output = "data/ledger-export.yaml"
		}
		err = store.ExportYAML(cmd.Context(), f, output)
	case "json":
		if output == "" {
			output = "data/ledger-export.json"
		}
		err = store.ExportJSON(cmd.Context(), f, output)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported to %s\n", output)
	return nil
}

// --- stats subcommand ---

var ledgerStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count deliveries by status and source",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := ledger.Open(loadConfig().Ledger)
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		formatLedgerStats(os.Stdout, st)
		return nil
	},
}

func formatLedgerStats(w io.Writer, st ledger.Stats) {
	fmt.Fprintf(w, "entries:   %d\n", st.Total)
	fmt.Fprintf(w, "delivered: %d\n", st.Delivered)
	fmt.Fprintf(w, "failed:    %d\n", st.Failed)
	fmt.Fprintf(w, "attempts:  %d\n", st.Attempts)

	if len(st.BySource) == 0 {
		return
	}
	sources := make([]string, 0, len(st.BySource))
	for s := range st.BySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	fmt.Fprintln(w, "\nby source:")
	for _, s := range sources {
		fmt.Fprintf(w, "  %-28s %d\n", s, st.BySource[s])
	}
}

// --- shared helpers ---

func filterFromFlags(cmd *cobra.Command) ledger.Filter {
	status, _ := cmd.Flags().GetString("status")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	return ledger.Filter{
		Status: types.DeliveryStatus(status),
		Source: source,
		Limit:  limit,
	}
}

func init() {
	for _, c := range []*cobra.Command{ledgerListCmd, ledgerExportCmd} {
		c.Flags().String("status", "", "filter by status: delivered or failed")
		c.Flags().String("source", "", "filter by source name")
	}
	ledgerListCmd.Flags().Int("limit", 50, "maximum entries (0 = all)")
	ledgerListCmd.Flags().Bool("json", false, "output entries as JSON")

	ledgerExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	ledgerExportCmd.Flags().String("output", "", "output file (default: data/ledger-export.<format>)")
	ledgerExportCmd.Flags().Int("limit", 0, "maximum entries to export (0 = all)")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)
	ledgerCmd.AddCommand(ledgerStatsCmd)

	rootCmd.AddCommand(ledgerCmd)
}
