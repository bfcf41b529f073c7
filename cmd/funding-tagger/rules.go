// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/funding-tagger/internal/tagger"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show, validate or create keyword rule files",
	Long: `Rules manages the YAML file that holds the four ordered rule tables
(degree, field, sdg, theme). Without a rules file the built-in tables are
used. Label order within a table decides ties, so edit with care.`,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active rule tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := buildEngine(loadConfig())
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(engine.Rules())
		}
		data, err := tagger.MarshalRules(engine.Rules())
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a rules file for errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := tagger.LoadRules(args[0])
		if err != nil {
			return err
		}
		for _, axis := range tagger.Axes {
			table := cfg.Table(axis)
			keywords := 0
			for _, r := range table {
				keywords += len(r.Keywords)
			}
			note := ""
			if len(table) == 0 {
				note = " (empty, always falls back)"
			}
			fmt.Printf("%-6s  %2d labels  %3d keywords%s\n", axis, len(table), keywords, note)
		}
		fmt.Printf("%s is valid\n", args[0])
		return nil
	},
}

var rulesInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write the built-in rule tables to a file as a starting point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := tagger.WriteRules(path, tagger.DefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("Wrote default rules to %s\n", path)
		return nil
	},
}

func init() {
	rulesShowCmd.Flags().Bool("json", false, "print JSON instead of YAML")
	rulesInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesInitCmd)

	rootCmd.AddCommand(rulesCmd)
}
