// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/funding-tagger/internal/tagger"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [title words...]",
	Short: "Classify a title and description, or a JSONL file of them",
	Long: `Classify runs the keyword engine over one piece of text given as
arguments (plus --description), or over every line of a JSONL file given
with --input ("-" reads stdin). Each input line is an object with "title"
and optional "description" fields.

With --json the flat record is printed as JSON, one object per line for
--input. --explain adds the per-axis keyword hit counts.`,
	RunE: runClassify,
}

// classifyInput is one line of a --input file.
type classifyInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// explained is the --json --explain output shape.
type explained struct {
	tagger.Record
	Scores    map[tagger.Axis]tagger.Scores `json:"scores"`
	Fallbacks []tagger.Axis                 `json:"fallbacks"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	description, _ := cmd.Flags().GetString("description")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	explain, _ := cmd.Flags().GetBool("explain")

	engine, err := buildEngine(loadConfig())
	if err != nil {
		return err
	}

	if input == "" {
		if len(args) == 0 && description == "" {
			return fmt.Errorf("nothing to classify: give a title, --description or --input")
		}
		x := engine.Explain(strings.Join(args, " "), description)
		return printClassification(os.Stdout, x, jsonOutput, explain)
	}

	r := io.Reader(os.Stdin)
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	failed, err := classifyLines(engine, r, os.Stdout, jsonOutput, explain)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d input line(s) could not be parsed", failed)
	}
	return nil
}

// classifyLines classifies every JSONL line of r. Blank lines are ignored;
// malformed lines are reported on stderr, counted and skipped.
func classifyLines(engine *tagger.Engine, r io.Reader, w io.Writer, jsonOutput, explain bool) (failed int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var in classifyInput
		if err := json.Unmarshal([]byte(text), &in); err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			failed++
			continue
		}

		x := engine.Explain(in.Title, in.Description)
		if jsonOutput {
			if err := writeJSONLine(w, x, explain); err != nil {
				return failed, err
			}
			continue
		}
		rec := x.Result.Record()
		fmt.Fprintf(w, "%-12s  %-24s  %-15s  %-20s  %.2f  %s\n",
			rec.DegreeLevel, rec.Field, rec.Theme, rec.SDGTags, rec.ConfidenceScore, in.Title)
	}
	if err := scanner.Err(); err != nil {
		return failed, fmt.Errorf("reading input: %w", err)
	}
	return failed, nil
}

func writeJSONLine(w io.Writer, x tagger.Explanation, explain bool) error {
	var v any = x.Result.Record()
	if explain {
		v = explainedOf(x)
	}
	return json.NewEncoder(w).Encode(v)
}

func explainedOf(x tagger.Explanation) explained {
	out := explained{
		Record:    x.Result.Record(),
		Scores:    make(map[tagger.Axis]tagger.Scores, len(tagger.Axes)),
		Fallbacks: x.Fallbacks(),
	}
	for _, axis := range tagger.Axes {
		s := x.Scores(axis)
		if s == nil {
			s = tagger.Scores{}
		}
		out.Scores[axis] = s
	}
	if out.Fallbacks == nil {
		out.Fallbacks = []tagger.Axis{}
	}
	return out
}

func printClassification(w io.Writer, x tagger.Explanation, jsonOutput, explain bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if explain {
			return enc.Encode(explainedOf(x))
		}
		return enc.Encode(x.Result.Record())
	}

	r := x.Result
	fmt.Fprintf(w, "degree:     %s\n", r.DegreeLevel)
	fmt.Fprintf(w, "field:      %s\n", r.Field)
	fmt.Fprintf(w, "theme:      %s\n", r.Theme)
	fmt.Fprintf(w, "sdg:        %s\n", strings.Join(r.SDGTags, ", "))
	fmt.Fprintf(w, "confidence: %.2f\n", r.ConfidenceScore)

	if !explain {
		return nil
	}
	fmt.Fprintln(w)
	for _, axis := range tagger.Axes {
		scores := x.Scores(axis)
		if len(scores) == 0 {
			fmt.Fprintf(w, "  %-6s  (no hits, default)\n", axis)
			continue
		}
		parts := make([]string, len(scores))
		for i, s := range scores {
			parts[i] = fmt.Sprintf("%s=%d", s.Label, s.Hits)
		}
		fmt.Fprintf(w, "  %-6s  %s\n", axis, strings.Join(parts, " "))
	}
	return nil
}

func init() {
	classifyCmd.Flags().String("description", "", "description text classified together with the title")
	classifyCmd.Flags().String("input", "", `JSONL file of {"title","description"} objects ("-" for stdin)`)
	classifyCmd.Flags().Bool("json", false, "output JSON")
	classifyCmd.Flags().Bool("explain", false, "include per-axis keyword hit counts")

	rootCmd.AddCommand(classifyCmd)
}
