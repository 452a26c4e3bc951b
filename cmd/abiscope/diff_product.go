package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abiscope/abiscope/internal/abigail"
	"github.com/abiscope/abiscope/internal/log"
	"github.com/abiscope/abiscope/internal/manifest"
	"github.com/abiscope/abiscope/internal/product"
	"github.com/abiscope/abiscope/internal/progress"
)

var diffProductCmd = &cobra.Command{
	Use:   "diff-product <manifest.toml>",
	Short: "Compare every pair of libraries in a manifest",
	Long: `Run abidiff over every ordered pair of distinct libraries declared in
a manifest and report the verdicts.

The manifest is a TOML file with one [[library]] table per library:

  [[library]]
  label = "zlib@1.2.13"
  version = "1.2.13"
  binaries = ["/path/to/libz.so.1.2.13"]
  header = "/path/to/zlib.h"

Each entry names its binaries (first primary, the rest added) and
optionally either a public header to derive suppressions from or a
handwritten suppression file. A failing pair is reported and the sweep
continues; the exit code is 10 if any pair shows a harmful change.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output-format")
		outputFile, _ := cmd.Flags().GetString("output-file")
		extraArgs, _ := cmd.Flags().GetString("extra-args")

		outFormat, err := product.ParseFormat(format)
		if err != nil {
			return &usageError{err: err}
		}

		m, err := manifest.Load(args[0])
		if err != nil {
			return err
		}

		tools, extractor, err := newTools()
		if err != nil {
			return err
		}

		n := len(m.Libraries)
		reporter := progress.NewReporter(os.Stderr, n*(n-1))
		sweeper := product.NewSweeper(tools, extractor,
			product.WithLogger(log.Default()),
			product.WithExtraArgs(splitExtraArgs(extraArgs)),
			product.WithReporter(reporter),
		)

		results := sweeper.Run(cmd.Context(), m)

		var sb strings.Builder
		if err := product.Render(&sb, results, outFormat); err != nil {
			return err
		}
		if err := writeOutput(outputFile, sb.String()); err != nil {
			return err
		}

		for _, r := range results {
			if r.Err == nil && r.Verdict == abigail.HarmfulChange {
				return &harmfulChangeError{left: r.Left.Label, right: r.Right.Label}
			}
		}
		if n := countErrs(results); n > 0 {
			return fmt.Errorf("%d of %d comparisons failed", n, len(results))
		}
		return nil
	},
}

func countErrs(results []product.PairResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func init() {
	diffProductCmd.Flags().String("output-format", "raw", "Output format: raw, summary, or can_splice")
	diffProductCmd.Flags().String("output-file", "", "Write results to a file instead of stdout")
	diffProductCmd.Flags().String("extra-args", "", "Extra arguments passed through to abidiff")
}
