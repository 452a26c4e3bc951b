package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var xmlCmd = &cobra.Command{
	Use:   "xml <binary> [added-binary...]",
	Short: "Extract a binary's ABI description",
	Long: `Run abidw over a binary and emit its ABI description.

The first argument is the primary binary; any further arguments are
added binaries that describe types the primary binary references but
does not define.

Output formats:
  xml    the abidw output, verbatim (default)
  names  the declared type and function names, one per line
  ir     the parsed model as JSON, for debugging the parser`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output-format")
		outputFile, _ := cmd.Flags().GetString("output-file")
		suppressionFile, _ := cmd.Flags().GetString("suppression-file")
		extraArgs, _ := cmd.Flags().GetString("extra-args")

		switch format {
		case "xml", "names", "ir":
		default:
			return &usageError{err: fmt.Errorf("unknown output format %q (want xml, names, or ir)", format)}
		}

		tools, _, err := newTools()
		if err != nil {
			return err
		}

		c, raw, err := tools.ExtractCorpus(cmd.Context(), args, suppressionFile, splitExtraArgs(extraArgs))
		if err != nil {
			return err
		}

		switch format {
		case "names":
			typeNames, functionNames := c.Names()
			var sb strings.Builder
			for _, n := range typeNames {
				sb.WriteString(n + "\n")
			}
			for _, n := range functionNames {
				sb.WriteString(n + "\n")
			}
			return writeOutput(outputFile, sb.String())
		case "ir":
			data, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode model: %w", err)
			}
			return writeOutput(outputFile, string(data))
		default:
			return writeOutput(outputFile, raw)
		}
	},
}

func init() {
	xmlCmd.Flags().String("output-format", "xml", "Output format: xml, names, or ir")
	xmlCmd.Flags().String("output-file", "", "Write output to a file instead of stdout")
	xmlCmd.Flags().String("suppression-file", "", "Suppression file to pass to abidw")
	xmlCmd.Flags().String("extra-args", "", "Extra arguments passed through to abidw")
}
