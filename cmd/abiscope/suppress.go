package main

import (
	"github.com/spf13/cobra"

	"github.com/abiscope/abiscope/internal/suppress"
)

var suppressCmd = &cobra.Command{
	Use:   "suppress --header <path> <binary> [added-binary...]",
	Short: "Generate suppression rules for a library's private surface",
	Long: `Generate libabigail suppression rules hiding every type and function
the binary exports but the public header does not declare.

The resulting rules narrow an abidiff comparison to the surface the
library's author actually committed to. Exported variables are never
suppressed, whether or not the header declares them.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		headerPath, _ := cmd.Flags().GetString("header")
		outputFile, _ := cmd.Flags().GetString("output-file")

		tools, extractor, err := newTools()
		if err != nil {
			return err
		}

		text, err := suppress.ForBinaries(cmd.Context(), tools, extractor, args, headerPath)
		if err != nil {
			return err
		}
		return writeOutput(outputFile, text)
	},
}

func init() {
	suppressCmd.Flags().String("header", "", "Public header declaring the library's intended surface")
	suppressCmd.Flags().String("output-file", "", "Write rules to a file instead of stdout")
	suppressCmd.MarkFlagRequired("header")
}
