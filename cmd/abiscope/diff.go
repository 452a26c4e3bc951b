package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abiscope/abiscope/internal/abigail"
	"github.com/abiscope/abiscope/internal/header"
	"github.com/abiscope/abiscope/internal/suppress"
)

// harmfulChangeError signals a backward-incompatible ABI change was
// found; it exists only to select the exit code.
type harmfulChangeError struct {
	left  string
	right string
}

func (e *harmfulChangeError) Error() string {
	return fmt.Sprintf("harmful ABI change between %s and %s", e.left, e.right)
}

var diffCmd = &cobra.Command{
	Use:   "diff <binary1> <binary2>",
	Short: "Compare two binaries for ABI compatibility",
	Long: `Run abidiff over two binaries and report whether the change between
them is binary-compatible.

Each side can narrow the comparison to its public surface, either by
deriving suppression rules from a public header (--header1/--header2)
or by supplying a handwritten suppression file (--suppr1/--suppr2).
Added binaries (--add1/--add2) describe types a side references but
does not define.

The exit code reflects the verdict: 0 for no change or a harmless
change, 10 for a harmful change.`,
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		header1, _ := cmd.Flags().GetString("header1")
		header2, _ := cmd.Flags().GetString("header2")
		suppr1, _ := cmd.Flags().GetString("suppr1")
		suppr2, _ := cmd.Flags().GetString("suppr2")
		add1, _ := cmd.Flags().GetStringSlice("add1")
		add2, _ := cmd.Flags().GetStringSlice("add2")
		extraArgs, _ := cmd.Flags().GetString("extra-args")
		showCmd, _ := cmd.Flags().GetBool("show-cmd")

		if header1 != "" && suppr1 != "" {
			return &usageError{err: fmt.Errorf("--header1 and --suppr1 are mutually exclusive")}
		}
		if header2 != "" && suppr2 != "" {
			return &usageError{err: fmt.Errorf("--header2 and --suppr2 are mutually exclusive")}
		}

		tools, extractor, err := newTools()
		if err != nil {
			return err
		}

		bins1 := append([]string{args[0]}, add1...)
		bins2 := append([]string{args[1]}, add2...)

		text1, err := sideSuppressions(cmd.Context(), tools, extractor, bins1, header1, suppr1)
		if err != nil {
			return err
		}
		text2, err := sideSuppressions(cmd.Context(), tools, extractor, bins2, header2, suppr2)
		if err != nil {
			return err
		}

		supprFile, cleanup, err := writeSuppressionFile(joinTexts(text1, text2))
		if err != nil {
			return err
		}
		defer cleanup()

		if showCmd {
			cmdArgs := abigail.AbidiffArgs("abidiff", bins1, bins2, supprFile, splitExtraArgs(extraArgs))
			fmt.Println(abigail.FormatCommand(cmdArgs))
		}

		res, err := tools.Abidiff(cmd.Context(), bins1, bins2, supprFile, splitExtraArgs(extraArgs))
		if err != nil {
			return err
		}

		verdict := abigail.Classify(res.ExitCode)
		if verdict == abigail.UsageError {
			fmt.Fprintln(os.Stderr, "abidiff rejected its arguments:")
			fmt.Fprintln(os.Stderr, abigail.FormatCommand(res.Args))
			if res.Stderr != "" {
				fmt.Fprintln(os.Stderr, res.Stderr)
			}
			return &usageError{err: fmt.Errorf("abidiff usage error (exit code %d)", res.ExitCode)}
		}

		if res.Stdout != "" {
			fmt.Print(res.Stdout)
		}
		if res.Stderr != "" {
			fmt.Fprint(os.Stderr, res.Stderr)
		}
		fmt.Printf("Verdict: %s\n", verdict)

		if verdict == abigail.HarmfulChange {
			return &harmfulChangeError{left: args[0], right: args[1]}
		}
		return nil
	},
}

// sideSuppressions resolves one side's suppression text: derived from
// a header, read from a file, or empty.
func sideSuppressions(ctx context.Context, tools *abigail.Tools, extractor *header.Extractor, bins []string, headerPath, supprPath string) (string, error) {
	switch {
	case headerPath != "":
		return suppress.ForBinaries(ctx, tools, extractor, bins, headerPath)
	case supprPath != "":
		data, err := os.ReadFile(supprPath)
		if err != nil {
			return "", fmt.Errorf("failed to read suppression file: %w", err)
		}
		return string(data), nil
	default:
		return "", nil
	}
}

// writeSuppressionFile writes the text to a temp file scoped to this
// comparison. Returns "" and a no-op cleanup when the text is empty.
func writeSuppressionFile(text string) (string, func(), error) {
	if text == "" {
		return "", func() {}, nil
	}
	f, err := os.CreateTemp("", "abiscope-suppr-*.ini")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create suppression file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write suppression file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write suppression file: %w", err)
	}
	return f.Name(), cleanup, nil
}

func joinTexts(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}

func init() {
	diffCmd.Flags().String("header1", "", "Public header for the first binary")
	diffCmd.Flags().String("header2", "", "Public header for the second binary")
	diffCmd.Flags().String("suppr1", "", "Handwritten suppression file for the first binary")
	diffCmd.Flags().String("suppr2", "", "Handwritten suppression file for the second binary")
	diffCmd.Flags().StringSlice("add1", nil, "Added binaries for the first binary")
	diffCmd.Flags().StringSlice("add2", nil, "Added binaries for the second binary")
	diffCmd.Flags().String("extra-args", "", "Extra arguments passed through to abidiff")
	diffCmd.Flags().Bool("show-cmd", false, "Print the abidiff command line before running it")
}
