package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/abiscope/abiscope/internal/config"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the required external tools are available",
	Long: `Verify that the external tools abiscope depends on are on PATH:
abidw and abidiff from libabigail, and the C preprocessor used for
header parsing.

Exits with a non-zero status if any check fails, making it suitable
for use as a gate in scripts and CI:

  abiscope doctor || exit 1`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return fmt.Errorf("failed to get config: %w", err)
		}

		fmt.Println("Checking abiscope environment...")
		failed := false

		checks := []struct {
			label  string
			tool   string
			envVar string
		}{
			{"ABI extraction (abidw)", cfg.Abidw, config.EnvAbidw},
			{"ABI comparison (abidiff)", cfg.Abidiff, config.EnvAbidiff},
			{"C preprocessor", cfg.Preprocessor, config.EnvPreprocessor},
		}
		for _, c := range checks {
			fmt.Fprintf(os.Stdout, "  %s: %s", c.label, c.tool)
			path, err := exec.LookPath(c.tool)
			if err != nil {
				fmt.Println(" ... FAIL")
				fmt.Fprintf(os.Stderr, "    %q is not in your PATH\n", c.tool)
				fmt.Fprintf(os.Stderr, "    Install it, or point %s at it\n", c.envVar)
				failed = true
				continue
			}
			fmt.Printf(" ... ok (%s)\n", path)
		}

		if failed {
			fmt.Println()
			return fmt.Errorf("environment check failed")
		}

		fmt.Println()
		fmt.Println("Everything looks good!")
		return nil
	},
}
