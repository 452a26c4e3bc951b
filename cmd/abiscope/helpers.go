package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abiscope/abiscope/internal/abigail"
	"github.com/abiscope/abiscope/internal/config"
	"github.com/abiscope/abiscope/internal/header"
)

// usageError marks an error as a command-line usage problem so main
// exits with the usage code instead of the general one.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a cobra positional-args validator so its failures
// carry the usage exit code.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// newTools builds the external-tool driver and header extractor from
// the resolved configuration.
func newTools() (*abigail.Tools, *header.Extractor, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config: %w", err)
	}
	tools := abigail.New(cfg)
	extractor := header.NewExtractor(header.WithPreprocessor(cfg.Preprocessor))
	return tools, extractor, nil
}

// splitExtraArgs breaks a --extra-args value into individual tool
// arguments on whitespace.
func splitExtraArgs(s string) []string {
	return strings.Fields(s)
}

// writeOutput writes text to the named file, or to stdout when path is
// empty. A trailing newline is added if the text lacks one.
func writeOutput(path, text string) error {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if path == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
