package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abiscope/abiscope/internal/buildinfo"
	"github.com/abiscope/abiscope/internal/errmsg"
	"github.com/abiscope/abiscope/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "abiscope",
	Short: "Check binary compatibility of shared libraries",
	Long: `abiscope determines whether two versions of a shared library are
binary-compatible, and generates suppression rules that narrow the
comparison to a library's intended public surface.

It drives the libabigail tools (abidw, abidiff) and a C preprocessor;
run 'abiscope doctor' to verify they are available.`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
	},
}

func configureLogging(cmd *cobra.Command) {
	level := slog.LevelWarn
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		level = slog.LevelError
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelInfo
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	log.SetDefault(log.New(h))
}

func init() {
	rootCmd.PersistentFlags().Bool("quiet", false, "Only log errors")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log operational context")
	rootCmd.PersistentFlags().Bool("debug", false, "Log internal details and full command lines")

	rootCmd.AddCommand(xmlCmd)
	rootCmd.AddCommand(suppressCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(diffProductCmd)
	rootCmd.AddCommand(doctorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errmsg.Fprint(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
