// Package abigail drives the external ABI tools: abidw for extracting
// a textual ABI description from a binary and abidiff for comparing
// two binaries. It owns argument construction, executable lookup, and
// exit-status decoding; the semantics of the comparison itself belong
// to the tools.
package abigail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abiscope/abiscope/internal/config"
	"github.com/abiscope/abiscope/internal/corpus"
	"github.com/abiscope/abiscope/internal/log"
)

// ToolNotFoundError indicates a required external executable is not on
// PATH.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("unable to find %q executable in PATH", e.Tool)
}

// ToolFailedError indicates an extraction tool exited nonzero. Stderr
// is carried verbatim for diagnosis.
type ToolFailedError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolFailedError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d, stderr:\n%s", e.Tool, e.ExitCode, e.Stderr)
}

// Result is the outcome of one external tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Args     []string // the exact argument vector, for diagnosis
}

// Runner executes an argument vector and captures its output. The
// default runner shells out; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, args []string) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, args []string) (Result, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, args []string) (Result, error) {
	return f(ctx, args)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Args:   args,
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("failed to run %s: %w", args[0], err)
	}
	return res, nil
}

// Tools invokes the configured external ABI tools.
type Tools struct {
	cfg    *config.Config
	runner Runner
	logger log.Logger
}

// Option configures Tools.
type Option func(*Tools)

// WithRunner substitutes the process runner, for tests.
func WithRunner(r Runner) Option {
	return func(t *Tools) { t.runner = r }
}

// WithLogger sets the logger for invocation tracing.
func WithLogger(l log.Logger) Option {
	return func(t *Tools) { t.logger = l }
}

// New builds Tools around the given config.
func New(cfg *config.Config, opts ...Option) *Tools {
	t := &Tools{
		cfg:    cfg,
		runner: execRunner{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// lookup resolves a tool name to an executable path.
func lookup(tool string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", &ToolNotFoundError{Tool: tool}
	}
	return path, nil
}

// CheckTools verifies every configured external tool resolves on PATH.
// Returns one error per missing tool.
func (t *Tools) CheckTools() []error {
	var errs []error
	for _, tool := range []string{t.cfg.Abidw, t.cfg.Abidiff, t.cfg.Preprocessor} {
		if _, err := lookup(tool); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// splitAddedBinaries separates a set of added binaries into a
// comma-joined list of file names and the sorted set of directories
// holding them, matching the tools' added-binary argument convention.
func splitAddedBinaries(bins []string) (names string, dirs []string) {
	if len(bins) == 0 {
		return "", nil
	}
	fileNames := make([]string, 0, len(bins))
	dirSet := make(map[string]bool)
	for _, b := range bins {
		fileNames = append(fileNames, filepath.Base(b))
		dirSet[filepath.Dir(b)] = true
	}
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return strings.Join(fileNames, ","), dirs
}

// AbidwArgs builds the abidw argument vector for a primary binary plus
// added binaries describing externally-referenced types.
func AbidwArgs(tool string, bins []string, suppressionFile string, extraArgs []string) []string {
	args := []string{tool}
	args = append(args, extraArgs...)

	added, addedDirs := splitAddedBinaries(bins[1:])
	if added != "" {
		args = append(args, "--add-binaries="+added)
	}
	for _, d := range addedDirs {
		args = append(args, "--abd", d)
	}
	if suppressionFile != "" {
		args = append(args, "--suppressions", suppressionFile)
	}
	args = append(args, bins[0])
	return args
}

// AbidiffArgs builds the abidiff argument vector for two binary sets.
// Each set's first element is the primary binary; the rest are added
// binaries grouped by directory.
func AbidiffArgs(tool string, bins1, bins2 []string, suppressionFile string, extraArgs []string) []string {
	args := []string{tool}
	args = append(args, extraArgs...)

	if suppressionFile != "" {
		args = append(args, "--suppr", suppressionFile)
	}

	added1, dirs1 := splitAddedBinaries(bins1[1:])
	added2, dirs2 := splitAddedBinaries(bins2[1:])
	if added1 != "" {
		args = append(args, "--add-binaries1="+added1)
	}
	if added2 != "" {
		args = append(args, "--add-binaries2="+added2)
	}
	for _, d := range dirs1 {
		args = append(args, "--added-binaries-dir1", d)
	}
	for _, d := range dirs2 {
		args = append(args, "--added-binaries-dir2", d)
	}

	args = append(args, bins1[0], bins2[0])
	return args
}

// Abidw runs the extraction tool over a binary set and returns its raw
// output. A nonzero exit is a *ToolFailedError with stderr verbatim.
func (t *Tools) Abidw(ctx context.Context, bins []string, suppressionFile string, extraArgs []string) (Result, error) {
	if len(bins) == 0 {
		return Result{}, fmt.Errorf("abidw requires at least one binary")
	}
	tool, err := lookup(t.cfg.Abidw)
	if err != nil {
		return Result{}, err
	}

	args := AbidwArgs(tool, bins, suppressionFile, extraArgs)
	t.logger.Debug("running abidw", "args", strings.Join(args, " "))

	res, err := t.runner.Run(ctx, args)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &ToolFailedError{Tool: t.cfg.Abidw, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}

// Abidiff runs the comparison tool over two binary sets. The exit code
// in the result is the verdict bitset; decoding it is the caller's
// business via Classify, so a usage error here is not a Go error.
func (t *Tools) Abidiff(ctx context.Context, bins1, bins2 []string, suppressionFile string, extraArgs []string) (Result, error) {
	if len(bins1) == 0 || len(bins2) == 0 {
		return Result{}, fmt.Errorf("abidiff requires a binary on each side")
	}
	tool, err := lookup(t.cfg.Abidiff)
	if err != nil {
		return Result{}, err
	}

	args := AbidiffArgs(tool, bins1, bins2, suppressionFile, extraArgs)
	t.logger.Debug("running abidiff", "args", strings.Join(args, " "))

	return t.runner.Run(ctx, args)
}

// ExtractCorpus runs abidw over a binary set and parses the emitted
// description. Returns both the parsed corpus and the raw text, since
// some callers re-emit the text unchanged.
func (t *Tools) ExtractCorpus(ctx context.Context, bins []string, suppressionFile string, extraArgs []string) (*corpus.Corpus, string, error) {
	res, err := t.Abidw(ctx, bins, suppressionFile, extraArgs)
	if err != nil {
		return nil, "", err
	}
	c, err := corpus.ParseString(res.Stdout)
	if err != nil {
		return nil, "", err
	}
	return c, res.Stdout, nil
}

// FormatCommand renders an argument vector for display, one argument
// per line, the way failing commands are echoed back to the user.
func FormatCommand(args []string) string {
	var sb strings.Builder
	sb.WriteString("---------------\n")
	for i, arg := range args {
		if i == 0 {
			sb.WriteString(arg)
		} else {
			sb.WriteString("  " + arg)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("---------------")
	return sb.String()
}
