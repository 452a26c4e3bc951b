// Package product runs the ABI comparison over the cross product of a
// manifest's libraries and renders the aggregated verdicts.
//
// The sweep is sequential: one external comparison at a time, each
// with its own temporary suppression file that is removed when the
// comparison completes. A failing pair is captured in its result and
// never aborts the rest of the sweep.
package product

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/abiscope/abiscope/internal/abigail"
	"github.com/abiscope/abiscope/internal/header"
	"github.com/abiscope/abiscope/internal/log"
	"github.com/abiscope/abiscope/internal/manifest"
	"github.com/abiscope/abiscope/internal/progress"
	"github.com/abiscope/abiscope/internal/suppress"
)

// OutputFormat selects how sweep results are rendered.
type OutputFormat string

const (
	// FormatRaw prints each comparison's tool output.
	FormatRaw OutputFormat = "raw"

	// FormatSummary is reserved; it is accepted but renders nothing
	// per pair yet.
	// TODO: render a verdict tally once the report format settles.
	FormatSummary OutputFormat = "summary"

	// FormatCanSplice emits machine-usable splice-compatibility facts.
	FormatCanSplice OutputFormat = "can_splice"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatRaw, FormatSummary, FormatCanSplice:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want raw, summary, or can_splice)", s)
}

// PairResult is the outcome of comparing one ordered pair.
type PairResult struct {
	Left    manifest.Library
	Right   manifest.Library
	Verdict abigail.Verdict
	Result  abigail.Result
	Err     error // invocation or suppression failure; Verdict is meaningless when set
}

// OrderedPairs returns every ordered pair of distinct positions for n
// entries: n·(n-1) pairs, both orderings, no self-pairs. Positions are
// paired rather than values so duplicate labels still get compared.
func OrderedPairs(n int) [][2]int {
	var pairs [][2]int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// Sweeper drives the pairwise comparisons.
type Sweeper struct {
	tools     *abigail.Tools
	extractor *header.Extractor
	logger    log.Logger
	extraArgs []string
	reporter  *progress.Reporter
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithLogger sets the sweep logger.
func WithLogger(l log.Logger) Option {
	return func(s *Sweeper) { s.logger = l }
}

// WithExtraArgs passes extra arguments through to every abidiff
// invocation.
func WithExtraArgs(args []string) Option {
	return func(s *Sweeper) { s.extraArgs = args }
}

// WithReporter sets a progress reporter for the sweep.
func WithReporter(r *progress.Reporter) Option {
	return func(s *Sweeper) { s.reporter = r }
}

// NewSweeper builds a Sweeper.
func NewSweeper(tools *abigail.Tools, extractor *header.Extractor, opts ...Option) *Sweeper {
	s := &Sweeper{
		tools:     tools,
		extractor: extractor,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run compares every ordered pair of distinct manifest entries and
// returns one result per pair, in pair order. Errors are captured
// per pair; the sweep always runs to completion.
func (s *Sweeper) Run(ctx context.Context, m *manifest.Manifest) []PairResult {
	pairs := OrderedPairs(len(m.Libraries))
	results := make([]PairResult, 0, len(pairs))
	for _, p := range pairs {
		left, right := m.Libraries[p[0]], m.Libraries[p[1]]
		res := s.comparePair(ctx, left, right)
		if res.Err != nil {
			s.logger.Warn("comparison failed",
				"left", left.Label, "right", right.Label, "error", res.Err)
		}
		results = append(results, res)
		if s.reporter != nil {
			s.reporter.Step(fmt.Sprintf("compared %s against %s", left.Label, right.Label))
		}
	}
	if s.reporter != nil {
		s.reporter.Finish()
	}
	return results
}

// comparePair runs one comparison. The suppression file it writes is
// scoped to this comparison alone and removed on every exit path.
func (s *Sweeper) comparePair(ctx context.Context, left, right manifest.Library) PairResult {
	pr := PairResult{Left: left, Right: right}

	supprText, err := s.suppressionText(ctx, left)
	if err != nil {
		pr.Err = err
		return pr
	}
	rightText, err := s.suppressionText(ctx, right)
	if err != nil {
		pr.Err = err
		return pr
	}
	supprText = joinSuppressions(supprText, rightText)

	supprFile := ""
	if supprText != "" {
		f, err := os.CreateTemp("", "abiscope-suppr-*.ini")
		if err != nil {
			pr.Err = fmt.Errorf("failed to create suppression file: %w", err)
			return pr
		}
		defer os.Remove(f.Name())
		if _, err := f.WriteString(supprText); err != nil {
			f.Close()
			pr.Err = fmt.Errorf("failed to write suppression file: %w", err)
			return pr
		}
		if err := f.Close(); err != nil {
			pr.Err = fmt.Errorf("failed to write suppression file: %w", err)
			return pr
		}
		supprFile = f.Name()
	}

	res, err := s.tools.Abidiff(ctx, left.Binaries, right.Binaries, supprFile, s.extraArgs)
	if err != nil {
		pr.Err = err
		return pr
	}
	pr.Result = res
	pr.Verdict = abigail.Classify(res.ExitCode)
	return pr
}

// suppressionText resolves one side's suppressions: derived from its
// header, read from a handwritten file, or empty.
func (s *Sweeper) suppressionText(ctx context.Context, lib manifest.Library) (string, error) {
	switch {
	case lib.Header != "":
		return suppress.ForBinaries(ctx, s.tools, s.extractor, lib.Binaries, lib.Header)
	case lib.Suppressions != "":
		data, err := os.ReadFile(lib.Suppressions)
		if err != nil {
			return "", fmt.Errorf("failed to read suppressions for %q: %w", lib.Label, err)
		}
		return string(data), nil
	default:
		return "", nil
	}
}

func joinSuppressions(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}

// Render writes the sweep results in the chosen format.
func Render(w io.Writer, results []PairResult, format OutputFormat) error {
	for _, r := range results {
		switch format {
		case FormatCanSplice:
			if err := renderCanSplice(w, r); err != nil {
				return err
			}
		case FormatSummary:
			// Reserved: no per-pair output.
		default:
			if err := renderRaw(w, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderRaw(w io.Writer, r PairResult) error {
	if _, err := fmt.Fprintf(w, "Comparing %s to %s\n", r.Left.Label, r.Right.Label); err != nil {
		return err
	}
	if r.Err != nil {
		_, err := fmt.Fprintf(w, "comparison failed: %v\n", r.Err)
		return err
	}
	if _, err := fmt.Fprintln(w, r.Result.Stdout); err != nil {
		return err
	}
	if r.Result.Stderr != "" {
		if _, err := fmt.Fprintln(w, r.Result.Stderr); err != nil {
			return err
		}
	}
	return nil
}

// renderCanSplice emits one fact or explanatory comment per pair:
// a positive splice assertion for compatible verdicts, a comment for
// harmful changes, and a comment plus the literal failing command for
// usage errors.
func renderCanSplice(w io.Writer, r PairResult) error {
	if r.Err != nil {
		_, err := fmt.Fprintf(w, "# comparison of %s and %s failed: %v\n", r.Left.Label, r.Right.Label, r.Err)
		return err
	}
	switch r.Verdict {
	case abigail.NoChange, abigail.HarmlessChange:
		_, err := fmt.Fprintf(w, "can_splice(%q, when=%q)  # %s\n", r.Left.Label, r.Right.Label, r.Verdict)
		return err
	case abigail.HarmfulChange:
		note := majorBumpNote(r.Left, r.Right)
		_, err := fmt.Fprintf(w, "# No splice %s and %s%s\n", r.Left.Label, r.Right.Label, note)
		return err
	default:
		if _, err := fmt.Fprintf(w, "# abidiff reported a usage error comparing %s and %s\n", r.Left.Label, r.Right.Label); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, abigail.FormatCommand(r.Result.Args))
		return err
	}
}

// majorBumpNote annotates harmful pairs whose manifest versions differ
// in major version, where incompatibility is expected.
func majorBumpNote(left, right manifest.Library) string {
	lv, err := left.SemVer()
	if err != nil || lv == nil {
		return ""
	}
	rv, err := right.SemVer()
	if err != nil || rv == nil {
		return ""
	}
	if lv.Major() != rv.Major() {
		return " (major version change)"
	}
	return ""
}
