package abigail

// The comparison tool's process exit status is a bitset.
const (
	// ExitDiffError is set on a tool-internal error.
	ExitDiffError = 1

	// ExitUsageError is set on a usage error.
	ExitUsageError = 2

	// ExitABIChange is set when the ABIs differ.
	ExitABIChange = 4

	// ExitIncompatibleChange is set when the difference is
	// backward-incompatible. Only meaningful alongside ExitABIChange.
	ExitIncompatibleChange = 8
)

// Verdict is the four-way classification of a comparison outcome.
type Verdict int

const (
	// NoChange means the two binaries are ABI-identical.
	NoChange Verdict = iota

	// HarmlessChange means the ABI changed but remains
	// backward-compatible.
	HarmlessChange

	// HarmfulChange means the ABI changed incompatibly.
	HarmfulChange

	// UsageError means the tool rejected the invocation; the
	// comparison never happened.
	UsageError
)

var verdictNames = map[Verdict]string{
	NoChange:       "NoChange",
	HarmlessChange: "HarmlessChange",
	HarmfulChange:  "HarmfulChange",
	UsageError:     "UsageError",
}

func (v Verdict) String() string {
	if s, ok := verdictNames[v]; ok {
		return s
	}
	return "UnknownVerdict"
}

// Compatible reports whether one binary can substitute for the other.
func (v Verdict) Compatible() bool {
	return v == NoChange || v == HarmlessChange
}

// Classify decodes a comparison tool exit code into a verdict.
//
// The ABI-changed bit takes priority once present: a usage-error bit
// alone, without the ABI-changed bit, is a UsageError, but any code
// with the ABI-changed bit set is a change verdict regardless of the
// other bits.
func Classify(exitCode int) Verdict {
	switch {
	case exitCode == 0:
		return NoChange
	case exitCode&ExitABIChange != 0:
		if exitCode&ExitIncompatibleChange != 0 {
			return HarmfulChange
		}
		return HarmlessChange
	default:
		return UsageError
	}
}
