// Package errmsg formats errors for the terminal with actionable
// suggestions where the failure class has a known remedy.
package errmsg

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abiscope/abiscope/internal/abigail"
	"github.com/abiscope/abiscope/internal/config"
	"github.com/abiscope/abiscope/internal/corpus"
	"github.com/abiscope/abiscope/internal/header"
)

// Fprint writes the formatted error to w.
func Fprint(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", Format(err))
}

// Format returns the error message, followed by possible causes and
// suggestions when the failure class has them. Unrecognized errors
// come back unchanged.
func Format(err error) string {
	if err == nil {
		return ""
	}

	var notFound *abigail.ToolNotFoundError
	if errors.As(err, &notFound) {
		return formatToolNotFound(err, notFound)
	}

	var preproc *header.PreprocessError
	if errors.As(err, &preproc) {
		return formatPreprocessError(err, preproc)
	}

	var malformed *corpus.MalformedCorpusError
	if errors.As(err, &malformed) {
		return formatMalformedCorpus(err)
	}

	return err.Error()
}

func formatToolNotFound(err error, notFound *abigail.ToolNotFoundError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nSuggestions:\n")
	switch notFound.Tool {
	case config.DefaultAbidw, config.DefaultAbidiff:
		sb.WriteString("  - Install libabigail (package 'libabigail' or 'libabigail-tools' on most distributions)\n")
	default:
		sb.WriteString(fmt.Sprintf("  - Install %q, or point the configuration at another tool\n", notFound.Tool))
	}
	sb.WriteString(fmt.Sprintf("  - Set %s, %s, or %s to use a tool outside PATH\n",
		config.EnvAbidw, config.EnvAbidiff, config.EnvPreprocessor))
	sb.WriteString("  - Run 'abiscope doctor' to check the environment\n")

	return sb.String()
}

func formatPreprocessError(err error, preproc *header.PreprocessError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The header does not exist at the given path\n")
	sb.WriteString("  - The header includes files the preprocessor cannot find\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString(fmt.Sprintf("  - Check that %q is readable\n", preproc.Header))
	sb.WriteString(fmt.Sprintf("  - Set %s to use a different preprocessor\n", config.EnvPreprocessor))

	return sb.String()
}

func formatMalformedCorpus(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The abidw version emits a format this build does not understand\n")
	sb.WriteString("  - The ABI description was truncated or hand-edited\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Re-run 'abiscope xml' to regenerate the description\n")
	sb.WriteString("  - Check 'abidw --version'; abiscope expects the libabigail 2.x format\n")

	return sb.String()
}
