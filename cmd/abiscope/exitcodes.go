package main

import (
	"errors"

	"github.com/abiscope/abiscope/internal/abigail"
	"github.com/abiscope/abiscope/internal/corpus"
	"github.com/abiscope/abiscope/internal/header"
)

// Exit codes for different failure modes, so scripts can tell a
// harmful ABI change from a broken environment.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitToolNotFound indicates a required external tool is missing
	ExitToolNotFound = 3

	// ExitToolFailed indicates an external tool exited nonzero
	ExitToolFailed = 4

	// ExitMalformedCorpus indicates the ABI description did not parse
	ExitMalformedCorpus = 5

	// ExitHarmfulChange indicates a backward-incompatible ABI change
	// was found
	ExitHarmfulChange = 10
)

// exitCodeFor maps an error to the exit code of the failure class it
// belongs to.
func exitCodeFor(err error) int {
	var usage *usageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	var harmful *harmfulChangeError
	if errors.As(err, &harmful) {
		return ExitHarmfulChange
	}
	var notFound *abigail.ToolNotFoundError
	if errors.As(err, &notFound) {
		return ExitToolNotFound
	}
	var failed *abigail.ToolFailedError
	if errors.As(err, &failed) {
		return ExitToolFailed
	}
	var preproc *header.PreprocessError
	if errors.As(err, &preproc) {
		return ExitToolFailed
	}
	var malformed *corpus.MalformedCorpusError
	if errors.As(err, &malformed) {
		return ExitMalformedCorpus
	}
	return ExitGeneral
}
