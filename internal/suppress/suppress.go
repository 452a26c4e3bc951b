// Package suppress reconciles an ABI corpus against a header-derived
// public surface and renders suppression rules for everything the
// author did not declare public.
package suppress

import (
	"context"
	"strings"

	"github.com/abiscope/abiscope/internal/abigail"
	"github.com/abiscope/abiscope/internal/corpus"
	"github.com/abiscope/abiscope/internal/header"
)

// typeRule renders one suppression block hiding a named type.
func typeRule(name string) string {
	return "[suppress_type]\n  name = " + name
}

// functionRule renders one suppression block hiding a named function.
func functionRule(name string) string {
	return "[suppress_function]\n  name = " + name
}

// Generate produces suppression-rule text hiding every corpus entity
// whose name is absent from the declared public surface: class and
// typedef declarations missing from the surface's type names, then
// function declarations missing from its function names, in corpus
// declaration order. Variables are not suppressed; the comparison
// keeps seeing them even when the header omits them.
//
// A corpus fully covered by the surface produces empty output.
func Generate(c *corpus.Corpus, surface *header.Surface) string {
	typeNames := surface.TypeNames()
	funcNames := surface.FunctionNames()

	var blocks []string
	for _, cd := range c.Classes {
		if !typeNames[cd.Name] {
			blocks = append(blocks, typeRule(cd.Name))
		}
	}
	for _, td := range c.Typedefs {
		if !typeNames[td.Name] {
			blocks = append(blocks, typeRule(td.Name))
		}
	}
	for _, fd := range c.Functions {
		if !funcNames[fd.Name] {
			blocks = append(blocks, functionRule(fd.Name))
		}
	}
	return strings.Join(blocks, "\n\n")
}

// ForBinaries extracts the ABI corpus for a binary set and the public
// surface for its header, then generates the suppression text hiding
// the non-public entities.
func ForBinaries(ctx context.Context, tools *abigail.Tools, extractor *header.Extractor, bins []string, headerPath string) (string, error) {
	c, _, err := tools.ExtractCorpus(ctx, bins, "", nil)
	if err != nil {
		return "", err
	}
	surface, err := extractor.Extract(ctx, headerPath)
	if err != nil {
		return "", err
	}
	return Generate(c, surface), nil
}
