package corpus

import "fmt"

// MalformedCorpusError indicates a required attribute or child element
// is missing from the ABI description. A corpus with structural gaps
// cannot be trusted for comparison, so parsing stops at the first one.
type MalformedCorpusError struct {
	Tag  string // element tag the problem was found on
	Attr string // missing attribute name, "" if a child is missing
	Elem string // missing child element name, "" if an attribute is missing
}

func (e *MalformedCorpusError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("malformed corpus: <%s> is missing required attribute %q", e.Tag, e.Attr)
	}
	return fmt.Sprintf("malformed corpus: <%s> is missing required child <%s>", e.Tag, e.Elem)
}
