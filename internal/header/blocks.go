package header

import (
	"strconv"
	"strings"
)

// Flag is a preprocessor linemarker flag, per the GCC convention
// (https://gcc.gnu.org/onlinedocs/cpp/Preprocessor-Output.html).
type Flag int

const (
	// FlagNewFile marks the start of a new file.
	FlagNewFile Flag = 1

	// FlagReturning marks a return to a file after an #include.
	FlagReturning Flag = 2

	// FlagSystemHeader marks text coming from a system header.
	FlagSystemHeader Flag = 3

	// FlagExternC marks text to be treated as wrapped in extern "C".
	FlagExternC Flag = 4
)

// Block is a run of preprocessed source text attributed to one file by
// the surrounding linemarkers.
type Block struct {
	File  string
	Flags []Flag
	Text  string
}

// HasFlag reports whether the block's linemarker carried the flag.
func (b Block) HasFlag(f Flag) bool {
	for _, have := range b.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// splitBlocks partitions preprocessed output on linemarker lines of the
// form `# <line> "<path>" <flags...>`. Lines starting with '#' that do
// not parse as markers (a surviving #pragma, say) are kept as source
// text. Text appearing before the first marker is attributed to an
// unnamed block.
func splitBlocks(text string) []Block {
	var blocks []Block
	cur := Block{}
	var curText []string

	flush := func() {
		cur.Text = strings.Join(curText, "\n")
		blocks = append(blocks, cur)
		curText = nil
	}

	started := false
	for _, line := range strings.Split(text, "\n") {
		if file, flags, ok := parseLineMarker(line); ok {
			if started || len(curText) > 0 {
				flush()
			}
			cur = Block{File: file, Flags: flags}
			started = true
			continue
		}
		if strings.TrimSpace(line) != "" {
			curText = append(curText, line)
		}
	}
	if started || len(curText) > 0 {
		flush()
	}
	return blocks
}

// parseLineMarker parses `# <line> "<path>" <flags...>`. The line
// number is validated but discarded; only the path and flags matter
// for attribution.
func parseLineMarker(line string) (string, []Flag, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", nil, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))

	// The linemarker starts with a line number; directives like
	// #pragma or #define do not.
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", nil, false
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return "", nil, false
	}

	open := strings.Index(rest, `"`)
	close := strings.LastIndex(rest, `"`)
	if open < 0 || close <= open {
		return "", nil, false
	}
	file := rest[open+1 : close]

	var flags []Flag
	for _, f := range strings.Fields(rest[close+1:]) {
		v, err := strconv.Atoi(f)
		if err != nil || v < int(FlagNewFile) || v > int(FlagExternC) {
			return "", nil, false
		}
		flags = append(flags, Flag(v))
	}
	return file, flags, true
}
