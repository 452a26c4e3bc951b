package header

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiscope/abiscope/internal/testutil"
)

const preprocessedWidget = `# 1 "widget.h"
# 1 "/usr/include/stddef.h" 1 3
typedef unsigned long size_t;
# 4 "widget.h" 2
typedef struct widget widget_t;
typedef void (*widget_cb)(int code);
struct config { int verbose; };
enum color { RED, GREEN };
widget_t *widget_new(size_t size);
void widget_free(widget_t *w);
extern int widget_count;
extern char widget_version[16];
`

func TestParsePreprocessed(t *testing.T) {
	e := NewExtractor()
	surface := e.ParsePreprocessed(preprocessedWidget)

	assert.Equal(t, []Symbol{
		{Kind: KindTypedef, Name: "widget_t"},
		{Kind: KindTypedef, Name: "widget_cb"},
		{Kind: KindStruct, Name: "config"},
		{Kind: KindEnum, Name: "color"},
		{Kind: KindPtr, Name: "widget_new"},
	}, surface.Types)

	assert.Equal(t, []Symbol{
		{Kind: KindFunc, Name: "widget_free"},
	}, surface.Functions)

	assert.Equal(t, []Symbol{
		{Kind: KindExtern, Name: "widget_count"},
		{Kind: KindExtern, Name: "widget_version"},
	}, surface.Variables)

	assert.Empty(t, surface.Skipped)
}

// Declarations pulled in from system headers never reach the surface.
func TestParsePreprocessedFiltersSystemHeaders(t *testing.T) {
	e := NewExtractor()
	surface := e.ParsePreprocessed(preprocessedWidget)

	for _, sym := range surface.Types {
		assert.NotEqual(t, "size_t", sym.Name)
	}
}

func TestSurfaceNameSets(t *testing.T) {
	e := NewExtractor()
	surface := e.ParsePreprocessed(preprocessedWidget)

	types := surface.TypeNames()
	assert.True(t, types["widget_t"])
	assert.True(t, types["config"])
	assert.False(t, types["widget_free"])

	funcs := surface.FunctionNames()
	assert.True(t, funcs["widget_free"])
	assert.False(t, funcs["widget_count"])
}

// Anonymous enums are dropped without a diagnostic; anonymous structs
// are reported as skipped.
func TestParsePreprocessedAnonymousSpecifiers(t *testing.T) {
	e := NewExtractor()
	surface := e.ParsePreprocessed("# 1 \"widget.h\"\nenum { QUIET, LOUD };\nstruct { int x; };\n")

	assert.Empty(t, surface.Types)
	require.Len(t, surface.Skipped, 1)
	assert.Equal(t, "anonymous struct_specifier", surface.Skipped[0].Shape)
	assert.Equal(t, "widget.h", surface.Skipped[0].File)
}

func TestParsePreprocessedSkipsFunctionBodies(t *testing.T) {
	e := NewExtractor()
	surface := e.ParsePreprocessed("# 1 \"widget.h\"\nstatic int helper(void) { return 1; }\nint used(void);\n")

	require.Len(t, surface.Skipped, 1)
	assert.Equal(t, string(nodeFunctionDef), surface.Skipped[0].Shape)
	require.Len(t, surface.Functions, 1)
	assert.Equal(t, "used", surface.Functions[0].Name)
}

func TestExtract(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tools require a POSIX shell")
	}
	dir := t.TempDir()

	// A preprocessor stand-in that emits fixed preprocessed output.
	testutil.InstallStubTool(t, dir, "fakecpp", `cat <<'OUT'
# 1 "widget.h"
typedef struct widget widget_t;
int widget_open(widget_t *w);
OUT`)

	e := NewExtractor(WithPreprocessor(filepath.Join(dir, "fakecpp")))
	surface, err := e.Extract(context.Background(), "widget.h")
	require.NoError(t, err)

	require.Len(t, surface.Types, 1)
	assert.Equal(t, "widget_t", surface.Types[0].Name)
	require.Len(t, surface.Functions, 1)
	assert.Equal(t, "widget_open", surface.Functions[0].Name)
}

func TestExtractPreprocessorFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tools require a POSIX shell")
	}
	dir := t.TempDir()
	testutil.InstallStubTool(t, dir, "failcpp", `echo "widget.h: No such file or directory" >&2
exit 1`)

	e := NewExtractor(WithPreprocessor(filepath.Join(dir, "failcpp")))
	_, err := e.Extract(context.Background(), "widget.h")

	var perr *PreprocessError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "widget.h", perr.Header)
	assert.Contains(t, perr.Stderr, "No such file")
}
