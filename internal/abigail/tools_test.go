package abigail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiscope/abiscope/internal/config"
	"github.com/abiscope/abiscope/internal/testutil"
)

func TestAbidwArgs(t *testing.T) {
	tests := []struct {
		name            string
		bins            []string
		suppressionFile string
		extraArgs       []string
		want            []string
	}{
		{
			name: "single binary",
			bins: []string{"/lib/libz.so.1"},
			want: []string{"abidw", "/lib/libz.so.1"},
		},
		{
			name: "added binaries in one directory",
			bins: []string{"/lib/libz.so.1", "/lib/liba.so", "/lib/libb.so"},
			want: []string{"abidw", "--add-binaries=liba.so,libb.so", "--abd", "/lib", "/lib/libz.so.1"},
		},
		{
			name: "added binaries across directories",
			bins: []string{"/lib/libz.so.1", "/opt/lib/liba.so", "/lib/libb.so"},
			want: []string{
				"abidw", "--add-binaries=liba.so,libb.so",
				"--abd", "/lib", "--abd", "/opt/lib",
				"/lib/libz.so.1",
			},
		},
		{
			name:            "suppression file",
			bins:            []string{"/lib/libz.so.1"},
			suppressionFile: "/tmp/suppr.ini",
			want:            []string{"abidw", "--suppressions", "/tmp/suppr.ini", "/lib/libz.so.1"},
		},
		{
			name:      "extra args first",
			bins:      []string{"/lib/libz.so.1"},
			extraArgs: []string{"--no-corpus-path"},
			want:      []string{"abidw", "--no-corpus-path", "/lib/libz.so.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AbidwArgs("abidw", tt.bins, tt.suppressionFile, tt.extraArgs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAbidiffArgs(t *testing.T) {
	got := AbidiffArgs("abidiff",
		[]string{"/v1/libz.so", "/v1/liba.so"},
		[]string{"/v2/libz.so", "/v2/liba.so", "/v2/libb.so"},
		"/tmp/suppr.ini", nil)

	assert.Equal(t, []string{
		"abidiff",
		"--suppr", "/tmp/suppr.ini",
		"--add-binaries1=liba.so",
		"--add-binaries2=liba.so,libb.so",
		"--added-binaries-dir1", "/v1",
		"--added-binaries-dir2", "/v2",
		"/v1/libz.so", "/v2/libz.so",
	}, got)
}

func TestAbidiffArgsMinimal(t *testing.T) {
	got := AbidiffArgs("abidiff", []string{"/v1/libz.so"}, []string{"/v2/libz.so"}, "", nil)
	assert.Equal(t, []string{"abidiff", "/v1/libz.so", "/v2/libz.so"}, got)
}

func testConfig() *config.Config {
	return &config.Config{Abidw: "abidw", Abidiff: "abidiff", Preprocessor: "gcc"}
}

func TestAbidwStubbedRunner(t *testing.T) {
	dir := t.TempDir()
	testutil.InstallStubTool(t, dir, "abidw", "true")
	testutil.PrependPath(t, dir)

	runner := RunnerFunc(func(ctx context.Context, args []string) (Result, error) {
		return Result{Stdout: "<abi-corpus/>", Args: args}, nil
	})
	tools := New(testConfig(), WithRunner(runner))

	res, err := tools.Abidw(context.Background(), []string{"/lib/libz.so"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "<abi-corpus/>", res.Stdout)
}

func TestAbidwFailure(t *testing.T) {
	dir := t.TempDir()
	testutil.InstallStubTool(t, dir, "abidw", "true")
	testutil.PrependPath(t, dir)

	runner := RunnerFunc(func(ctx context.Context, args []string) (Result, error) {
		return Result{Stderr: "cannot read ELF file", ExitCode: 1, Args: args}, nil
	})
	tools := New(testConfig(), WithRunner(runner))

	_, err := tools.Abidw(context.Background(), []string{"/lib/broken.so"}, "", nil)

	var failed *ToolFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "abidw", failed.Tool)
	assert.Equal(t, 1, failed.ExitCode)
	assert.Contains(t, failed.Stderr, "cannot read ELF")
}

// A nonzero abidiff exit is a verdict, not an error.
func TestAbidiffNonzeroExitIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	testutil.InstallStubTool(t, dir, "abidiff", "true")
	testutil.PrependPath(t, dir)

	runner := RunnerFunc(func(ctx context.Context, args []string) (Result, error) {
		return Result{Stdout: "functions changed", ExitCode: ExitABIChange | ExitIncompatibleChange, Args: args}, nil
	})
	tools := New(testConfig(), WithRunner(runner))

	res, err := tools.Abidiff(context.Background(), []string{"/v1/libz.so"}, []string{"/v2/libz.so"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, res.ExitCode)
	assert.Equal(t, HarmfulChange, Classify(res.ExitCode))
}

func TestToolNotFound(t *testing.T) {
	dir := t.TempDir() // empty: no tools
	t.Setenv("PATH", dir)

	tools := New(testConfig())
	_, err := tools.Abidw(context.Background(), []string{"/lib/libz.so"}, "", nil)

	var notFound *ToolNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "abidw", notFound.Tool)
}

func TestCheckTools(t *testing.T) {
	dir := t.TempDir()
	testutil.InstallStubTool(t, dir, "abidw", "true")
	testutil.InstallStubTool(t, dir, "gcc", "true")
	t.Setenv("PATH", dir)

	tools := New(testConfig())
	errs := tools.CheckTools()

	require.Len(t, errs, 1)
	var notFound *ToolNotFoundError
	require.True(t, errors.As(errs[0], &notFound))
	assert.Equal(t, "abidiff", notFound.Tool)
}

func TestExtractCorpus(t *testing.T) {
	dir := t.TempDir()
	testutil.InstallStubTool(t, dir, "abidw", "true")
	testutil.PrependPath(t, dir)

	raw := `<abi-corpus path='libz.so.1'>
  <elf-function-symbols>
    <elf-symbol name='deflate' type='func-type' binding='global-binding' visibility='default-visibility' is-defined='yes'/>
  </elf-function-symbols>
</abi-corpus>`
	runner := RunnerFunc(func(ctx context.Context, args []string) (Result, error) {
		return Result{Stdout: raw, Args: args}, nil
	})
	tools := New(testConfig(), WithRunner(runner))

	c, gotRaw, err := tools.ExtractCorpus(context.Background(), []string{"/lib/libz.so.1"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, raw, gotRaw)
	assert.Equal(t, "libz.so.1", c.Path)
	require.Len(t, c.FunctionSymbols, 1)
	assert.Equal(t, "deflate", c.FunctionSymbols[0].Name)
}

func TestFormatCommand(t *testing.T) {
	got := FormatCommand([]string{"abidiff", "--suppr", "/tmp/s.ini", "a.so", "b.so"})
	want := "---------------\n" +
		"abidiff\n" +
		"  --suppr\n" +
		"  /tmp/s.ini\n" +
		"  a.so\n" +
		"  b.so\n" +
		"---------------"
	assert.Equal(t, want, got)
}
