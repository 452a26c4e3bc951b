package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/abiscope/abiscope/internal/abigail"
	"github.com/abiscope/abiscope/internal/corpus"
	"github.com/abiscope/abiscope/internal/header"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "usage error",
			err:  &usageError{err: errors.New("bad flag")},
			want: ExitUsage,
		},
		{
			name: "harmful change",
			err:  &harmfulChangeError{left: "a.so", right: "b.so"},
			want: ExitHarmfulChange,
		},
		{
			name: "tool not found",
			err:  &abigail.ToolNotFoundError{Tool: "abidw"},
			want: ExitToolNotFound,
		},
		{
			name: "tool failed",
			err:  &abigail.ToolFailedError{Tool: "abidw", ExitCode: 1},
			want: ExitToolFailed,
		},
		{
			name: "preprocessor failed",
			err:  &header.PreprocessError{Header: "widget.h", Err: errors.New("exit status 1")},
			want: ExitToolFailed,
		},
		{
			name: "malformed corpus",
			err:  &corpus.MalformedCorpusError{Tag: "abi-corpus", Attr: "path"},
			want: ExitMalformedCorpus,
		},
		{
			name: "anything else",
			err:  errors.New("disk full"),
			want: ExitGeneral,
		},
		{
			name: "wrapped typed error",
			err:  fmt.Errorf("extracting: %w", &abigail.ToolNotFoundError{Tool: "abidiff"}),
			want: ExitToolNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
