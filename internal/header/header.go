// Package header derives a library's intended public surface from its
// public C header file.
//
// The header is run through a macro preprocessor, the output is
// partitioned by originating file using linemarkers, and each block of
// text written in the target header itself is structurally parsed into
// a coarse symbol table: declared types, declared functions, and
// declared external variables. Parsing is best-effort: unrecognized
// declaration shapes are logged and skipped, never fatal.
package header

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/abiscope/abiscope/internal/log"
)

// Kind tags an extracted header symbol by the syntactic shape that
// produced it.
type Kind int

const (
	// KindTypedef is a typedef name.
	KindTypedef Kind = iota

	// KindFunc is a declared function name.
	KindFunc

	// KindPtr is a pointer-shaped declaration.
	KindPtr

	// KindExtern is an external variable name.
	KindExtern

	// KindStruct is a struct tag name.
	KindStruct

	// KindEnum is an enum tag name.
	KindEnum
)

var kindNames = map[Kind]string{
	KindTypedef: "TYPEDEF",
	KindFunc:    "FUNDEF",
	KindPtr:     "PTRDEF",
	KindExtern:  "EXTERNDEF",
	KindStruct:  "STRUCTDEF",
	KindEnum:    "ENUMDEF",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Symbol is one name declared in the header.
type Symbol struct {
	Kind Kind
	Name string
}

// SkipDiagnostic records a declaration the parser could not classify.
// Skips are informational; the surrounding extraction still succeeds.
type SkipDiagnostic struct {
	File  string // originating file, "" when unattributed
	Shape string // the unhandled node or declarator shape
	Text  string // normalized source text of the declaration
}

// Surface is the public surface declared by a header: three disjoint
// symbol lists plus the diagnostics for anything skipped along the way.
type Surface struct {
	Types     []Symbol // TYPEDEF, PTRDEF, STRUCTDEF, ENUMDEF
	Functions []Symbol // FUNDEF
	Variables []Symbol // EXTERNDEF
	Skipped   []SkipDiagnostic
}

// TypeNames returns the set of declared type names.
func (s *Surface) TypeNames() map[string]bool {
	return nameSet(s.Types)
}

// FunctionNames returns the set of declared function names.
func (s *Surface) FunctionNames() map[string]bool {
	return nameSet(s.Functions)
}

func nameSet(syms []Symbol) map[string]bool {
	set := make(map[string]bool, len(syms))
	for _, sym := range syms {
		set[sym.Name] = true
	}
	return set
}

// PreprocessError indicates the macro preprocessor exited nonzero.
type PreprocessError struct {
	Header string
	Stderr string
	Err    error
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("preprocessor failed on %s: %v\nstderr:\n%s", e.Header, e.Err, e.Stderr)
}

func (e *PreprocessError) Unwrap() error { return e.Err }

// Extractor runs the preprocessor and the structural parser.
type Extractor struct {
	preprocessor string
	logger       log.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPreprocessor overrides the preprocessor command (default "gcc",
// always invoked with -E).
func WithPreprocessor(cmd string) Option {
	return func(e *Extractor) { e.preprocessor = cmd }
}

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(l log.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor builds an Extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		preprocessor: "gcc",
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract preprocesses the header and parses its own declarations into
// a Surface. Text pulled in from system headers is discarded; only the
// author's declarations define the public surface.
func (e *Extractor) Extract(ctx context.Context, headerPath string) (*Surface, error) {
	text, err := e.preprocess(ctx, headerPath)
	if err != nil {
		return nil, err
	}
	return e.ParsePreprocessed(text), nil
}

// preprocess runs `<preprocessor> -E <header>` and captures the
// combined preprocessed output.
func (e *Extractor) preprocess(ctx context.Context, headerPath string) (string, error) {
	e.logger.Info("preprocessing header", "header", headerPath, "preprocessor", e.preprocessor)

	cmd := exec.CommandContext(ctx, e.preprocessor, "-E", headerPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &PreprocessError{
			Header: headerPath,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// ParsePreprocessed extracts the surface from already-preprocessed
// text. Split out from Extract so the parsing pipeline is testable
// without a compiler on PATH.
func (e *Extractor) ParsePreprocessed(text string) *Surface {
	surface := &Surface{}
	for _, block := range splitBlocks(text) {
		if block.HasFlag(FlagSystemHeader) {
			continue
		}
		if strings.TrimSpace(block.Text) == "" {
			continue
		}
		e.parseBlock(block, surface)
	}
	return surface
}

func (e *Extractor) parseBlock(block Block, surface *Surface) {
	for _, node := range parseTranslationUnit(block.Text) {
		sym, skip := e.classify(node)
		if skip != nil {
			skip.File = block.File
			surface.Skipped = append(surface.Skipped, *skip)
			e.logger.Warn("skipping unhandled declaration",
				"file", block.File, "shape", skip.Shape, "text", skip.Text)
			continue
		}
		if sym == nil {
			continue // silently dropped (anonymous enum)
		}
		switch sym.Kind {
		case KindFunc:
			surface.Functions = append(surface.Functions, *sym)
		case KindExtern:
			surface.Variables = append(surface.Variables, *sym)
		default:
			surface.Types = append(surface.Types, *sym)
		}
	}
}

// classify maps one syntax node to a symbol, a skip diagnostic, or
// neither (for shapes that are deliberately dropped without noise).
func (e *Extractor) classify(node *syntaxNode) (*Symbol, *SkipDiagnostic) {
	switch node.kind {
	case nodeTypedef:
		return classifyTypedef(node)
	case nodeDeclaration:
		return classifyDeclaration(node)
	case nodeStruct:
		if node.name == "" {
			return nil, &SkipDiagnostic{Shape: "anonymous struct_specifier", Text: node.text()}
		}
		return &Symbol{Kind: KindStruct, Name: node.name}, nil
	case nodeEnum:
		// Anonymous enums carry no public name to suppress against.
		if node.name == "" {
			return nil, nil
		}
		return &Symbol{Kind: KindEnum, Name: node.name}, nil
	default:
		return nil, &SkipDiagnostic{Shape: string(node.kind), Text: node.text()}
	}
}

func classifyTypedef(node *syntaxNode) (*Symbol, *SkipDiagnostic) {
	d := node.decl
	if d == nil {
		return nil, &SkipDiagnostic{Shape: "typedef without declarator", Text: node.text()}
	}
	switch d.shape {
	case shapeFunction:
		// Function-pointer typedef: the name lives inside the
		// parenthesized inner declarator.
		if d.inner == nil || d.inner.shape != shapeParenthesized {
			return nil, &SkipDiagnostic{Shape: "typedef " + string(d.shape), Text: node.text()}
		}
		return typedefSymbol(d.inner.identName(), node)
	case shapeIdentifier:
		return typedefSymbol(d.name, node)
	case shapePointer:
		return typedefSymbol(d.inner.identName(), node)
	default:
		return nil, &SkipDiagnostic{Shape: "typedef " + string(d.shape), Text: node.text()}
	}
}

func typedefSymbol(name string, node *syntaxNode) (*Symbol, *SkipDiagnostic) {
	if name == "" {
		return nil, &SkipDiagnostic{Shape: "typedef without name", Text: node.text()}
	}
	return &Symbol{Kind: KindTypedef, Name: name}, nil
}

func classifyDeclaration(node *syntaxNode) (*Symbol, *SkipDiagnostic) {
	d := node.decl
	switch d.shape {
	case shapeFunction:
		if d.inner == nil || d.inner.shape != shapeIdentifier {
			return nil, &SkipDiagnostic{Shape: "function_declarator without identifier", Text: node.text()}
		}
		return &Symbol{Kind: KindFunc, Name: d.inner.name}, nil
	case shapePointer:
		name := d.inner.identName()
		if name == "" {
			return nil, &SkipDiagnostic{Shape: "pointer_declarator without identifier", Text: node.text()}
		}
		return &Symbol{Kind: KindPtr, Name: name}, nil
	case shapeIdentifier:
		return &Symbol{Kind: KindExtern, Name: d.name}, nil
	case shapeArray:
		name := d.inner.identName()
		if name == "" {
			return nil, &SkipDiagnostic{Shape: "array_declarator without identifier", Text: node.text()}
		}
		return &Symbol{Kind: KindExtern, Name: name}, nil
	default:
		return nil, &SkipDiagnostic{Shape: string(d.shape), Text: node.text()}
	}
}
