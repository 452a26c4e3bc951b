package header

import (
	"strings"
	"unicode"
)

// The structural parser classifies top-level C declarations by shape.
// It is deliberately partial: it recovers the names a library author
// declared, not full C semantics. Anything it does not recognize is
// reported as a skipped shape, never a failure.

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func (t token) is(s string) bool { return t.text == s }

// tokenize splits C source into identifier, number, literal, and
// punctuation tokens. Comments and whitespace are dropped.
func tokenize(src string) []token {
	var toks []token
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = n
			} else {
				i += 2 + end + 2
			}
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < n {
				if src[j] == '\\' {
					j += 2
					continue
				}
				if src[j] == quote {
					j++
					break
				}
				j++
			}
			toks = append(toks, token{tokString, src[i:j]})
			i = j
		case isIdentStart(rune(c)):
			j := i + 1
			for j < n && isIdentPart(rune(src[j])) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < n && (isIdentPart(rune(src[j])) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		default:
			toks = append(toks, token{tokPunct, string(c)})
			i++
		}
	}
	return toks
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// nodeKind names the top-level syntax shapes the parser distinguishes.
type nodeKind string

const (
	nodeTypedef     nodeKind = "type_definition"
	nodeDeclaration nodeKind = "declaration"
	nodeStruct      nodeKind = "struct_specifier"
	nodeEnum        nodeKind = "enum_specifier"
	nodeFunctionDef nodeKind = "function_definition"
	nodeUnknown     nodeKind = "unknown"
)

// syntaxNode is one top-level item of a translation unit.
type syntaxNode struct {
	kind nodeKind
	name string      // struct/enum tag name, "" when anonymous
	decl *declarator // for typedef/declaration nodes
	toks []token     // raw tokens, for diagnostics
}

func (s *syntaxNode) text() string {
	parts := make([]string, len(s.toks))
	for i, t := range s.toks {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}

// declShape classifies a declarator.
type declShape string

const (
	shapeIdentifier    declShape = "identifier"
	shapePointer       declShape = "pointer_declarator"
	shapeFunction      declShape = "function_declarator"
	shapeArray         declShape = "array_declarator"
	shapeParenthesized declShape = "parenthesized_declarator"
)

type declarator struct {
	shape declShape
	name  string // set for shapeIdentifier
	inner *declarator
}

// identName descends to the underlying identifier, or "" when the
// declarator bottoms out without one (an abstract declarator).
func (d *declarator) identName() string {
	for d != nil {
		if d.shape == shapeIdentifier {
			return d.name
		}
		d = d.inner
	}
	return ""
}

// parseTranslationUnit splits a block's tokens into top-level items and
// classifies each. Bare statement terminators are dropped here.
func parseTranslationUnit(src string) []*syntaxNode {
	toks := tokenize(src)
	var nodes []*syntaxNode
	for len(toks) > 0 {
		if toks[0].is(";") {
			toks = toks[1:]
			continue
		}
		item, rest := nextItem(toks)
		toks = rest
		if len(item) == 0 {
			break
		}
		nodes = append(nodes, classifyItem(item))
	}
	return nodes
}

// nextItem consumes one external declaration: everything up to a
// top-level ';', or up to a top-level brace group that terminates a
// function definition.
func nextItem(toks []token) (item, rest []token) {
	depth := 0
	for i := 0; i < len(toks); i++ {
		switch {
		case toks[i].is("{") || toks[i].is("(") || toks[i].is("["):
			if toks[i].is("{") && depth == 0 && i > 0 && toks[i-1].is(")") {
				// Function definition body: the item ends at the
				// matching brace, with no ';'.
				end := matchGroup(toks, i)
				return toks[:end+1], toks[end+1:]
			}
			depth++
		case toks[i].is("}") || toks[i].is(")") || toks[i].is("]"):
			depth--
		case toks[i].is(";") && depth == 0:
			return toks[:i], toks[i+1:]
		}
	}
	return toks, nil
}

// matchGroup returns the index of the token closing the group opened
// at start.
func matchGroup(toks []token, start int) int {
	depth := 0
	for i := start; i < len(toks); i++ {
		switch toks[i].text {
		case "{", "(", "[":
			depth++
		case "}", ")", "]":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks) - 1
}

func classifyItem(item []token) *syntaxNode {
	n := &syntaxNode{toks: item}

	switch {
	case item[0].is("typedef"):
		n.kind = nodeTypedef
		n.decl, _ = parseDeclarator(skipSpecifiers(item[1:]))
		return n
	case item[0].is("struct") && isBareSpecifier(item):
		n.kind = nodeStruct
		n.name = specifierTag(item)
		return n
	case item[0].is("enum") && isBareSpecifier(item):
		n.kind = nodeEnum
		n.name = specifierTag(item)
		return n
	case item[0].is("union") && isBareSpecifier(item):
		n.kind = nodeUnknown
		return n
	case item[len(item)-1].is("}"):
		// Only function definitions end at a top-level brace once the
		// bare specifier shapes are ruled out; headers should not
		// carry them, so they are skipped like any unhandled shape.
		n.kind = nodeFunctionDef
		return n
	}

	n.kind = nodeDeclaration
	n.decl, _ = parseDeclarator(skipSpecifiers(item))
	if n.decl == nil {
		n.kind = nodeUnknown
	}
	return n
}

// isBareSpecifier reports whether the item is just
// `struct|enum|union [tag] [{...}]` with no declarator after it.
func isBareSpecifier(item []token) bool {
	i := 1
	if i < len(item) && item[i].kind == tokIdent {
		i++
	}
	if i == len(item) {
		return true // forward declaration
	}
	if !item[i].is("{") {
		return false
	}
	return matchGroup(item, i) == len(item)-1
}

func specifierTag(item []token) string {
	if len(item) > 1 && item[1].kind == tokIdent {
		return item[1].text
	}
	return ""
}

// specifierKeywords are tokens that can only be part of the
// declaration specifiers, never the declarator.
var specifierKeywords = map[string]bool{
	"extern": true, "static": true, "auto": true, "register": true,
	"inline": true, "const": true, "volatile": true, "restrict": true,
	"signed": true, "unsigned": true, "short": true, "long": true,
	"int": true, "char": true, "float": true, "double": true,
	"void": true, "_Bool": true, "_Complex": true, "_Noreturn": true,
	"_Atomic": true, "__restrict": true, "__restrict__": true,
	"__inline": true, "__inline__": true, "__extension__": true,
	"__signed__": true, "__volatile__": true,
}

// skipSpecifiers consumes declaration specifiers and returns the
// tokens forming the declarator. Type names are identifiers, so the
// boundary between "last specifier" and "declarator" is decided by
// lookahead: an identifier followed by another identifier, a '*', or a
// '(' opening a parenthesized declarator is still a specifier.
func skipSpecifiers(toks []token) []token {
	i := 0
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.kind == tokIdent && specifierKeywords[t.text]:
			i++
		case t.is("__attribute__") || t.is("__declspec"):
			i++
			if i < len(toks) && toks[i].is("(") {
				i = matchGroup(toks, i) + 1
			}
		case t.is("struct") || t.is("union") || t.is("enum"):
			i++
			if i < len(toks) && toks[i].kind == tokIdent {
				i++
			}
			if i < len(toks) && toks[i].is("{") {
				i = matchGroup(toks, i) + 1
			}
		case t.kind == tokIdent:
			// Possibly a type name; decide by lookahead.
			if i+1 >= len(toks) {
				return toks[i:]
			}
			next := toks[i+1]
			switch {
			case next.kind == tokIdent:
				i++ // type name followed by more declaration
			case next.is("*"):
				return toks[i+1:] // type name, declarator starts at '*'
			case next.is("("):
				if i+2 < len(toks) && (toks[i+2].is("*") || toks[i+2].is("(")) {
					return toks[i+1:] // type name, parenthesized declarator
				}
				return toks[i:] // this identifier is the function name
			default:
				return toks[i:]
			}
		default:
			return toks[i:]
		}
	}
	return nil
}

// parseDeclarator parses a C declarator:
//
//	declarator  = "*" qualifiers* declarator | direct
//	direct      = "(" declarator ")" | identifier
//	direct      = direct "(" ... ")" | direct "[" ... "]"
//
// Returns nil when the tokens do not form a recognizable declarator.
func parseDeclarator(toks []token) (*declarator, []token) {
	if len(toks) == 0 {
		return nil, nil
	}
	if toks[0].is("*") {
		rest := toks[1:]
		for len(rest) > 0 && rest[0].kind == tokIdent && specifierKeywords[rest[0].text] {
			rest = rest[1:]
		}
		inner, rest := parseDeclarator(rest)
		if inner == nil {
			return nil, rest
		}
		return &declarator{shape: shapePointer, inner: inner}, rest
	}

	var d *declarator
	switch {
	case toks[0].is("("):
		end := matchGroup(toks, 0)
		inner, _ := parseDeclarator(toks[1:end])
		if inner == nil {
			return nil, toks[end+1:]
		}
		d = &declarator{shape: shapeParenthesized, inner: inner}
		toks = toks[end+1:]
	case toks[0].kind == tokIdent && !specifierKeywords[toks[0].text]:
		d = &declarator{shape: shapeIdentifier, name: toks[0].text}
		toks = toks[1:]
	default:
		return nil, toks
	}

	for len(toks) > 0 {
		switch {
		case toks[0].is("("):
			end := matchGroup(toks, 0)
			d = &declarator{shape: shapeFunction, inner: d}
			toks = toks[end+1:]
		case toks[0].is("["):
			end := matchGroup(toks, 0)
			d = &declarator{shape: shapeArray, inner: d}
			toks = toks[end+1:]
		default:
			return d, toks
		}
	}
	return d, toks
}
