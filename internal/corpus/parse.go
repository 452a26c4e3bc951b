package corpus

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Element tags of the ABI description format.
const (
	tagSymbol          = "elf-symbol"
	tagFunctionSymbols = "elf-function-symbols"
	tagVariableSymbols = "elf-variable-symbols"
	tagInstr           = "abi-instr"
	tagTypeDecl        = "type-decl"
	tagClassDecl       = "class-decl"
	tagFunctionDecl    = "function-decl"
	tagTypedefDecl     = "typedef-decl"
	tagVarDecl         = "var-decl"
	tagDataMember      = "data-member"
	tagParameter       = "parameter"
	tagReturn          = "return"
)

// Parse reads one ABI description document and builds the corpus.
// Missing required attributes or children fail the whole parse with a
// *MalformedCorpusError; optional attributes default to absent.
func Parse(r io.Reader) (*Corpus, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI document: %w", err)
	}

	root := firstElement(doc)
	if root == nil {
		return nil, fmt.Errorf("ABI document has no root element")
	}

	path, err := requiredAttr(root, "path")
	if err != nil {
		return nil, err
	}

	funSyms, err := parseSymbolTable(root, tagFunctionSymbols, true)
	if err != nil {
		return nil, err
	}
	varSyms, err := parseSymbolTable(root, tagVariableSymbols, false)
	if err != nil {
		return nil, err
	}

	c := &Corpus{
		Path:            path,
		FunctionSymbols: funSyms,
		VariableSymbols: varSyms,
	}

	// Flatten every instruction block's declarations into the corpus,
	// visiting blocks in document order.
	for _, instr := range childElements(root, tagInstr) {
		for _, n := range childElements(instr, tagTypeDecl) {
			td, err := parseTypeDecl(n)
			if err != nil {
				return nil, err
			}
			c.Types = append(c.Types, td)
		}
		for _, n := range childElements(instr, tagClassDecl) {
			cd, err := parseClassDecl(n)
			if err != nil {
				return nil, err
			}
			c.Classes = append(c.Classes, cd)
		}
		for _, n := range childElements(instr, tagFunctionDecl) {
			fd, err := parseFunctionDecl(n)
			if err != nil {
				return nil, err
			}
			c.Functions = append(c.Functions, fd)
		}
		for _, n := range childElements(instr, tagTypedefDecl) {
			td, err := parseTypedefDecl(n)
			if err != nil {
				return nil, err
			}
			c.Typedefs = append(c.Typedefs, td)
		}
		for _, n := range childElements(instr, tagVarDecl) {
			vd, err := parseVarDecl(n)
			if err != nil {
				return nil, err
			}
			c.Variables = append(c.Variables, vd)
		}
	}

	return c, nil
}

// ParseString parses an ABI description held in memory.
func ParseString(s string) (*Corpus, error) {
	return Parse(strings.NewReader(s))
}

func parseSymbolTable(root *xmlquery.Node, tag string, required bool) ([]Symbol, error) {
	table := childElement(root, tag)
	if table == nil {
		if required {
			return nil, &MalformedCorpusError{Tag: root.Data, Elem: tag}
		}
		return nil, nil
	}
	var syms []Symbol
	for _, n := range childElements(table, tagSymbol) {
		s, err := parseSymbol(n)
		if err != nil {
			return nil, err
		}
		syms = append(syms, s)
	}
	return syms, nil
}

func parseSymbol(n *xmlquery.Node) (Symbol, error) {
	name, err := requiredAttr(n, "name")
	if err != nil {
		return Symbol{}, err
	}
	typ, err := requiredAttr(n, "type")
	if err != nil {
		return Symbol{}, err
	}
	binding, err := requiredAttr(n, "binding")
	if err != nil {
		return Symbol{}, err
	}
	visibility, err := requiredAttr(n, "visibility")
	if err != nil {
		return Symbol{}, err
	}
	defined, err := requiredAttr(n, "is-defined")
	if err != nil {
		return Symbol{}, err
	}
	size, err := optionalIntAttr(n, "size")
	if err != nil {
		return Symbol{}, err
	}
	sym := Symbol{
		Name:       name,
		Type:       typ,
		Binding:    binding,
		Visibility: visibility,
		Defined:    defined == "yes",
	}
	if size != nil {
		sym.Size = *size
	}
	return sym, nil
}

func parseTypeDecl(n *xmlquery.Node) (TypeDecl, error) {
	name, err := requiredAttr(n, "name")
	if err != nil {
		return TypeDecl{}, err
	}
	id, err := requiredAttr(n, "id")
	if err != nil {
		return TypeDecl{}, err
	}
	size, err := optionalIntAttr(n, "size-in-bits")
	if err != nil {
		return TypeDecl{}, err
	}
	hash, _ := optionalAttr(n, "hash")
	return TypeDecl{Name: name, SizeInBits: size, Hash: hash, ID: id}, nil
}

func parseParameter(n *xmlquery.Node) Parameter {
	typeID, _ := optionalAttr(n, "type-id")
	name, _ := optionalAttr(n, "name")
	variadic, _ := optionalAttr(n, "is-variadic")
	return Parameter{TypeID: typeID, Name: name, IsVariadic: variadic == "yes"}
}

func parseFunctionDecl(n *xmlquery.Node) (FunctionDecl, error) {
	name, err := requiredAttr(n, "name")
	if err != nil {
		return FunctionDecl{}, err
	}
	mangled, _ := optionalAttr(n, "mangled-name")
	filepath, _ := optionalAttr(n, "filepath")

	var params []Parameter
	for _, p := range childElements(n, tagParameter) {
		params = append(params, parseParameter(p))
	}

	ret := childElement(n, tagReturn)
	if ret == nil {
		return FunctionDecl{}, &MalformedCorpusError{Tag: tagFunctionDecl, Elem: tagReturn}
	}
	returnTypeID, err := requiredAttr(ret, "type-id")
	if err != nil {
		return FunctionDecl{}, err
	}

	return FunctionDecl{
		Name:         name,
		MangledName:  mangled,
		Filepath:     filepath,
		Parameters:   params,
		ReturnTypeID: returnTypeID,
	}, nil
}

func parseVarDecl(n *xmlquery.Node) (VarDecl, error) {
	name, err := requiredAttr(n, "name")
	if err != nil {
		return VarDecl{}, err
	}
	typeID, err := requiredAttr(n, "type-id")
	if err != nil {
		return VarDecl{}, err
	}
	visibility, err := requiredAttr(n, "visibility")
	if err != nil {
		return VarDecl{}, err
	}
	filepath, _ := optionalAttr(n, "filepath")
	return VarDecl{Name: name, TypeID: typeID, Visibility: visibility, Filepath: filepath}, nil
}

// parseDataMember probes for a nested var-decl first; failing that, a
// nested function-decl is required. A data member must be one or the
// other.
func parseDataMember(n *xmlquery.Node) (DataMember, error) {
	access, err := requiredAttr(n, "access")
	if err != nil {
		return DataMember{}, err
	}
	offset, err := requiredIntAttr(n, "layout-offset-in-bits")
	if err != nil {
		return DataMember{}, err
	}

	m := DataMember{Access: access, LayoutOffsetBits: offset}
	if vn := childElement(n, tagVarDecl); vn != nil {
		vd, err := parseVarDecl(vn)
		if err != nil {
			return DataMember{}, err
		}
		m.Var = &vd
		return m, nil
	}
	fn := childElement(n, tagFunctionDecl)
	if fn == nil {
		return DataMember{}, &MalformedCorpusError{Tag: tagDataMember, Elem: tagFunctionDecl}
	}
	fd, err := parseFunctionDecl(fn)
	if err != nil {
		return DataMember{}, err
	}
	m.Function = &fd
	return m, nil
}

func parseClassDecl(n *xmlquery.Node) (ClassDecl, error) {
	name, err := requiredAttr(n, "name")
	if err != nil {
		return ClassDecl{}, err
	}
	isStruct, err := requiredAttr(n, "is-struct")
	if err != nil {
		return ClassDecl{}, err
	}
	visibility, err := requiredAttr(n, "visibility")
	if err != nil {
		return ClassDecl{}, err
	}
	id, err := requiredAttr(n, "id")
	if err != nil {
		return ClassDecl{}, err
	}
	size, err := optionalIntAttr(n, "size-in-bits")
	if err != nil {
		return ClassDecl{}, err
	}
	filepath, _ := optionalAttr(n, "filepath")
	hash, _ := optionalAttr(n, "hash")

	cd := ClassDecl{
		Name:       name,
		IsStruct:   isStruct == "yes",
		Visibility: visibility,
		SizeInBits: size,
		Filepath:   filepath,
		Hash:       hash,
		ID:         id,
	}
	for _, mn := range childElements(n, tagDataMember) {
		m, err := parseDataMember(mn)
		if err != nil {
			return ClassDecl{}, err
		}
		cd.Members = append(cd.Members, m)
	}
	return cd, nil
}

func parseTypedefDecl(n *xmlquery.Node) (TypedefDecl, error) {
	name, err := requiredAttr(n, "name")
	if err != nil {
		return TypedefDecl{}, err
	}
	underlying, err := requiredAttr(n, "type-id")
	if err != nil {
		return TypedefDecl{}, err
	}
	id, err := requiredAttr(n, "id")
	if err != nil {
		return TypedefDecl{}, err
	}
	filepath, err := requiredAttr(n, "filepath")
	if err != nil {
		return TypedefDecl{}, err
	}
	return TypedefDecl{Name: name, UnderlyingID: underlying, ID: id, Filepath: filepath}, nil
}

// firstElement returns the first element child of a document node.
func firstElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// childElement returns the first direct child element with the given
// tag, or nil.
func childElement(n *xmlquery.Node, tag string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

// childElements returns the direct child elements with the given tag in
// document order.
func childElements(n *xmlquery.Node, tag string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

// optionalAttr reports an attribute's value and whether it was present,
// so absence is never conflated with an empty value.
func optionalAttr(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func requiredAttr(n *xmlquery.Node, name string) (string, error) {
	v, ok := optionalAttr(n, name)
	if !ok {
		return "", &MalformedCorpusError{Tag: n.Data, Attr: name}
	}
	return v, nil
}

func optionalIntAttr(n *xmlquery.Node, name string) (*int64, error) {
	v, ok := optionalAttr(n, name)
	if !ok {
		return nil, nil
	}
	i, err := parseInt(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s attribute on <%s>: %w", name, n.Data, err)
	}
	return &i, nil
}

func requiredIntAttr(n *xmlquery.Node, name string) (int64, error) {
	v, err := requiredAttr(n, name)
	if err != nil {
		return 0, err
	}
	i, err := parseInt(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s attribute on <%s>: %w", name, n.Data, err)
	}
	return i, nil
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
