// Package corpus models the textual ABI description emitted by an
// ABI extraction tool (abidw) for one binary.
//
// A Corpus is built whole from one parse and never mutated afterward.
// Nested abi-instr blocks are flattened into the top-level declaration
// slices; only declaration order within a block and block order in the
// document are preserved, so re-parsing identical input yields
// identical slices.
package corpus

// Symbol is one entry from an ELF-level symbol table.
type Symbol struct {
	Name       string
	Size       int64 // bytes, 0 when the attribute is absent
	Type       string
	Binding    string
	Visibility string
	Defined    bool
}

// TypeDecl is a non-aggregate type declaration.
type TypeDecl struct {
	Name       string
	SizeInBits *int64 // nil when absent
	Hash       string // "" when absent
	ID         string
}

// Parameter is one function parameter. Order within a FunctionDecl is
// significant.
type Parameter struct {
	TypeID     string // "" when absent
	Name       string // "" when absent
	IsVariadic bool
}

// FunctionDecl is a function declaration.
type FunctionDecl struct {
	Name         string
	MangledName  string // "" when absent
	Filepath     string // "" for synthetic declarations
	Parameters   []Parameter
	ReturnTypeID string // resolves to a TypeDecl/ClassDecl ID in the same corpus
}

// VarDecl is a variable declaration.
type VarDecl struct {
	Name       string
	TypeID     string
	Visibility string
	Filepath   string // "" for synthetic declarations
}

// MemberKind tags the declaration variant owned by a DataMember.
type MemberKind int

const (
	// MemberVar marks a data member backed by a variable declaration.
	MemberVar MemberKind = iota

	// MemberFunction marks a data member backed by a function declaration.
	MemberFunction
)

// DataMember is a class member. Exactly one of Var and Function is
// non-nil; Kind reports which.
type DataMember struct {
	Access           string
	LayoutOffsetBits int64
	Var              *VarDecl
	Function         *FunctionDecl
}

// Kind reports which declaration variant this member owns.
func (m DataMember) Kind() MemberKind {
	if m.Var != nil {
		return MemberVar
	}
	return MemberFunction
}

// ClassDecl is a class or struct declaration. ID is unique across the
// corpus and is the join key for TypeID/ReturnTypeID references.
type ClassDecl struct {
	Name       string
	IsStruct   bool // true for struct, false for class
	Visibility string
	SizeInBits *int64 // nil when absent
	Filepath   string // "" for compiler-generated classes
	Hash       string // "" when absent
	ID         string
	Members    []DataMember
}

// TypedefDecl is a typedef. Unlike Var/Function/Class declarations,
// Filepath is always present in the source format.
type TypedefDecl struct {
	Name         string
	UnderlyingID string // the aliased-to type ID
	ID           string
	Filepath     string
}

// Corpus is the complete parsed ABI description of one binary.
type Corpus struct {
	Path            string
	FunctionSymbols []Symbol
	VariableSymbols []Symbol
	Types           []TypeDecl
	Typedefs        []TypedefDecl
	Classes         []ClassDecl
	Functions       []FunctionDecl
	Variables       []VarDecl
}

// Names returns the corpus's type names (class declarations followed by
// typedef declarations) and function names, in declaration order. These
// are the name sets the suppression generator reconciles against a
// header-derived public surface.
func (c *Corpus) Names() (typeNames, functionNames []string) {
	typeNames = make([]string, 0, len(c.Classes)+len(c.Typedefs))
	for _, cd := range c.Classes {
		typeNames = append(typeNames, cd.Name)
	}
	for _, td := range c.Typedefs {
		typeNames = append(typeNames, td.Name)
	}
	functionNames = make([]string, 0, len(c.Functions))
	for _, fd := range c.Functions {
		functionNames = append(functionNames, fd.Name)
	}
	return typeNames, functionNames
}
