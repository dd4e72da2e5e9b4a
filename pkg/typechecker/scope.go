package typechecker

import (
	"fmt"
	"sort"
	"strings"

	"apyc/checker-go/pkg/ast"
)

type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeClass
	ScopeMethod
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeMethod:
		return "method"
	default:
		return fmt.Sprintf("scope(%d)", int(k))
	}
}

// isCallable reports whether the scope belongs to a function or method body.
func (k ScopeKind) isCallable() bool {
	return k == ScopeFunction || k == ScopeMethod
}

type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolParameter
	SymbolFunction
	SymbolClass
	SymbolMethod
	SymbolInstanceField
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolClass:
		return "class"
	case SymbolMethod:
		return "method"
	case SymbolInstanceField:
		return "instance-field"
	default:
		return fmt.Sprintf("symbol(%d)", int(k))
	}
}

// Symbol is a named binding owned by exactly one scope.
//
// Declared is set only when a `::` annotation was written and never changes
// afterwards. Inferred is written at most once by the checker and is non-nil
// for every symbol once CheckModule returns.
type Symbol struct {
	Name          string
	Kind          SymbolKind
	Declared      Type
	Inferred      Type
	Scope         *Scope
	CaptureOrigin *Symbol
	Node          ast.Node

	function *ast.FunctionDefinition
	class    *ClassInfo
}

// Type returns the most precise type currently known for the symbol.
func (s *Symbol) Type() Type {
	if s == nil {
		return anyType
	}
	if s.Declared != nil {
		return s.Declared
	}
	if s.Inferred != nil {
		return s.Inferred
	}
	return anyType
}

// IsCapture reports whether the symbol aliases a binding of an enclosing
// function scope.
func (s *Symbol) IsCapture() bool {
	return s != nil && s.CaptureOrigin != nil
}

// Origin follows capture aliases back to the declaring symbol.
func (s *Symbol) Origin() *Symbol {
	for s != nil && s.CaptureOrigin != nil {
		s = s.CaptureOrigin
	}
	return s
}

// Definition returns the function definition behind a function or method
// symbol. For redefined names this is the last definition in source order.
func (s *Symbol) Definition() *ast.FunctionDefinition {
	if s == nil {
		return nil
	}
	return s.Origin().function
}

// Class returns the class metadata of a class symbol.
func (s *Symbol) Class() *ClassInfo {
	if s == nil {
		return nil
	}
	return s.Origin().class
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s %s: %s", s.Kind, s.Name, typeName(s.Type()))
}

// Scope is a node of the scope tree. Symbol keys are unique within a scope.
// A scope is sealed once the resolver leaves its AST node; Define then fails.
type Scope struct {
	ID       int
	Kind     ScopeKind
	Name     string
	Parent   *Scope
	Children []*Scope
	Node     ast.Node

	symbols map[string]*Symbol
	self    *Symbol
	class   *ClassInfo
	sealed  bool
}

// NewScope creates a scope and links it under parent.
func NewScope(id int, kind ScopeKind, name string, parent *Scope, node ast.Node) *Scope {
	s := &Scope{
		ID:      id,
		Kind:    kind,
		Name:    name,
		Parent:  parent,
		Node:    node,
		symbols: make(map[string]*Symbol),
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Define inserts sym into the scope. It reports false when the name is taken
// or the scope is sealed.
func (s *Scope) Define(sym *Symbol) bool {
	if s.sealed || sym == nil {
		return false
	}
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	sym.Scope = s
	s.symbols[sym.Name] = sym
	return true
}

// LookupLocal finds a symbol declared directly in this scope.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	if s == nil {
		return nil, false
	}
	sym, ok := s.symbols[name]
	return sym, ok
}

// Lookup searches this scope and then its ancestors. Unlike name resolution
// it does not skip class scopes or create capture aliases.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// Symbols returns the scope's symbols sorted by name.
func (s *Scope) Symbols() []*Symbol {
	if s == nil {
		return nil
	}
	out := make([]*Symbol, 0, len(s.symbols))
	for _, sym := range s.symbols {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Self returns the implicit self symbol of a method scope.
func (s *Scope) Self() *Symbol {
	if s == nil {
		return nil
	}
	return s.self
}

// Class returns the class described by a class scope.
func (s *Scope) Class() *ClassInfo {
	if s == nil {
		return nil
	}
	return s.class
}

func (s *Scope) Seal()        { s.sealed = true }
func (s *Scope) Sealed() bool { return s.sealed }

// Walk visits the scope and its descendants in creation order.
func (s *Scope) Walk(fn func(*Scope)) {
	if s == nil {
		return
	}
	fn(s)
	for _, child := range s.Children {
		child.Walk(fn)
	}
}

// Dump renders the scope tree with finalized symbol types, one line per
// scope or symbol. The output is deterministic for a given module.
func (s *Scope) Dump() string {
	var b strings.Builder
	s.dump(&b, 0)
	return b.String()
}

func (s *Scope) dump(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s %s #%d\n", indent, s.Kind, s.Name, s.ID)
	for _, sym := range s.Symbols() {
		line := fmt.Sprintf("%s  %s", indent, sym)
		if sym.CaptureOrigin != nil && sym.CaptureOrigin.Scope != nil {
			line += fmt.Sprintf(" (captured from #%d)", sym.CaptureOrigin.Scope.ID)
		}
		b.WriteString(line + "\n")
	}
	for _, child := range s.Children {
		child.dump(b, depth+1)
	}
}
