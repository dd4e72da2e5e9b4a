package typechecker

import (
	"fmt"
	"math/big"

	"apyc/checker-go/pkg/ast"
	"apyc/checker-go/pkg/logger"
)

// DefaultMaxIntLiteral is the largest integer literal accepted (2^30).
var DefaultMaxIntLiteral = big.NewInt(1 << 30)

// Option configures a Checker.
type Option func(*Checker)

// WithBuiltins adds prelude functions. An entry named like a default builtin
// replaces it.
func WithBuiltins(builtins ...Builtin) Option {
	return func(c *Checker) {
		c.builtins = append(c.builtins, builtins...)
	}
}

// WithMaxIntLiteral changes the integer literal limit. A nil limit disables
// the check.
func WithMaxIntLiteral(limit *big.Int) Option {
	return func(c *Checker) {
		c.maxInt = limit
	}
}

// WithWarningsAsErrors makes warnings fail the compilation unit.
func WithWarningsAsErrors(enabled bool) Option {
	return func(c *Checker) {
		c.warningsAsErrors = enabled
	}
}

// Checker resolves names and infers types for one compilation unit at a time.
// A Checker is not safe for concurrent use; run one per goroutine.
type Checker struct {
	builtins         []Builtin
	maxInt           *big.Int
	warningsAsErrors bool

	res       *resolver
	sink      *diagnosticSink
	infer     InferenceMap
	functions map[*ast.FunctionDefinition]*functionState
	frames    []*checkFrame
}

// Result is the outcome of checking one module.
type Result struct {
	Module      *Scope
	Builtins    *Scope
	Bindings    map[*ast.Identifier]*Symbol
	Scopes      map[ast.Node]*Scope
	Types       InferenceMap
	Functions   map[*ast.FunctionDefinition]FunctionType
	Diagnostics []Diagnostic

	warningsAsErrors bool
}

// Failed reports whether the unit is rejected.
func (r *Result) Failed() bool {
	if r == nil {
		return false
	}
	if r.warningsAsErrors {
		return len(r.Diagnostics) > 0
	}
	return HasErrors(r.Diagnostics)
}

// TypeOf returns the inferred type of an expression node.
func (r *Result) TypeOf(node ast.Node) (Type, bool) {
	if r == nil {
		return nil, false
	}
	return r.Types.get(node)
}

// SymbolOf returns the symbol an identifier occurrence is bound to.
func (r *Result) SymbolOf(id *ast.Identifier) (*Symbol, bool) {
	if r == nil {
		return nil, false
	}
	sym, ok := r.Bindings[id]
	return sym, ok
}

// ScopeOf returns the scope created for a module, function or class node.
func (r *Result) ScopeOf(node ast.Node) *Scope {
	if r == nil {
		return nil
	}
	return r.Scopes[node]
}

// New returns a checker instance.
func New(opts ...Option) *Checker {
	c := &Checker{maxInt: DefaultMaxIntLiteral}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckModule resolves and typechecks a module. Diagnostics are returned in
// AST traversal order; the error is reserved for unusable input.
func (c *Checker) CheckModule(module *ast.Module) (*Result, error) {
	if module == nil {
		return nil, fmt.Errorf("typechecker: module is nil")
	}
	unit := module.Name
	// Reset per-unit state between runs.
	c.infer = make(InferenceMap)
	c.functions = make(map[*ast.FunctionDefinition]*functionState)
	c.frames = nil

	logger.LogPhase("resolve", unit)
	c.res = newResolver(newBuiltinScope(c.builtins))
	scope := c.res.resolveModule(module)
	c.sink = c.res.sink
	logger.LogPhaseComplete("resolve", unit, len(c.sink.items))

	logger.LogPhase("check", unit)
	c.pushFrame(&checkFrame{kind: frameModule})
	c.checkStatements(module.Body)
	c.popFrame()
	c.finalize(scope)
	logger.LogPhaseComplete("check", unit, len(c.sink.items))

	functions := make(map[*ast.FunctionDefinition]FunctionType, len(c.functions))
	for def, state := range c.functions {
		functions[def] = state.typ
	}
	result := &Result{
		Module:           scope,
		Builtins:         c.res.builtins,
		Bindings:         c.res.bindings,
		Scopes:           c.res.scopes,
		Types:            c.infer,
		Functions:        functions,
		Diagnostics:      c.sink.sorted(),
		warningsAsErrors: c.warningsAsErrors,
	}
	logger.LogUnitResult(unit, result.Failed(), len(result.Diagnostics))
	return result, nil
}

// finalize gives every symbol of the scope tree an inferred type.
func (c *Checker) finalize(root *Scope) {
	root.Walk(func(scope *Scope) {
		for _, sym := range scope.Symbols() {
			switch {
			case sym.CaptureOrigin != nil:
				sym.Inferred = c.symbolType(sym.CaptureOrigin)
			case sym.Kind == SymbolFunction || sym.Kind == SymbolMethod || sym.Kind == SymbolClass:
				sym.Inferred = c.symbolType(sym)
			case sym.Inferred == nil:
				sym.Inferred = orAny(sym.Declared)
			}
		}
	})
}

// symbolType is the type of a name occurrence bound to sym.
func (c *Checker) symbolType(sym *Symbol) Type {
	if sym == nil {
		return anyType
	}
	origin := sym.Origin()
	if typ, ok := c.narrowedType(origin); ok {
		return typ
	}
	switch origin.Kind {
	case SymbolFunction:
		if def := origin.function; def != nil {
			return c.functionSignature(def)
		}
	case SymbolMethod:
		if def := origin.function; def != nil {
			return c.boundMethodType(def)
		}
	case SymbolClass:
		if origin.class != nil {
			return c.constructorType(origin.class)
		}
	}
	return origin.Type()
}
