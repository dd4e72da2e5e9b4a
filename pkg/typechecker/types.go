package typechecker

import (
	"sort"
	"strings"
)

// Type represents an apyc type understood by the checker.
type Type interface {
	Name() string
}

// AnyType is the dynamic type of unannotated values.
type AnyType struct{}

func (AnyType) Name() string { return "Any" }

// NoneType is the result of functions that never return a value.
type NoneType struct{}

func (NoneType) Name() string { return "None" }

type PrimitiveKind string

const (
	PrimitiveBool PrimitiveKind = "bool"
	PrimitiveInt  PrimitiveKind = "int"
	PrimitiveStr  PrimitiveKind = "str"
)

type PrimitiveType struct {
	Kind PrimitiveKind
}

func (p PrimitiveType) Name() string { return string(p.Kind) }

type ListType struct {
	Element Type
}

func (l ListType) Name() string {
	return "list of " + typeName(l.Element)
}

type DictType struct {
	Key   Type
	Value Type
}

func (d DictType) Name() string {
	return "dict of [" + typeName(d.Key) + ", " + typeName(d.Value) + "]"
}

// FunctionType is a callable signature. An open signature accepts any call
// shape; it is what an unannotated native stub gets.
type FunctionType struct {
	Params []Type
	Return Type
	Open   bool
}

func (f FunctionType) Name() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = typeName(p)
	}
	if f.Open {
		parts = append(parts, "...")
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + typeName(f.Return)
}

// ClassType refers to a class nominally. The member map lives on the shared
// ClassInfo and may still be filling in while the type is already in use,
// which is what allows a method to return an instance of its own class.
type ClassType struct {
	ClassName string
	info      *ClassInfo
}

func (c ClassType) Name() string { return c.ClassName }

// Info returns the class metadata, or nil for a class type built by name only.
func (c ClassType) Info() *ClassInfo { return c.info }

// Member looks up a member symbol of the class.
func (c ClassType) Member(name string) (*Symbol, bool) {
	if c.info == nil || c.info.Scope == nil {
		return nil, false
	}
	return c.info.Scope.LookupLocal(name)
}

// ClassInfo records the class scope and declaration for a class type.
type ClassInfo struct {
	Name   string
	Scope  *Scope
	Symbol *Symbol
}

// Members returns the class member symbols sorted by name.
func (ci *ClassInfo) Members() []*Symbol {
	if ci == nil || ci.Scope == nil {
		return nil
	}
	return ci.Scope.Symbols()
}

// MemberNames lists member names in sorted order.
func (ci *ClassInfo) MemberNames() []string {
	members := ci.Members()
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names
}

var (
	anyType  Type = AnyType{}
	noneType Type = NoneType{}
	boolType Type = PrimitiveType{Kind: PrimitiveBool}
	intType  Type = PrimitiveType{Kind: PrimitiveInt}
	strType  Type = PrimitiveType{Kind: PrimitiveStr}
)

// Exported constructors for callers building expected types.

func Any() Type  { return anyType }
func None() Type { return noneType }
func Bool() Type { return boolType }
func Int() Type  { return intType }
func Str() Type  { return strType }

func List(elem Type) Type { return ListType{Element: elem} }

func Dict(key, value Type) Type { return DictType{Key: key, Value: value} }

func Function(returns Type, params ...Type) Type {
	return FunctionType{Params: params, Return: returns}
}

// Class returns a nominal class type with no member information attached.
func Class(name string) Type { return ClassType{ClassName: name} }
