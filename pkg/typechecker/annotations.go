package typechecker

import (
	"fmt"

	"apyc/checker-go/pkg/ast"
)

// primitiveAnnotation maps the builtin annotation names to types. Bare
// `list` and `dict` stand for containers of Any.
func primitiveAnnotation(name string) (Type, bool) {
	switch name {
	case "int":
		return intType, true
	case "str":
		return strType, true
	case "bool":
		return boolType, true
	case "None":
		return noneType, true
	case "list":
		return ListType{Element: anyType}, true
	case "dict":
		return DictType{Key: anyType, Value: anyType}, true
	default:
		return nil, false
	}
}

// TypeFromAnnotation converts an annotation that does not mention classes.
// It is used for signatures supplied outside of a module, such as builtins
// from configuration.
func TypeFromAnnotation(expr ast.TypeExpression) (Type, error) {
	switch t := expr.(type) {
	case nil:
		return anyType, nil
	case *ast.SimpleTypeExpression:
		if t.Name == nil {
			return nil, fmt.Errorf("typechecker: annotation missing name")
		}
		if typ, ok := primitiveAnnotation(t.Name.Name); ok {
			return typ, nil
		}
		return nil, fmt.Errorf("typechecker: unknown type %q", t.Name.Name)
	case *ast.ListTypeExpression:
		elem, err := TypeFromAnnotation(t.Element)
		if err != nil {
			return nil, err
		}
		return ListType{Element: elem}, nil
	case *ast.DictTypeExpression:
		key, err := TypeFromAnnotation(t.Key)
		if err != nil {
			return nil, err
		}
		value, err := TypeFromAnnotation(t.Value)
		if err != nil {
			return nil, err
		}
		return DictType{Key: key, Value: value}, nil
	default:
		return nil, fmt.Errorf("typechecker: unsupported annotation %T", expr)
	}
}

// annotationType converts an annotation written inside scope. Class names are
// looked up through the enclosing scopes; the resulting ClassType shares the
// class's ClassInfo, whose members may still be filling in.
func (r *resolver) annotationType(scope *Scope, expr ast.TypeExpression) Type {
	if expr == nil {
		return nil
	}
	if typ, ok := r.annotations[expr]; ok {
		return typ
	}
	typ := r.convertAnnotation(scope, expr)
	r.annotations[expr] = typ
	return typ
}

func (r *resolver) convertAnnotation(scope *Scope, expr ast.TypeExpression) Type {
	switch t := expr.(type) {
	case *ast.SimpleTypeExpression:
		if t.Name == nil {
			r.sink.errorf(InvalidStatement, t, "typechecker: annotation missing name")
			return anyType
		}
		if typ, ok := primitiveAnnotation(t.Name.Name); ok {
			return typ
		}
		if sym, ok := r.lookupType(scope, t.Name.Name); ok {
			r.bindings[t.Name] = sym
			return ClassType{ClassName: sym.Name, info: sym.class}
		}
		r.sink.errorf(UnresolvedName, t.Name, "typechecker: unknown type %q", t.Name.Name)
		return anyType
	case *ast.ListTypeExpression:
		return ListType{Element: orAny(r.annotationType(scope, t.Element))}
	case *ast.DictTypeExpression:
		return DictType{
			Key:   orAny(r.annotationType(scope, t.Key)),
			Value: orAny(r.annotationType(scope, t.Value)),
		}
	default:
		r.sink.errorf(InvalidStatement, expr, "typechecker: unsupported annotation %T", expr)
		return anyType
	}
}

func (r *resolver) lookupType(scope *Scope, name string) (*Symbol, bool) {
	sym, ok := scope.Lookup(name)
	if !ok || sym.Kind != SymbolClass {
		return nil, false
	}
	return sym, true
}
