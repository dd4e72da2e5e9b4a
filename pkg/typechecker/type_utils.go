package typechecker

// typeName returns a human-readable identifier for a type, tolerating nil.
func typeName(t Type) string {
	if t == nil {
		return "Any"
	}
	return t.Name()
}

func isAnyType(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(AnyType)
	return ok
}

func isNoneType(t Type) bool {
	_, ok := t.(NoneType)
	return ok
}

func isPrimitive(t Type, kind PrimitiveKind) bool {
	if prim, ok := t.(PrimitiveType); ok {
		return prim.Kind == kind
	}
	return false
}

func isIntType(t Type) bool  { return isPrimitive(t, PrimitiveInt) }
func isStrType(t Type) bool  { return isPrimitive(t, PrimitiveStr) }
func isBoolType(t Type) bool { return isPrimitive(t, PrimitiveBool) }

func isListType(t Type) bool {
	_, ok := t.(ListType)
	return ok
}

// orAny substitutes Any for a missing type.
func orAny(t Type) Type {
	if t == nil {
		return anyType
	}
	return t
}

// TypesEqual reports structural equality. Class types compare by name.
func TypesEqual(a, b Type) bool {
	a, b = orAny(a), orAny(b)
	switch x := a.(type) {
	case AnyType:
		_, ok := b.(AnyType)
		return ok
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case PrimitiveType:
		y, ok := b.(PrimitiveType)
		return ok && x.Kind == y.Kind
	case ListType:
		y, ok := b.(ListType)
		return ok && TypesEqual(x.Element, y.Element)
	case DictType:
		y, ok := b.(DictType)
		return ok && TypesEqual(x.Key, y.Key) && TypesEqual(x.Value, y.Value)
	case FunctionType:
		y, ok := b.(FunctionType)
		if !ok || x.Open != y.Open || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !TypesEqual(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return TypesEqual(x.Return, y.Return)
	case ClassType:
		y, ok := b.(ClassType)
		return ok && x.ClassName == y.ClassName
	default:
		return false
	}
}

// Compatible reports whether a value of type actual may flow where expected
// is required. Any is absorbing on both sides; functions are contravariant in
// their parameters and covariant in their result; classes are nominal.
func Compatible(expected, actual Type) bool {
	if isAnyType(expected) || isAnyType(actual) {
		return true
	}
	switch exp := expected.(type) {
	case ListType:
		act, ok := actual.(ListType)
		return ok && Compatible(exp.Element, act.Element)
	case DictType:
		act, ok := actual.(DictType)
		return ok && Compatible(exp.Key, act.Key) && Compatible(exp.Value, act.Value)
	case FunctionType:
		act, ok := actual.(FunctionType)
		if !ok {
			return false
		}
		if exp.Open || act.Open {
			return Compatible(exp.Return, act.Return)
		}
		if len(exp.Params) != len(act.Params) {
			return false
		}
		for i := range exp.Params {
			if !Compatible(act.Params[i], exp.Params[i]) {
				return false
			}
		}
		return Compatible(exp.Return, act.Return)
	case ClassType:
		act, ok := actual.(ClassType)
		return ok && exp.ClassName == act.ClassName
	default:
		return TypesEqual(expected, actual)
	}
}

// unifyTypes joins two inferred types into the narrowest type compatible
// with both. Any yields the other side; conflicts collapse to Any.
func unifyTypes(a, b Type) Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if isAnyType(a) {
		return b
	}
	if isAnyType(b) {
		return a
	}
	if TypesEqual(a, b) {
		return a
	}
	switch x := a.(type) {
	case ListType:
		if y, ok := b.(ListType); ok {
			return ListType{Element: unifyTypes(x.Element, y.Element)}
		}
	case DictType:
		if y, ok := b.(DictType); ok {
			return DictType{Key: unifyTypes(x.Key, y.Key), Value: unifyTypes(x.Value, y.Value)}
		}
	case FunctionType:
		if y, ok := b.(FunctionType); ok && len(x.Params) == len(y.Params) {
			params := make([]Type, len(x.Params))
			for i := range x.Params {
				params[i] = unifyTypes(x.Params[i], y.Params[i])
			}
			return FunctionType{Params: params, Return: unifyTypes(x.Return, y.Return), Open: x.Open && y.Open}
		}
	}
	return anyType
}

// unifyAll folds unifyTypes over a list, returning fallback when empty.
func unifyAll(types []Type, fallback Type) Type {
	var out Type
	for _, t := range types {
		out = unifyTypes(out, t)
	}
	if out == nil {
		return fallback
	}
	return out
}
