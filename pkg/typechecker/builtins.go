package typechecker

// Builtin describes a prelude function visible from every scope after the
// module's own bindings.
type Builtin struct {
	Name   string
	Params []Type
	Return Type
}

func defaultBuiltins() []Builtin {
	return []Builtin{
		{Name: "len", Params: []Type{anyType}, Return: intType},
		{Name: "str", Params: []Type{anyType}, Return: strType},
		{Name: "int", Params: []Type{anyType}, Return: intType},
		{Name: "bool", Params: []Type{anyType}, Return: boolType},
		{Name: "range", Params: []Type{intType}, Return: ListType{Element: intType}},
	}
}

// newBuiltinScope builds the prelude scope. Later entries replace earlier
// ones with the same name, so configured builtins may override the defaults.
func newBuiltinScope(extra []Builtin) *Scope {
	scope := NewScope(-1, ScopeModule, "builtins", nil, nil)
	byName := make(map[string]Builtin)
	var order []string
	for _, b := range append(defaultBuiltins(), extra...) {
		if b.Name == "" {
			continue
		}
		if _, seen := byName[b.Name]; !seen {
			order = append(order, b.Name)
		}
		byName[b.Name] = b
	}
	for _, name := range order {
		b := byName[name]
		params := make([]Type, len(b.Params))
		for i, p := range b.Params {
			params[i] = orAny(p)
		}
		fn := FunctionType{Params: params, Return: orAny(b.Return)}
		scope.Define(&Symbol{Name: name, Kind: SymbolFunction, Declared: fn, Inferred: fn})
	}
	scope.Seal()
	return scope
}
