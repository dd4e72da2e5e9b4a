package typechecker

import (
	"apyc/checker-go/pkg/ast"
)

// resolver builds the scope tree and binds every identifier occurrence. Each
// scope is handled in two phases: all of its declarations are hoisted first,
// then its statements are resolved, so forward and recursive references bind.
type resolver struct {
	sink     *diagnosticSink
	builtins *Scope
	nextID   int

	module       *Scope
	bindings     map[*ast.Identifier]*Symbol
	scopes       map[ast.Node]*Scope
	declarations map[ast.Node]*Symbol
	classes      map[*ast.ClassDefinition]*ClassInfo
	annotations  map[ast.TypeExpression]Type
	order        map[ast.Node]int

	// definitions maps each occurrence of a function name to the def in
	// effect at that point of the source; current tracks it while resolving.
	definitions map[*ast.Identifier]*ast.FunctionDefinition
	current     map[*Symbol]*ast.FunctionDefinition
}

func newResolver(builtins *Scope) *resolver {
	return &resolver{
		builtins:     builtins,
		bindings:     make(map[*ast.Identifier]*Symbol),
		scopes:       make(map[ast.Node]*Scope),
		declarations: make(map[ast.Node]*Symbol),
		classes:      make(map[*ast.ClassDefinition]*ClassInfo),
		annotations:  make(map[ast.TypeExpression]Type),
		order:        make(map[ast.Node]int),
		definitions:  make(map[*ast.Identifier]*ast.FunctionDefinition),
		current:      make(map[*Symbol]*ast.FunctionDefinition),
	}
}

// indexNodes assigns preorder positions used to sort diagnostics.
func indexNodes(module *ast.Module) map[ast.Node]int {
	order := make(map[ast.Node]int)
	ast.Inspect(module, func(n ast.Node) bool {
		if _, seen := order[n]; !seen {
			order[n] = len(order)
		}
		return true
	})
	return order
}

func (r *resolver) resolveModule(module *ast.Module) *Scope {
	r.order = indexNodes(module)
	r.sink = newDiagnosticSink(r.order)
	name := module.Name
	if name == "" {
		name = "<module>"
	}
	scope := r.newScope(ScopeModule, name, nil, module)
	r.module = scope
	r.resolveBlock(scope, module.Body)
	scope.Seal()
	return scope
}

func (r *resolver) newScope(kind ScopeKind, name string, parent *Scope, node ast.Node) *Scope {
	scope := NewScope(r.nextID, kind, name, parent, node)
	r.nextID++
	if node != nil {
		r.scopes[node] = scope
	}
	return scope
}

func (r *resolver) resolveBlock(scope *Scope, stmts []ast.Statement) {
	r.declareBlock(scope, stmts)
	r.resolveStatements(scope, stmts)
}

// declareBlock hoists the names bound anywhere in stmts into scope. Bodies of
// nested definitions are left for their own scopes.
func (r *resolver) declareBlock(scope *Scope, stmts []ast.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDefinition:
			r.declareFunction(scope, s)
		case *ast.ClassDefinition:
			r.declareClass(scope, s)
		case *ast.AssignmentStatement:
			if id, ok := s.Target.(*ast.Identifier); ok && id != nil {
				r.declareVariable(scope, id, s)
			}
		case *ast.IfStatement:
			r.declareBlock(scope, s.Body)
			for _, clause := range s.ElifClauses {
				if clause != nil {
					r.declareBlock(scope, clause.Body)
				}
			}
			r.declareBlock(scope, s.ElseBody)
		case *ast.WhileStatement:
			r.declareBlock(scope, s.Body)
		case *ast.ForStatement:
			if s.Target != nil {
				r.declareVariable(scope, s.Target, s)
			}
			r.declareBlock(scope, s.Body)
		}
	}
}

func (r *resolver) declareVariable(scope *Scope, id *ast.Identifier, node ast.Node) {
	if id.Name == "self" && scope.Kind != ScopeMethod {
		r.sink.errorf(SelfOutsideMethod, id, "typechecker: cannot bind self outside of a method")
		return
	}
	if existing, ok := scope.LookupLocal(id.Name); ok {
		switch existing.Kind {
		case SymbolVariable, SymbolParameter:
		default:
			r.sink.errorf(Redeclaration, node, "typechecker: %q already declared as %s", id.Name, existing.Kind)
		}
		return
	}
	scope.Define(&Symbol{Name: id.Name, Kind: SymbolVariable, Node: node})
}

func (r *resolver) declareFunction(scope *Scope, def *ast.FunctionDefinition) {
	if def.ID == nil || def.ID.Name == "" {
		r.sink.errorf(InvalidStatement, def, "typechecker: function definition missing name")
		return
	}
	kind := SymbolFunction
	if scope.Kind == ScopeClass {
		kind = SymbolMethod
	}
	name := def.ID.Name
	if existing, ok := scope.LookupLocal(name); ok {
		if existing.Kind == kind {
			r.sink.warnf(Redeclaration, def, "typechecker: %s %q redefined", kind, name)
			existing.function = def
			existing.Node = def
			r.declarations[def] = existing
			return
		}
		r.sink.errorf(Redeclaration, def, "typechecker: %q already declared as %s", name, existing.Kind)
		r.declarations[def] = &Symbol{Name: name, Kind: kind, Scope: scope, Node: def, function: def}
		return
	}
	sym := &Symbol{Name: name, Kind: kind, Node: def, function: def}
	scope.Define(sym)
	r.declarations[def] = sym
	if kind == SymbolFunction {
		r.current[sym] = def
	}
}

func (r *resolver) declareClass(scope *Scope, cls *ast.ClassDefinition) {
	if cls.ID == nil || cls.ID.Name == "" {
		r.sink.errorf(InvalidStatement, cls, "typechecker: class definition missing name")
		return
	}
	name := cls.ID.Name
	info := &ClassInfo{Name: name}
	r.classes[cls] = info
	if existing, ok := scope.LookupLocal(name); ok {
		if existing.Kind == SymbolClass {
			r.sink.warnf(Redeclaration, cls, "typechecker: class %q redefined", name)
			existing.class = info
			existing.Node = cls
			info.Symbol = existing
			r.declarations[cls] = existing
			return
		}
		r.sink.errorf(Redeclaration, cls, "typechecker: %q already declared as %s", name, existing.Kind)
		sym := &Symbol{Name: name, Kind: SymbolClass, Scope: scope, Node: cls, class: info}
		info.Symbol = sym
		r.declarations[cls] = sym
		return
	}
	sym := &Symbol{Name: name, Kind: SymbolClass, Node: cls, class: info}
	info.Symbol = sym
	scope.Define(sym)
	r.declarations[cls] = sym
}

func (r *resolver) resolveStatements(scope *Scope, stmts []ast.Statement) {
	for _, stmt := range stmts {
		r.resolveStatement(scope, stmt)
	}
}

func (r *resolver) resolveStatement(scope *Scope, stmt ast.Statement) {
	switch s := stmt.(type) {
	case nil:
	case *ast.FunctionDefinition:
		r.resolveFunction(scope, s)
	case *ast.ClassDefinition:
		r.resolveClass(scope, s)
	case *ast.AssignmentStatement:
		r.resolveAssignment(scope, s)
	case *ast.ReturnStatement:
		r.resolveExpression(scope, s.Argument)
	case *ast.PrintStatement:
		for _, arg := range s.Arguments {
			r.resolveExpression(scope, arg)
		}
	case *ast.PassStatement:
	case *ast.IfStatement:
		r.resolveExpression(scope, s.Condition)
		r.resolveStatements(scope, s.Body)
		for _, clause := range s.ElifClauses {
			if clause == nil {
				continue
			}
			r.resolveExpression(scope, clause.Condition)
			r.resolveStatements(scope, clause.Body)
		}
		r.resolveStatements(scope, s.ElseBody)
	case *ast.WhileStatement:
		r.resolveExpression(scope, s.Condition)
		r.resolveStatements(scope, s.Body)
	case *ast.ForStatement:
		if s.Target != nil {
			if sym, ok := scope.LookupLocal(s.Target.Name); ok {
				r.bindings[s.Target] = sym
			}
		}
		r.resolveExpression(scope, s.Iterable)
		r.resolveStatements(scope, s.Body)
	case ast.Expression:
		r.resolveExpression(scope, s)
	}
}

func (r *resolver) resolveAssignment(scope *Scope, assign *ast.AssignmentStatement) {
	r.resolveExpression(scope, assign.Value)
	var declared Type
	if assign.TypeAnnotation != nil {
		declared = r.annotationType(scope, assign.TypeAnnotation)
	}
	switch target := assign.Target.(type) {
	case *ast.Identifier:
		sym, ok := scope.LookupLocal(target.Name)
		if !ok {
			return
		}
		r.bindings[target] = sym
		if declared != nil && sym.Declared == nil && sym.Kind == SymbolVariable {
			sym.Declared = declared
		}
	case *ast.MemberAccessExpression:
		r.resolveExpression(scope, target.Object)
	case *ast.IndexExpression:
		r.resolveExpression(scope, target.Object)
		r.resolveExpression(scope, target.Index)
	}
}

func (r *resolver) resolveFunction(scope *Scope, def *ast.FunctionDefinition) {
	sym := r.declarations[def]
	name := "<anonymous>"
	if def.ID != nil && def.ID.Name != "" {
		name = def.ID.Name
	}
	if sym == nil {
		sym = &Symbol{Name: name, Kind: SymbolFunction, Scope: scope, Node: def, function: def}
		r.declarations[def] = sym
	}
	if def.ID != nil {
		r.bindings[def.ID] = sym
	}
	if sym.Kind == SymbolFunction {
		r.current[sym] = def
	}

	kind := ScopeFunction
	var class *ClassInfo
	if scope.Kind == ScopeClass {
		kind = ScopeMethod
		class = scope.class
	}
	fnScope := r.newScope(kind, name, scope, def)
	for i, param := range def.Params {
		r.declareParameter(fnScope, class, i, param)
	}
	if kind == ScopeMethod && fnScope.self == nil {
		self := &Symbol{Name: "self", Kind: SymbolParameter, Node: def}
		self.Declared = classInstanceType(class)
		self.Inferred = self.Declared
		fnScope.Define(self)
		fnScope.self = self
	}
	if def.ReturnType != nil {
		r.annotationType(fnScope, def.ReturnType)
	}
	if !def.IsNative() {
		r.resolveBlock(fnScope, def.Body)
	}
	fnScope.Seal()
}

func (r *resolver) declareParameter(fnScope *Scope, class *ClassInfo, index int, param *ast.Parameter) {
	if param == nil || param.Name == nil || param.Name.Name == "" {
		r.sink.errorf(InvalidStatement, fnScope.Node, "typechecker: parameter %d missing name", index+1)
		return
	}
	name := param.Name.Name
	declared := r.annotationType(fnScope, param.TypeAnnotation)
	if name == "self" {
		switch {
		case fnScope.Kind == ScopeMethod && index == 0:
			self := &Symbol{Name: name, Kind: SymbolParameter, Node: param}
			self.Declared = classInstanceType(class)
			self.Inferred = self.Declared
			fnScope.Define(self)
			fnScope.self = self
			r.bindings[param.Name] = self
			r.declarations[param] = self
			return
		case fnScope.Kind != ScopeMethod:
			r.sink.errorf(SelfOutsideMethod, param, "typechecker: self parameter outside of a method")
		default:
			r.sink.errorf(Redeclaration, param, "typechecker: parameter self must come first")
			return
		}
	}
	sym := &Symbol{Name: name, Kind: SymbolParameter, Declared: declared, Inferred: orAny(declared), Node: param}
	if !fnScope.Define(sym) {
		r.sink.errorf(Redeclaration, param, "typechecker: duplicate parameter %q", name)
		return
	}
	r.bindings[param.Name] = sym
	r.declarations[param] = sym
}

func (r *resolver) resolveExpression(scope *Scope, expr ast.Expression) {
	switch e := expr.(type) {
	case nil:
	case *ast.Identifier:
		r.resolveName(scope, e)
	case *ast.ListLiteral:
		for _, el := range e.Elements {
			r.resolveExpression(scope, el)
		}
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			if entry == nil {
				continue
			}
			r.resolveExpression(scope, entry.Key)
			r.resolveExpression(scope, entry.Value)
		}
	case *ast.UnaryExpression:
		r.resolveExpression(scope, e.Operand)
	case *ast.BinaryExpression:
		r.resolveExpression(scope, e.Left)
		r.resolveExpression(scope, e.Right)
	case *ast.FunctionCall:
		r.resolveExpression(scope, e.Callee)
		for _, arg := range e.Arguments {
			r.resolveExpression(scope, arg)
		}
	case *ast.MemberAccessExpression:
		r.resolveExpression(scope, e.Object)
	case *ast.IndexExpression:
		r.resolveExpression(scope, e.Object)
		r.resolveExpression(scope, e.Index)
	}
}

func (r *resolver) resolveName(scope *Scope, id *ast.Identifier) {
	if sym, ok := r.lookup(scope, id.Name); ok {
		r.bindings[id] = sym
		if def := r.current[sym.Origin()]; def != nil {
			r.definitions[id] = def
		}
		return
	}
	if id.Name == "self" {
		r.sink.errorf(SelfOutsideMethod, id, "typechecker: self used outside of a method")
		return
	}
	r.sink.errorf(UnresolvedName, id, "typechecker: undefined name %q", id.Name)
}

// lookup searches the using scope, then its ancestors, then the builtins.
// Class scopes are only visible to statements directly in the class body. A
// name found in an enclosing function scope while resolving inside a function
// is captured through an alias symbol in the using scope.
func (r *resolver) lookup(scope *Scope, name string) (*Symbol, bool) {
	if sym, ok := scope.LookupLocal(name); ok {
		return sym, true
	}
	for cur := scope.Parent; cur != nil; cur = cur.Parent {
		if cur.Kind == ScopeClass {
			continue
		}
		sym, ok := cur.LookupLocal(name)
		if !ok {
			continue
		}
		if cur.Kind.isCallable() && scope.Kind.isCallable() {
			return r.capture(scope, sym), true
		}
		return sym, true
	}
	if r.builtins != nil {
		return r.builtins.LookupLocal(name)
	}
	return nil, false
}

func (r *resolver) capture(scope *Scope, sym *Symbol) *Symbol {
	origin := sym.Origin()
	alias := &Symbol{
		Name:          origin.Name,
		Kind:          origin.Kind,
		CaptureOrigin: origin,
		Node:          origin.Node,
	}
	if !scope.Define(alias) {
		return origin
	}
	return alias
}
