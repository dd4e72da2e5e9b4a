package typechecker

import (
	"apyc/checker-go/pkg/ast"
)

func (c *Checker) checkStatements(stmts []ast.Statement) {
	for _, stmt := range stmts {
		c.checkStatement(stmt)
	}
}

func (c *Checker) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case nil:
		return
	case *ast.FunctionDefinition:
		if _, ok := c.res.declarations[s]; ok {
			c.functionSignature(s)
		}
	case *ast.ClassDefinition:
		c.checkClass(s)
	case *ast.AssignmentStatement:
		c.checkAssignment(s)
	case *ast.ReturnStatement:
		c.checkReturn(s)
	case *ast.PrintStatement:
		for _, arg := range s.Arguments {
			c.checkExpression(arg)
		}
	case *ast.PassStatement:
	case *ast.IfStatement:
		c.checkIf(s)
	case *ast.WhileStatement:
		c.checkExpression(s.Condition)
		c.checkStatements(s.Body)
	case *ast.ForStatement:
		c.checkFor(s)
	case ast.Expression:
		c.checkExpression(s)
	default:
		c.sink.errorf(InvalidStatement, stmt, "typechecker: unsupported statement %T", stmt)
	}
}

func (c *Checker) checkClass(cls *ast.ClassDefinition) {
	if _, ok := c.res.classes[cls]; !ok {
		return
	}
	c.pushFrame(&checkFrame{kind: frameClass})
	c.checkStatements(cls.Body)
	c.popFrame()
}

func (c *Checker) checkIf(stmt *ast.IfStatement) {
	c.checkExpression(stmt.Condition)
	c.checkNarrowedBody(stmt.Condition, stmt.Body)
	for _, clause := range stmt.ElifClauses {
		if clause == nil {
			continue
		}
		c.checkExpression(clause.Condition)
		c.checkNarrowedBody(clause.Condition, clause.Body)
	}
	c.checkStatements(stmt.ElseBody)
}

func (c *Checker) checkNarrowedBody(cond ast.Expression, body []ast.Statement) {
	facts := c.narrowingFacts(cond)
	for sym := range facts {
		if c.rebinds(body, sym) {
			delete(facts, sym)
		}
	}
	if len(facts) == 0 {
		c.checkStatements(body)
		return
	}
	c.pushNarrowing(facts)
	c.checkStatements(body)
	c.popNarrowing()
}

// narrowingFacts recognizes `name == literal` (either operand order) and
// narrows an otherwise untyped name to the literal's type.
func (c *Checker) narrowingFacts(cond ast.Expression) map[*Symbol]Type {
	bin, ok := cond.(*ast.BinaryExpression)
	if !ok || bin.Operator != "==" {
		return nil
	}
	id, lit := asNameAndLiteral(bin.Left, bin.Right)
	if id == nil {
		id, lit = asNameAndLiteral(bin.Right, bin.Left)
	}
	if id == nil {
		return nil
	}
	sym := c.res.bindings[id]
	if sym == nil {
		return nil
	}
	origin := sym.Origin()
	if origin.Kind != SymbolVariable && origin.Kind != SymbolParameter {
		return nil
	}
	if !isAnyType(c.symbolType(sym)) {
		return nil
	}
	typ, ok := c.infer.get(lit)
	if !ok || isAnyType(typ) {
		return nil
	}
	return map[*Symbol]Type{origin: typ}
}

// rebinds reports whether any statement in body assigns to sym. A narrowed
// name that is reassigned in the branch keeps its untyped view.
func (c *Checker) rebinds(body []ast.Statement, sym *Symbol) bool {
	found := false
	for _, stmt := range body {
		ast.Inspect(stmt, func(n ast.Node) bool {
			if found {
				return false
			}
			var target *ast.Identifier
			switch s := n.(type) {
			case *ast.AssignmentStatement:
				target, _ = s.Target.(*ast.Identifier)
			case *ast.ForStatement:
				target = s.Target
			}
			if target != nil {
				if bound := c.res.bindings[target]; bound != nil && bound.Origin() == sym {
					found = true
				}
			}
			return !found
		})
	}
	return found
}

func asNameAndLiteral(a, b ast.Expression) (*ast.Identifier, ast.Expression) {
	id, ok := a.(*ast.Identifier)
	if !ok || id == nil {
		return nil, nil
	}
	if _, ok := b.(ast.Literal); !ok {
		return nil, nil
	}
	return id, b
}

func (c *Checker) checkFor(stmt *ast.ForStatement) {
	iterable := c.checkExpression(stmt.Iterable)
	var elem Type
	switch t := iterable.(type) {
	case ListType:
		elem = orAny(t.Element)
	case DictType:
		elem = orAny(t.Key)
	case AnyType:
		elem = anyType
	default:
		if isStrType(iterable) {
			elem = strType
		} else {
			c.sink.errorf(TypeMismatch, stmt.Iterable, "typechecker: cannot iterate over %s", typeName(iterable))
			elem = anyType
		}
	}
	if stmt.Target != nil {
		if sym := c.res.bindings[stmt.Target]; sym != nil {
			c.assignSymbol(sym, nil, elem, stmt.Target)
			c.infer.set(stmt.Target, c.symbolType(sym))
		}
	}
	c.checkStatements(stmt.Body)
}

func (c *Checker) checkReturn(stmt *ast.ReturnStatement) {
	var typ Type = noneType
	if stmt.Argument != nil {
		typ = c.checkExpression(stmt.Argument)
	}
	if !c.inFunction() {
		c.sink.errorf(InvalidStatement, stmt, "typechecker: return outside of a function")
		return
	}
	frame := c.currentFrame()
	if frame.declaredReturn != nil && !Compatible(frame.declaredReturn, typ) {
		var at ast.Node = stmt
		if stmt.Argument != nil {
			at = stmt.Argument
		}
		c.sink.errorf(TypeMismatch, at, "typechecker: return type %s is incompatible with declared %s", typeName(typ), typeName(frame.declaredReturn))
	}
	c.recordReturn(typ)
}

func (c *Checker) checkAssignment(stmt *ast.AssignmentStatement) {
	var value Type = anyType
	if stmt.Value == nil {
		c.sink.errorf(InvalidStatement, stmt, "typechecker: assignment missing value")
	} else {
		value = c.checkExpression(stmt.Value)
	}
	var annotated Type
	if stmt.TypeAnnotation != nil {
		annotated = orAny(c.res.annotations[stmt.TypeAnnotation])
	}

	switch target := stmt.Target.(type) {
	case *ast.Identifier:
		sym := c.res.bindings[target]
		if sym == nil {
			return
		}
		c.assignSymbol(sym, annotated, value, stmt)
		c.infer.set(target, c.symbolType(sym))
	case *ast.MemberAccessExpression:
		c.checkMemberAssignment(target, annotated, value, stmt)
	case *ast.IndexExpression:
		c.checkIndexAssignment(target, value, stmt)
	default:
		c.sink.errorf(InvalidStatement, stmt, "typechecker: unsupported assignment target %T", stmt.Target)
	}
}

// assignSymbol applies the write-once rule: the first assignment fixes an
// untyped symbol's type and later ones must be compatible with it.
func (c *Checker) assignSymbol(sym *Symbol, annotated, value Type, at ast.Node) {
	name := sym.Name
	switch sym.Kind {
	case SymbolFunction, SymbolMethod, SymbolClass:
		c.sink.errorf(TypeMismatch, at, "typechecker: cannot assign to %s %q", sym.Kind, name)
		return
	}
	if annotated != nil {
		if sym.Declared != nil && !TypesEqual(sym.Declared, annotated) {
			c.sink.errorf(TypeMismatch, at, "typechecker: %q annotated as %s, previously declared %s", name, typeName(annotated), typeName(sym.Declared))
		}
		if !Compatible(annotated, value) {
			c.sink.errorf(TypeMismatch, at, "typechecker: cannot assign %s to %q of type %s", typeName(value), name, typeName(annotated))
		}
		return
	}
	if sym.Declared != nil {
		if !Compatible(sym.Declared, value) {
			c.sink.errorf(TypeMismatch, at, "typechecker: cannot assign %s to %q of type %s", typeName(value), name, typeName(sym.Declared))
		}
		return
	}
	if sym.Inferred == nil {
		sym.Inferred = value
		return
	}
	if !isAnyType(sym.Inferred) && !Compatible(sym.Inferred, value) {
		c.sink.errorf(TypeMismatch, at, "typechecker: cannot assign %s to %q, already inferred as %s", typeName(value), name, typeName(sym.Inferred))
	}
}
