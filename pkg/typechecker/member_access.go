package typechecker

import (
	"apyc/checker-go/pkg/ast"
)

func (c *Checker) checkMemberAccess(expr *ast.MemberAccessExpression) Type {
	if expr.Member == nil || expr.Member.Name == "" {
		c.checkExpression(expr.Object)
		c.sink.errorf(InvalidStatement, expr, "typechecker: member access missing name")
		return anyType
	}
	if info := c.classReference(expr.Object); info != nil {
		c.checkExpression(expr.Object)
		return c.classMemberType(expr, info, false)
	}
	object := c.checkExpression(expr.Object)
	name := expr.Member.Name
	switch t := object.(type) {
	case ClassType:
		if t.info == nil {
			return anyType
		}
		return c.classMemberType(expr, t.info, true)
	case AnyType, ListType, DictType:
		return anyType
	}
	if isStrType(object) {
		return anyType
	}
	c.sink.errorf(UnknownMember, expr.Member, "typechecker: %s has no member %q", typeName(object), name)
	return anyType
}

// classReference returns the class when expr names a class directly, as in
// `Car.wheels`.
func (c *Checker) classReference(expr ast.Expression) *ClassInfo {
	id, ok := expr.(*ast.Identifier)
	if !ok {
		return nil
	}
	sym := c.res.bindings[id]
	if sym == nil || sym.Origin().Kind != SymbolClass {
		return nil
	}
	return sym.Class()
}

// classMemberType looks a member up in the class member map. Methods read
// through an instance are bound (self already supplied).
func (c *Checker) classMemberType(expr *ast.MemberAccessExpression, info *ClassInfo, viaInstance bool) Type {
	name := expr.Member.Name
	if info.Scope == nil {
		return anyType
	}
	sym, ok := info.Scope.LookupLocal(name)
	if !ok {
		c.sink.errorf(UnknownMember, expr.Member, "typechecker: class %s has no member %q", info.Name, name)
		return anyType
	}
	c.res.bindings[expr.Member] = sym
	var typ Type
	switch {
	case sym.Kind == SymbolMethod && sym.function != nil:
		if viaInstance {
			typ = c.boundMethodType(sym.function)
		} else {
			typ = c.functionSignature(sym.function)
		}
	default:
		typ = c.symbolType(sym)
	}
	c.infer.set(expr.Member, typ)
	return typ
}

func (c *Checker) checkMemberAssignment(target *ast.MemberAccessExpression, annotated, value Type, stmt *ast.AssignmentStatement) {
	if target.Member == nil || target.Member.Name == "" {
		c.checkExpression(target.Object)
		c.sink.errorf(InvalidStatement, target, "typechecker: member access missing name")
		return
	}
	name := target.Member.Name
	var info *ClassInfo
	if ref := c.classReference(target.Object); ref != nil {
		c.checkExpression(target.Object)
		info = ref
	} else {
		object := c.checkExpression(target.Object)
		switch t := object.(type) {
		case ClassType:
			info = t.info
		case AnyType:
			return
		default:
			c.sink.errorf(UnknownMember, target.Member, "typechecker: cannot set member %q on %s", name, typeName(object))
			return
		}
	}
	if info == nil || info.Scope == nil {
		return
	}
	sym, ok := info.Scope.LookupLocal(name)
	if !ok {
		c.sink.errorf(UnknownMember, target.Member, "typechecker: class %s has no member %q", info.Name, name)
		return
	}
	c.res.bindings[target.Member] = sym
	c.assignSymbol(sym, annotated, value, stmt)
	c.infer.set(target, c.symbolType(sym))
}
