package typechecker

import (
	"apyc/checker-go/pkg/ast"
)

// checkExpression infers the type of expr and records it. Any diagnostic
// leaves Any (or the best known type) in place so checking can continue.
func (c *Checker) checkExpression(expr ast.Expression) Type {
	if expr == nil {
		return anyType
	}
	typ := orAny(c.inferExpression(expr))
	c.infer.set(expr, typ)
	return typ
}

func (c *Checker) inferExpression(expr ast.Expression) Type {
	switch e := expr.(type) {
	case *ast.Identifier:
		sym := c.res.bindings[e]
		if sym == nil {
			return anyType
		}
		if def := c.res.definitions[e]; def != nil {
			return c.functionSignature(def)
		}
		return c.symbolType(sym)
	case *ast.IntegerLiteral:
		return c.checkIntegerLiteral(e)
	case *ast.StringLiteral:
		return strType
	case *ast.BooleanLiteral:
		return boolType
	case *ast.NoneLiteral:
		return noneType
	case *ast.ListLiteral:
		elems := make([]Type, 0, len(e.Elements))
		for _, el := range e.Elements {
			elems = append(elems, c.checkExpression(el))
		}
		return ListType{Element: unifyAll(elems, anyType)}
	case *ast.DictLiteral:
		var keys, values []Type
		for _, entry := range e.Entries {
			if entry == nil {
				continue
			}
			keys = append(keys, c.checkExpression(entry.Key))
			values = append(values, c.checkExpression(entry.Value))
		}
		return DictType{Key: unifyAll(keys, anyType), Value: unifyAll(values, anyType)}
	case *ast.UnaryExpression:
		return c.checkUnaryExpression(e)
	case *ast.BinaryExpression:
		return c.checkBinaryExpression(e)
	case *ast.FunctionCall:
		return c.checkFunctionCall(e)
	case *ast.MemberAccessExpression:
		return c.checkMemberAccess(e)
	case *ast.IndexExpression:
		return c.checkIndexExpression(e)
	default:
		c.sink.errorf(InvalidStatement, expr, "typechecker: unsupported expression %T", expr)
		return anyType
	}
}

func (c *Checker) checkIntegerLiteral(lit *ast.IntegerLiteral) Type {
	if lit.Value == nil {
		c.sink.errorf(InvalidStatement, lit, "typechecker: integer literal missing value")
		return intType
	}
	if c.maxInt != nil && lit.Value.Cmp(c.maxInt) > 0 {
		c.sink.errorf(IntegerOutOfRange, lit, "typechecker: integer literal %s is greater than %s", lit.Value.String(), c.maxInt.String())
	}
	return intType
}

func (c *Checker) checkUnaryExpression(expr *ast.UnaryExpression) Type {
	operand := c.checkExpression(expr.Operand)
	switch expr.Operator {
	case ast.UnaryOperatorNot:
		return boolType
	case ast.UnaryOperatorNegate:
		if isAnyType(operand) || isIntType(operand) {
			return intType
		}
		c.sink.errorf(TypeMismatch, expr, "typechecker: bad operand type for unary -: %s", typeName(operand))
		return anyType
	default:
		c.sink.errorf(InvalidStatement, expr, "typechecker: unsupported unary operator %q", string(expr.Operator))
		return anyType
	}
}

func (c *Checker) checkFunctionCall(call *ast.FunctionCall) Type {
	calleeType := c.checkExpression(call.Callee)
	args := make([]Type, len(call.Arguments))
	for i, arg := range call.Arguments {
		args[i] = c.checkExpression(arg)
	}

	switch fn := calleeType.(type) {
	case FunctionType:
		name := calleeName(call.Callee)
		if fn.Open {
			return orAny(fn.Return)
		}
		if len(args) != len(fn.Params) {
			c.sink.errorf(ArityMismatch, call, "typechecker: %s expects %d arguments, got %d", name, len(fn.Params), len(args))
			return orAny(fn.Return)
		}
		for i, param := range fn.Params {
			if !Compatible(param, args[i]) {
				c.sink.errorf(TypeMismatch, call.Arguments[i], "typechecker: argument %d to %s has type %s, expected %s", i+1, name, typeName(args[i]), typeName(param))
			}
		}
		return orAny(fn.Return)
	case AnyType:
		return anyType
	default:
		c.sink.errorf(TypeMismatch, call.Callee, "typechecker: cannot call value of type %s", typeName(calleeType))
		return anyType
	}
}

func calleeName(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Name
	case *ast.MemberAccessExpression:
		if e.Member != nil {
			return e.Member.Name
		}
	}
	return "function"
}

func (c *Checker) checkIndexExpression(expr *ast.IndexExpression) Type {
	object := c.checkExpression(expr.Object)
	index := c.checkExpression(expr.Index)
	switch t := object.(type) {
	case AnyType:
		return anyType
	case DictType:
		if !Compatible(t.Key, index) {
			c.sink.errorf(TypeMismatch, expr.Index, "typechecker: dict key has type %s, expected %s", typeName(index), typeName(t.Key))
		}
		return orAny(t.Value)
	case ListType:
		if !Compatible(intType, index) {
			c.sink.errorf(TypeMismatch, expr.Index, "typechecker: list index has type %s, expected int", typeName(index))
		}
		return orAny(t.Element)
	}
	if isStrType(object) {
		if !Compatible(intType, index) {
			c.sink.errorf(TypeMismatch, expr.Index, "typechecker: string index has type %s, expected int", typeName(index))
		}
		return strType
	}
	c.sink.errorf(TypeMismatch, expr.Object, "typechecker: %s is not indexable", typeName(object))
	return anyType
}

func (c *Checker) checkIndexAssignment(target *ast.IndexExpression, value Type, stmt *ast.AssignmentStatement) {
	object := c.checkExpression(target.Object)
	index := c.checkExpression(target.Index)
	switch t := object.(type) {
	case DictType:
		if !Compatible(t.Key, index) {
			c.sink.errorf(TypeMismatch, target.Index, "typechecker: dict key has type %s, expected %s", typeName(index), typeName(t.Key))
		}
		if !Compatible(t.Value, value) {
			c.sink.errorf(TypeMismatch, stmt, "typechecker: cannot store %s in %s", typeName(value), typeName(object))
		}
		c.infer.set(target, orAny(t.Value))
	case ListType:
		if !Compatible(intType, index) {
			c.sink.errorf(TypeMismatch, target.Index, "typechecker: list index has type %s, expected int", typeName(index))
		}
		if !Compatible(t.Element, value) {
			c.sink.errorf(TypeMismatch, stmt, "typechecker: cannot store %s in %s", typeName(value), typeName(object))
		}
		c.infer.set(target, orAny(t.Element))
	case AnyType:
		c.infer.set(target, anyType)
	default:
		c.sink.errorf(TypeMismatch, target.Object, "typechecker: %s does not support item assignment", typeName(object))
		c.infer.set(target, anyType)
	}
}
