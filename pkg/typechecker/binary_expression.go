package typechecker

import (
	"apyc/checker-go/pkg/ast"
)

func (c *Checker) checkBinaryExpression(expr *ast.BinaryExpression) Type {
	left := c.checkExpression(expr.Left)
	right := c.checkExpression(expr.Right)

	switch expr.Operator {
	case "+":
		return c.checkAddition(expr, left, right)
	case "-", "/", "//":
		return c.checkArithmetic(expr, left, right)
	case "%":
		if isStrType(left) {
			return strType
		}
		// An untyped left operand may be a format string.
		if isAnyType(left) {
			return anyType
		}
		return c.checkArithmetic(expr, left, right)
	case "*":
		return c.checkMultiplication(expr, left, right)
	case "==", "!=":
		return boolType
	case "<", "<=", ">", ">=":
		if isAnyType(left) || isAnyType(right) ||
			(isIntType(left) && isIntType(right)) ||
			(isStrType(left) && isStrType(right)) {
			return boolType
		}
		c.mismatchedOperands(expr, left, right)
		return anyType
	case "in", "not in":
		c.checkMembership(expr, left, right)
		return boolType
	case "and", "or":
		return unifyTypes(left, right)
	default:
		c.sink.errorf(InvalidStatement, expr, "typechecker: unsupported binary operator %q", expr.Operator)
		return anyType
	}
}

func (c *Checker) mismatchedOperands(expr *ast.BinaryExpression, left, right Type) {
	c.sink.errorf(TypeMismatch, expr, "typechecker: unsupported operand types for %s: %s and %s", expr.Operator, typeName(left), typeName(right))
}

func isAddable(t Type) bool {
	return isIntType(t) || isStrType(t) || isListType(t)
}

// checkAddition infers `+`. An untyped operand takes the type of the typed
// one, which is how `x + 1` stays Int for an unannotated x.
func (c *Checker) checkAddition(expr *ast.BinaryExpression, left, right Type) Type {
	switch {
	case isAnyType(left) && isAnyType(right):
		return anyType
	case isAnyType(left):
		if isAddable(right) {
			return right
		}
		return anyType
	case isAnyType(right):
		if isAddable(left) {
			return left
		}
		return anyType
	case isIntType(left) && isIntType(right):
		return intType
	case isStrType(left) && isStrType(right):
		return strType
	case isListType(left) && isListType(right):
		return ListType{Element: unifyTypes(left.(ListType).Element, right.(ListType).Element)}
	}
	c.mismatchedOperands(expr, left, right)
	return anyType
}

func (c *Checker) checkArithmetic(expr *ast.BinaryExpression, left, right Type) Type {
	if (isAnyType(left) || isIntType(left)) && (isAnyType(right) || isIntType(right)) {
		return intType
	}
	if isAnyType(left) || isAnyType(right) {
		return anyType
	}
	c.mismatchedOperands(expr, left, right)
	return anyType
}

func (c *Checker) checkMultiplication(expr *ast.BinaryExpression, left, right Type) Type {
	repeatable := func(t Type) bool { return isStrType(t) || isListType(t) }
	switch {
	case isIntType(left) && isIntType(right):
		return intType
	case repeatable(left) && (isIntType(right) || isAnyType(right)):
		return left
	case repeatable(right) && (isIntType(left) || isAnyType(left)):
		return right
	case isAnyType(left) || isAnyType(right):
		return anyType
	}
	c.mismatchedOperands(expr, left, right)
	return anyType
}

// checkMembership checks the left operand of `in` against the element (list)
// or key (dict) type of the container.
func (c *Checker) checkMembership(expr *ast.BinaryExpression, item, container Type) {
	var want Type
	switch t := container.(type) {
	case AnyType:
		return
	case ListType:
		want = t.Element
	case DictType:
		want = t.Key
	default:
		if isStrType(container) {
			want = strType
			break
		}
		c.sink.errorf(TypeMismatch, expr.Right, "typechecker: %s is not a container", typeName(container))
		return
	}
	if !Compatible(want, item) {
		c.sink.errorf(TypeMismatch, expr.Left, "typechecker: %s cannot be a member of %s", typeName(item), typeName(container))
	}
}
