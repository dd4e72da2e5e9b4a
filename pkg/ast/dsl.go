package ast

import "math/big"

// Identifier and literal helpers.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Int(value int64) *IntegerLiteral {
	return NewIntegerLiteral(big.NewInt(value))
}

func IntBig(value *big.Int) *IntegerLiteral {
	return NewIntegerLiteral(new(big.Int).Set(value))
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func None() *NoneLiteral {
	return NewNoneLiteral()
}

func List(elements ...Expression) *ListLiteral {
	return NewListLiteral(elements)
}

func Entry(key, value Expression) *DictEntry {
	return NewDictEntry(key, value)
}

func Dict(entries ...*DictEntry) *DictLiteral {
	return NewDictLiteral(entries)
}

// Type expression helpers.

func Ty(name string) *SimpleTypeExpression {
	return NewSimpleTypeExpression(ID(name))
}

func ListOf(element TypeExpression) *ListTypeExpression {
	return NewListTypeExpression(element)
}

func DictOf(key, value TypeExpression) *DictTypeExpression {
	return NewDictTypeExpression(key, value, true)
}

func DictOfBare(key, value TypeExpression) *DictTypeExpression {
	return NewDictTypeExpression(key, value, false)
}

// Expression helpers.

func Bin(op string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Neg(operand Expression) *UnaryExpression {
	return NewUnaryExpression(UnaryOperatorNegate, operand)
}

func Not(operand Expression) *UnaryExpression {
	return NewUnaryExpression(UnaryOperatorNot, operand)
}

func CallExpr(callee Expression, args ...Expression) *FunctionCall {
	return NewFunctionCall(callee, args)
}

func Call(name string, args ...Expression) *FunctionCall {
	return NewFunctionCall(ID(name), args)
}

func Member(object Expression, member string) *MemberAccessExpression {
	return NewMemberAccessExpression(object, ID(member))
}

func MethodCall(object Expression, method string, args ...Expression) *FunctionCall {
	return NewFunctionCall(Member(object, method), args)
}

func Index(object, index Expression) *IndexExpression {
	return NewIndexExpression(object, index)
}

// Statement helpers.

func Assign(target AssignmentTarget, value Expression) *AssignmentStatement {
	return NewAssignmentStatement(target, nil, value)
}

func AssignTyped(target AssignmentTarget, typ TypeExpression, value Expression) *AssignmentStatement {
	return NewAssignmentStatement(target, typ, value)
}

func Ret(argument Expression) *ReturnStatement {
	return NewReturnStatement(argument)
}

func Print(args ...Expression) *PrintStatement {
	return NewPrintStatement(args)
}

func Pass() *PassStatement {
	return NewPassStatement()
}

func Block(stmts ...Statement) []Statement {
	return stmts
}

func If(condition Expression, body ...Statement) *IfStatement {
	return NewIfStatement(condition, body, nil, nil)
}

func IfElse(condition Expression, body []Statement, elseBody []Statement) *IfStatement {
	return NewIfStatement(condition, body, nil, elseBody)
}

func IfChain(condition Expression, body []Statement, elifs []*ElifClause, elseBody []Statement) *IfStatement {
	return NewIfStatement(condition, body, elifs, elseBody)
}

func Elif(condition Expression, body ...Statement) *ElifClause {
	return NewElifClause(condition, body)
}

func While(condition Expression, body ...Statement) *WhileStatement {
	return NewWhileStatement(condition, body)
}

func For(target string, iterable Expression, body ...Statement) *ForStatement {
	return NewForStatement(ID(target), iterable, body)
}

// Definition helpers.

func Param(name string, typ TypeExpression) *Parameter {
	return NewParameter(ID(name), typ)
}

func Params(names ...string) []*Parameter {
	out := make([]*Parameter, len(names))
	for i, name := range names {
		out[i] = NewParameter(ID(name), nil)
	}
	return out
}

func Fn(name string, params []*Parameter, returnType TypeExpression, body ...Statement) *FunctionDefinition {
	return NewFunctionDefinition(ID(name), params, returnType, body, nil)
}

func NativeFn(name string, params []*Parameter, returnType TypeExpression, literal string) *FunctionDefinition {
	return NewFunctionDefinition(ID(name), params, returnType, nil, NewNativeBody(literal))
}

func Class(name string, body ...Statement) *ClassDefinition {
	return NewClassDefinition(ID(name), body)
}

func Mod(body ...Statement) *Module {
	return NewModule("", body)
}
