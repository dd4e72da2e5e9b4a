package ast

// Statements

// AssignmentStatement covers `x = e`, `x::T = e`, `self.f = e` and `d[k] = e`.
type AssignmentStatement struct {
	nodeImpl
	statementMarker

	Target         AssignmentTarget `json:"target"`
	TypeAnnotation TypeExpression   `json:"typeAnnotation,omitempty"`
	Value          Expression       `json:"value"`
}

func NewAssignmentStatement(target AssignmentTarget, typeAnnotation TypeExpression, value Expression) *AssignmentStatement {
	return &AssignmentStatement{nodeImpl: newNodeImpl(NodeAssignmentStatement), Target: target, TypeAnnotation: typeAnnotation, Value: value}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument,omitempty"`
}

func NewReturnStatement(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

type PrintStatement struct {
	nodeImpl
	statementMarker

	Arguments []Expression `json:"arguments"`
}

func NewPrintStatement(args []Expression) *PrintStatement {
	return &PrintStatement{nodeImpl: newNodeImpl(NodePrintStatement), Arguments: args}
}

type PassStatement struct {
	nodeImpl
	statementMarker
}

func NewPassStatement() *PassStatement {
	return &PassStatement{nodeImpl: newNodeImpl(NodePassStatement)}
}

type ElifClause struct {
	nodeImpl

	Condition Expression  `json:"condition"`
	Body      []Statement `json:"body"`
}

func NewElifClause(condition Expression, body []Statement) *ElifClause {
	return &ElifClause{nodeImpl: newNodeImpl(NodeElifClause), Condition: condition, Body: body}
}

type IfStatement struct {
	nodeImpl
	statementMarker

	Condition   Expression    `json:"condition"`
	Body        []Statement   `json:"body"`
	ElifClauses []*ElifClause `json:"elifClauses,omitempty"`
	ElseBody    []Statement   `json:"elseBody,omitempty"`
}

func NewIfStatement(condition Expression, body []Statement, elifs []*ElifClause, elseBody []Statement) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Condition: condition, Body: body, ElifClauses: elifs, ElseBody: elseBody}
}

type WhileStatement struct {
	nodeImpl
	statementMarker

	Condition Expression  `json:"condition"`
	Body      []Statement `json:"body"`
}

func NewWhileStatement(condition Expression, body []Statement) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Condition: condition, Body: body}
}

type ForStatement struct {
	nodeImpl
	statementMarker

	Target   *Identifier `json:"target"`
	Iterable Expression  `json:"iterable"`
	Body     []Statement `json:"body"`
}

func NewForStatement(target *Identifier, iterable Expression, body []Statement) *ForStatement {
	return &ForStatement{nodeImpl: newNodeImpl(NodeForStatement), Target: target, Iterable: iterable, Body: body}
}

// Definitions

type Parameter struct {
	nodeImpl

	Name           *Identifier    `json:"name"`
	TypeAnnotation TypeExpression `json:"typeAnnotation,omitempty"`
}

func NewParameter(name *Identifier, typeAnnotation TypeExpression) *Parameter {
	return &Parameter{nodeImpl: newNodeImpl(NodeParameter), Name: name, TypeAnnotation: typeAnnotation}
}

// NativeBody replaces a function body with `native "literal"`.
type NativeBody struct {
	nodeImpl

	Literal string `json:"literal"`
}

func NewNativeBody(literal string) *NativeBody {
	return &NativeBody{nodeImpl: newNodeImpl(NodeNativeBody), Literal: literal}
}

type FunctionDefinition struct {
	nodeImpl
	statementMarker

	ID         *Identifier    `json:"id"`
	Params     []*Parameter   `json:"params"`
	ReturnType TypeExpression `json:"returnType,omitempty"`
	Body       []Statement    `json:"body,omitempty"`
	Native     *NativeBody    `json:"native,omitempty"`
}

func NewFunctionDefinition(id *Identifier, params []*Parameter, returnType TypeExpression, body []Statement, native *NativeBody) *FunctionDefinition {
	return &FunctionDefinition{nodeImpl: newNodeImpl(NodeFunctionDefinition), ID: id, Params: params, ReturnType: returnType, Body: body, Native: native}
}

// IsNative reports whether the body is an opaque native stub.
func (f *FunctionDefinition) IsNative() bool {
	return f != nil && f.Native != nil
}

type ClassDefinition struct {
	nodeImpl
	statementMarker

	ID   *Identifier `json:"id"`
	Body []Statement `json:"body"`
}

func NewClassDefinition(id *Identifier, body []Statement) *ClassDefinition {
	return &ClassDefinition{nodeImpl: newNodeImpl(NodeClassDefinition), ID: id, Body: body}
}

// Module root

type Module struct {
	nodeImpl

	Name string      `json:"name,omitempty"`
	Body []Statement `json:"body"`
}

func NewModule(name string, body []Statement) *Module {
	return &Module{nodeImpl: newNodeImpl(NodeModule), Name: name, Body: body}
}
