package driver

import (
	"errors"
	"testing"

	"apyc/checker-go/pkg/ast"
)

const incrModuleJSON = `{
  "type": "Module",
  "name": "incr",
  "body": [
    {
      "type": "FunctionDefinition",
      "id": "incr",
      "params": [{"type": "Parameter", "name": "x", "typeAnnotation": "int"}],
      "returnType": "int",
      "span": {"line": 1, "column": 1},
      "body": [
        {"type": "ReturnStatement", "argument": {
          "type": "BinaryExpression", "operator": "+",
          "left": {"type": "Identifier", "name": "x"},
          "right": {"type": "IntegerLiteral", "value": 1}
        }}
      ]
    },
    {"type": "PrintStatement", "arguments": [
      {"type": "FunctionCall", "callee": {"type": "Identifier", "name": "incr"},
       "arguments": [{"type": "IntegerLiteral", "value": 3}]}
    ]}
  ]
}`

func TestDecodeModuleFunction(t *testing.T) {
	mod, err := DecodeModule([]byte(incrModuleJSON))
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if mod.Name != "incr" || len(mod.Body) != 2 {
		t.Fatalf("unexpected module %q with %d statements", mod.Name, len(mod.Body))
	}
	fn, ok := mod.Body[0].(*ast.FunctionDefinition)
	if !ok {
		t.Fatalf("expected function definition, got %T", mod.Body[0])
	}
	if fn.ID.Name != "incr" || len(fn.Params) != 1 || fn.Params[0].Name.Name != "x" {
		t.Fatalf("unexpected signature %+v", fn)
	}
	if got := ast.FormatTypeExpression(fn.ReturnType); got != "int" {
		t.Fatalf("return annotation = %q, want int", got)
	}
	if got := fn.Span().String(); got != "1:1" {
		t.Fatalf("span = %q, want 1:1", got)
	}
	ret, ok := fn.Body[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected return, got %T", fn.Body[0])
	}
	bin, ok := ret.Argument.(*ast.BinaryExpression)
	if !ok || bin.Operator != "+" {
		t.Fatalf("expected + expression, got %#v", ret.Argument)
	}
}

func TestDecodeModuleKeepsLargeIntegers(t *testing.T) {
	data := `{"type": "Module", "body": [
	  {"type": "AssignmentStatement",
	   "target": {"type": "Identifier", "name": "big"},
	   "value": {"type": "IntegerLiteral", "value": 1073741825000000000000}}
	]}`
	mod, err := DecodeModule([]byte(data))
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	assign := mod.Body[0].(*ast.AssignmentStatement)
	lit := assign.Value.(*ast.IntegerLiteral)
	if got := lit.Value.String(); got != "1073741825000000000000" {
		t.Fatalf("integer = %s", got)
	}
}

func TestDecodeModuleClassAndAnnotations(t *testing.T) {
	data := `{"type": "Module", "body": [
	  {"type": "ClassDefinition", "id": "Car", "body": [
	    {"type": "FunctionDefinition", "id": "park", "params": ["self"],
	     "body": [{"type": "ReturnStatement", "argument": {"type": "StringLiteral", "value": "vroom"}}]}
	  ]},
	  {"type": "AssignmentStatement",
	   "target": {"type": "Identifier", "name": "d"},
	   "typeAnnotation": {"type": "DictTypeExpression",
	     "key": {"type": "SimpleTypeExpression", "name": "str"},
	     "value": "list of int", "bracketed": true},
	   "value": {"type": "DictLiteral", "entries": []}},
	  {"type": "FunctionDefinition", "id": "f", "params": [], "native": "f_impl"}
	]}`
	mod, err := DecodeModule([]byte(data))
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	class := mod.Body[0].(*ast.ClassDefinition)
	method := class.Body[0].(*ast.FunctionDefinition)
	if method.Params[0].Name.Name != "self" {
		t.Fatalf("expected self parameter, got %+v", method.Params)
	}
	assign := mod.Body[1].(*ast.AssignmentStatement)
	if got := ast.FormatTypeExpression(assign.TypeAnnotation); got != "dict of [str, list of int]" {
		t.Fatalf("annotation = %q", got)
	}
	native := mod.Body[2].(*ast.FunctionDefinition)
	if !native.IsNative() || native.Native.Literal != "f_impl" {
		t.Fatalf("expected native body, got %+v", native.Native)
	}
}

func TestDecodeModuleIfChainAndLoops(t *testing.T) {
	data := `{"type": "Module", "body": [
	  {"type": "IfStatement",
	   "condition": {"type": "BooleanLiteral", "value": true},
	   "body": [{"type": "PassStatement"}],
	   "elifClauses": [{"type": "ElifClause", "condition": {"type": "NoneLiteral"}, "body": [{"type": "PassStatement"}]}],
	   "elseBody": [{"type": "PassStatement"}]},
	  {"type": "ForStatement", "target": "i",
	   "iterable": {"type": "ListLiteral", "elements": [{"type": "IntegerLiteral", "value": "7"}]},
	   "body": [{"type": "PassStatement"}]},
	  {"type": "WhileStatement", "condition": {"type": "UnaryExpression", "operator": "not",
	     "operand": {"type": "BooleanLiteral", "value": false}},
	   "body": [{"type": "AssignmentStatement",
	     "target": {"type": "IndexExpression", "object": {"type": "Identifier", "name": "xs"},
	                "index": {"type": "IntegerLiteral", "value": 0}},
	     "value": {"type": "MemberAccessExpression", "object": {"type": "Identifier", "name": "o"}, "member": "f"}}]}
	]}`
	mod, err := DecodeModule([]byte(data))
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	ifStmt := mod.Body[0].(*ast.IfStatement)
	if len(ifStmt.ElifClauses) != 1 || len(ifStmt.ElseBody) != 1 {
		t.Fatalf("unexpected if shape %+v", ifStmt)
	}
	loop := mod.Body[1].(*ast.ForStatement)
	if loop.Target.Name != "i" {
		t.Fatalf("for target = %q", loop.Target.Name)
	}
	elem := loop.Iterable.(*ast.ListLiteral).Elements[0].(*ast.IntegerLiteral)
	if elem.Value.Int64() != 7 {
		t.Fatalf("string encoded integer decoded as %s", elem.Value)
	}
	while := mod.Body[2].(*ast.WhileStatement)
	assign := while.Body[0].(*ast.AssignmentStatement)
	if _, ok := assign.Target.(*ast.IndexExpression); !ok {
		t.Fatalf("expected index target, got %T", assign.Target)
	}
	if member := assign.Value.(*ast.MemberAccessExpression); member.Member.Name != "f" {
		t.Fatalf("member = %q", member.Member.Name)
	}
}

func TestDecodeModuleErrors(t *testing.T) {
	cases := map[string]string{
		"unknown node":    `{"type": "Module", "body": [{"type": "LambdaExpression"}]}`,
		"not a module":    `{"type": "PassStatement"}`,
		"bad target":      `{"type": "Module", "body": [{"type": "AssignmentStatement", "target": {"type": "IntegerLiteral", "value": 1}, "value": {"type": "NoneLiteral"}}]}`,
		"bad annotation":  `{"type": "Module", "body": [{"type": "AssignmentStatement", "target": {"type": "Identifier", "name": "x"}, "typeAnnotation": "list of", "value": {"type": "NoneLiteral"}}]}`,
		"expression stmt": `{"type": "Module", "body": [{"type": "DictEntry", "key": {"type": "NoneLiteral"}, "value": {"type": "NoneLiteral"}}]}`,
		"invalid json":    `{"type": "Module", "body": [`,
		"missing operand": `{"type": "Module", "body": [{"type": "UnaryExpression", "operator": "-"}]}`,
		"invalid integer": `{"type": "Module", "body": [{"type": "IntegerLiteral", "value": "12a"}]}`,
	}
	for name, data := range cases {
		if _, err := DecodeModule([]byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	_, err := DecodeModule([]byte(`{"type": "Module", "body": [{"type": "YieldStatement"}]}`))
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
}
