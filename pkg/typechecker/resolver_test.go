package typechecker

import (
	"testing"

	"apyc/checker-go/pkg/ast"
)

func TestForwardReferenceBetweenSiblings(t *testing.T) {
	useLater := ast.ID("later")
	first := ast.Fn("first", nil, nil, ast.Ret(ast.CallExpr(useLater)))
	later := ast.Fn("later", nil, nil, ast.Ret(ast.Int(1)))
	call := ast.Call("first")
	result := checkModule(t, ast.Mod(first, later, call))

	expectNoDiagnostics(t, result)
	if result.Bindings[useLater] != moduleSymbol(t, result, "later") {
		t.Fatalf("expected forward reference to bind to later")
	}
	expectType(t, result, call, Int())
}

func TestUnresolvedNameContinues(t *testing.T) {
	missing := ast.ID("nowhere")
	other := ast.ID("also_missing")
	result := checkModule(t, ast.Mod(
		ast.Assign(ast.ID("a"), missing),
		ast.Fn("f", nil, nil, ast.Ret(other)),
	))
	if len(result.Diagnostics) != 2 {
		t.Fatalf("expected two diagnostics, got %v", result.Diagnostics)
	}
	if result.Diagnostics[0].Node != missing || result.Diagnostics[1].Node != other {
		t.Fatalf("expected diagnostics in traversal order, got %v", result.Diagnostics)
	}
	for _, diag := range result.Diagnostics {
		if diag.Kind != UnresolvedName {
			t.Fatalf("expected UnresolvedName, got %v", diag)
		}
	}
	if !isAnyType(moduleSymbol(t, result, "a").Inferred) {
		t.Fatalf("expected unresolved value to leave a untyped")
	}
}

func TestSelfOutsideMethod(t *testing.T) {
	selfUse := ast.ID("self")
	selfParam := ast.Param("self", nil)
	result := checkModule(t, ast.Mod(
		ast.Print(selfUse),
		ast.Fn("helper", []*ast.Parameter{selfParam}, nil, ast.Ret(ast.ID("self"))),
	))
	if len(result.Diagnostics) != 2 {
		t.Fatalf("expected two diagnostics, got %v", result.Diagnostics)
	}
	if d := result.Diagnostics[0]; d.Kind != SelfOutsideMethod || d.Node != selfUse {
		t.Fatalf("expected self use to be rejected, got %v", d)
	}
	if d := result.Diagnostics[1]; d.Kind != SelfOutsideMethod || d.Node != selfParam {
		t.Fatalf("expected self parameter to be rejected, got %v", d)
	}
}

func TestImplicitSelfInMethodScope(t *testing.T) {
	selfUse := ast.ID("self")
	method := ast.Fn("name", nil, nil, ast.Ret(ast.Member(selfUse, "label")))
	class := ast.Class("Tag",
		ast.Assign(ast.ID("label"), ast.Str("x")),
		method,
	)
	call := ast.MethodCall(ast.Call("Tag"), "name")
	result := checkModule(t, ast.Mod(class, call))

	expectNoDiagnostics(t, result)
	scope := result.ScopeOf(method)
	if scope.Kind != ScopeMethod || scope.Self() == nil {
		t.Fatalf("expected method scope with implicit self")
	}
	if result.Bindings[selfUse] != scope.Self() {
		t.Fatalf("expected self to bind to the implicit parameter")
	}
	expectType(t, result, call, Str())
}

func TestRedeclarationWithConflictingKind(t *testing.T) {
	clash := ast.Fn("value", nil, nil, ast.Ret(ast.Int(1)))
	result := checkModule(t, ast.Mod(
		ast.Assign(ast.ID("value"), ast.Int(1)),
		clash,
	))
	diag := expectDiagnostic(t, result, Redeclaration, "already declared as variable")
	if diag.Node != clash || !diag.IsError() {
		t.Fatalf("expected error on the function definition, got %v", diag)
	}
	if !result.Failed() {
		t.Fatalf("expected unit to fail")
	}
}

func TestFunctionRedefinitionIsWarning(t *testing.T) {
	first := ast.NativeFn("hello", nil, nil, "stringliteral")
	second := ast.NativeFn("hello", nil, nil, "stringliteral")
	result := checkModule(t, ast.Mod(first, second))

	if len(result.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %v", result.Diagnostics)
	}
	diag := result.Diagnostics[0]
	if diag.Kind != Redeclaration || diag.Severity != SeverityWarning || diag.Node != second {
		t.Fatalf("expected redefinition warning, got %v", diag)
	}
	if result.Failed() {
		t.Fatalf("warnings alone must not fail the unit")
	}
	if result.ScopeOf(first) == nil || result.ScopeOf(second) == nil {
		t.Fatalf("expected both definitions to get scopes")
	}
	if moduleSymbol(t, result, "hello").Definition() != second {
		t.Fatalf("expected the last definition to win")
	}

	strict := checkModule(t, ast.Mod(
		ast.NativeFn("hello", nil, nil, "a"),
		ast.NativeFn("hello", nil, nil, "b"),
	), WithWarningsAsErrors(true))
	if !strict.Failed() {
		t.Fatalf("expected warnings to fail the unit when promoted")
	}
}

func TestDuplicateParameter(t *testing.T) {
	dup := ast.Param("a", nil)
	result := checkModule(t, ast.Mod(
		ast.Fn("pair", []*ast.Parameter{ast.Param("a", nil), dup}, nil, ast.Ret(ast.ID("a"))),
	))
	diag := expectDiagnostic(t, result, Redeclaration, "duplicate parameter")
	if diag.Node != dup {
		t.Fatalf("expected diagnostic on the second parameter")
	}
}

func TestInstanceFieldsFromNestedBranches(t *testing.T) {
	initFn := ast.Fn("__init__", []*ast.Parameter{ast.Param("self", nil), ast.Param("fast", nil)}, nil,
		ast.Assign(ast.Member(ast.ID("self"), "wheels"), ast.Int(4)),
		ast.IfElse(ast.ID("fast"),
			ast.Block(ast.Assign(ast.Member(ast.ID("self"), "speed"), ast.Int(200))),
			ast.Block(ast.Pass()),
		),
	)
	speedRead := ast.Member(ast.ID("self"), "speed")
	report := ast.Fn("report", ast.Params("self"), nil, ast.Ret(speedRead))
	class := ast.Class("Car", initFn, report)
	ctor := ast.Call("Car", ast.Bool(true))
	result := checkModule(t, ast.Mod(class, ast.Assign(ast.ID("c"), ctor)))

	expectNoDiagnostics(t, result)
	info := moduleSymbol(t, result, "Car").Class()
	names := info.MemberNames()
	want := []string{"__init__", "report", "speed", "wheels"}
	if len(names) != len(want) {
		t.Fatalf("expected members %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected members %v, got %v", want, names)
		}
	}
	speed, _ := info.Scope.LookupLocal("speed")
	if speed.Kind != SymbolInstanceField || !TypesEqual(speed.Inferred, Int()) {
		t.Fatalf("expected speed to be an int field, got %v", speed)
	}
	expectType(t, result, speedRead, Int())
	expectType(t, result, ctor, Class("Car"))
}

func TestFieldNamedLikeMethodConflicts(t *testing.T) {
	target := ast.Member(ast.ID("self"), "park")
	class := ast.Class("Car",
		ast.Fn("park", ast.Params("self"), nil, ast.Ret(ast.Str("ok"))),
		ast.Fn("reset", ast.Params("self"), nil, ast.Assign(target, ast.Int(0))),
	)
	result := checkModule(t, ast.Mod(class))
	diag := expectDiagnostic(t, result, Redeclaration, "conflicts with method")
	if diag.Node != target {
		t.Fatalf("expected diagnostic on the field target")
	}
}

func TestClassScopeIsNotVisibleFromMethods(t *testing.T) {
	bare := ast.ID("counter")
	class := ast.Class("Box",
		ast.Assign(ast.ID("counter"), ast.Int(0)),
		ast.Fn("peek", ast.Params("self"), nil, ast.Ret(bare)),
	)
	result := checkModule(t, ast.Mod(class))
	diag := expectDiagnostic(t, result, UnresolvedName, "counter")
	if diag.Node != bare {
		t.Fatalf("expected unresolved counter inside the method")
	}
}

func TestModuleNamesAreNotCaptured(t *testing.T) {
	use := ast.ID("limit")
	fn := ast.Fn("check", nil, nil, ast.Ret(use))
	result := checkModule(t, ast.Mod(ast.Assign(ast.ID("limit"), ast.Int(3)), fn))

	expectNoDiagnostics(t, result)
	sym := result.Bindings[use]
	if sym != moduleSymbol(t, result, "limit") || sym.IsCapture() {
		t.Fatalf("expected a plain global binding, got %v", sym)
	}
	if _, ok := result.ScopeOf(fn).LookupLocal("limit"); ok {
		t.Fatalf("global lookups must not add aliases")
	}
}

func TestNestedCaptureRecordsDeclaringSymbol(t *testing.T) {
	use := ast.ID("base")
	innermost := ast.Fn("c", nil, nil, ast.Ret(use))
	middle := ast.Fn("b", nil, nil, innermost, ast.Ret(ast.CallExpr(ast.ID("c"))))
	outer := ast.Fn("a", []*ast.Parameter{ast.Param("base", ast.Ty("str"))}, nil, middle, ast.Ret(ast.CallExpr(ast.ID("b"))))
	call := ast.Call("a", ast.Str("x"))
	result := checkModule(t, ast.Mod(outer, call))

	expectNoDiagnostics(t, result)
	param, _ := result.ScopeOf(outer).LookupLocal("base")
	if got := result.Bindings[use].CaptureOrigin; got != param {
		t.Fatalf("expected capture origin to be a's parameter, got %v", got)
	}
	expectType(t, result, call, Str())
}

func TestScopeTreeShape(t *testing.T) {
	method := ast.Fn("m", ast.Params("self"), nil, ast.Pass())
	class := ast.Class("K", method)
	inner := ast.Fn("inner", nil, nil, ast.Pass())
	outer := ast.Fn("outer", nil, nil, inner)
	result := checkModule(t, ast.Mod(class, outer))

	root := result.Module
	if root.Kind != ScopeModule || root.Parent != nil || len(root.Children) != 2 {
		t.Fatalf("unexpected module scope %v", root.Dump())
	}
	if result.ScopeOf(class).Kind != ScopeClass || result.ScopeOf(method).Kind != ScopeMethod {
		t.Fatalf("expected class and method scopes")
	}
	if result.ScopeOf(inner).Parent != result.ScopeOf(outer) {
		t.Fatalf("expected inner to nest under outer")
	}
	root.Walk(func(s *Scope) {
		if !s.Sealed() {
			t.Fatalf("scope %s left unsealed", s.Name)
		}
	})
	if root.Define(&Symbol{Name: "late"}) {
		t.Fatalf("sealed scope accepted a definition")
	}
}
