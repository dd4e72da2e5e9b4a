package typechecker

import (
	"apyc/checker-go/pkg/ast"
)

func classInstanceType(info *ClassInfo) Type {
	if info == nil {
		return anyType
	}
	return ClassType{ClassName: info.Name, info: info}
}

// resolveClass builds the class scope. Members are collected before any
// class-level statement is resolved: class variables and methods from the
// body, then instance fields from `self.<name> = ...` anywhere in the methods.
func (r *resolver) resolveClass(scope *Scope, cls *ast.ClassDefinition) {
	sym := r.declarations[cls]
	info := r.classes[cls]
	if sym == nil || info == nil {
		return
	}
	if cls.ID != nil {
		r.bindings[cls.ID] = sym
	}
	classScope := r.newScope(ScopeClass, info.Name, scope, cls)
	classScope.class = info
	info.Scope = classScope

	r.declareBlock(classScope, cls.Body)
	for _, method := range classMethods(cls.Body) {
		r.declareInstanceFields(classScope, method)
	}
	r.resolveStatements(classScope, cls.Body)
	classScope.Seal()
}

// classMethods lists the definitions that become methods of the class,
// including ones nested in class-level control flow.
func classMethods(body []ast.Statement) []*ast.FunctionDefinition {
	var out []*ast.FunctionDefinition
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.FunctionDefinition:
			out = append(out, s)
		case *ast.IfStatement:
			out = append(out, classMethods(s.Body)...)
			for _, clause := range s.ElifClauses {
				if clause != nil {
					out = append(out, classMethods(clause.Body)...)
				}
			}
			out = append(out, classMethods(s.ElseBody)...)
		case *ast.WhileStatement:
			out = append(out, classMethods(s.Body)...)
		case *ast.ForStatement:
			out = append(out, classMethods(s.Body)...)
		}
	}
	return out
}

func (r *resolver) declareInstanceFields(classScope *Scope, method *ast.FunctionDefinition) {
	if method.IsNative() {
		return
	}
	for _, stmt := range method.Body {
		ast.Inspect(stmt, func(n ast.Node) bool {
			switch node := n.(type) {
			case *ast.ClassDefinition:
				return false
			case *ast.AssignmentStatement:
				if member, ok := node.Target.(*ast.MemberAccessExpression); ok && isSelfReference(member.Object) {
					r.declareField(classScope, member, node)
				}
			}
			return true
		})
	}
}

func isSelfReference(expr ast.Expression) bool {
	id, ok := expr.(*ast.Identifier)
	return ok && id != nil && id.Name == "self"
}

func (r *resolver) declareField(classScope *Scope, member *ast.MemberAccessExpression, assign *ast.AssignmentStatement) {
	if member.Member == nil || member.Member.Name == "" {
		return
	}
	name := member.Member.Name
	sym, ok := classScope.LookupLocal(name)
	if ok {
		switch sym.Kind {
		case SymbolVariable, SymbolInstanceField:
		default:
			r.sink.errorf(Redeclaration, member, "typechecker: field %q conflicts with %s of class %s", name, sym.Kind, classScope.Name)
			return
		}
	} else {
		sym = &Symbol{Name: name, Kind: SymbolInstanceField, Node: assign}
		classScope.Define(sym)
	}
	if assign.TypeAnnotation != nil && sym.Declared == nil {
		sym.Declared = r.annotationType(classScope, assign.TypeAnnotation)
	}
}
