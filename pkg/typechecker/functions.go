package typechecker

import (
	"apyc/checker-go/pkg/ast"
	"apyc/checker-go/pkg/logger"
)

type inferStatus int

const (
	inferInProgress inferStatus = iota
	inferDone
)

type functionState struct {
	status         inferStatus
	params         []Type
	declaredReturn Type
	typ            FunctionType
}

// functionSignature returns the full signature of def, inferring its body the
// first time it is needed. While the body is being inferred (recursion) the
// return type is the declared one, or Any.
func (c *Checker) functionSignature(def *ast.FunctionDefinition) FunctionType {
	if state, ok := c.functions[def]; ok {
		if state.status == inferDone {
			return state.typ
		}
		return FunctionType{Params: state.params, Return: orAny(state.declaredReturn)}
	}
	return c.inferFunction(def)
}

func (c *Checker) inferFunction(def *ast.FunctionDefinition) FunctionType {
	state := &functionState{status: inferInProgress}
	c.functions[def] = state
	for _, param := range def.Params {
		var typ Type = anyType
		if sym, ok := c.res.declarations[param]; ok {
			typ = sym.Type()
		}
		state.params = append(state.params, typ)
	}
	if def.ReturnType != nil {
		state.declaredReturn = orAny(c.res.annotations[def.ReturnType])
	}

	var ret Type
	open := false
	if def.IsNative() {
		ret = orAny(state.declaredReturn)
		open = unannotated(def)
	} else {
		if def.ID != nil {
			logger.Debug("Inferring function", "name", def.ID.Name)
		}
		c.pushFrame(&checkFrame{kind: frameFunction, def: def, declaredReturn: state.declaredReturn})
		c.checkStatements(def.Body)
		frame := c.popFrame()
		if state.declaredReturn != nil {
			ret = state.declaredReturn
		} else {
			ret = unifyAll(frame.returns, noneType)
		}
	}
	state.typ = FunctionType{Params: state.params, Return: ret, Open: open}
	state.status = inferDone
	return state.typ
}

// unannotated reports whether def carries no annotations at all.
func unannotated(def *ast.FunctionDefinition) bool {
	if def.ReturnType != nil {
		return false
	}
	for _, param := range def.Params {
		if param != nil && param.TypeAnnotation != nil {
			return false
		}
	}
	return true
}

// hasExplicitSelf reports whether the method's first parameter is self.
func (c *Checker) hasExplicitSelf(def *ast.FunctionDefinition) bool {
	scope := c.res.scopes[def]
	if scope == nil || scope.self == nil {
		return false
	}
	_, isParam := scope.self.Node.(*ast.Parameter)
	return isParam
}

// boundMethodType is the method signature as seen through an instance: the
// self parameter is already supplied.
func (c *Checker) boundMethodType(def *ast.FunctionDefinition) FunctionType {
	sig := c.functionSignature(def)
	if !c.hasExplicitSelf(def) || len(sig.Params) == 0 {
		return sig
	}
	params := make([]Type, len(sig.Params)-1)
	copy(params, sig.Params[1:])
	return FunctionType{Params: params, Return: sig.Return, Open: sig.Open}
}

// constructorType treats a class name as a callable that accepts the
// parameters of __init__ and returns an instance.
func (c *Checker) constructorType(info *ClassInfo) FunctionType {
	instance := classInstanceType(info)
	if info.Scope != nil {
		if init, ok := info.Scope.LookupLocal("__init__"); ok && init.Kind == SymbolMethod && init.function != nil {
			bound := c.boundMethodType(init.function)
			return FunctionType{Params: bound.Params, Return: instance, Open: bound.Open}
		}
	}
	return FunctionType{Return: instance}
}
