package ast

// Inspect traverses the tree rooted at node in source order (preorder). If fn
// returns false the children of that node are skipped.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Inspect(child, fn)
	}
}

// Children returns the direct child nodes of node in source order.
func Children(node Node) []Node {
	var out []Node
	add := func(n Node) {
		if n != nil {
			out = append(out, n)
		}
	}
	addStmts := func(stmts []Statement) {
		for _, s := range stmts {
			if s != nil {
				out = append(out, s)
			}
		}
	}
	switch n := node.(type) {
	case *Module:
		addStmts(n.Body)
	case *ListLiteral:
		for _, el := range n.Elements {
			if el != nil {
				add(el)
			}
		}
	case *DictEntry:
		if n.Key != nil {
			add(n.Key)
		}
		if n.Value != nil {
			add(n.Value)
		}
	case *DictLiteral:
		for _, e := range n.Entries {
			if e != nil {
				add(e)
			}
		}
	case *SimpleTypeExpression:
		if n.Name != nil {
			add(n.Name)
		}
	case *ListTypeExpression:
		if n.Element != nil {
			add(n.Element)
		}
	case *DictTypeExpression:
		if n.Key != nil {
			add(n.Key)
		}
		if n.Value != nil {
			add(n.Value)
		}
	case *UnaryExpression:
		if n.Operand != nil {
			add(n.Operand)
		}
	case *BinaryExpression:
		if n.Left != nil {
			add(n.Left)
		}
		if n.Right != nil {
			add(n.Right)
		}
	case *FunctionCall:
		if n.Callee != nil {
			add(n.Callee)
		}
		for _, arg := range n.Arguments {
			if arg != nil {
				add(arg)
			}
		}
	case *MemberAccessExpression:
		if n.Object != nil {
			add(n.Object)
		}
		if n.Member != nil {
			add(n.Member)
		}
	case *IndexExpression:
		if n.Object != nil {
			add(n.Object)
		}
		if n.Index != nil {
			add(n.Index)
		}
	case *AssignmentStatement:
		if n.Target != nil {
			add(n.Target)
		}
		if n.TypeAnnotation != nil {
			add(n.TypeAnnotation)
		}
		if n.Value != nil {
			add(n.Value)
		}
	case *ReturnStatement:
		if n.Argument != nil {
			add(n.Argument)
		}
	case *PrintStatement:
		for _, arg := range n.Arguments {
			if arg != nil {
				add(arg)
			}
		}
	case *ElifClause:
		if n.Condition != nil {
			add(n.Condition)
		}
		addStmts(n.Body)
	case *IfStatement:
		if n.Condition != nil {
			add(n.Condition)
		}
		addStmts(n.Body)
		for _, clause := range n.ElifClauses {
			if clause != nil {
				add(clause)
			}
		}
		addStmts(n.ElseBody)
	case *WhileStatement:
		if n.Condition != nil {
			add(n.Condition)
		}
		addStmts(n.Body)
	case *ForStatement:
		if n.Target != nil {
			add(n.Target)
		}
		if n.Iterable != nil {
			add(n.Iterable)
		}
		addStmts(n.Body)
	case *Parameter:
		if n.Name != nil {
			add(n.Name)
		}
		if n.TypeAnnotation != nil {
			add(n.TypeAnnotation)
		}
	case *FunctionDefinition:
		if n.ID != nil {
			add(n.ID)
		}
		for _, p := range n.Params {
			if p != nil {
				add(p)
			}
		}
		if n.ReturnType != nil {
			add(n.ReturnType)
		}
		if n.Native != nil {
			add(n.Native)
		}
		addStmts(n.Body)
	case *ClassDefinition:
		if n.ID != nil {
			add(n.ID)
		}
		addStmts(n.Body)
	}
	return out
}
