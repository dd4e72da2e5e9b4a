package ast

import "fmt"

// Position is a 1-based line/column pair. The zero value means unknown.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) String() string {
	if s.Start.Line == 0 {
		return "?"
	}
	if s.Start.Column == 0 {
		return fmt.Sprintf("%d", s.Start.Line)
	}
	return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
}

func (n nodeImpl) Span() Span {
	if n.Loc == nil {
		return Span{}
	}
	return *n.Loc
}

func (n *nodeImpl) setSpan(span Span) {
	if span.IsZero() {
		n.Loc = nil
		return
	}
	s := span
	n.Loc = &s
}

// SetSpan annotates the node with the provided span.
func SetSpan(node Node, span Span) {
	if node == nil {
		return
	}
	if setter, ok := node.(interface{ setSpan(Span) }); ok {
		setter.setSpan(span)
	}
}

// At is a convenience for attaching a single-point span to a node.
func At[N Node](node N, line, column int) N {
	SetSpan(node, Span{Start: Position{Line: line, Column: column}, End: Position{Line: line, Column: column}})
	return node
}
