package typechecker

import (
	"fmt"
	"sort"

	"apyc/checker-go/pkg/ast"
)

// DiagnosticKind classifies a diagnostic.
type DiagnosticKind string

const (
	UnresolvedName    DiagnosticKind = "UnresolvedName"
	SelfOutsideMethod DiagnosticKind = "SelfOutsideMethod"
	Redeclaration     DiagnosticKind = "Redeclaration"
	TypeMismatch      DiagnosticKind = "TypeMismatch"
	UnknownMember     DiagnosticKind = "UnknownMember"
	ArityMismatch     DiagnosticKind = "ArityMismatch"
	IntegerOutOfRange DiagnosticKind = "IntegerOutOfRange"
	InvalidStatement  DiagnosticKind = "InvalidStatement"
)

// IsValid reports whether the kind is one the checker emits.
func (k DiagnosticKind) IsValid() bool {
	switch k {
	case UnresolvedName, SelfOutsideMethod, Redeclaration, TypeMismatch,
		UnknownMember, ArityMismatch, IntegerOutOfRange, InvalidStatement:
		return true
	default:
		return false
	}
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic represents a type-checking error or warning.
type Diagnostic struct {
	Kind     DiagnosticKind
	Severity Severity
	Message  string
	Node     ast.Node
}

// Span returns the source span of the offending node, if known.
func (d Diagnostic) Span() ast.Span {
	if d.Node == nil {
		return ast.Span{}
	}
	return d.Node.Span()
}

// IsError reports whether the diagnostic fails the compilation unit.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span(), d.Severity, d.Message)
}

// diagnosticSink accumulates diagnostics from both passes. Entries are keyed
// by the preorder index of their node so that the final list follows AST
// traversal order regardless of which pass (or which on-demand function
// inference) produced them.
type diagnosticSink struct {
	items []sinkEntry
	order map[ast.Node]int
}

type sinkEntry struct {
	diag Diagnostic
	seq  int
}

func newDiagnosticSink(order map[ast.Node]int) *diagnosticSink {
	return &diagnosticSink{order: order}
}

func (s *diagnosticSink) add(kind DiagnosticKind, severity Severity, node ast.Node, format string, args ...any) {
	s.items = append(s.items, sinkEntry{
		diag: Diagnostic{
			Kind:     kind,
			Severity: severity,
			Message:  fmt.Sprintf(format, args...),
			Node:     node,
		},
		seq: len(s.items),
	})
}

func (s *diagnosticSink) errorf(kind DiagnosticKind, node ast.Node, format string, args ...any) {
	s.add(kind, SeverityError, node, format, args...)
}

func (s *diagnosticSink) warnf(kind DiagnosticKind, node ast.Node, format string, args ...any) {
	s.add(kind, SeverityWarning, node, format, args...)
}

func (s *diagnosticSink) position(node ast.Node) int {
	if node == nil {
		return -1
	}
	if idx, ok := s.order[node]; ok {
		return idx
	}
	return -1
}

// sorted returns the diagnostics in traversal order.
func (s *diagnosticSink) sorted() []Diagnostic {
	if len(s.items) == 0 {
		return nil
	}
	entries := make([]sinkEntry, len(s.items))
	copy(entries, s.items)
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := s.position(entries[i].diag.Node), s.position(entries[j].diag.Node)
		if pi != pj {
			return pi < pj
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]Diagnostic, len(entries))
	for i, e := range entries {
		out[i] = e.diag
	}
	return out
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}
