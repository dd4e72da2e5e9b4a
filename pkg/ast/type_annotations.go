package ast

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseTypeAnnotation parses the text that follows `::` into a type
// expression. Accepted forms:
//
//	int | str | bool | <ClassName>
//	list of T
//	dict of [K, V]
//	dict of K, V
//
// The bracketed and bare dict forms produce the same shape; only the
// Bracketed flag differs.
func ParseTypeAnnotation(text string) (TypeExpression, error) {
	toks, err := lexAnnotation(text)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("annotation: empty type")
	}
	p := &annotationParser{toks: toks, source: text}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("annotation: unexpected %q in %q", p.peek(), text)
	}
	return typ, nil
}

type annotationParser struct {
	toks   []string
	pos    int
	source string
}

func (p *annotationParser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *annotationParser) peek() string {
	if p.atEnd() {
		return ""
	}
	return p.toks[p.pos]
}

func (p *annotationParser) next() string {
	tok := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *annotationParser) expect(tok string) error {
	if got := p.next(); got != tok {
		if got == "" {
			return fmt.Errorf("annotation: expected %q at end of %q", tok, p.source)
		}
		return fmt.Errorf("annotation: expected %q, found %q in %q", tok, got, p.source)
	}
	return nil
}

func (p *annotationParser) parseType() (TypeExpression, error) {
	tok := p.next()
	if tok == "" {
		return nil, fmt.Errorf("annotation: missing type in %q", p.source)
	}
	if !isAnnotationName(tok) {
		return nil, fmt.Errorf("annotation: unexpected %q in %q", tok, p.source)
	}
	switch {
	case tok == "list" && p.peek() == "of":
		p.next()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewListTypeExpression(elem), nil
	case tok == "dict" && p.peek() == "of":
		p.next()
		bracketed := p.peek() == "["
		if bracketed {
			p.next()
		}
		key, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		value, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if bracketed {
			if err := p.expect("]"); err != nil {
				return nil, err
			}
		}
		return NewDictTypeExpression(key, value, bracketed), nil
	default:
		return NewSimpleTypeExpression(NewIdentifier(tok)), nil
	}
}

func isAnnotationName(tok string) bool {
	if tok == "" {
		return false
	}
	r := rune(tok[0])
	return r == '_' || unicode.IsLetter(r)
}

func lexAnnotation(text string) ([]string, error) {
	var toks []string
	runes := []rune(strings.TrimSpace(text))
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '[' || r == ']' || r == ',':
			toks = append(toks, string(r))
			i++
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			toks = append(toks, string(runes[start:i]))
		default:
			return nil, fmt.Errorf("annotation: unexpected character %q in %q", r, text)
		}
	}
	return toks, nil
}

// FormatTypeExpression renders a type expression back to annotation text.
func FormatTypeExpression(expr TypeExpression) string {
	switch t := expr.(type) {
	case nil:
		return ""
	case *SimpleTypeExpression:
		if t.Name == nil {
			return ""
		}
		return t.Name.Name
	case *ListTypeExpression:
		return "list of " + FormatTypeExpression(t.Element)
	case *DictTypeExpression:
		if t.Bracketed {
			return fmt.Sprintf("dict of [%s, %s]", FormatTypeExpression(t.Key), FormatTypeExpression(t.Value))
		}
		return fmt.Sprintf("dict of %s, %s", FormatTypeExpression(t.Key), FormatTypeExpression(t.Value))
	default:
		return fmt.Sprintf("<%s>", expr.NodeType())
	}
}
