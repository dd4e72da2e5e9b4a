package driver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"

	"apyc/checker-go/pkg/ast"
)

// ErrUnknownNode is returned when a fixture names a node type the decoder
// does not understand.
var ErrUnknownNode = errors.New("driver: unknown node type")

// DecodeModule decodes a JSON AST document into a module.
func DecodeModule(data []byte) (*ast.Module, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("driver: empty module document")
		}
		return nil, fmt.Errorf("driver: parse module: %w", err)
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	mod, ok := node.(*ast.Module)
	if !ok {
		return nil, fmt.Errorf("driver: decoded node is not a module: %T", node)
	}
	return mod, nil
}

func decodeNode(node map[string]any) (ast.Node, error) {
	result, err := decodeNodeKind(node)
	if err != nil {
		return nil, err
	}
	if raw, ok := node["span"]; ok {
		span, err := decodeSpan(raw)
		if err != nil {
			return nil, err
		}
		ast.SetSpan(result, span)
	}
	return result, nil
}

func decodeNodeKind(node map[string]any) (ast.Node, error) {
	typ, _ := node["type"].(string)
	switch ast.NodeType(typ) {
	case ast.NodeModule:
		name, _ := node["name"].(string)
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewModule(name, body), nil

	case ast.NodeIdentifier:
		name, _ := node["name"].(string)
		return ast.NewIdentifier(name), nil
	case ast.NodeStringLiteral:
		val, _ := node["value"].(string)
		return ast.NewStringLiteral(val), nil
	case ast.NodeIntegerLiteral:
		val, err := parseBigInt(node["value"])
		if err != nil {
			return nil, err
		}
		return ast.NewIntegerLiteral(val), nil
	case ast.NodeBooleanLiteral:
		val, _ := node["value"].(bool)
		return ast.NewBooleanLiteral(val), nil
	case ast.NodeNoneLiteral:
		return ast.NewNoneLiteral(), nil
	case ast.NodeListLiteral:
		elems, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return ast.NewListLiteral(elems), nil
	case ast.NodeDictEntry:
		return decodeDictEntry(node)
	case ast.NodeDictLiteral:
		rawEntries, _ := node["entries"].([]any)
		entries := make([]*ast.DictEntry, 0, len(rawEntries))
		for _, raw := range rawEntries {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("driver: invalid dict entry %T", raw)
			}
			entry, err := decodeDictEntry(child)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		return ast.NewDictLiteral(entries), nil

	case ast.NodeSimpleTypeExpression, ast.NodeListTypeExpression, ast.NodeDictTypeExpression:
		return decodeTypeExpression(node)

	case ast.NodeUnaryExpression:
		op, _ := node["operator"].(string)
		operand, err := decodeExpression(node["operand"])
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpression(ast.UnaryOperator(op), operand), nil
	case ast.NodeBinaryExpression:
		op, _ := node["operator"].(string)
		left, err := decodeExpression(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(node["right"])
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpression(op, left, right), nil
	case ast.NodeFunctionCall:
		callee, err := decodeExpression(node["callee"])
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return ast.NewFunctionCall(callee, args), nil
	case ast.NodeMemberAccessExpression:
		object, err := decodeExpression(node["object"])
		if err != nil {
			return nil, err
		}
		member, err := decodeIdentifier(node["member"])
		if err != nil {
			return nil, err
		}
		return ast.NewMemberAccessExpression(object, member), nil
	case ast.NodeIndexExpression:
		object, err := decodeExpression(node["object"])
		if err != nil {
			return nil, err
		}
		index, err := decodeExpression(node["index"])
		if err != nil {
			return nil, err
		}
		return ast.NewIndexExpression(object, index), nil

	case ast.NodeAssignmentStatement:
		targetNode, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		target, ok := targetNode.(ast.AssignmentTarget)
		if !ok {
			return nil, fmt.Errorf("driver: invalid assignment target %T", targetNode)
		}
		annotation, err := decodeOptionalType(node["typeAnnotation"])
		if err != nil {
			return nil, err
		}
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return ast.NewAssignmentStatement(target, annotation, value), nil
	case ast.NodeReturnStatement:
		var arg ast.Expression
		if raw, ok := node["argument"]; ok && raw != nil {
			expr, err := decodeExpression(raw)
			if err != nil {
				return nil, err
			}
			arg = expr
		}
		return ast.NewReturnStatement(arg), nil
	case ast.NodePrintStatement:
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return ast.NewPrintStatement(args), nil
	case ast.NodePassStatement:
		return ast.NewPassStatement(), nil
	case ast.NodeElifClause:
		return decodeElifClause(node)
	case ast.NodeIfStatement:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		rawElifs, _ := node["elifClauses"].([]any)
		elifs := make([]*ast.ElifClause, 0, len(rawElifs))
		for _, raw := range rawElifs {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("driver: invalid elif clause %T", raw)
			}
			clause, err := decodeElifClause(child)
			if err != nil {
				return nil, err
			}
			elifs = append(elifs, clause)
		}
		elseBody, err := decodeStatements(node["elseBody"])
		if err != nil {
			return nil, err
		}
		return ast.NewIfStatement(cond, body, elifs, elseBody), nil
	case ast.NodeWhileStatement:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewWhileStatement(cond, body), nil
	case ast.NodeForStatement:
		target, err := decodeIdentifier(node["target"])
		if err != nil {
			return nil, err
		}
		iterable, err := decodeExpression(node["iterable"])
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewForStatement(target, iterable, body), nil

	case ast.NodeParameter:
		return decodeParameter(node)
	case ast.NodeNativeBody:
		literal, _ := node["literal"].(string)
		return ast.NewNativeBody(literal), nil
	case ast.NodeFunctionDefinition:
		id, err := decodeIdentifier(node["id"])
		if err != nil {
			return nil, err
		}
		// Parameters may be written as bare names.
		rawParams, _ := node["params"].([]any)
		params := make([]*ast.Parameter, 0, len(rawParams))
		for _, raw := range rawParams {
			if name, ok := raw.(string); ok {
				params = append(params, ast.NewParameter(ast.NewIdentifier(name), nil))
				continue
			}
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("driver: invalid parameter %T", raw)
			}
			param, err := decodeParameter(child)
			if err != nil {
				return nil, err
			}
			params = append(params, param)
		}
		ret, err := decodeOptionalType(node["returnType"])
		if err != nil {
			return nil, err
		}
		var native *ast.NativeBody
		if raw, ok := node["native"]; ok && raw != nil {
			native, err = decodeNativeBody(raw)
			if err != nil {
				return nil, err
			}
		}
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewFunctionDefinition(id, params, ret, body, native), nil
	case ast.NodeClassDefinition:
		id, err := decodeIdentifier(node["id"])
		if err != nil {
			return nil, err
		}
		body, err := decodeStatements(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewClassDefinition(id, body), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownNode, typ)
	}
}

func decodeChild(raw any) (ast.Node, error) {
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("driver: expected node object, found %T", raw)
	}
	return decodeNode(child)
}

func decodeExpression(raw any) (ast.Expression, error) {
	if raw == nil {
		return nil, fmt.Errorf("driver: missing expression")
	}
	node, err := decodeChild(raw)
	if err != nil {
		return nil, err
	}
	expr, ok := node.(ast.Expression)
	if !ok {
		return nil, fmt.Errorf("driver: %s is not an expression", node.NodeType())
	}
	return expr, nil
}

func decodeExpressions(raw any) ([]ast.Expression, error) {
	items, _ := raw.([]any)
	out := make([]ast.Expression, 0, len(items))
	for _, item := range items {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func decodeStatements(raw any) ([]ast.Statement, error) {
	items, _ := raw.([]any)
	out := make([]ast.Statement, 0, len(items))
	for _, item := range items {
		node, err := decodeChild(item)
		if err != nil {
			return nil, err
		}
		stmt, ok := node.(ast.Statement)
		if !ok {
			return nil, fmt.Errorf("driver: %s is not a statement", node.NodeType())
		}
		out = append(out, stmt)
	}
	return out, nil
}

// Identifiers may be written as bare strings.
func decodeIdentifier(raw any) (*ast.Identifier, error) {
	if name, ok := raw.(string); ok {
		return ast.NewIdentifier(name), nil
	}
	if raw == nil {
		return nil, fmt.Errorf("driver: missing identifier")
	}
	node, err := decodeChild(raw)
	if err != nil {
		return nil, err
	}
	id, ok := node.(*ast.Identifier)
	if !ok {
		return nil, fmt.Errorf("driver: expected identifier, found %s", node.NodeType())
	}
	return id, nil
}

func decodeDictEntry(node map[string]any) (*ast.DictEntry, error) {
	key, err := decodeExpression(node["key"])
	if err != nil {
		return nil, err
	}
	value, err := decodeExpression(node["value"])
	if err != nil {
		return nil, err
	}
	entry := ast.NewDictEntry(key, value)
	if raw, ok := node["span"]; ok {
		span, err := decodeSpan(raw)
		if err != nil {
			return nil, err
		}
		ast.SetSpan(entry, span)
	}
	return entry, nil
}

func decodeElifClause(node map[string]any) (*ast.ElifClause, error) {
	cond, err := decodeExpression(node["condition"])
	if err != nil {
		return nil, err
	}
	body, err := decodeStatements(node["body"])
	if err != nil {
		return nil, err
	}
	clause := ast.NewElifClause(cond, body)
	if raw, ok := node["span"]; ok {
		span, err := decodeSpan(raw)
		if err != nil {
			return nil, err
		}
		ast.SetSpan(clause, span)
	}
	return clause, nil
}

func decodeParameter(node map[string]any) (*ast.Parameter, error) {
	name, err := decodeIdentifier(node["name"])
	if err != nil {
		return nil, err
	}
	annotation, err := decodeOptionalType(node["typeAnnotation"])
	if err != nil {
		return nil, err
	}
	param := ast.NewParameter(name, annotation)
	if raw, ok := node["span"]; ok {
		span, err := decodeSpan(raw)
		if err != nil {
			return nil, err
		}
		ast.SetSpan(param, span)
	}
	return param, nil
}

func decodeNativeBody(raw any) (*ast.NativeBody, error) {
	if literal, ok := raw.(string); ok {
		return ast.NewNativeBody(literal), nil
	}
	node, err := decodeChild(raw)
	if err != nil {
		return nil, err
	}
	native, ok := node.(*ast.NativeBody)
	if !ok {
		return nil, fmt.Errorf("driver: expected native body, found %s", node.NodeType())
	}
	return native, nil
}

func decodeOptionalType(raw any) (ast.TypeExpression, error) {
	if raw == nil {
		return nil, nil
	}
	if text, ok := raw.(string); ok {
		expr, err := ast.ParseTypeAnnotation(text)
		if err != nil {
			return nil, fmt.Errorf("driver: annotation %q: %w", text, err)
		}
		return expr, nil
	}
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("driver: invalid type annotation %T", raw)
	}
	return decodeTypeExpression(child)
}

func decodeTypeExpression(node map[string]any) (ast.TypeExpression, error) {
	var result ast.TypeExpression
	typ, _ := node["type"].(string)
	switch ast.NodeType(typ) {
	case ast.NodeSimpleTypeExpression:
		name, err := decodeIdentifier(node["name"])
		if err != nil {
			return nil, err
		}
		result = ast.NewSimpleTypeExpression(name)
	case ast.NodeListTypeExpression:
		elem, err := decodeOptionalType(node["element"])
		if err != nil {
			return nil, err
		}
		if elem == nil {
			return nil, fmt.Errorf("driver: list annotation missing element type")
		}
		result = ast.NewListTypeExpression(elem)
	case ast.NodeDictTypeExpression:
		key, err := decodeOptionalType(node["key"])
		if err != nil {
			return nil, err
		}
		value, err := decodeOptionalType(node["value"])
		if err != nil {
			return nil, err
		}
		if key == nil || value == nil {
			return nil, fmt.Errorf("driver: dict annotation requires key and value types")
		}
		bracketed, _ := node["bracketed"].(bool)
		result = ast.NewDictTypeExpression(key, value, bracketed)
	default:
		return nil, fmt.Errorf("%w %q in type position", ErrUnknownNode, typ)
	}
	if raw, ok := node["span"]; ok {
		span, err := decodeSpan(raw)
		if err != nil {
			return nil, err
		}
		ast.SetSpan(result, span)
	}
	return result, nil
}

// decodeSpan accepts either {"start": {...}, "end": {...}} or the short
// form {"line": L, "column": C}.
func decodeSpan(raw any) (ast.Span, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return ast.Span{}, fmt.Errorf("driver: invalid span %T", raw)
	}
	if _, short := obj["line"]; short {
		pos, err := decodePosition(obj)
		if err != nil {
			return ast.Span{}, err
		}
		return ast.Span{Start: pos, End: pos}, nil
	}
	var span ast.Span
	if start, ok := obj["start"].(map[string]any); ok {
		pos, err := decodePosition(start)
		if err != nil {
			return ast.Span{}, err
		}
		span.Start = pos
	}
	if end, ok := obj["end"].(map[string]any); ok {
		pos, err := decodePosition(end)
		if err != nil {
			return ast.Span{}, err
		}
		span.End = pos
	}
	return span, nil
}

func decodePosition(obj map[string]any) (ast.Position, error) {
	line, err := decodeSmallInt(obj["line"])
	if err != nil {
		return ast.Position{}, fmt.Errorf("driver: span line: %w", err)
	}
	column, err := decodeSmallInt(obj["column"])
	if err != nil {
		return ast.Position{}, fmt.Errorf("driver: span column: %w", err)
	}
	return ast.Position{Line: line, Column: column}, nil
}

func decodeSmallInt(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, err
		}
		return int(i), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected number, found %T", raw)
	}
}

// parseBigInt keeps integer literals exact so the range check sees the
// written value rather than a float approximation.
func parseBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case json.Number:
		if bi, ok := new(big.Int).SetString(v.String(), 10); ok {
			return bi, nil
		}
	case string:
		if bi, ok := new(big.Int).SetString(v, 10); ok {
			return bi, nil
		}
	case float64:
		return big.NewInt(int64(v)), nil
	}
	return nil, fmt.Errorf("driver: invalid integer literal %v", value)
}
