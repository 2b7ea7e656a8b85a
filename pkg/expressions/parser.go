// Package expressions evaluates the small expression language transform,
// filter and condition nodes use. Expressions are parsed into a JavaScript
// AST with goja's parser and interpreted by a restricted walker supporting
// field access, comparison, arithmetic and boolean logic only. There is no
// script engine behind it and no way to call functions or mutate state.
package expressions

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"

	"github.com/flowdeck/flowdeck/pkg/domain"
)

type astParser struct {
	cache sync.Map
}

func newASTParser() *astParser {
	return &astParser{}
}

func (p *astParser) parse(expression string) (ast.Expression, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil, &domain.ExpressionError{Expression: expression, Reason: "empty expression"}
	}

	if cached, ok := p.cache.Load(trimmed); ok {
		if expr, ok := cached.(ast.Expression); ok {
			return expr, nil
		}

		return nil, &domain.ExpressionError{Expression: expression, Reason: "previously failed to parse"}
	}

	// Wrap so a bare object or expression parses as a complete program.
	program, err := parser.ParseFile(nil, "", fmt.Sprintf("(%s)", trimmed), 0)
	if err != nil {
		p.cache.Store(trimmed, err)
		return nil, &domain.ExpressionError{Expression: expression, Reason: err.Error()}
	}

	expr, err := extractExpression(program)
	if err != nil {
		p.cache.Store(trimmed, err)
		return nil, &domain.ExpressionError{Expression: expression, Reason: err.Error()}
	}

	p.cache.Store(trimmed, expr)

	return expr, nil
}

func extractExpression(program *ast.Program) (ast.Expression, error) {
	if len(program.Body) != 1 {
		return nil, fmt.Errorf("expected a single expression, got %d statements", len(program.Body))
	}

	statement, ok := program.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, fmt.Errorf("statements are not allowed, only expressions")
	}

	return statement.Expression, nil
}
