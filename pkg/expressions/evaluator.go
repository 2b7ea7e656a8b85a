package expressions

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dop251/goja/ast"

	"github.com/flowdeck/flowdeck/pkg/domain"
)

const maxEvalDepth = 32

// Evaluator interprets parsed expressions against a flat scope. Supported
// forms: literals, identifiers resolved from the scope, property and index
// access, unary +/-/!, binary arithmetic and comparison, && || and the
// ternary. Everything else (calls, assignments, object construction with
// computed keys) is rejected with ExpressionError.
type Evaluator struct {
	parser *astParser
}

func NewEvaluator() *Evaluator {
	return &Evaluator{parser: newASTParser()}
}

// Evaluate parses and interprets the expression with the given scope.
func (e *Evaluator) Evaluate(expression string, scope map[string]any) (any, error) {
	expr, err := e.parser.parse(expression)
	if err != nil {
		return nil, err
	}

	value, err := e.eval(expr, scope, 0)
	if err != nil {
		return nil, &domain.ExpressionError{Expression: expression, Reason: err.Error()}
	}

	return value, nil
}

// EvaluateBool evaluates and coerces the result with JavaScript truthiness.
func (e *Evaluator) EvaluateBool(expression string, scope map[string]any) (bool, error) {
	value, err := e.Evaluate(expression, scope)
	if err != nil {
		return false, err
	}

	return toBool(value), nil
}

func (e *Evaluator) eval(node ast.Node, scope map[string]any, depth int) (any, error) {
	if depth > maxEvalDepth {
		return nil, fmt.Errorf("expression nesting exceeds depth limit %d", maxEvalDepth)
	}

	switch n := node.(type) {
	case *ast.StringLiteral:
		return n.Value.String(), nil
	case *ast.NumberLiteral:
		return toFloat(n.Value), nil
	case *ast.BooleanLiteral:
		return n.Value, nil
	case *ast.NullLiteral:
		return nil, nil
	case *ast.Identifier:
		return e.evalIdentifier(n, scope)
	case *ast.DotExpression:
		object, err := e.eval(n.Left, scope, depth+1)
		if err != nil {
			return nil, err
		}

		return access(object, n.Identifier.Name.String()), nil
	case *ast.BracketExpression:
		object, err := e.eval(n.Left, scope, depth+1)
		if err != nil {
			return nil, err
		}

		member, err := e.eval(n.Member, scope, depth+1)
		if err != nil {
			return nil, err
		}

		return accessDynamic(object, member), nil
	case *ast.UnaryExpression:
		return e.evalUnary(n, scope, depth)
	case *ast.BinaryExpression:
		return e.evalBinary(n, scope, depth)
	case *ast.ConditionalExpression:
		test, err := e.eval(n.Test, scope, depth+1)
		if err != nil {
			return nil, err
		}

		if toBool(test) {
			return e.eval(n.Consequent, scope, depth+1)
		}

		return e.eval(n.Alternate, scope, depth+1)
	default:
		return nil, fmt.Errorf("construct %T is not allowed", node)
	}
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier, scope map[string]any) (any, error) {
	name := node.Name.String()

	if scope != nil {
		if value, ok := scope[name]; ok {
			return value, nil
		}
	}

	switch name {
	case "null", "undefined":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	// Unknown identifiers resolve to nil rather than failing, so filters over
	// heterogeneous rows behave like optional field access.
	return nil, nil
}

func (e *Evaluator) evalUnary(node *ast.UnaryExpression, scope map[string]any, depth int) (any, error) {
	operand, err := e.eval(node.Operand, scope, depth+1)
	if err != nil {
		return nil, err
	}

	switch node.Operator.String() {
	case "-":
		return -toFloat(operand), nil
	case "+":
		return toFloat(operand), nil
	case "!":
		return !toBool(operand), nil
	default:
		return nil, fmt.Errorf("unary operator %q is not allowed", node.Operator.String())
	}
}

func (e *Evaluator) evalBinary(node *ast.BinaryExpression, scope map[string]any, depth int) (any, error) {
	left, err := e.eval(node.Left, scope, depth+1)
	if err != nil {
		return nil, err
	}

	operator := node.Operator.String()

	// Short-circuit before touching the right side.
	if operator == "&&" && !toBool(left) {
		return false, nil
	}

	if operator == "||" && toBool(left) {
		return true, nil
	}

	right, err := e.eval(node.Right, scope, depth+1)
	if err != nil {
		return nil, err
	}

	switch operator {
	case "&&", "||":
		return toBool(right), nil
	case "+":
		if ls, ok := left.(string); ok {
			return ls + stringify(right), nil
		}

		if rs, ok := right.(string); ok {
			return stringify(left) + rs, nil
		}

		return toFloat(left) + toFloat(right), nil
	case "-":
		return toFloat(left) - toFloat(right), nil
	case "*":
		return toFloat(left) * toFloat(right), nil
	case "/":
		divisor := toFloat(right)
		if divisor == 0 {
			return nil, fmt.Errorf("division by zero")
		}

		return toFloat(left) / divisor, nil
	case "%":
		return math.Mod(toFloat(left), toFloat(right)), nil
	case "==", "===":
		return looseEquals(left, right), nil
	case "!=", "!==":
		return !looseEquals(left, right), nil
	case "<":
		return compare(left, right) < 0, nil
	case "<=":
		return compare(left, right) <= 0, nil
	case ">":
		return compare(left, right) > 0, nil
	case ">=":
		return compare(left, right) >= 0, nil
	default:
		return nil, fmt.Errorf("binary operator %q is not allowed", operator)
	}
}

func access(object any, property string) any {
	switch o := object.(type) {
	case map[string]any:
		return o[property]
	case []any:
		if property == "length" {
			return float64(len(o))
		}
	case string:
		if property == "length" {
			return float64(len(o))
		}
	}

	return nil
}

func accessDynamic(object, member any) any {
	if list, ok := object.([]any); ok {
		index := int(toFloat(member))
		if index >= 0 && index < len(list) {
			return list[index]
		}

		return nil
	}

	return access(object, stringify(member))
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}

		return 0
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return math.NaN()
		}

		return parsed
	default:
		return math.NaN()
	}
}

func toBool(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	case int, int64, float32:
		return toFloat(v) != 0
	default:
		return true
	}
}

func looseEquals(left, right any) bool {
	if left == nil && right == nil {
		return true
	}

	if left == nil || right == nil {
		return false
	}

	ls, lok := left.(string)
	rs, rok := right.(string)

	if lok && rok {
		return ls == rs
	}

	if lb, ok := left.(bool); ok {
		if rb, ok := right.(bool); ok {
			return lb == rb
		}
	}

	lf := toFloat(left)
	rf := toFloat(right)

	if !math.IsNaN(lf) && !math.IsNaN(rf) {
		return lf == rf
	}

	return stringify(left) == stringify(right)
}

func compare(left, right any) int {
	ls, lok := left.(string)
	rs, rok := right.(string)

	if lok && rok {
		switch {
		case ls < rs:
			return -1
		case ls > rs:
			return 1
		default:
			return 0
		}
	}

	lf := toFloat(left)
	rf := toFloat(right)

	switch {
	case lf < rf:
		return -1
	case lf > rf:
		return 1
	default:
		return 0
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
