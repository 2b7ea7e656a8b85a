package transform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/expressions"
)

type TransformType string

const (
	TransformType_JSONParse     TransformType = "json_parse"
	TransformType_JSONStringify TransformType = "json_stringify"
	TransformType_ExtractFields TransformType = "extract_fields"
	TransformType_MapArray      TransformType = "map_array"
	TransformType_FilterArray   TransformType = "filter_array"
	TransformType_Aggregate     TransformType = "aggregate"
)

type AggregateType string

const (
	AggregateType_Count AggregateType = "count"
	AggregateType_Sum   AggregateType = "sum"
	AggregateType_Avg   AggregateType = "avg"
)

// TransformExecutor reshapes data already on the bus. It performs no external
// calls; map and filter expressions run through the restricted evaluator.
type TransformExecutor struct {
	evaluator *expressions.Evaluator
}

type TransformExecutorDeps struct {
	Evaluator *expressions.Evaluator
}

func NewTransformExecutor(deps TransformExecutorDeps) *TransformExecutor {
	return &TransformExecutor{evaluator: deps.Evaluator}
}

type TransformParams struct {
	TransformType TransformType `json:"transformType"`
	InputKey      string        `json:"inputKey"`
	OutputKey     string        `json:"outputKey"`
	Expression    string        `json:"expression,omitempty"`
	Fields        []string      `json:"fields,omitempty"`
	AggregateType AggregateType `json:"aggregateType,omitempty"`
	Field         string        `json:"field,omitempty"`
}

func (e *TransformExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := TransformParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	if p.TransformType == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "transformType", Reason: "is required"}
	}

	if p.InputKey == "" || p.OutputKey == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "inputKey/outputKey", Reason: "are required"}
	}

	source, ok := input.Inputs[p.InputKey]
	if !ok {
		source, ok = input.Variables[p.InputKey]
	}

	if !ok {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "inputKey", Reason: fmt.Sprintf("no value named %q in node input", p.InputKey)}
	}

	var result any
	var err error

	switch p.TransformType {
	case TransformType_JSONParse:
		result, err = jsonParse(source)
	case TransformType_JSONStringify:
		result, err = jsonStringify(source)
	case TransformType_ExtractFields:
		result, err = extractFields(source, p.Fields)
	case TransformType_MapArray:
		result, err = e.mapArray(source, p.Expression)
	case TransformType_FilterArray:
		result, err = e.filterArray(source, p.Expression)
	case TransformType_Aggregate:
		result, err = e.aggregate(source, p.AggregateType, p.Field)
	default:
		err = &domain.ConfigurationError{NodeID: input.Node.ID, Field: "transformType", Reason: fmt.Sprintf("unknown type %q", p.TransformType)}
	}

	if err != nil {
		return domain.ExecutionOutput{}, err
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{p.OutputKey: result},
	}, nil
}

func jsonParse(source any) (any, error) {
	text, ok := source.(string)
	if !ok {
		// Already structured; parsing is a no-op.
		return source, nil
	}

	var parsed any

	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("json_parse: %w", err)
	}

	return parsed, nil
}

func jsonStringify(source any) (any, error) {
	data, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("json_stringify: %w", err)
	}

	return string(data), nil
}

func extractFields(source any, fields []string) (any, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("extract_fields: fields list is empty")
	}

	pick := func(item map[string]any) map[string]any {
		extracted := map[string]any{}

		for _, field := range fields {
			if value, ok := item[field]; ok {
				extracted[field] = value
			}
		}

		return extracted
	}

	switch v := source.(type) {
	case map[string]any:
		return pick(v), nil
	case []any:
		extracted := make([]any, 0, len(v))

		for _, element := range v {
			item, ok := element.(map[string]any)
			if !ok {
				continue
			}

			extracted = append(extracted, pick(item))
		}

		return extracted, nil
	default:
		return nil, fmt.Errorf("extract_fields: input is neither an object nor an array of objects")
	}
}

func (e *TransformExecutor) mapArray(source any, expression string) (any, error) {
	items, err := asArray(source, "map_array")
	if err != nil {
		return nil, err
	}

	mapped := make([]any, 0, len(items))

	for index, item := range items {
		value, err := e.evaluator.Evaluate(expression, map[string]any{
			"item":  item,
			"index": float64(index),
		})
		if err != nil {
			return nil, err
		}

		mapped = append(mapped, value)
	}

	return mapped, nil
}

func (e *TransformExecutor) filterArray(source any, expression string) (any, error) {
	items, err := asArray(source, "filter_array")
	if err != nil {
		return nil, err
	}

	kept := []any{}

	for index, item := range items {
		keep, err := e.evaluator.EvaluateBool(expression, map[string]any{
			"item":  item,
			"index": float64(index),
		})
		if err != nil {
			return nil, err
		}

		if keep {
			kept = append(kept, item)
		}
	}

	return kept, nil
}

func (e *TransformExecutor) aggregate(source any, aggregateType AggregateType, field string) (any, error) {
	items, err := asArray(source, "aggregate")
	if err != nil {
		return nil, err
	}

	if aggregateType == AggregateType_Count {
		return float64(len(items)), nil
	}

	sum := 0.0
	counted := 0

	for _, item := range items {
		value := item

		if field != "" {
			asMap, ok := item.(map[string]any)
			if !ok {
				continue
			}

			value, ok = asMap[field]
			if !ok {
				continue
			}
		}

		number, ok := asNumber(value)
		if !ok {
			continue
		}

		sum += number
		counted++
	}

	switch aggregateType {
	case AggregateType_Sum:
		return sum, nil
	case AggregateType_Avg:
		if counted == 0 {
			return 0.0, nil
		}

		return sum / float64(counted), nil
	default:
		return nil, fmt.Errorf("aggregate: unknown aggregate type %q", aggregateType)
	}
}

func asArray(source any, operation string) ([]any, error) {
	items, ok := source.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: input is not an array", operation)
	}

	return items, nil
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
