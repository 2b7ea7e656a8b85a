package template

import (
	"context"
	"sort"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
)

// TemplateExecutor is pure substitution over the session namespace, reporting
// how many placeholders were replaced and which variables were available.
type TemplateExecutor struct{}

func NewTemplateExecutor() *TemplateExecutor {
	return &TemplateExecutor{}
}

type TemplateParams struct {
	Template          string `json:"template"`
	PlaceholderFormat string `json:"placeholderFormat,omitempty"`
}

func (e *TemplateExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := TemplateParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	if p.Template == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "template", Reason: "is required"}
	}

	format := engine.PlaceholderBoth

	switch p.PlaceholderFormat {
	case "", "both":
	case "single":
		format = engine.PlaceholderSingle
	case "double":
		format = engine.PlaceholderDouble
	default:
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "placeholderFormat", Reason: "must be single, double or both"}
	}

	namespace := map[string]any{}

	for key, value := range input.Variables {
		namespace[key] = value
	}

	for key, value := range input.Inputs {
		namespace[key] = value
	}

	result, report := engine.ResolveWithReport(p.Template, namespace, format)

	available := make([]string, 0, len(namespace))

	for key := range namespace {
		available = append(available, key)
	}

	sort.Strings(available)

	return domain.ExecutionOutput{
		Outputs: map[string]any{
			"result":             result,
			"replacedCount":      report.ReplacedCount,
			"availableVariables": available,
		},
	}, nil
}
