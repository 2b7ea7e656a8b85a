package output

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
)

type Format string

const (
	Format_JSON     Format = "json"
	Format_Table    Format = "table"
	Format_Markdown Format = "markdown"
)

// OutputExecutor formats the referenced input for presentation. It is a
// terminal node: downstream nodes do not consume its result.
type OutputExecutor struct{}

func NewOutputExecutor() *OutputExecutor {
	return &OutputExecutor{}
}

type OutputParams struct {
	Format   Format `json:"format,omitempty"`
	InputKey string `json:"inputKey,omitempty"`
}

func (e *OutputExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := OutputParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	if p.Format == "" {
		p.Format = Format_JSON
	}

	var raw any = input.Inputs

	if p.InputKey != "" {
		value, ok := input.Inputs[p.InputKey]
		if !ok {
			value, ok = input.Variables[p.InputKey]
		}

		if !ok {
			return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "inputKey", Reason: fmt.Sprintf("no value named %q in node input", p.InputKey)}
		}

		raw = value
	}

	var rendered string
	var err error

	switch p.Format {
	case Format_JSON:
		rendered, err = renderJSON(raw)
	case Format_Table:
		rendered, err = renderTable(raw, false)
	case Format_Markdown:
		rendered, err = renderTable(raw, true)
	default:
		err = &domain.ConfigurationError{NodeID: input.Node.ID, Field: "format", Reason: "must be json, table or markdown"}
	}

	if err != nil {
		return domain.ExecutionOutput{}, err
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{
			"result":  rendered,
			"rawData": raw,
			"format":  string(p.Format),
		},
	}, nil
}

func renderJSON(raw any) (string, error) {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// renderTable lays out an array of flat objects as aligned text columns, or
// the same rows fenced with pipes for markdown. Non-tabular data falls back
// to JSON.
func renderTable(raw any, markdown bool) (string, error) {
	rows, ok := raw.([]any)
	if !ok || len(rows) == 0 {
		return renderJSON(raw)
	}

	columns := []string{}
	seen := map[string]struct{}{}

	for _, row := range rows {
		item, ok := row.(map[string]any)
		if !ok {
			return renderJSON(raw)
		}

		for key := range item {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}

	sort.Strings(columns)

	var b strings.Builder

	writeRow := func(cells []string) {
		if markdown {
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
			return
		}

		b.WriteString(strings.Join(cells, "\t") + "\n")
	}

	writeRow(columns)

	if markdown {
		separators := make([]string, len(columns))

		for i := range separators {
			separators[i] = "---"
		}

		writeRow(separators)
	}

	for _, row := range rows {
		item := row.(map[string]any)
		cells := make([]string, len(columns))

		for i, column := range columns {
			cells[i] = engine.Stringify(item[column])
		}

		writeRow(cells)
	}

	return b.String(), nil
}
