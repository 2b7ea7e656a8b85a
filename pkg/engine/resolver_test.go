package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Substitution(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		namespace map[string]any
		expected  string
	}{
		{
			name:      "single brace",
			template:  "Report for {DATE}",
			namespace: map[string]any{"DATE": "2026-08-29"},
			expected:  "Report for 2026-08-29",
		},
		{
			name:      "double brace",
			template:  "Report for {{DATE}}",
			namespace: map[string]any{"DATE": "2026-08-29"},
			expected:  "Report for 2026-08-29",
		},
		{
			name:      "adjacent tokens",
			template:  "{A}-{B}",
			namespace: map[string]any{"A": "1", "B": "2"},
			expected:  "1-2",
		},
		{
			name:      "unresolved token preserved",
			template:  "Hello {NAME}, today is {DATE}",
			namespace: map[string]any{"DATE": "2026-08-29"},
			expected:  "Hello {NAME}, today is 2026-08-29",
		},
		{
			name:      "case sensitive",
			template:  "{date}",
			namespace: map[string]any{"DATE": "2026-08-29"},
			expected:  "{date}",
		},
		{
			name:      "numeric value",
			template:  "count={N}",
			namespace: map[string]any{"N": float64(42)},
			expected:  "count=42",
		},
		{
			name:      "object value serialized as json",
			template:  "data={ROW}",
			namespace: map[string]any{"ROW": map[string]any{"id": float64(1)}},
			expected:  `data={"id":1}`,
		},
		{
			name:      "dotted path into node output",
			template:  "{A_output.result}",
			namespace: map[string]any{"A_output": map[string]any{"result": "ok"}},
			expected:  "ok",
		},
		{
			name:     "substituted value is not rescanned",
			template: "{A}",
			namespace: map[string]any{
				"A": "{B}",
				"B": "never",
			},
			expected: "{B}",
		},
		{
			name:      "empty template",
			template:  "",
			namespace: map[string]any{"A": "1"},
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.template, tt.namespace))
		})
	}
}

func TestResolveWithReport_Formats(t *testing.T) {
	namespace := map[string]any{"A": "1", "B": "2"}

	tests := []struct {
		name     string
		template string
		format   PlaceholderFormat
		expected string
		count    int
	}{
		{
			name:     "single only leaves double alone",
			template: "{A} {{B}}",
			format:   PlaceholderSingle,
			// The inner {B} of {{B}} still matches the single-brace token.
			expected: "1 {2}",
			count:    2,
		},
		{
			name:     "double only leaves single alone",
			template: "{A} {{B}}",
			format:   PlaceholderDouble,
			expected: "{A} 2",
			count:    1,
		},
		{
			name:     "both resolves everything",
			template: "{A} {{B}}",
			format:   PlaceholderBoth,
			expected: "1 2",
			count:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, report := ResolveWithReport(tt.template, namespace, tt.format)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, tt.count, report.ReplacedCount)
		})
	}
}

func TestResolveWithReport_Ledger(t *testing.T) {
	result, report := ResolveWithReport(
		"Hello {NAME}, balance {BALANCE}",
		map[string]any{"NAME": "dana", "BALANCE": float64(10.5)},
		PlaceholderBoth,
	)

	assert.Equal(t, "Hello dana, balance 10.5", result)
	assert.Equal(t, 2, report.ReplacedCount)
	assert.Equal(t, map[string]string{"NAME": "dana", "BALANCE": "10.5"}, report.Replaced)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "plain", Stringify("plain"))
	assert.Equal(t, "3.14", Stringify(3.14))
	assert.Equal(t, "7", Stringify(7))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, `["a","b"]`, Stringify([]string{"a", "b"}))
}
