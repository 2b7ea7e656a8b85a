package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// PlaceholderFormat selects which brace styles a substitution pass honors.
type PlaceholderFormat string

const (
	PlaceholderSingle PlaceholderFormat = "single"
	PlaceholderDouble PlaceholderFormat = "double"
	PlaceholderBoth   PlaceholderFormat = "both"
)

var (
	doubleBraceToken = regexp.MustCompile(`\{\{([A-Za-z0-9_.]+)\}\}`)
	singleBraceToken = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)
)

// Resolve substitutes every {KEY} and {{KEY}} token with the string form of
// namespace[KEY]. Unresolved keys are left untouched. Resolution is
// case-sensitive and never re-scans substituted values.
func Resolve(template string, namespace map[string]any) string {
	result, _ := ResolveWithReport(template, namespace, PlaceholderBoth)

	return result
}

// ResolveReport describes one substitution pass.
type ResolveReport struct {
	ReplacedCount int
	Replaced      map[string]string
}

// ResolveWithReport is Resolve plus the replaced-variable ledger prompt and
// template nodes expose in their outputs.
func ResolveWithReport(template string, namespace map[string]any, format PlaceholderFormat) (string, ResolveReport) {
	report := ResolveReport{Replaced: map[string]string{}}

	substitute := func(input string, token *regexp.Regexp) string {
		return token.ReplaceAllStringFunc(input, func(match string) string {
			key := token.FindStringSubmatch(match)[1]

			value, ok := lookup(namespace, key)
			if !ok {
				return match
			}

			text := Stringify(value)
			report.ReplacedCount++
			report.Replaced[key] = text

			return text
		})
	}

	result := template

	// Double braces go first so {{KEY}} is consumed whole rather than as a
	// single-brace token wrapped in literal braces.
	if format == PlaceholderDouble || format == PlaceholderBoth {
		result = substitute(result, doubleBraceToken)
	}

	if format == PlaceholderSingle || format == PlaceholderBoth {
		result = substitute(result, singleBraceToken)
	}

	return result, report
}

// lookup resolves a token against the namespace, trying the exact key first
// and then walking dot segments into nested maps, so {A_output.data} reaches
// inside a node's output map.
func lookup(namespace map[string]any, key string) (any, bool) {
	if value, ok := namespace[key]; ok {
		return value, true
	}

	segments := splitPath(key)
	if len(segments) < 2 {
		return nil, false
	}

	current, ok := namespace[segments[0]]
	if !ok {
		return nil, false
	}

	for _, segment := range segments[1:] {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = asMap[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func splitPath(key string) []string {
	segments := []string{}
	start := 0

	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			segments = append(segments, key[start:i])
			start = i + 1
		}
	}

	return append(segments, key[start:])
}

// Stringify renders a namespace value for substitution: strings pass through,
// numbers print naturally, everything structured serializes as JSON.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	}
}
