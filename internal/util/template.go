package util

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"text/template"
)

// instructionFuncs are the helpers available to instruction templates.
var instructionFuncs = template.FuncMap{
	"default": func(fallback, val any) any {
		if val == nil || val == "" {
			return fallback
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"join":  join,
}

// RenderInstructions renders an instruction template against the state.
// Missing keys render as empty values and text is never HTML-escaped.
func RenderInstructions(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("instructions").Option("missingkey=zero").Funcs(instructionFuncs).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// join formats the items of any slice or array and joins them with sep.
// Other values render on their own.
func join(sep string, items any) string {
	rv := reflect.ValueOf(items)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		if items == nil {
			return ""
		}
		return fmt.Sprint(items)
	}

	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return strings.Join(parts, sep)
}
