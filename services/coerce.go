package services

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var numberRE = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Die Modelle liefern Felder mal als String, mal als Zahl oder Liste.
// Die folgenden Helfer bringen sie in die Zieltypen, ohne zu scheitern.

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		return strings.Join(asStrings(t), ", ")
	case map[string]any:
		return strings.Join(collectAllStrings(t), " ")
	}
	return ""
}

func asOptionalString(v any) *string {
	s := asString(v)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return nil
	}
	return &s
}

// asStrings liefert immer eine nicht-nil Liste.
func asStrings(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			var s string
			if m, ok := item.(map[string]any); ok {
				s = firstString(m, "item", "text", "title", "name", "action", "description")
				if s == "" {
					s = strings.Join(collectAllStrings(m), " ")
				}
			} else {
				s = asString(item)
			}
			if s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = t
	case string:
		m := numberRE.FindString(strings.ReplaceAll(t, ",", ""))
		if m == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func asInt(v any) *int {
	f := asFloat(v)
	if f == nil {
		return nil
	}
	i := int(math.Round(*f))
	return &i
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// firstString gibt den ersten nicht-leeren Wert der angegebenen Keys zurück.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// firstPresent gibt den Wert des ersten vorhandenen Keys zurück.
func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// collectAllStrings sammelt rekursiv alle string-Blätter in beliebigen Strukturen
func collectAllStrings(v any) []string {
	acc := []string{}
	var walk func(any)
	walk = func(x any) {
		switch t := x.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				acc = append(acc, s)
			}
		case []any:
			for _, it := range t {
				walk(it)
			}
		case map[string]any:
			// stabile Reihenfolge der Keys
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		}
	}
	walk(v)
	return acc
}
