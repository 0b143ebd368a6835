package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolve substitutes every {{dotted.path}} placeholder in s with the
// value found in data. Missing keys and non-object intermediates resolve
// to the empty string; resolution never fails.
func Resolve(s string, data map[string]interface{}) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	var out strings.Builder
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			out.WriteString(s)
			return out.String()
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			out.WriteString(s)
			return out.String()
		}
		out.WriteString(s[:start])
		path := strings.TrimSpace(s[start+2 : start+end])
		out.WriteString(formatValue(lookup(path, data)))
		s = s[start+end+2:]
	}
}

// ResolveArray resolves a dotted path whose terminal value must be an
// array. Anything else, including a missing key, yields an empty slice.
func ResolveArray(path string, data map[string]interface{}) []interface{} {
	arr, _ := lookup(strings.TrimSpace(path), data).([]interface{})
	return arr
}

func lookup(path string, data map[string]interface{}) interface{} {
	if path == "" || data == nil {
		return nil
	}
	var cur interface{} = data
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur, ok = obj[part]
		if !ok {
			return nil
		}
	}
	return cur
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// fieldOf reads one key of a table data row. Rows are expected to be
// objects; scalar rows resolve only the empty key to themselves.
func fieldOf(row interface{}, key string) string {
	if key == "" {
		return formatValue(row)
	}
	obj, ok := row.(map[string]interface{})
	if !ok {
		return ""
	}
	return formatValue(obj[key])
}
