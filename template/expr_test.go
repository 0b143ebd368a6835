package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveNestedPath(t *testing.T) {
	data := map[string]interface{}{
		"customer": map[string]interface{}{
			"name": "ACME Corp",
			"address": map[string]interface{}{
				"city": "Berlin",
			},
		},
	}

	assert.Equal(t, "ACME Corp", Resolve("{{customer.name}}", data))
	assert.Equal(t, "Berlin", Resolve("{{ customer.address.city }}", data))
	assert.Equal(t, "Dear ACME Corp, welcome to Berlin.",
		Resolve("Dear {{customer.name}}, welcome to {{customer.address.city}}.", data))
}

func TestResolveMissingIsEmpty(t *testing.T) {
	data := map[string]interface{}{
		"a": map[string]interface{}{"b": "x"},
	}

	assert.Equal(t, "", Resolve("{{a.missing}}", data))
	assert.Equal(t, "", Resolve("{{missing.path}}", data))
	// Intermediate is a string, not an object.
	assert.Equal(t, "", Resolve("{{a.b.c}}", data))
	assert.Equal(t, "value: ", Resolve("value: {{nope}}", data))
	assert.Equal(t, "", Resolve("{{x}}", nil))
}

func TestResolveNoPlaceholders(t *testing.T) {
	assert.Equal(t, "plain text", Resolve("plain text", nil))
	// Unterminated placeholder passes through untouched.
	assert.Equal(t, "broken {{oops", Resolve("broken {{oops", nil))
}

func TestResolveValueFormatting(t *testing.T) {
	data := map[string]interface{}{
		"count":   float64(42), // JSON numbers arrive as float64
		"price":   19.99,
		"enabled": true,
		"n":       7,
	}

	assert.Equal(t, "42", Resolve("{{count}}", data))
	assert.Equal(t, "19.99", Resolve("{{price}}", data))
	assert.Equal(t, "true", Resolve("{{enabled}}", data))
	assert.Equal(t, "7", Resolve("{{n}}", data))
}

func TestResolveArray(t *testing.T) {
	data := map[string]interface{}{
		"invoice": map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"name": "widget"},
				map[string]interface{}{"name": "gadget"},
			},
		},
		"title": "not an array",
	}

	items := ResolveArray("invoice.items", data)
	assert.Len(t, items, 2)

	assert.Empty(t, ResolveArray("title", data))
	assert.Empty(t, ResolveArray("missing", data))
	assert.Empty(t, ResolveArray("", data))
}

func TestFieldOf(t *testing.T) {
	row := map[string]interface{}{"name": "widget", "qty": float64(3)}

	assert.Equal(t, "widget", fieldOf(row, "name"))
	assert.Equal(t, "3", fieldOf(row, "qty"))
	assert.Equal(t, "", fieldOf(row, "missing"))
	// Scalar rows resolve only the empty key.
	assert.Equal(t, "plain", fieldOf("plain", ""))
	assert.Equal(t, "", fieldOf("plain", "name"))
}
