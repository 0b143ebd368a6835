// Package template renders declarative report definitions to PDF
// documents. A definition is a tree of typed elements plus optional
// header, footer and data-transform script; layout flows top to bottom
// and paginates automatically.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Element type names.
const (
	TypeText     = "text"
	TypeImage    = "image"
	TypeLine     = "line"
	TypeSpacer   = "spacer"
	TypeRect     = "rect"
	TypeColumns  = "columns"
	TypeTable    = "table"
	TypeKeyValue = "keyvalue"
)

// Element is one node of the layout tree. Type selects the variant; each
// variant reads its own subset of the fields. String content fields may
// contain {{dotted.path}} expressions resolved against the data tree.
type Element struct {
	Type string `json:"type" yaml:"type"`

	// Text
	Text     string  `json:"text,omitempty" yaml:"text,omitempty"`
	Font     string  `json:"font,omitempty" yaml:"font,omitempty"`
	FontSize float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty" yaml:"color,omitempty"`
	Align    string  `json:"align,omitempty" yaml:"align,omitempty"` // left, center, right

	// Image
	Source string  `json:"source,omitempty" yaml:"source,omitempty"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`

	// Line and Rect
	Thickness float64 `json:"thickness,omitempty" yaml:"thickness,omitempty"`
	FillColor string  `json:"fillColor,omitempty" yaml:"fillColor,omitempty"`

	// Columns
	Columns []Column `json:"columns,omitempty" yaml:"columns,omitempty"`
	Gap     float64  `json:"gap,omitempty" yaml:"gap,omitempty"`

	// Table
	DataKey      string        `json:"dataKey,omitempty" yaml:"dataKey,omitempty"`
	TableColumns []TableColumn `json:"tableColumns,omitempty" yaml:"tableColumns,omitempty"`
	RowHeight    float64       `json:"rowHeight,omitempty" yaml:"rowHeight,omitempty"`
	HeaderHeight float64       `json:"headerHeight,omitempty" yaml:"headerHeight,omitempty"`

	// KeyValue
	Entries       []Entry `json:"entries,omitempty" yaml:"entries,omitempty"`
	LabelFontSize float64 `json:"labelFontSize,omitempty" yaml:"labelFontSize,omitempty"`
	ValueFontSize float64 `json:"valueFontSize,omitempty" yaml:"valueFontSize,omitempty"`
	LineSpacing   float64 `json:"lineSpacing,omitempty" yaml:"lineSpacing,omitempty"`

	// Common
	MarginTop    float64 `json:"marginTop,omitempty" yaml:"marginTop,omitempty"`
	MarginBottom float64 `json:"marginBottom,omitempty" yaml:"marginBottom,omitempty"`
}

// Column is one vertical band inside a Columns element. Width shares are
// proportional weights, not points.
type Column struct {
	Weight   float64   `json:"weight,omitempty" yaml:"weight,omitempty"`
	Elements []Element `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// TableColumn maps one field of each data row to a header cell.
type TableColumn struct {
	Header string  `json:"header" yaml:"header"`
	Key    string  `json:"key" yaml:"key"`
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Entry is one label/value row of a KeyValue element.
type Entry struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// PageConfig sets the page geometry for a definition.
type PageConfig struct {
	Width        float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height       float64 `json:"height,omitempty" yaml:"height,omitempty"`
	MarginTop    float64 `json:"marginTop,omitempty" yaml:"marginTop,omitempty"`
	MarginBottom float64 `json:"marginBottom,omitempty" yaml:"marginBottom,omitempty"`
	MarginLeft   float64 `json:"marginLeft,omitempty" yaml:"marginLeft,omitempty"`
	MarginRight  float64 `json:"marginRight,omitempty" yaml:"marginRight,omitempty"`
}

// Definition is a complete template: page geometry, fixed header and
// footer drawn on every page, the paginating body flow, and an optional
// script run against the data tree before rendering.
type Definition struct {
	Page   PageConfig `json:"page" yaml:"page"`
	Header []Element  `json:"header,omitempty" yaml:"header,omitempty"`
	Footer []Element  `json:"footer,omitempty" yaml:"footer,omitempty"`
	Body   []Element  `json:"body" yaml:"body"`
	Script string     `json:"script,omitempty" yaml:"script,omitempty"`
}

// ParseDefinition reads a serialized definition. JSON input is detected
// by its leading brace; everything else is treated as YAML.
func ParseDefinition(data []byte) (*Definition, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty template definition")
	}
	var def Definition
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &def); err != nil {
			return nil, fmt.Errorf("parse template JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &def); err != nil {
			return nil, fmt.Errorf("parse template YAML: %w", err)
		}
	}
	if err := validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

func validate(def *Definition) error {
	var walk func(els []Element, where string) error
	walk = func(els []Element, where string) error {
		for i, el := range els {
			switch el.Type {
			case TypeText, TypeImage, TypeLine, TypeSpacer, TypeRect, TypeTable, TypeKeyValue:
			case TypeColumns:
				for j, col := range el.Columns {
					if err := walk(col.Elements, fmt.Sprintf("%s[%d].columns[%d]", where, i, j)); err != nil {
						return err
					}
				}
			default:
				return fmt.Errorf("%s[%d]: unknown element type %q", where, i, el.Type)
			}
		}
		return nil
	}
	if err := walk(def.Header, "header"); err != nil {
		return err
	}
	if err := walk(def.Footer, "footer"); err != nil {
		return err
	}
	return walk(def.Body, "body")
}
