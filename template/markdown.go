package template

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FromMarkdown converts a markdown fragment into body elements, so
// rich-text snippets can be dropped into a definition. Headings become
// larger text elements, lists become bulleted text, paragraphs wrap as
// usual. Inline styling (emphasis, code spans) flattens to plain text.
func FromMarkdown(source string, baseFontSize float64) []Element {
	if baseFontSize <= 0 {
		baseFontSize = 12
	}
	md := goldmark.New()
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))
	return markdownElements(doc, src, baseFontSize)
}

func markdownElements(node ast.Node, source []byte, baseSize float64) []Element {
	var out []Element
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			size := baseSize * 2
			switch {
			case n.Level == 2:
				size = baseSize * 1.5
			case n.Level >= 3:
				size = baseSize * 1.25
			}
			out = append(out, Element{
				Type:         TypeText,
				Text:         string(n.Text(source)),
				FontSize:     size,
				MarginBottom: size * 0.5,
			})
		case *ast.Paragraph:
			out = append(out, Element{
				Type:         TypeText,
				Text:         paragraphText(n, source),
				FontSize:     baseSize,
				MarginBottom: baseSize * 0.5,
			})
		case *ast.List:
			out = append(out, markdownElements(n, source, baseSize)...)
		case *ast.ListItem:
			out = append(out, Element{
				Type:     TypeText,
				Text:     "• " + listItemText(n, source),
				FontSize: baseSize,
			})
		case *ast.ThematicBreak:
			out = append(out, Element{
				Type:         TypeLine,
				Thickness:    0.5,
				MarginTop:    baseSize * 0.5,
				MarginBottom: baseSize * 0.5,
			})
		}
	}
	return out
}

func paragraphText(n *ast.Paragraph, source []byte) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.Write(child.Text(source))
	}
	return sb.String()
}

func listItemText(n *ast.ListItem, source []byte) string {
	child := n.FirstChild()
	if child == nil {
		return ""
	}
	if p, ok := child.(*ast.Paragraph); ok {
		return paragraphText(p, source)
	}
	return string(child.Text(source))
}
