package template

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FromHTML converts an HTML fragment into body elements. Headings,
// paragraphs, list items and horizontal rules map to their layout
// equivalents; all other markup flattens to its text content.
func FromHTML(source string, baseFontSize float64) ([]Element, error) {
	if baseFontSize <= 0 {
		baseFontSize = 12
	}
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	var out []Element
	walkHTML(doc, baseFontSize, &out)
	return out, nil
}

func walkHTML(n *html.Node, baseSize float64, out *[]Element) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			size := baseSize * 2
			switch n.DataAtom {
			case atom.H2:
				size = baseSize * 1.5
			case atom.H3, atom.H4, atom.H5, atom.H6:
				size = baseSize * 1.25
			}
			*out = append(*out, Element{
				Type:         TypeText,
				Text:         htmlText(n),
				FontSize:     size,
				MarginBottom: size * 0.5,
			})
			return
		case atom.P:
			*out = append(*out, Element{
				Type:         TypeText,
				Text:         htmlText(n),
				FontSize:     baseSize,
				MarginBottom: baseSize * 0.5,
			})
			return
		case atom.Li:
			*out = append(*out, Element{
				Type:     TypeText,
				Text:     "• " + htmlText(n),
				FontSize: baseSize,
			})
			return
		case atom.Hr:
			*out = append(*out, Element{
				Type:         TypeLine,
				Thickness:    0.5,
				MarginTop:    baseSize * 0.5,
				MarginBottom: baseSize * 0.5,
			})
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, baseSize, out)
	}
}

func htmlText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
