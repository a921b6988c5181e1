// File: internal/dom/snapshot/html.go
package snapshot

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

// Fixture-only attributes consumed by LoadHTML and hidden from the node.
const (
	// RectAttr holds the page-relative border box as "x,y,width,height".
	RectAttr = "data-rect"
	// ContentOffsetAttr holds a frame's content offset as "x,y".
	ContentOffsetAttr = "data-content-offset"
)

var (
	hiddenByDefault = map[string]bool{
		"head": true, "script": true, "style": true, "meta": true, "link": true,
		"title": true, "template": true, "noscript": true, "base": true,
	}
	inlineByDefault = map[string]bool{
		"span": true, "a": true, "b": true, "i": true, "em": true, "strong": true,
		"label": true, "small": true, "img": true, "input": true, "select": true,
		"button": true, "textarea": true, "abbr": true, "code": true,
	}
)

// LoadHTML parses an HTML document into a Document. Geometry comes from
// data-rect attributes, computed style from inline style declarations with
// visibility inherited, and declarative shadow roots from
// <template shadowrootmode> children.
func LoadHTML(r io.Reader, url string) (*Document, error) {
	top, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	rootEl := htmlquery.FindOne(top, "/html")
	if rootEl == nil {
		return nil, fmt.Errorf("document has no html element")
	}
	root, err := convertElement(rootEl, "visible")
	if err != nil {
		return nil, err
	}
	return NewDocument(url, root), nil
}

func convertElement(h *html.Node, inheritedVisibility string) (*Node, error) {
	n := NewElement(h.Data)
	tag := strings.ToLower(h.Data)

	display := "block"
	if hiddenByDefault[tag] {
		display = "none"
	} else if inlineByDefault[tag] {
		display = "inline"
	}
	n.SetStyle("display", display)
	n.SetStyle("visibility", inheritedVisibility)
	n.SetStyle("opacity", "1")

	for _, a := range h.Attr {
		switch a.Key {
		case RectAttr:
			r, err := parseRect(a.Val)
			if err != nil {
				return nil, fmt.Errorf("<%s>: %w", tag, err)
			}
			n.SetRect(r)
		case ContentOffsetAttr:
			x, y, err := parsePair(a.Val)
			if err != nil {
				return nil, fmt.Errorf("<%s>: %w", tag, err)
			}
			n.SetContentOffset(geometry.Point{X: x, Y: y})
		case "style":
			n.SetAttr(a.Key, a.Val)
			for prop, val := range parseInlineStyle(a.Val) {
				n.SetStyle(prop, val)
			}
		default:
			n.SetAttr(a.Key, a.Val)
		}
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if tag != "script" && tag != "style" && tag != "iframe" {
				n.AppendText(c.Data)
			}
		case html.ElementNode:
			if strings.EqualFold(c.Data, "template") && htmlquery.SelectAttr(c, "shadowrootmode") != "" {
				if err := convertShadowRoot(n, c); err != nil {
					return nil, err
				}
				continue
			}
			child, err := convertElement(c, n.styles["visibility"])
			if err != nil {
				return nil, err
			}
			n.Append(child)
		}
	}
	return n, nil
}

func convertShadowRoot(host *Node, tmpl *html.Node) error {
	sr := host.AttachShadow()
	for c := tmpl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		child, err := convertElement(c, host.styles["visibility"])
		if err != nil {
			return err
		}
		sr.Append(child)
	}
	return nil
}

func parseRect(s string) (geometry.DOMRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.DOMRect{}, fmt.Errorf("%s must be x,y,width,height: %q", RectAttr, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.DOMRect{}, fmt.Errorf("invalid %s %q: %w", RectAttr, s, err)
		}
		v[i] = f
	}
	return geometry.DOMRect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func parsePair(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%s must be x,y: %q", ContentOffsetAttr, s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseInlineStyle(s string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important"))
		switch prop {
		case "display", "visibility":
			out[prop] = strings.ToLower(val)
		case "opacity":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				val = strconv.FormatFloat(f, 'f', -1, 64)
			}
			out[prop] = val
		}
	}
	return out
}
