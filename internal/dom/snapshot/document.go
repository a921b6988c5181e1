// File: internal/dom/snapshot/document.go
package snapshot

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

// Document is one captured page: the root element plus lookup indexes.
type Document struct {
	URL    string
	root   *Node
	frames []*Node

	mirror   *html.Node
	fromHTML map[*html.Node]*Node
}

// NewDocument indexes a tree built with NewElement.
func NewDocument(url string, root *Node) *Document {
	d := &Document{URL: url, root: root}
	dom.Walk(root, func(n dom.Node) bool {
		if dom.MatchesTag(n, dom.TagIFrame, dom.TagFrame) {
			d.frames = append(d.frames, n.(*Node))
		}
		return true
	})
	return d
}

// Root is the document element.
func (d *Document) Root() dom.Node {
	if d.root == nil {
		return nil
	}
	return d.root
}

// Body is the BODY element, or the root when there is none.
func (d *Document) Body() dom.Node {
	for _, c := range d.root.children {
		if c.tag == dom.TagBody {
			return c
		}
	}
	return d.Root()
}

// FrameIndex is the document-order index of a frame element, or -1.
func (d *Document) FrameIndex(n dom.Node) int {
	for i, f := range d.frames {
		if dom.Node(f) == n {
			return i
		}
	}
	return -1
}

// FrameOffset is the content offset of a frame element.
func (d *Document) FrameOffset(n dom.Node) geometry.Point {
	if sn, ok := n.(*Node); ok {
		return sn.contentOffset
	}
	return geometry.Point{}
}

// ElementFromPoint returns the topmost rendered element under p, or nil. The
// deepest hit wins; among equally deep hits the later one in document order
// is painted last.
func (d *Document) ElementFromPoint(p geometry.Point) dom.Node {
	var (
		best      *Node
		bestDepth = -1
	)
	var visit func(n *Node, depth int, hidden bool)
	visit = func(n *Node, depth int, hidden bool) {
		if !n.IsShadowRoot() {
			hidden = hidden || n.styles["display"] == "none"
			r := n.rect
			if !hidden && n.styles["visibility"] == "visible" && r.Width > 0 && r.Height > 0 &&
				p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom() &&
				depth >= bestDepth {
				best, bestDepth = n, depth
			}
		}
		if n.shadow != nil {
			visit(n.shadow, depth+1, hidden)
		}
		for _, c := range n.children {
			visit(c, depth+1, hidden)
		}
	}
	if d.root != nil {
		visit(d.root, 0, false)
	}
	if best == nil {
		return nil
	}
	return best
}

// FindXPath evaluates an XPath expression against the document. Shadow roots
// appear as <template shadowrootmode="open"> children of their hosts.
func (d *Document) FindXPath(expr string) ([]dom.Node, error) {
	if d.mirror == nil {
		d.buildMirror()
	}
	found, err := htmlquery.QueryAll(d.mirror, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	var out []dom.Node
	for _, h := range found {
		if n, ok := d.fromHTML[h]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// MustFindOne is FindXPath for tests and fixtures: it panics unless exactly one node matches.
func (d *Document) MustFindOne(expr string) *Node {
	found, err := d.FindXPath(expr)
	if err != nil {
		panic(err)
	}
	if len(found) != 1 {
		panic(fmt.Sprintf("xpath %q matched %d nodes", expr, len(found)))
	}
	return found[0].(*Node)
}

func (d *Document) buildMirror() {
	d.fromHTML = make(map[*html.Node]*Node)
	doc := &html.Node{Type: html.DocumentNode}
	if d.root != nil {
		doc.AppendChild(d.mirrorNode(d.root))
	}
	d.mirror = doc
}

func (d *Document) mirrorNode(n *Node) *html.Node {
	h := &html.Node{Type: html.ElementNode}
	if n.IsShadowRoot() {
		h.Data = "template"
		h.Attr = []html.Attribute{{Key: "shadowrootmode", Val: "open"}}
	} else {
		h.Data = strings.ToLower(n.tag)
		for _, a := range n.attrs {
			h.Attr = append(h.Attr, html.Attribute{Key: a.Name, Val: a.Value})
		}
	}
	d.fromHTML[h] = n
	if n.text != "" {
		h.AppendChild(&html.Node{Type: html.TextNode, Data: n.text})
	}
	if n.shadow != nil {
		h.AppendChild(d.mirrorNode(n.shadow))
	}
	for _, c := range n.children {
		h.AppendChild(d.mirrorNode(c))
	}
	return h
}
