// File: internal/dom/snapshot/node.go
package snapshot

import (
	"strings"

	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

// Attr is one attribute in document order.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Node is an immutable-after-load element or shadow root of a captured tree.
type Node struct {
	tag      string
	attrs    []Attr
	text     string
	styles   map[string]string
	rect     geometry.DOMRect
	parent   *Node
	children []*Node
	view     []dom.Node
	shadow   *Node
	host     *Node

	// contentOffset is the distance from a frame's border box to its content box.
	contentOffset geometry.Point
}

var _ dom.Node = (*Node)(nil)

// NewElement creates a detached element.
func NewElement(tag string) *Node {
	return &Node{tag: strings.ToUpper(tag), styles: map[string]string{}}
}

// SetAttr sets or replaces an attribute, keeping first-seen order.
func (n *Node) SetAttr(name, value string) *Node {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return n
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
	return n
}

// SetRect sets the page-relative border box.
func (n *Node) SetRect(r geometry.DOMRect) *Node {
	n.rect = r
	return n
}

// SetStyle sets a computed style property.
func (n *Node) SetStyle(property, value string) *Node {
	n.styles[property] = value
	return n
}

// AppendText adds a run of the node's own text.
func (n *Node) AppendText(text string) *Node {
	text = collapseSpace(text)
	if text == "" {
		return n
	}
	if n.text == "" {
		n.text = text
	} else {
		n.text += " " + text
	}
	return n
}

// SetContentOffset sets the frame content offset used when rebasing points into a frame.
func (n *Node) SetContentOffset(p geometry.Point) *Node {
	n.contentOffset = p
	return n
}

// Append attaches child as the last child of n.
func (n *Node) Append(child *Node) *Node {
	child.parent = n
	n.children = append(n.children, child)
	n.view = append(n.view, child)
	return n
}

// AttachShadow creates, or returns the existing, shadow root of n.
func (n *Node) AttachShadow() *Node {
	if n.shadow == nil {
		n.shadow = &Node{styles: map[string]string{}, host: n}
	}
	return n.shadow
}

func (n *Node) TagName() string { return n.tag }

func (n *Node) ParentNode() dom.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []dom.Node { return n.view }

func (n *Node) AttributeNames() []string {
	names := make([]string, len(n.attrs))
	for i, a := range n.attrs {
		names[i] = a.Name
	}
	return names
}

func (n *Node) Attribute(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// InnerText joins the node's own text with the text of its rendered descendants.
func (n *Node) InnerText() string {
	var parts []string
	n.collectText(&parts)
	return strings.Join(parts, " ")
}

func (n *Node) collectText(parts *[]string) {
	if n.text != "" {
		*parts = append(*parts, n.text)
	}
	for _, c := range n.children {
		if c.styles["display"] == "none" {
			continue
		}
		c.collectText(parts)
	}
}

func (n *Node) BoundingClientRect() geometry.DOMRect { return n.rect }

func (n *Node) ComputedStyle(property string) string { return n.styles[property] }

func (n *Node) IsShadowRoot() bool { return n.host != nil }

func (n *Node) Host() dom.Node {
	if n.host == nil {
		return nil
	}
	return n.host
}

func (n *Node) ShadowRoot() dom.Node {
	if n.shadow == nil {
		return nil
	}
	return n.shadow
}

// ContentOffset is the frame content offset.
func (n *Node) ContentOffset() geometry.Point { return n.contentOffset }

func (n *Node) String() string {
	if n.IsShadowRoot() {
		return "#shadow-root"
	}
	return XPath(n)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
