// File: internal/dom/node.go
package dom

import (
	"strings"

	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
	"github.com/xkilldash9x/scalpel-locator/internal/uierr"
)

// Tag names the locator treats specially.
const (
	TagHTML     = "HTML"
	TagBody     = "BODY"
	TagInput    = "INPUT"
	TagButton   = "BUTTON"
	TagSelect   = "SELECT"
	TagTextarea = "TEXTAREA"
	TagIFrame   = "IFRAME"
	TagFrame    = "FRAME"
)

// Node is a read-only view of one node in a rendered tree. Implementations
// must return the same Node value for the same underlying node so that nodes
// can be compared with == and used as map keys.
//
// A Node is either an element or an encapsulation (shadow) root. Shadow roots
// report IsShadowRoot, have an empty TagName and expose their host through Host.
type Node interface {
	// TagName is the upper-case element name.
	TagName() string
	// ParentNode is the raw parent, which may be a shadow root.
	ParentNode() Node
	// Children lists element children in document order.
	Children() []Node
	// AttributeNames lists attribute names in document order.
	AttributeNames() []string
	Attribute(name string) (string, bool)
	// InnerText is the rendered text of the node and its descendants.
	InnerText() string
	// BoundingClientRect is the node's border box in page coordinates.
	BoundingClientRect() geometry.DOMRect
	// ComputedStyle returns the computed value of a CSS property, or "" when unknown.
	ComputedStyle(property string) string

	IsShadowRoot() bool
	// Host is the element a shadow root is attached to. Nil for elements.
	Host() Node
	// ShadowRoot is the attached open shadow root, or nil.
	ShadowRoot() Node
}

// IsElement reports whether n is a non-nil element.
func IsElement(n Node) bool {
	return n != nil && !n.IsShadowRoot()
}

// ParentElement is the parent when it is an element, nil otherwise.
func ParentElement(n Node) Node {
	if n == nil {
		return nil
	}
	p := n.ParentNode()
	if !IsElement(p) {
		return nil
	}
	return p
}

// MatchesTag reports whether n is an element with one of the given upper-case tags.
func MatchesTag(n Node, tags ...string) bool {
	if !IsElement(n) {
		return false
	}
	name := strings.ToUpper(n.TagName())
	for _, t := range tags {
		if t == name {
			return true
		}
	}
	return false
}

// ClassList splits the class attribute into its tokens, preserving case.
func ClassList(n Node) []string {
	v, ok := n.Attribute("class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// ChildElementCount is len(n.Children()).
func ChildElementCount(n Node) int {
	return len(n.Children())
}

// Contains reports whether other is n or a descendant of n without crossing
// a shadow boundary.
func Contains(n, other Node) bool {
	for cur := other; cur != nil; cur = cur.ParentNode() {
		if cur == n {
			return true
		}
	}
	return false
}

// Siblings returns the children of n's parent node, n included. A parentless
// node is its own only sibling.
func Siblings(n Node) []Node {
	p := n.ParentNode()
	if p == nil {
		return []Node{n}
	}
	return p.Children()
}

// SameTagSiblings filters Siblings down to the nodes sharing n's tag.
func SameTagSiblings(n Node) []Node {
	var out []Node
	tag := strings.ToLower(n.TagName())
	for _, s := range Siblings(n) {
		if strings.ToLower(s.TagName()) == tag {
			out = append(out, s)
		}
	}
	return out
}

// IndexOfType is n's zero-based position among its same-tag siblings.
func IndexOfType(n Node) int {
	for i, s := range SameTagSiblings(n) {
		if s == n {
			return i
		}
	}
	return -1
}

// CommonAncestor returns the closest node containing every node in nodes,
// walking raw parents. It fails on empty input.
func CommonAncestor(nodes []Node) (Node, error) {
	if len(nodes) == 0 {
		return nil, &uierr.StructuralError{Op: "common ancestor", Message: "elements is empty"}
	}
	parent := nodes[0]
	for _, n := range nodes {
		if n == nil {
			continue
		}
		for parent != nil && !Contains(parent, n) {
			parent = parent.ParentNode()
		}
	}
	if parent == nil {
		return nil, &uierr.StructuralError{Op: "common ancestor", Message: "elements share no ancestor"}
	}
	return parent, nil
}

// BreadthFirst lists root and its element descendants level by level. Shadow
// trees are not entered.
func BreadthFirst(root Node) []Node {
	if root == nil {
		return nil
	}
	out := []Node{}
	queue := []Node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		queue = append(queue, cur.Children()...)
	}
	return out
}

// Walk visits root and every descendant in document order, entering shadow
// roots before light children. It stops early when fn returns false.
func Walk(root Node, fn func(Node) bool) bool {
	if root == nil {
		return true
	}
	if !fn(root) {
		return false
	}
	if sr := root.ShadowRoot(); sr != nil {
		if !Walk(sr, fn) {
			return false
		}
	}
	for _, c := range root.Children() {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}
