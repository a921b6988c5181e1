// File: internal/feature/layout.go
package feature

import (
	"strings"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

// Layout is a point-in-time snapshot of a subtree: its elements in breadth-first
// order and their boxes relative to the subtree root. Shadow trees are not
// entered.
type Layout struct {
	root  dom.Node
	nodes []dom.Node
	rects map[dom.Node]geometry.Rect
}

// Flatten snapshots the subtree under root.
func Flatten(root dom.Node) *Layout {
	l := &Layout{root: root, rects: map[dom.Node]geometry.Rect{}}
	if root == nil {
		return l
	}
	origin := root.BoundingClientRect().Origin()
	for _, n := range dom.BreadthFirst(root) {
		if !dom.IsElement(n) {
			continue
		}
		l.nodes = append(l.nodes, n)
		l.rects[n] = n.BoundingClientRect().RelativeTo(origin)
	}
	return l
}

// Root is the subtree root.
func (l *Layout) Root() dom.Node { return l.root }

// Nodes lists the elements in breadth-first order.
func (l *Layout) Nodes() []dom.Node { return l.nodes }

// Len is the number of elements in the layout.
func (l *Layout) Len() int { return len(l.nodes) }

// Rect returns the root-relative box of n.
func (l *Layout) Rect(n dom.Node) (geometry.Rect, bool) {
	r, ok := l.rects[n]
	return r, ok
}

// QuerySimilar expands origin into the group of same-tag elements sharing its
// position along each axis in turn. A member whose group along an axis has
// fewer than two elements contributes nothing for that axis. With no axes the
// group is origin alone.
func (l *Layout) QuerySimilar(origin dom.Node, axes []schemas.VisualAttribute) []dom.Node {
	matched := []dom.Node{origin}
	tag := strings.ToUpper(origin.TagName())
	for _, axis := range axes {
		var next []dom.Node
		seen := map[dom.Node]struct{}{}
		for _, m := range matched {
			mr, ok := l.rects[m]
			if !ok {
				continue
			}
			var group []dom.Node
			for _, n := range l.nodes {
				if strings.ToUpper(n.TagName()) == tag && sameAxis(axis, mr, l.rects[n]) {
					group = append(group, n)
				}
			}
			if len(group) < 2 {
				continue
			}
			for _, n := range group {
				if _, dup := seen[n]; !dup {
					seen[n] = struct{}{}
					next = append(next, n)
				}
			}
		}
		matched = next
	}
	return matched
}

func sameAxis(axis schemas.VisualAttribute, a, b geometry.Rect) bool {
	switch axis {
	case schemas.VisualLeft:
		return a.X == b.X
	case schemas.VisualCenter:
		return a.FloorCenterX() == b.FloorCenterX()
	case schemas.VisualRight:
		return a.Right() == b.Right()
	case schemas.VisualTop:
		return a.Y == b.Y
	case schemas.VisualMiddle:
		return a.FloorCenterY() == b.FloorCenterY()
	case schemas.VisualBottom:
		return a.Bottom() == b.Bottom()
	}
	return false
}

// IsDirectPath reports whether a is a strict ancestor of b and every node on
// the way from b up to a is an only child.
func IsDirectPath(a, b dom.Node) bool {
	if a == b || !dom.Contains(a, b) {
		return false
	}
	for cur := b; cur != nil && cur != a; cur = cur.ParentNode() {
		if len(dom.Siblings(cur)) > 1 {
			return false
		}
	}
	return true
}
