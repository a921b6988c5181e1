// File: internal/dom/snapshot/cdp.go
package snapshot

import (
	"fmt"

	"github.com/chromedp/cdproto/domsnapshot"

	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

// ComputedStyles are the properties requested from DOMSnapshot.captureSnapshot,
// in the order FromDOMSnapshot expects them.
var ComputedStyles = []string{"display", "visibility", "opacity"}

const (
	nodeTypeElement  = 1
	nodeTypeText     = 3
	nodeTypeFragment = 11
)

// FromDOMSnapshot converts one captured document into a Document. strs is the
// shared string table returned alongside the documents.
func FromDOMSnapshot(url string, snap *domsnapshot.DocumentSnapshot, strs []string) (*Document, error) {
	if snap == nil || snap.Nodes == nil {
		return nil, fmt.Errorf("snapshot has no node tree")
	}
	tree := snap.Nodes
	str := func(i domsnapshot.StringIndex) string {
		if i < 0 || int(i) >= len(strs) {
			return ""
		}
		return strs[i]
	}

	shadowRoots := map[int64]bool{}
	if tree.ShadowRootType != nil {
		for _, idx := range tree.ShadowRootType.Index {
			shadowRoots[idx] = true
		}
	}

	layoutOf := map[int64]int{}
	if snap.Layout != nil {
		for li, ni := range snap.Layout.NodeIndex {
			layoutOf[ni] = li
		}
	}

	nodes := make([]*Node, len(tree.NodeType))
	var root *Node
	for i, typ := range tree.NodeType {
		parentIdx := int64(-1)
		if i < len(tree.ParentIndex) {
			parentIdx = tree.ParentIndex[i]
		}
		var parent *Node
		if parentIdx >= 0 && int(parentIdx) < len(nodes) {
			parent = nodes[parentIdx]
		}

		switch typ {
		case nodeTypeElement:
			el := NewElement(str(tree.NodeName[i]))
			if i < len(tree.Attributes) {
				pairs := tree.Attributes[i]
				for k := 0; k+1 < len(pairs); k += 2 {
					el.SetAttr(str(domsnapshot.StringIndex(pairs[k])), str(domsnapshot.StringIndex(pairs[k+1])))
				}
			}
			inherited := "visible"
			if parent != nil {
				if v := parent.styles["visibility"]; v != "" {
					inherited = v
				}
			}
			if li, ok := layoutOf[int64(i)]; ok {
				applyLayout(el, snap.Layout, li, str)
			} else {
				// Elements without a layout object are not rendered.
				el.SetStyle("display", "none")
				el.SetStyle("visibility", inherited)
				el.SetStyle("opacity", "1")
			}
			nodes[i] = el
			if parent != nil {
				parent.Append(el)
			} else if root == nil {
				root = el
			}
		case nodeTypeFragment:
			if shadowRoots[int64(i)] && parent != nil && !parent.IsShadowRoot() {
				nodes[i] = parent.AttachShadow()
			}
		case nodeTypeText:
			if parent != nil && !parent.IsShadowRoot() && i < len(tree.NodeValue) {
				parent.AppendText(str(tree.NodeValue[i]))
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("snapshot has no element nodes")
	}
	return NewDocument(url, root), nil
}

func applyLayout(el *Node, layout *domsnapshot.LayoutTreeSnapshot, li int, str func(domsnapshot.StringIndex) string) {
	if li < len(layout.Styles) {
		values := layout.Styles[li]
		for k, prop := range ComputedStyles {
			if k < len(values) {
				el.SetStyle(prop, str(domsnapshot.StringIndex(values[k])))
			}
		}
	}
	if li < len(layout.Bounds) && len(layout.Bounds[li]) == 4 {
		b := layout.Bounds[li]
		el.SetRect(geometry.DOMRect{X: b[0], Y: b[1], Width: b[2], Height: b[3]})
	}
}
