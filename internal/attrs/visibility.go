// File: internal/attrs/visibility.go
package attrs

import "github.com/xkilldash9x/scalpel-locator/internal/dom"

// IsDisplayed reports whether n is rendered. The node itself must be
// visibility:visible; after that any element on the way up with an empty or
// "none" display, or an opacity of exactly 0, hides it. Partial opacity does not.
func IsDisplayed(n dom.Node) bool {
	if !dom.IsElement(n) || n.ComputedStyle("visibility") != "visible" {
		return false
	}
	for cur := n; dom.IsElement(cur); cur = cur.ParentNode() {
		display := cur.ComputedStyle("display")
		if display == "" || display == "none" || cur.ComputedStyle("opacity") == "0" {
			return false
		}
	}
	return true
}
