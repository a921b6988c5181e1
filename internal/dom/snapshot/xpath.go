// File: internal/dom/snapshot/xpath.go
package snapshot

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/scalpel-locator/internal/dom"
)

// XPath describes a node with an XPath expression, anchoring on the nearest
// ancestor-or-self that carries an id. Shadow boundaries are rendered as the
// template step that declares them.
func XPath(n dom.Node) string {
	if n == nil {
		return ""
	}

	var path []string
	for cur := n; cur != nil; {
		if cur.IsShadowRoot() {
			path = append(path, `template[@shadowrootmode]`)
			cur = cur.Host()
			continue
		}

		tag := strings.ToLower(cur.TagName())
		if id, ok := cur.Attribute("id"); ok && id != "" {
			path = append(path, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}

		// XPath indices are 1-based.
		path = append(path, fmt.Sprintf("%s[%d]", tag, dom.IndexOfType(cur)+1))
		cur = cur.ParentNode()
	}

	if len(path) == 0 {
		return "/"
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//*[@id=") {
		xpath = "/" + xpath
	}
	return xpath
}
