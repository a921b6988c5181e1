// File: internal/selector/chain.go
package selector

import (
	"strings"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/attrs"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/webnode"
)

// MatchResult reports how far a chain resolved. FailureIndex is the index of
// the first link that failed, or the chain length when every link matched.
type MatchResult struct {
	IsMatch      bool
	FailureIndex int
}

// Matcher evaluates selector chains against nodes.
type Matcher struct {
	attrs *attrs.Matcher
}

// NewMatcher creates a chain matcher on top of an attribute matcher.
func NewMatcher(m *attrs.Matcher) *Matcher {
	return &Matcher{attrs: m}
}

// Attributes exposes the underlying attribute matcher.
func (m *Matcher) Attributes() *attrs.Matcher { return m.attrs }

// MatchLink reports whether n satisfies the required constraints of one link.
func (m *Matcher) MatchLink(n dom.Node, constraints []schemas.SelectorAttribute, isLast bool) (bool, error) {
	return m.attrs.MatchNode(n, constraints, isLast)
}

// MatchChain checks chain against n and its ancestors, walking from the last
// link to the first. A shadow root marker link requires the walk to sit on a
// shadow root and moves it to the host without consuming a parent step.
func (m *Matcher) MatchChain(n dom.Node, chain []schemas.SelectorNode) (MatchResult, error) {
	el, cur := n, n
	for i := len(chain) - 1; i >= 0; i-- {
		link := chain[i]
		if link.IsShadowRootMarker() {
			if cur == nil || !cur.IsShadowRoot() {
				return MatchResult{FailureIndex: i}, nil
			}
			cur = cur.Host()
			el = cur
			continue
		}

		if !dom.IsElement(el) {
			return MatchResult{FailureIndex: i}, nil
		}
		ok, err := m.attrs.MatchNode(el, link.Attributes, i == len(chain)-1)
		if err != nil {
			return MatchResult{FailureIndex: i}, err
		}
		if !ok {
			return MatchResult{FailureIndex: i}, nil
		}
		el = dom.ParentElement(el)
		cur = cur.ParentNode()
	}
	return MatchResult{IsMatch: true, FailureIndex: len(chain)}, nil
}

// QueryPath returns every element under root, shadow trees included, that
// carries the tag of the path's last link and matches the whole path. Results
// are in document order.
func (m *Matcher) QueryPath(root dom.Node, path []schemas.SelectorNode) ([]dom.Node, error) {
	if len(path) == 0 || root == nil {
		return nil, nil
	}
	last := path[len(path)-1]

	var (
		out     []dom.Node
		walkErr error
	)
	dom.Walk(root, func(n dom.Node) bool {
		if !dom.IsElement(n) || (last.Name != "" && !strings.EqualFold(n.TagName(), last.Name)) {
			return true
		}
		res, err := m.MatchChain(n, path)
		if err != nil {
			walkErr = err
			return false
		}
		if res.IsMatch {
			out = append(out, n)
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

// BuildPath records the chain from the outermost ancestor below the document
// body down to n. Each link requires the attributes that tell its node apart
// from its same-tag siblings. Crossing into a shadow host emits a marker link.
func BuildPath(n dom.Node) []schemas.SelectorNode {
	var reversed []schemas.SelectorNode
	for cur := n; dom.IsElement(cur) && !dom.MatchesTag(cur, dom.TagBody, dom.TagHTML); {
		w := webnode.New(cur)
		for _, sib := range dom.SameTagSiblings(cur) {
			if sib == cur {
				continue
			}
			if name, ok := w.Diff(webnode.New(sib)); ok {
				w = w.Require(name)
			}
		}
		reversed = append(reversed, w.ToSelectorNode())

		parent := cur.ParentNode()
		if parent != nil && parent.IsShadowRoot() {
			reversed = append(reversed, schemas.ShadowRootLink())
			cur = parent.Host()
			continue
		}
		cur = parent
	}

	path := make([]schemas.SelectorNode, len(reversed))
	for i, link := range reversed {
		path[len(reversed)-1-i] = link
	}
	return path
}
