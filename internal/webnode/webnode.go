// File: internal/webnode/webnode.go
package webnode

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/attrs"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
)

const maxSelectorValueLength = 1000

var (
	// diffOrder is the priority in which attributes are tried as discriminators.
	diffOrder = []string{
		schemas.AttrType,
		schemas.AttrID,
		schemas.AttrName,
		schemas.AttrTitle,
		schemas.AttrInnerText,
		schemas.AttrClass,
		schemas.AttrDisplay,
		schemas.AttrIndex,
	}

	numericID = regexp.MustCompile(`\d`)
	// stateClass matches class tokens that track pointer or open state rather than identity.
	stateClass = regexp.MustCompile(`hover|[^a-zA-Z](?:on|open|active)`)
)

// WebNode wraps a node for selector construction. It holds the node's
// normalized attributes and the set of attribute names a selector must
// require. A WebNode is never modified after construction: Require returns a
// new wrapper.
type WebNode struct {
	node      dom.Node
	classes   []string
	attrs     attrs.Map
	required  map[string]struct{}
	forbidden map[string]struct{}
}

// New wraps n. Names in forbidden are never chosen as discriminators by
// DiffFeature. Form controls start with their type and name required.
func New(n dom.Node, forbidden ...string) *WebNode {
	w := &WebNode{
		node:      n,
		classes:   dom.ClassList(n),
		attrs:     attrs.Extract(n),
		required:  map[string]struct{}{},
		forbidden: map[string]struct{}{},
	}
	for _, f := range forbidden {
		w.forbidden[f] = struct{}{}
	}
	if dom.MatchesTag(n, dom.TagInput, dom.TagButton, dom.TagSelect) {
		for _, name := range []string{schemas.AttrType, schemas.AttrName} {
			if w.attr(name) != "" {
				w.required[name] = struct{}{}
			}
		}
	}
	return w
}

// Node is the wrapped node.
func (w *WebNode) Node() dom.Node { return w.node }

// Attributes returns a copy of the normalized attribute map.
func (w *WebNode) Attributes() attrs.Map { return w.attrs.Clone() }

// IsRequired reports whether name is part of the required set.
func (w *WebNode) IsRequired(name string) bool {
	_, ok := w.required[name]
	return ok
}

// Required lists the required attribute names in sorted order.
func (w *WebNode) Required() []string {
	out := make([]string, 0, len(w.required))
	for name := range w.required {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Require returns a copy of w with name added to the required set. Requiring
// the synthetic display attribute also records it as "true".
func (w *WebNode) Require(name string) *WebNode {
	if name == "" {
		return w
	}
	next := &WebNode{
		node:      w.node,
		classes:   w.classes,
		attrs:     w.attrs.Clone(),
		required:  make(map[string]struct{}, len(w.required)+1),
		forbidden: w.forbidden,
	}
	for k := range w.required {
		next.required[k] = struct{}{}
	}
	next.required[name] = struct{}{}
	if name == schemas.AttrDisplay {
		next.attrs[schemas.AttrDisplay] = "true"
	}
	return next
}

// Diff looks for the first attribute, in priority order, that tells w apart
// from other. It reports ok when a discriminator was found, or when both wrap
// the same node, in which case name is empty.
func (w *WebNode) Diff(other *WebNode) (name string, ok bool) {
	if w.node == other.node {
		return "", true
	}
	return w.firstDifference(other, diffOrder)
}

// DiffFeature is Diff with tagName tried first and the forbidden names skipped.
func (w *WebNode) DiffFeature(other *WebNode) (name string, ok bool) {
	if w.node == other.node {
		return "", true
	}
	names := make([]string, 0, len(diffOrder)+1)
	for _, n := range append([]string{schemas.AttrTagName}, diffOrder...) {
		if _, skip := w.forbidden[n]; !skip {
			names = append(names, n)
		}
	}
	return w.firstDifference(other, names)
}

// Distinguish folds the result of DiffFeature into a new wrapper.
func (w *WebNode) Distinguish(other *WebNode) (*WebNode, bool) {
	name, ok := w.DiffFeature(other)
	if !ok {
		return w, false
	}
	return w.Require(name), true
}

func (w *WebNode) firstDifference(other *WebNode, names []string) (string, bool) {
	for _, name := range names {
		switch name {
		case schemas.AttrID:
			id := w.attr(name)
			if numericID.MatchString(id) {
				continue
			}
			if id != "" && id != other.attr(name) {
				return name, true
			}
		case schemas.AttrClass:
			if w.classDiffers(other) {
				return name, true
			}
		case schemas.AttrDisplay:
			if !attrs.IsDisplayed(other.node) && attrs.IsDisplayed(w.node) {
				return name, true
			}
		default:
			if v := w.attr(name); v != "" && v != other.attr(name) {
				return name, true
			}
		}
	}
	return "", false
}

func (w *WebNode) classDiffers(other *WebNode) bool {
	if len(w.classes) == 0 {
		return false
	}
	theirs := make(map[string]struct{}, len(other.classes))
	for _, c := range other.classes {
		theirs[c] = struct{}{}
	}
	var own []string
	for _, c := range w.classes {
		if _, ok := theirs[c]; !ok {
			own = append(own, c)
		}
	}
	return len(own) > 0 && !stateClass.MatchString(strings.Join(own, " "))
}

// attr returns the value of name, treating an empty value as absent.
func (w *WebNode) attr(name string) string {
	return w.attrs[name]
}

// ToSelectorAttributes converts the attribute map into selector constraints
// sorted by name, flagging the required ones. srcdoc and overly long values
// are dropped.
func (w *WebNode) ToSelectorAttributes(withTagName bool) []schemas.SelectorAttribute {
	out := make([]schemas.SelectorAttribute, 0, len(w.attrs))
	for _, name := range w.attrs.Names() {
		value := w.attrs[name]
		if name == schemas.AttrSrcdoc || utf8.RuneCountInString(value) > maxSelectorValueLength {
			continue
		}
		if !withTagName && name == schemas.AttrTagName {
			continue
		}
		out = append(out, schemas.SelectorAttribute{
			Name:     name,
			Value:    value,
			Operator: schemas.OperatorEqual,
			Required: w.IsRequired(name),
		})
	}
	return out
}

// ToSelectorNode renders w as one link of a plain selector path.
func (w *WebNode) ToSelectorNode() schemas.SelectorNode {
	return schemas.SelectorNode{
		Name:       strings.ToLower(w.node.TagName()),
		Type:       schemas.SelectorNodeTypeWeb,
		Attributes: w.ToSelectorAttributes(false),
	}
}

// Parent wraps the parent element. It is nil at the document body, the root
// element, or when the parent is not an element.
func (w *WebNode) Parent() *WebNode {
	p := dom.ParentElement(w.node)
	if p == nil || dom.MatchesTag(p, dom.TagBody, dom.TagHTML) {
		return nil
	}
	return New(p)
}
