// File: internal/attrs/extract.go
package attrs

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
)

// Map is a node's normalized attribute set keyed by attribute name.
type Map map[string]string

var attributeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

const (
	maxTitleLength     = 50
	maxInnerTextLength = 50
)

// Extract normalizes n into an attribute map. Class tokens are lower-cased and
// sorted so that class comparisons ignore order. Style never takes part.
func Extract(n dom.Node) Map {
	m := Map{}
	for _, name := range n.AttributeNames() {
		if !attributeNamePattern.MatchString(name) {
			continue
		}
		value, _ := n.Attribute(name)
		switch name {
		case schemas.AttrTitle:
			if jsLength(value) < maxTitleLength {
				m[name] = value
			}
		case schemas.AttrClass, schemas.AttrStyle:
		default:
			m[name] = value
		}
	}

	if classes := dom.ClassList(n); len(classes) > 0 {
		m[schemas.AttrClass] = NormalizeClass(classes)
	}

	if dom.ChildElementCount(n) == 0 && !dom.MatchesTag(n, dom.TagInput, dom.TagSelect, dom.TagTextarea) {
		if text := n.InnerText(); text != "" && jsLength(text) < maxInnerTextLength {
			m[schemas.AttrInnerText] = text
		}
	}

	m[schemas.AttrTagName] = n.TagName()

	if dom.ParentElement(n) != nil {
		pos := strconv.Itoa(dom.IndexOfType(n))
		m[schemas.AttrIndex] = pos
		m[schemas.AttrIndexOfType] = pos
	}
	return m
}

// jsLength is the length of s in UTF-16 code units, the unit recorded
// selectors measure text in.
func jsLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// NormalizeClass lower-cases, sorts and space-joins class tokens.
func NormalizeClass(tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	sort.Strings(out)
	return strings.Join(out, " ")
}

// Names returns the map's keys in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone copies the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
