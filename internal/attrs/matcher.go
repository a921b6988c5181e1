// File: internal/attrs/matcher.go
package attrs

import (
	"strconv"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/i18n"
	"github.com/xkilldash9x/scalpel-locator/internal/uierr"
)

// MaxPatternInput bounds the length, in UTF-16 code units, of values tested
// against regex and wildcard constraints. Longer values never match.
const MaxPatternInput = 5 * 1024

// maxCachedPatterns bounds the compiled-pattern cache. A full cache is
// dropped and refilled.
const maxCachedPatterns = 256

// Matcher evaluates recorded attribute constraints against nodes. Compiled
// patterns are cached, so a Matcher should be reused across queries.
type Matcher struct {
	localizer i18n.Localizer

	mu    sync.Mutex
	cache map[patternKey]*regexp2.Regexp
}

type patternKey struct {
	expr string
	opts regexp2.RegexOptions
}

// NewMatcher creates a Matcher reporting pattern errors through localizer.
func NewMatcher(localizer i18n.Localizer) *Matcher {
	return &Matcher{
		localizer: localizer,
		cache:     make(map[patternKey]*regexp2.Regexp),
	}
}

// MatchNode reports whether n satisfies every required constraint. An empty
// constraint list always matches. isLast marks the innermost link of a chain,
// where innerText is read live for nodes that have children.
func (m *Matcher) MatchNode(n dom.Node, constraints []schemas.SelectorAttribute, isLast bool) (bool, error) {
	if len(constraints) == 0 {
		return true, nil
	}

	var attrs Map
	for _, c := range constraints {
		if !c.Required {
			continue
		}
		if attrs == nil {
			attrs = Extract(n)
		}

		switch c.Name {
		case schemas.AttrIndex:
			if !matchIndex(len(dom.Siblings(n)), dom.IndexOfType(n), c.Value) {
				return false, nil
			}
		case schemas.AttrIndexOfType:
			if !matchIndex(len(dom.SameTagSiblings(n)), dom.IndexOfType(n), c.Value) {
				return false, nil
			}
		case schemas.AttrDisplay:
			if strconv.FormatBool(IsDisplayed(n)) != c.Value {
				return false, nil
			}
		default:
			if c.Name == schemas.AttrType && c.Value == "text" && dom.MatchesTag(n, dom.TagInput) {
				// An input without a type attribute is a text input.
				if v, ok := attrs[schemas.AttrType]; ok && v != "text" {
					return false, nil
				}
				continue
			}
			value, ok := attrs[c.Name]
			if isLast && c.Name == schemas.AttrInnerText && dom.ChildElementCount(n) > 0 {
				value, ok = n.InnerText(), true
			}
			matched, err := m.MatchValue(value, ok, c)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
	}
	return true, nil
}

// MatchValue applies c's operator to an observed value. present is false when
// the node has no such attribute.
func (m *Matcher) MatchValue(value string, present bool, c schemas.SelectorAttribute) (bool, error) {
	switch c.Operator {
	case schemas.OperatorEqual:
		if !present {
			return false, nil
		}
		if c.Name == schemas.AttrClass {
			return value == c.Value || (value != "" && value == NormalizeClass(strings.Fields(c.Value))), nil
		}
		return value == c.Value, nil

	case schemas.OperatorIncludes:
		if !present {
			return false, nil
		}
		if c.Name == schemas.AttrClass {
			return value == c.Value || (value != "" && containsAllTokens(value, c.Value)), nil
		}
		// Non-class attributes compare strictly.
		return value == c.Value, nil

	case schemas.OperatorRegex:
		if jsLength(value) > MaxPatternInput {
			return false, nil
		}
		re, err := m.compile(c.Value, regexp2.ECMAScript)
		if err != nil {
			return false, err
		}
		return re.MatchString(value)

	case schemas.OperatorWildcard:
		if jsLength(value) > MaxPatternInput {
			return false, nil
		}
		re, err := m.compile(WildcardToPattern(c.Value), regexp2.ECMAScript|regexp2.IgnoreCase|regexp2.Multiline)
		if err != nil {
			return false, err
		}
		return re.MatchString(value)

	default:
		return false, nil
	}
}

func (m *Matcher) compile(expr string, opts regexp2.RegexOptions) (*regexp2.Regexp, error) {
	key := patternKey{expr: expr, opts: opts}

	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.cache[key]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, &uierr.PatternError{
			Pattern: expr,
			Message: m.localizer.Sprintf(i18n.InvalidRegexWithError, expr),
			Err:     err,
		}
	}
	if len(m.cache) >= maxCachedPatterns {
		clear(m.cache)
	}
	m.cache[key] = re
	return re, nil
}

// WildcardToPattern anchors a wildcard expression where * matches any run of
// characters and ? matches exactly one. Other characters keep their regular
// expression meaning, so recorded selectors such as "2024.06" match "2024-06".
func WildcardToPattern(wildcard string) string {
	r := strings.NewReplacer("*", ".*", "?", ".")
	return "^" + r.Replace(wildcard) + "$"
}

func containsAllTokens(value, wanted string) bool {
	have := make(map[string]struct{})
	for _, t := range strings.Fields(value) {
		have[t] = struct{}{}
	}
	for _, t := range strings.Fields(wanted) {
		if _, ok := have[strings.ToLower(t)]; !ok {
			return false
		}
	}
	return true
}

// matchIndex checks a recorded index constraint. A negative constraint counts
// from the end: it holds when total equals |constraint| + |position|.
func matchIndex(total, position int, constraint string) bool {
	want, ok := ParseLeadingInt(constraint)
	if !ok {
		return false
	}
	if want < 0 {
		return total == abs(want)+abs(position)
	}
	return want == position
}

// ParseLeadingInt parses the leading base-10 integer of s after optional
// whitespace and sign, ignoring anything that follows it.
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f\v\u00a0\ufeff")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
