package schemas

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/scalpel-locator/internal/uierr"
)

// Operator is how a SelectorAttribute value is compared with a node's attribute.
type Operator string

const (
	OperatorEqual    Operator = "equal"
	OperatorIncludes Operator = "includes"
	OperatorRegex    Operator = "regex"
	OperatorWildcard Operator = "wildcard"
)

// ParseOperator maps an external operator name onto the closed Operator set.
// Recorded selectors from older clients spell includes as "Include".
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equal", "":
		return OperatorEqual, nil
	case "includes", "include":
		return OperatorIncludes, nil
	case "regex":
		return OperatorRegex, nil
	case "wildcard":
		return OperatorWildcard, nil
	default:
		return "", fmt.Errorf("%w: %q", uierr.ErrUnknownOperator, s)
	}
}

func (o *Operator) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("operator must be a string: %w", err)
	}
	parsed, err := ParseOperator(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Synthetic and structural attribute names understood by the matcher.
const (
	AttrTagName     = "tagName"
	AttrInnerText   = "innerText"
	AttrClass       = "class"
	AttrID          = "id"
	AttrName        = "name"
	AttrType        = "type"
	AttrTitle       = "title"
	AttrStyle       = "style"
	AttrSrcdoc      = "srcdoc"
	AttrIndex       = "index"
	AttrIndexOfType = "index-of-type"
	AttrDisplay     = "xbox-display"
)

// SelectorAttribute is one recorded attribute constraint. Only required
// attributes take part in matching; the rest are kept for auditing.
type SelectorAttribute struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Operator Operator `json:"operator"`
	Required bool     `json:"required"`
}

// ShadowRootMarker names a SelectorNode that stands for a shadow root boundary.
const ShadowRootMarker = "xbotShadowRoot"

// SelectorNodeTypeWeb is the SelectorNode type for DOM elements.
const SelectorNodeTypeWeb = "Web"

// SelectorNode is one link of a plain ancestor chain, outermost first.
type SelectorNode struct {
	Name       string              `json:"name"`
	Type       string              `json:"type"`
	Attributes []SelectorAttribute `json:"attributes"`
}

// IsShadowRootMarker reports whether the link marks a shadow boundary.
func (n SelectorNode) IsShadowRootMarker() bool {
	return n.Name == ShadowRootMarker
}

// ShadowRootLink returns the boundary marker link.
func ShadowRootLink() SelectorNode {
	return SelectorNode{Name: ShadowRootMarker, Type: SelectorNodeTypeWeb}
}
