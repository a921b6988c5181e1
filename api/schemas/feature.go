package schemas

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
	"github.com/xkilldash9x/scalpel-locator/internal/uierr"
)

// FeatureNodeType says whether a link stands for one node or a group of similar nodes.
type FeatureNodeType string

const (
	FeatureNodeSingle  FeatureNodeType = "single"
	FeatureNodeSimilar FeatureNodeType = "similar"
)

// ParseFeatureNodeType maps an external type name onto the closed set.
func ParseFeatureNodeType(s string) (FeatureNodeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return FeatureNodeSingle, nil
	case "similar":
		return FeatureNodeSimilar, nil
	default:
		return "", fmt.Errorf("%w: %q", uierr.ErrUnknownNodeType, s)
	}
}

func (t *FeatureNodeType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("feature node type must be a string: %w", err)
	}
	parsed, err := ParseFeatureNodeType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// VisualAttribute is a geometric property compared between a recorded and a live rectangle.
type VisualAttribute string

const (
	VisualLeft   VisualAttribute = "left"
	VisualCenter VisualAttribute = "center"
	VisualRight  VisualAttribute = "right"
	VisualTop    VisualAttribute = "top"
	VisualMiddle VisualAttribute = "middle"
	VisualBottom VisualAttribute = "bottom"
)

// Horizontal reports whether the attribute constrains the x axis.
func (v VisualAttribute) Horizontal() bool {
	return v == VisualLeft || v == VisualCenter || v == VisualRight
}

// ParseVisualAttribute maps an external name onto the closed set.
func ParseVisualAttribute(s string) (VisualAttribute, error) {
	switch v := VisualAttribute(strings.ToLower(strings.TrimSpace(s))); v {
	case VisualLeft, VisualCenter, VisualRight, VisualTop, VisualMiddle, VisualBottom:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", uierr.ErrUnknownVisualAttribute, s)
	}
}

func (v *VisualAttribute) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("visual attribute must be a string: %w", err)
	}
	parsed, err := ParseVisualAttribute(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// DefaultVisualAttributes is used when a link is built without explicit visual constraints.
var DefaultVisualAttributes = []VisualAttribute{VisualLeft, VisualRight, VisualTop, VisualBottom}

// DefaultFuzzy is the default pixel tolerance of a link.
const DefaultFuzzy = 8

// FeatureSelectorNode is one link of a feature selector. Bounding is relative
// to the origin shared by every link of the chain.
type FeatureSelectorNode struct {
	Name             string              `json:"name"`
	Type             FeatureNodeType     `json:"type"`
	Bounding         geometry.Rect       `json:"bounding"`
	IsAnchor         bool                `json:"isAnchor"`
	AllowNull        bool                `json:"allowNull"`
	VisualAttributes []VisualAttribute   `json:"visualAttributes"`
	Attributes       []SelectorAttribute `json:"attributes"`
	SimilarAlignment []VisualAttribute   `json:"similarAlignment"`
	Fuzzy            int                 `json:"fuzzy"`
}

// FeatureSelector is the persisted build artifact: an ordered chain of links.
type FeatureSelector []FeatureSelectorNode

// Validate checks structural invariants that parsing alone cannot enforce.
func (fs FeatureSelector) Validate() error {
	if len(fs) == 0 {
		return fmt.Errorf("feature selector is empty")
	}
	for i, n := range fs {
		if n.Name == "" {
			return fmt.Errorf("link %d has no name", i)
		}
		if n.Fuzzy < 0 {
			return fmt.Errorf("link %q has a negative fuzzy tolerance", n.Name)
		}
		if n.Type == FeatureNodeSimilar && len(n.SimilarAlignment) == 0 {
			return fmt.Errorf("similar link %q has no alignment", n.Name)
		}
	}
	return nil
}

// Index returns the position of the first link with the given name, or -1.
func (fs FeatureSelector) Index(name string) int {
	for i, n := range fs {
		if n.Name == name {
			return i
		}
	}
	return -1
}
