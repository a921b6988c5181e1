package schemas

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Wire shapes keep enum fields as plain strings so that parse errors keep
// their sentinel through the decoder.
type wireAttribute struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Operator string `json:"operator"`
	Required bool   `json:"required"`
}

type wireFeatureNode struct {
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	Bounding         geometry.Rect   `json:"bounding"`
	IsAnchor         bool            `json:"isAnchor"`
	AllowNull        bool            `json:"allowNull"`
	VisualAttributes []string        `json:"visualAttributes"`
	Attributes       []wireAttribute `json:"attributes"`
	SimilarAlignment []string        `json:"similarAlignment"`
	Fuzzy            int             `json:"fuzzy"`
}

type wireSelectorNode struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Attributes []wireAttribute `json:"attributes"`
}

type wireDateSelector struct {
	PanelsBase []wireSelectorNode `json:"panelsBase"`
	Nodes      []wireFeatureNode  `json:"nodes"`
}

func parseAttributes(in []wireAttribute) ([]SelectorAttribute, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]SelectorAttribute, 0, len(in))
	for _, a := range in {
		op, err := ParseOperator(a.Operator)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		out = append(out, SelectorAttribute{Name: a.Name, Value: a.Value, Operator: op, Required: a.Required})
	}
	return out, nil
}

func parseVisuals(in []string) ([]VisualAttribute, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]VisualAttribute, 0, len(in))
	for _, s := range in {
		v, err := ParseVisualAttribute(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (w wireFeatureNode) parse() (FeatureSelectorNode, error) {
	typ, err := ParseFeatureNodeType(w.Type)
	if err != nil {
		return FeatureSelectorNode{}, err
	}
	visuals, err := parseVisuals(w.VisualAttributes)
	if err != nil {
		return FeatureSelectorNode{}, err
	}
	alignment, err := parseVisuals(w.SimilarAlignment)
	if err != nil {
		return FeatureSelectorNode{}, err
	}
	attrs, err := parseAttributes(w.Attributes)
	if err != nil {
		return FeatureSelectorNode{}, err
	}
	return FeatureSelectorNode{
		Name:             w.Name,
		Type:             typ,
		Bounding:         w.Bounding,
		IsAnchor:         w.IsAnchor,
		AllowNull:        w.AllowNull,
		VisualAttributes: visuals,
		Attributes:       attrs,
		SimilarAlignment: alignment,
		Fuzzy:            w.Fuzzy,
	}, nil
}

func parseFeatureNodes(in []wireFeatureNode) (FeatureSelector, error) {
	fs := make(FeatureSelector, 0, len(in))
	for i, w := range in {
		n, err := w.parse()
		if err != nil {
			return nil, fmt.Errorf("link %d (%s): %w", i, w.Name, err)
		}
		fs = append(fs, n)
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return fs, nil
}

// DecodeFeatureSelector parses and validates a persisted feature selector.
func DecodeFeatureSelector(data []byte) (FeatureSelector, error) {
	var wire []wireFeatureNode
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode feature selector: %w", err)
	}
	fs, err := parseFeatureNodes(wire)
	if err != nil {
		return nil, fmt.Errorf("invalid feature selector: %w", err)
	}
	return fs, nil
}

// DecodeSelectorPath parses a plain selector path.
func DecodeSelectorPath(data []byte) ([]SelectorNode, error) {
	var wire []wireSelectorNode
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode selector path: %w", err)
	}
	return parseSelectorPath(wire)
}

func parseSelectorPath(in []wireSelectorNode) ([]SelectorNode, error) {
	out := make([]SelectorNode, 0, len(in))
	for _, w := range in {
		attrs, err := parseAttributes(w.Attributes)
		if err != nil {
			return nil, fmt.Errorf("selector node %q: %w", w.Name, err)
		}
		out = append(out, SelectorNode{Name: w.Name, Type: w.Type, Attributes: attrs})
	}
	return out, nil
}

// DecodeDateSelector parses and validates a persisted date selector.
func DecodeDateSelector(data []byte) (*DateSelector, error) {
	var wire wireDateSelector
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode date selector: %w", err)
	}
	base, err := parseSelectorPath(wire.PanelsBase)
	if err != nil {
		return nil, fmt.Errorf("invalid date selector: %w", err)
	}
	nodes, err := parseFeatureNodes(wire.Nodes)
	if err != nil {
		return nil, fmt.Errorf("invalid date selector: %w", err)
	}
	return &DateSelector{PanelsBase: base, Nodes: nodes}, nil
}

// Encode renders v as indented JSON.
func Encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Unmarshal decodes data into v with the package codec.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
