// File: internal/feature/build.go
package feature

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
	"github.com/xkilldash9x/scalpel-locator/internal/webnode"
)

// NodeSpec describes one link to build. Single links use Element; similar
// links use Elements.
type NodeSpec struct {
	Name     string
	Type     schemas.FeatureNodeType
	Element  dom.Node
	Elements []dom.Node
	IsAnchor bool
	// VisualAttributes defaults to left, right, top and bottom when empty.
	VisualAttributes []schemas.VisualAttribute
	// Forbidden names are never chosen as discriminators for this link.
	Forbidden []string
}

// Exemplar is the node the link is recorded from: the element of a single
// link or the canonical member of a similar link. Nil when it cannot be
// determined.
func (s NodeSpec) Exemplar() dom.Node {
	n, _, err := s.exemplar()
	if err != nil {
		return nil
	}
	return n
}

// exemplar resolves the recorded node together with a similar group's alignment.
func (s NodeSpec) exemplar() (dom.Node, []schemas.VisualAttribute, error) {
	switch s.Type {
	case schemas.FeatureNodeSingle:
		return s.Element, nil, nil
	case schemas.FeatureNodeSimilar:
		rects := make([]geometry.DOMRect, len(s.Elements))
		for i, n := range s.Elements {
			rects[i] = n.BoundingClientRect()
		}
		alignment := GetAlignment(rects)
		origin, err := GetAlignmentOrigin(s.Elements, alignment)
		if err != nil {
			return nil, nil, err
		}
		return origin, alignment, nil
	default:
		return nil, nil, fmt.Errorf("unsupported node type %q", s.Type)
	}
}

// BuildNode records one link relative to base. A similar link infers the
// group's alignment and is recorded from the group's canonical member.
func (e *Engine) BuildNode(base geometry.Point, spec NodeSpec) (schemas.FeatureSelectorNode, error) {
	exemplar, alignment, err := spec.exemplar()
	if err != nil {
		return schemas.FeatureSelectorNode{}, fmt.Errorf("link %q: %w", spec.Name, err)
	}
	if exemplar == nil {
		return schemas.FeatureSelectorNode{}, fmt.Errorf("link %q has no element", spec.Name)
	}

	visuals := spec.VisualAttributes
	if len(visuals) == 0 {
		visuals = append([]schemas.VisualAttribute(nil), schemas.DefaultVisualAttributes...)
	}

	return schemas.FeatureSelectorNode{
		Name:             spec.Name,
		Type:             spec.Type,
		Bounding:         exemplar.BoundingClientRect().RelativeTo(base),
		IsAnchor:         spec.IsAnchor,
		AllowNull:        false,
		VisualAttributes: visuals,
		Attributes:       webnode.New(exemplar).ToSelectorAttributes(true),
		SimilarAlignment: alignment,
		Fuzzy:            e.fuzzy,
	}, nil
}

// Build records every spec relative to base.
func (e *Engine) Build(base geometry.Point, specs []NodeSpec) (schemas.FeatureSelector, error) {
	out := make(schemas.FeatureSelector, 0, len(specs))
	for _, spec := range specs {
		node, err := e.BuildNode(base, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

// Refine narrows each link's required attributes until the chain re-finds its
// own exemplars under root. For link i, every surviving query path whose i-th
// node differs from the exemplar is diffed against it; a path that can be told
// apart is dropped, one that cannot is kept and logged. The chain is updated
// in place.
func (e *Engine) Refine(root dom.Node, specs []NodeSpec, chain schemas.FeatureSelector) error {
	if len(specs) != len(chain) {
		return fmt.Errorf("refine: %d specs for %d links", len(specs), len(chain))
	}
	targets := make([]*webnode.WebNode, len(specs))
	for i, spec := range specs {
		ex, _, err := spec.exemplar()
		if err != nil {
			return fmt.Errorf("refine: link %q: %w", spec.Name, err)
		}
		if ex == nil {
			return fmt.Errorf("refine: link %q has no element", spec.Name)
		}
		targets[i] = webnode.New(ex, spec.Forbidden...)
	}

	res, err := e.Query(root, chain, true)
	if err != nil {
		return err
	}

	paths := res.Paths
	for i, target := range targets {
		var next []Path
		for _, p := range paths {
			got := p[i].Node
			if got == target.Node() {
				next = append(next, p)
				continue
			}
			if got == nil {
				continue
			}
			refined, ok := target.Distinguish(webnode.New(got))
			if !ok {
				e.logger.Error("Cannot diff this element from the exemplar.",
					zap.String("link", chain[i].Name),
					zap.Stringer("exemplar", describe(target.Node())),
					zap.Stringer("candidate", describe(got)))
				next = append(next, p)
				continue
			}
			targets[i] = refined
			target = refined
		}
		chain[i].Attributes = target.ToSelectorAttributes(true)
		paths = next
	}
	return nil
}
