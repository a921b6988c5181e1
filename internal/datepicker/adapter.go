// File: internal/datepicker/adapter.go
package datepicker

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/feature"
)

// Link names of a date picker selector. Panel slots carry a "left" or "right"
// prefix when the picker shows two months side by side.
const (
	NameHeader    = "header"
	NameBase      = "base"
	NamePreMonth  = "PreMonth"
	NameYearMonth = "YearMonth"
	NameNextMonth = "NextMonth"
	NameDateTable = "DateTable"

	PrefixLeft  = "left"
	PrefixRight = "right"
)

// Adapter maps date picker panels onto feature selectors and back.
type Adapter struct {
	logger *zap.Logger
	engine *feature.Engine
}

// New creates an Adapter on top of engine.
func New(logger *zap.Logger, engine *feature.Engine) *Adapter {
	return &Adapter{logger: logger.Named("datepicker"), engine: engine}
}

// ToCamelCase lower-cases the first character of s.
func ToCamelCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

type headerSlot struct {
	name string
	node dom.Node
}

func headerSlots(panel Elements, prefix string) []headerSlot {
	var slots []headerSlot
	if panel.PreMonth != nil {
		slots = append(slots, headerSlot{prefix + NamePreMonth, panel.PreMonth})
	}
	slots = append(slots, headerSlot{prefix + NameYearMonth, panel.YearMonth})
	if panel.NextMonth != nil {
		slots = append(slots, headerSlot{prefix + NameNextMonth, panel.NextMonth})
	}
	return slots
}

// Specs lays out the links for panels. Each panel contributes an anchor (the
// common parent of its header controls, named "base" when it also holds the
// day grid and "header" otherwise), one link per header control and a link for
// the day grid. A lone year-month control is anchored on its parent.
func Specs(panels []Elements) ([]feature.NodeSpec, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("no date picker panels")
	}
	prefixes := []string{""}
	if len(panels) > 1 {
		if len(panels) > 2 {
			return nil, fmt.Errorf("at most two date picker panels are supported, got %d", len(panels))
		}
		prefixes = []string{PrefixLeft, PrefixRight}
	}

	var specs []feature.NodeSpec
	for i, panel := range panels {
		prefix := prefixes[i]
		if panel.YearMonth == nil {
			return nil, fmt.Errorf("panel %d: missing %s", i, ToCamelCase(prefix+NameYearMonth))
		}
		if len(panel.DateCells) == 0 {
			return nil, fmt.Errorf("panel %d: no date cells", i)
		}

		slots := headerSlots(panel, prefix)
		controls := make([]dom.Node, len(slots))
		for j, s := range slots {
			controls[j] = s.node
		}
		anchor, err := dom.CommonAncestor(controls)
		if err != nil {
			return nil, fmt.Errorf("panel %d header: %w", i, err)
		}
		if len(controls) == 1 {
			if p := dom.ParentElement(anchor); p != nil {
				anchor = p
			}
		}
		if dom.Contains(anchor, panel.DateCells[0]) {
			specs = append(specs, feature.NodeSpec{
				Name: NameBase, Type: schemas.FeatureNodeSingle, Element: anchor, IsAnchor: true,
				VisualAttributes: []schemas.VisualAttribute{schemas.VisualLeft, schemas.VisualRight, schemas.VisualTop},
			})
		} else {
			specs = append(specs, feature.NodeSpec{
				Name: NameHeader, Type: schemas.FeatureNodeSingle, Element: anchor, IsAnchor: true,
			})
		}

		for _, s := range slots {
			spec := feature.NodeSpec{Name: ToCamelCase(s.name), Type: schemas.FeatureNodeSingle, Element: s.node}
			if strings.Contains(strings.ToLower(s.name), "yearmonth") {
				spec.VisualAttributes = []schemas.VisualAttribute{schemas.VisualCenter, schemas.VisualTop, schemas.VisualBottom}
				spec.Forbidden = []string{schemas.AttrInnerText}
			}
			specs = append(specs, spec)
		}

		table, err := dom.CommonAncestor(panel.DateCells)
		if err != nil {
			return nil, fmt.Errorf("panel %d date cells: %w", i, err)
		}
		specs = append(specs, feature.NodeSpec{
			Name: ToCamelCase(prefix + NameDateTable), Type: schemas.FeatureNodeSingle, Element: table,
			VisualAttributes: []schemas.VisualAttribute{schemas.VisualLeft, schemas.VisualRight, schemas.VisualTop},
		})
	}
	return specs, nil
}

// Build records a selector for panels relative to root, then narrows each
// link's required attributes until the selector re-finds exactly the given
// panels under root.
func (a *Adapter) Build(root dom.Node, panels []Elements) (schemas.FeatureSelector, error) {
	specs, err := Specs(panels)
	if err != nil {
		return nil, err
	}
	base := root.BoundingClientRect().Origin()
	chain, err := a.engine.Build(base, specs)
	if err != nil {
		return nil, err
	}
	if err := a.engine.Refine(root, specs, chain); err != nil {
		return nil, err
	}
	a.logger.Debug("Built date picker selector.", zap.Int("panels", len(panels)), zap.Int("links", len(chain)))
	return chain, nil
}

// Query resolves chain under root into panel sets. A chain without an
// unprefixed year-month link describes two panels; every result then holds a
// left and a right panel. Matches without date cells are skipped and
// duplicate panel sets are folded.
func (a *Adapter) Query(root dom.Node, chain schemas.FeatureSelector) ([][]Elements, error) {
	dual := chain.Index(ToCamelCase(NameYearMonth)) < 0
	res, err := a.engine.Query(root, chain, false)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		a.logger.Debug("Date picker selector matched nothing.", zap.Int("pruned_at", res.PrunedAt))
		return nil, nil
	}

	prefixes := []string{""}
	if dual {
		prefixes = []string{PrefixLeft, PrefixRight}
	}

	var out [][]Elements
	for _, path := range res.Paths {
		set := make([]Elements, len(prefixes))
		complete := true
		for p, prefix := range prefixes {
			set[p] = a.assemble(chain, path, prefix)
			if len(set[p].DateCells) == 0 {
				complete = false
			}
		}
		if !complete || containsSet(out, set) {
			continue
		}
		out = append(out, set)
	}
	return out, nil
}

func (a *Adapter) assemble(chain schemas.FeatureSelector, path feature.Path, prefix string) Elements {
	var e Elements
	for i, link := range chain {
		n := path[i].Node
		switch link.Name {
		case ToCamelCase(prefix + NamePreMonth):
			e.PreMonth = n
		case ToCamelCase(prefix + NameYearMonth):
			e.YearMonth = n
		case ToCamelCase(prefix + NameNextMonth):
			e.NextMonth = n
		case ToCamelCase(prefix + NameDateTable):
			e.DateCells = FindAllDateCells(n)
			if len(e.DateCells) == 0 && n != nil {
				a.logger.Warn("Cannot find date cells in the matched table.", zap.String("link", link.Name))
			}
		}
	}
	return e
}

func containsSet(sets [][]Elements, set []Elements) bool {
	for _, s := range sets {
		same := len(s) == len(set)
		for i := 0; same && i < len(s); i++ {
			same = s[i].Equal(set[i])
		}
		if same {
			return true
		}
	}
	return false
}
