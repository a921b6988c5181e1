// File: internal/service/locator.go
package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/datepicker"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/feature"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
	"github.com/xkilldash9x/scalpel-locator/internal/i18n"
	"github.com/xkilldash9x/scalpel-locator/internal/registry"
	"github.com/xkilldash9x/scalpel-locator/internal/selector"
	"github.com/xkilldash9x/scalpel-locator/internal/uierr"
)

// Page is one rendered frame the locator works on. snapshot.Document
// implements it.
type Page interface {
	Root() dom.Node
	ElementFromPoint(p geometry.Point) dom.Node
	FrameIndex(n dom.Node) int
	FrameOffset(n dom.Node) geometry.Point
}

// Locator runs the date picker actions against a page. Frames are never
// entered; a request that lands on a frame comes back as a Tunneling envelope
// for the caller to re-dispatch inside that frame.
type Locator struct {
	logger    *zap.Logger
	engine    *feature.Engine
	adapter   *datepicker.Adapter
	registry  *registry.Registry
	localizer i18n.Localizer
}

// NewLocator wires a Locator. Matched nodes are published through reg.
func NewLocator(logger *zap.Logger, engine *feature.Engine, reg *registry.Registry, localizer i18n.Localizer) *Locator {
	return &Locator{
		logger:    logger.Named("locator"),
		engine:    engine,
		adapter:   datepicker.New(logger, engine),
		registry:  reg,
		localizer: localizer,
	}
}

// Registry is the uid registry matched nodes are published through.
func (l *Locator) Registry() *registry.Registry { return l.registry }

func isFrame(n dom.Node) bool {
	return dom.MatchesTag(n, dom.TagIFrame, dom.TagFrame)
}

func (l *Locator) pointError(slot string) error {
	return uierr.New(uierr.DateSelectorBuildFailedDetailsFromPoints, l.localizer.Sprintf(i18n.DetailsFromPoints, slot))
}

// BuildFromPoints builds a date selector from the points a user recorded on
// each panel. Panels are ordered left to right by their year-month point.
func (l *Locator) BuildFromPoints(page Page, req schemas.BuildFromPointsRequest) (*schemas.BuildFromPointsResponse, error) {
	if len(req.Panels) == 0 {
		return nil, uierr.New(uierr.ValidationFail, "no panel points")
	}
	panels := make([]schemas.PanelPoint, len(req.Panels))
	copy(panels, req.Panels)
	sort.SliceStable(panels, func(i, j int) bool { return panels[i].YearMonth.X < panels[j].YearMonth.X })

	first := page.ElementFromPoint(panels[0].YearMonth)
	if first == nil {
		return nil, l.pointError("yearMonth")
	}
	if isFrame(first) {
		return l.tunnelPoints(page, first, panels, req.SPath), nil
	}

	panelsBase := first
	elements := make([]datepicker.Elements, 0, len(panels))
	for i, p := range panels {
		e, err := l.resolvePanel(page, p)
		if err != nil {
			return nil, err
		}
		members := []dom.Node{panelsBase, e.YearMonth}
		for _, n := range []dom.Node{e.PreMonth, e.NextMonth} {
			if n != nil {
				members = append(members, n)
			}
		}
		members = append(members, e.DateCells...)
		base, err := dom.CommonAncestor(members)
		if err != nil {
			return nil, uierr.Wrap(uierr.DateSelectorBuildFailedPanelBaseFromPoints, l.localizer.Sprintf(i18n.PanelBaseFromPoints), err)
		}
		panelsBase = base
		l.logger.Debug("Resolved panel from points.", zap.Int("panel", i), zap.Int("date_cells", len(e.DateCells)))
		elements = append(elements, e)
	}

	chain, err := l.adapter.Build(panelsBase, elements)
	if err != nil {
		return nil, uierr.Wrap(uierr.DateSelectorBuildFailedSelectorFromPoints, l.localizer.Sprintf(i18n.SelectorFromPoints, "date picker"), err)
	}

	basePath := append(append([]schemas.SelectorNode{}, req.SPath...), selector.BuildPath(panelsBase)...)
	return &schemas.BuildFromPointsResponse{
		PanelsBaseUID: l.registry.UID(panelsBase),
		DateSelector:  schemas.DateSelector{PanelsBase: basePath, Nodes: chain},
	}, nil
}

func (l *Locator) resolvePanel(page Page, p schemas.PanelPoint) (datepicker.Elements, error) {
	hit := page.ElementFromPoint(p.YearMonth)
	if hit == nil {
		return datepicker.Elements{}, l.pointError("yearMonth")
	}
	yearMonth := datepicker.FindYearMonthBase(hit)
	if yearMonth == nil {
		return datepicker.Elements{}, uierr.New(uierr.DateSelectorBuildFailedExtractYearMonth, l.localizer.Sprintf(i18n.ExtractYearMonth))
	}

	e := datepicker.Elements{YearMonth: yearMonth}
	if p.PreMonth != nil {
		e.PreMonth = page.ElementFromPoint(*p.PreMonth)
	}
	if p.NextMonth != nil {
		e.NextMonth = page.ElementFromPoint(*p.NextMonth)
	}
	for _, pt := range p.Dates {
		if n := page.ElementFromPoint(pt); n != nil && datepicker.IsDayElement(n) {
			e.DateCells = append(e.DateCells, n)
		}
	}
	if len(e.DateCells) == 0 {
		return datepicker.Elements{}, uierr.New(uierr.DateSelectorBuildFailedDatesFromPoints, l.localizer.Sprintf(i18n.DatesFromPoints))
	}
	return e, nil
}

// tunnelPoints rebases every point into the frame's content box.
func (l *Locator) tunnelPoints(page Page, frame dom.Node, panels []schemas.PanelPoint, sPath []schemas.SelectorNode) *schemas.BuildFromPointsResponse {
	bounds := frame.BoundingClientRect()
	offset := page.FrameOffset(frame)
	rebase := func(p geometry.Point) geometry.Point {
		return geometry.Point{X: p.X - bounds.X - offset.X, Y: p.Y - bounds.Y - offset.Y}
	}

	rebased := make([]schemas.PanelPoint, len(panels))
	for i, p := range panels {
		r := schemas.PanelPoint{YearMonth: rebase(p.YearMonth)}
		if p.PreMonth != nil {
			pre := rebase(*p.PreMonth)
			r.PreMonth = &pre
		}
		if p.NextMonth != nil {
			next := rebase(*p.NextMonth)
			r.NextMonth = &next
		}
		r.Dates = make([]geometry.Point, len(p.Dates))
		for j, d := range p.Dates {
			r.Dates[j] = rebase(d)
		}
		rebased[i] = r
	}

	index := page.FrameIndex(frame)
	l.logger.Debug("Tunneling build request into frame.", zap.Int("frame_index", index))
	return &schemas.BuildFromPointsResponse{
		Tunneling: &schemas.Tunneling{
			FrameIndex: index,
			Args: schemas.BuildFromPointsRequest{
				Panels: rebased,
				SPath:  append(append([]schemas.SelectorNode{}, sPath...), selector.BuildPath(frame)...),
			},
		},
	}
}

// QueryPanels re-applies a date selector under its panels base and returns
// the single matched panel set as registry uids.
func (l *Locator) QueryPanels(page Page, req schemas.QueryPanelsRequest) (*schemas.QueryPanelsResponse, error) {
	bases, rest, err := l.resolveBase(page, req)
	if err != nil {
		return nil, err
	}

	if len(bases) == 1 && isFrame(bases[0]) && len(req.PanelsBase) > 0 {
		index := page.FrameIndex(bases[0])
		l.logger.Debug("Tunneling query into frame.", zap.Int("frame_index", index))
		return &schemas.QueryPanelsResponse{
			Tunneling: &schemas.Tunneling{
				FrameIndex: index,
				Args:       schemas.QueryPanelsRequest{PanelsBase: rest, Nodes: req.Nodes},
			},
		}, nil
	}

	switch {
	case len(bases) == 0:
		return nil, uierr.New(uierr.NoSuchElement, l.localizer.Sprintf(i18n.PanelsBaseNotFound))
	case len(bases) > 1:
		l.logger.Warn("Panels base matched more than one element, using the first.", zap.Int("count", len(bases)))
	}

	found, err := l.adapter.Query(bases[0], req.Nodes)
	if err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, uierr.New(uierr.DateSelectorBuildFailedDetailsFromPoints, l.localizer.Sprintf(i18n.MultipleDatePickers, len(found)))
	}

	out := make([]schemas.PanelUIDs, len(found[0]))
	for i, e := range found[0] {
		out[i] = schemas.PanelUIDs{
			PreMonth:  l.registry.UID(e.PreMonth),
			YearMonth: l.registry.UID(e.YearMonth),
			NextMonth: l.registry.UID(e.NextMonth),
			DateCells: l.registry.UIDs(e.DateCells),
		}
	}
	return &schemas.QueryPanelsResponse{Panels: out}, nil
}

// resolveBase finds the panels base by uid or by path. A path that reaches
// into a frame stops at the frame element; rest is the part of the path
// below it.
func (l *Locator) resolveBase(page Page, req schemas.QueryPanelsRequest) (bases []dom.Node, rest []schemas.SelectorNode, err error) {
	if req.ElementID != "" {
		n, ok := l.registry.Lookup(req.ElementID)
		if !ok {
			return nil, nil, uierr.New(uierr.NoSuchElementID, fmt.Sprintf("no element with id %q", req.ElementID))
		}
		return []dom.Node{n}, req.PanelsBase, nil
	}

	path := req.PanelsBase
	cut := len(path)
	for i, link := range path {
		if strings.EqualFold(link.Name, "iframe") || strings.EqualFold(link.Name, "frame") {
			cut = i + 1
			break
		}
	}
	bases, err = l.engine.Matcher().QueryPath(page.Root(), path[:cut])
	if err != nil {
		return nil, nil, err
	}
	return bases, path[cut:], nil
}
