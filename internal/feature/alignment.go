// File: internal/feature/alignment.go
package feature

import (
	"sort"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
	"github.com/xkilldash9x/scalpel-locator/internal/uierr"
)

// VisualMatch reports whether rect lies within fuzzy pixels of expected along
// each listed axis. Center and middle get one extra pixel of slack.
func VisualMatch(rect, expected geometry.Rect, visuals []schemas.VisualAttribute, fuzzy int) bool {
	for _, v := range visuals {
		var off int
		switch v {
		case schemas.VisualLeft:
			off = abs(rect.X - expected.X)
		case schemas.VisualCenter:
			off = abs(rect.FloorCenterX()-expected.FloorCenterX()) - 1
		case schemas.VisualRight:
			off = abs(rect.Right() - expected.Right())
		case schemas.VisualTop:
			off = abs(rect.Y - expected.Y)
		case schemas.VisualMiddle:
			off = abs(rect.FloorCenterY()-expected.FloorCenterY()) - 1
		case schemas.VisualBottom:
			off = abs(rect.Bottom() - expected.Bottom())
		}
		if off > fuzzy {
			return false
		}
	}
	return true
}

// drift measures how far actual sits from expected along the first horizontal
// and first vertical axis in visuals. Axes that are not listed do not drift.
func drift(actual, expected geometry.Rect, visuals []schemas.VisualAttribute) (dx, dy int) {
	var haveX, haveY bool
	for _, v := range visuals {
		switch {
		case v.Horizontal() && !haveX:
			haveX = true
			switch v {
			case schemas.VisualLeft:
				dx = actual.X - expected.X
			case schemas.VisualCenter:
				dx = actual.FloorCenterX() - expected.FloorCenterX()
			case schemas.VisualRight:
				dx = actual.Right() - expected.Right()
			}
		case !v.Horizontal() && !haveY:
			haveY = true
			switch v {
			case schemas.VisualTop:
				dy = actual.Y - expected.Y
			case schemas.VisualMiddle:
				dy = actual.FloorCenterY() - expected.FloorCenterY()
			case schemas.VisualBottom:
				dy = actual.Bottom() - expected.Bottom()
			}
		}
	}
	return dx, dy
}

// GetAlignment infers the axes shared by a group of boxes: at most one
// horizontal axis (left, then center, then right) and one vertical axis (top,
// then middle, then bottom). An axis qualifies when two or more boxes agree on it.
func GetAlignment(rects []geometry.DOMRect) []schemas.VisualAttribute {
	count := func(value func(geometry.DOMRect) float64) int {
		seen := map[float64]int{}
		best := 1
		for _, r := range rects {
			v := value(r)
			seen[v]++
			if seen[v] > best {
				best = seen[v]
			}
		}
		return best
	}

	var out []schemas.VisualAttribute
	switch {
	case count(geometry.DOMRect.Left) >= 2:
		out = append(out, schemas.VisualLeft)
	case count(geometry.DOMRect.FloorCenterX) >= 2:
		out = append(out, schemas.VisualCenter)
	case count(geometry.DOMRect.Right) >= 2:
		out = append(out, schemas.VisualRight)
	}
	switch {
	case count(geometry.DOMRect.Top) >= 2:
		out = append(out, schemas.VisualTop)
	case count(geometry.DOMRect.FloorCenterY) >= 2:
		out = append(out, schemas.VisualMiddle)
	case count(geometry.DOMRect.Bottom) >= 2:
		out = append(out, schemas.VisualBottom)
	}
	return out
}

// GetAlignmentOrigin picks the canonical member of a similar group: members are
// ordered top-left first, then re-sorted stably along each axis in turn, and
// the first one wins. members is not modified.
func GetAlignmentOrigin(members []dom.Node, axes []schemas.VisualAttribute) (dom.Node, error) {
	if len(axes) == 0 {
		return nil, &uierr.ConstructionError{Op: "alignment origin", Message: "no alignment axes"}
	}
	if len(members) == 0 {
		return nil, &uierr.ConstructionError{Op: "alignment origin", Message: "no members"}
	}

	sorted := make([]dom.Node, len(members))
	copy(sorted, members)
	rect := func(i int) geometry.DOMRect { return sorted[i].BoundingClientRect() }

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := rect(i), rect(j)
		if a.Top() != b.Top() {
			return a.Top() < b.Top()
		}
		return a.Left() < b.Left()
	})
	for _, axis := range axes {
		var key func(geometry.DOMRect) float64
		switch axis {
		case schemas.VisualLeft:
			key = geometry.DOMRect.Left
		case schemas.VisualCenter:
			key = geometry.DOMRect.FloorCenterX
		case schemas.VisualRight:
			key = geometry.DOMRect.Right
		case schemas.VisualTop:
			key = geometry.DOMRect.Top
		case schemas.VisualMiddle:
			key = geometry.DOMRect.FloorCenterY
		case schemas.VisualBottom:
			key = geometry.DOMRect.Bottom
		default:
			continue
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			return key(rect(i)) < key(rect(j))
		})
	}
	return sorted[0], nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
