// File: internal/datepicker/elements.go
package datepicker

import (
	"regexp"
	"strings"

	"github.com/xkilldash9x/scalpel-locator/internal/attrs"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
)

// Elements are the nodes of one rendered month panel. PreMonth and NextMonth
// are nil when the panel has no such control.
type Elements struct {
	PreMonth  dom.Node
	YearMonth dom.Node
	NextMonth dom.Node
	DateCells []dom.Node
}

// Equal reports whether both panels resolve to the same controls and every
// date cell of e is also a date cell of o.
func (e Elements) Equal(o Elements) bool {
	if e.PreMonth != o.PreMonth || e.YearMonth != o.YearMonth || e.NextMonth != o.NextMonth {
		return false
	}
	have := make(map[dom.Node]struct{}, len(o.DateCells))
	for _, c := range o.DateCells {
		have[c] = struct{}{}
	}
	for _, c := range e.DateCells {
		if _, ok := have[c]; !ok {
			return false
		}
	}
	return true
}

// minDateCells is the number of day cells a layer must exceed to count as the grid.
const minDateCells = 15

// IsDayElement reports whether n's rendered text starts with a day of month.
func IsDayElement(n dom.Node) bool {
	if !dom.IsElement(n) {
		return false
	}
	text := n.InnerText()
	if text == "" {
		return false
	}
	day, ok := attrs.ParseLeadingInt(text)
	return ok && day > 0 && day < 32
}

// FindAllDateCells walks root breadth-first, one layer at a time, and returns
// the day cells of the first layer holding more than fifteen of them. It
// returns nil when no layer qualifies.
func FindAllDateCells(root dom.Node) []dom.Node {
	if root == nil {
		return nil
	}
	layer := []dom.Node{root}
	for len(layer) > 0 {
		var cells, next []dom.Node
		for _, n := range layer {
			if IsDayElement(n) {
				cells = append(cells, n)
			}
			next = append(next, n.Children()...)
		}
		if len(cells) > minDateCells {
			return cells
		}
		layer = next
	}
	return nil
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// maxYearMonthDepth bounds how far FindYearMonthBase climbs looking for year text.
const maxYearMonthDepth = 5

// FindYearMonthBase resolves the node a recorded year-month point landed on to
// the element that holds the whole year-month caption: the nearest element,
// n included, whose text carries a four digit year, widened outwards while the
// parent renders exactly the same text. It returns nil when no year is found.
func FindYearMonthBase(n dom.Node) dom.Node {
	var base dom.Node
	cur := n
	for depth := 0; depth <= maxYearMonthDepth && dom.IsElement(cur) && !dom.MatchesTag(cur, dom.TagBody, dom.TagHTML); depth++ {
		if yearPattern.MatchString(cur.InnerText()) {
			base = cur
			break
		}
		cur = dom.ParentElement(cur)
	}
	if base == nil {
		return nil
	}
	text := strings.TrimSpace(base.InnerText())
	for p := dom.ParentElement(base); p != nil && !dom.MatchesTag(p, dom.TagBody, dom.TagHTML); p = dom.ParentElement(p) {
		if strings.TrimSpace(p.InnerText()) != text {
			break
		}
		base = p
	}
	return base
}
