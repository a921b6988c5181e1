// Package testfixture renders calendar widgets as HTML snapshots for tests.
package testfixture

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/dom/snapshot"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

// Calendar geometry, relative to the panel origin.
const (
	PanelWidth  = 280
	PanelHeight = 250
	CellWidth   = 38
	CellHeight  = 40
	Columns     = 7
	Rows        = 5
)

// Panel describes one rendered month.
type Panel struct {
	X, Y       int
	Year       int
	Month      string
	FirstBlank int
	Days       int
	// HeaderClass replaces the header's class attribute when set.
	HeaderClass string
	// Flat puts the header controls directly under the panel, without a header wrapper.
	Flat bool
	// NoButtons omits the previous and next month buttons.
	NoButtons bool
}

// Default returns a 30-day month at (x, y).
func Default(x, y int) Panel {
	return Panel{X: x, Y: y, Year: 2024, Month: "Jun", FirstBlank: 2, Days: 30}
}

func rect(x, y, w, h int) string {
	return fmt.Sprintf(`data-rect="%d,%d,%d,%d"`, x, y, w, h)
}

// HTML renders the panel.
func (p Panel) HTML() string {
	var b strings.Builder
	ox, oy := p.X, p.Y
	headerClass := p.HeaderClass
	if headerClass == "" {
		headerClass = "picker-header"
	}

	fmt.Fprintf(&b, `<div class="picker-panel" %s>`, rect(ox, oy, PanelWidth, PanelHeight))
	if !p.Flat {
		fmt.Fprintf(&b, `<div class="%s" %s>`, headerClass, rect(ox, oy, PanelWidth, 40))
	}
	if !p.NoButtons {
		fmt.Fprintf(&b, `<button class="prev-btn" type="button" %s>&lsaquo;</button>`, rect(ox+10, oy+5, 30, 30))
	}
	fmt.Fprintf(&b, `<div class="header-view" %s><span class="year" %s>%d</span><span class="month" %s>%s</span></div>`,
		rect(ox+90, oy+5, 100, 30), rect(ox+95, oy+10, 40, 20), p.Year, rect(ox+140, oy+10, 45, 20), p.Month)
	if !p.NoButtons {
		fmt.Fprintf(&b, `<button class="next-btn" type="button" %s>&rsaquo;</button>`, rect(ox+240, oy+5, 30, 30))
	}
	if !p.Flat {
		b.WriteString(`</div>`)
	}

	tx, ty := ox+5, oy+45
	fmt.Fprintf(&b, `<table class="date-table" %s><tbody %s>`,
		rect(tx, ty, Columns*CellWidth, Rows*CellHeight), rect(tx, ty, Columns*CellWidth, Rows*CellHeight))
	day := 1
	for r := 0; r < Rows; r++ {
		fmt.Fprintf(&b, `<tr %s>`, rect(tx, ty+r*CellHeight, Columns*CellWidth, CellHeight))
		for c := 0; c < Columns; c++ {
			i := r*Columns + c
			text := ""
			if i >= p.FirstBlank && day <= p.Days {
				text = fmt.Sprint(day)
				day++
			}
			fmt.Fprintf(&b, `<td class="cell" %s>%s</td>`, rect(tx+c*CellWidth, ty+r*CellHeight, CellWidth, CellHeight), text)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table></div>`)
	return b.String()
}

// Page wraps body markup into a full 1024x768 document.
func Page(body string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html %s><head><title>fixture</title></head><body %s>%s</body></html>`,
		rect(0, 0, 1024, 768), rect(0, 0, 1024, 768), body)
}

// Container wraps markup in a div spanning the given box.
func Container(class string, x, y, w, h int, inner string) string {
	return fmt.Sprintf(`<div class="%s" %s>%s</div>`, class, rect(x, y, w, h), inner)
}

// Load parses a fixture page.
func Load(t testing.TB, src string) *snapshot.Document {
	t.Helper()
	doc, err := snapshot.LoadHTML(strings.NewReader(src), "http://fixture.test/")
	require.NoError(t, err)
	return doc
}

// Elements are the nodes of one rendered panel.
type Elements struct {
	Base      dom.Node
	Header    dom.Node
	PreMonth  dom.Node
	YearMonth dom.Node
	NextMonth dom.Node
	Table     dom.Node
	Body      dom.Node
	DateCells []dom.Node
}

// Find resolves the nodes of the n-th (1-based) panel in doc.
func Find(t testing.TB, doc *snapshot.Document, n int) Elements {
	t.Helper()
	base := fmt.Sprintf(`(//div[contains(@class,'picker-panel')])[%d]`, n)
	one := func(expr string) dom.Node {
		found, err := doc.FindXPath(base + expr)
		require.NoError(t, err)
		if len(found) == 0 {
			return nil
		}
		require.Len(t, found, 1, expr)
		return found[0]
	}
	e := Elements{
		Base:      one(""),
		PreMonth:  one(`//button[@class='prev-btn']`),
		YearMonth: one(`//div[@class='header-view']`),
		NextMonth: one(`//button[@class='next-btn']`),
		Table:     one(`//table`),
		Body:      one(`//tbody`),
	}
	if e.YearMonth != nil {
		e.Header = dom.ParentElement(e.YearMonth)
	}
	cells, err := doc.FindXPath(base + `//td[normalize-space(text()) != '']`)
	require.NoError(t, err)
	e.DateCells = cells
	return e
}

// Center returns the center point of a node's box.
func Center(n dom.Node) geometry.Point {
	r := n.BoundingClientRect()
	return geometry.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}
