package datepicker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/attrs"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/dom/snapshot"
	"github.com/xkilldash9x/scalpel-locator/internal/feature"
	"github.com/xkilldash9x/scalpel-locator/internal/i18n"
	"github.com/xkilldash9x/scalpel-locator/internal/selector"
	"github.com/xkilldash9x/scalpel-locator/internal/testfixture"
)

func newAdapter(t *testing.T) *Adapter {
	t.Helper()
	cat, err := i18n.New("en")
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	return New(logger, feature.NewEngine(logger, selector.NewMatcher(attrs.NewMatcher(cat)), 0))
}

func panelOf(e testfixture.Elements) Elements {
	return Elements{PreMonth: e.PreMonth, YearMonth: e.YearMonth, NextMonth: e.NextMonth, DateCells: e.DateCells}
}

func linkNames(chain schemas.FeatureSelector) []string {
	names := make([]string, len(chain))
	for i, l := range chain {
		names[i] = l.Name
	}
	return names
}

func TestBuildAndQuery_ShiftedPanel(t *testing.T) {
	a := newAdapter(t)

	recorded := testfixture.Load(t, testfixture.Page(testfixture.Default(100, 100).HTML()))
	cal := testfixture.Find(t, recorded, 1)
	chain, err := a.Build(cal.Base, []Elements{panelOf(cal)})
	require.NoError(t, err)
	require.NoError(t, chain.Validate())
	assert.Equal(t, []string{"header", "preMonth", "yearMonth", "nextMonth", "dateTable"}, linkNames(chain))

	// The selector still finds its own exemplar.
	found, err := a.Query(cal.Base, chain)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Len(t, found[0], 1)
	assert.True(t, found[0][0].Equal(panelOf(cal)))

	shifted := testfixture.Default(150, 150)
	shifted.HeaderClass = "picker-header is-focused"
	live := testfixture.Load(t, testfixture.Page(shifted.HTML()))
	moved := testfixture.Find(t, live, 1)

	found, err = a.Query(moved.Base, chain)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Len(t, found[0], 1)
	got := found[0][0]
	assert.Equal(t, moved.YearMonth, got.YearMonth)
	assert.Equal(t, moved.PreMonth, got.PreMonth)
	assert.Equal(t, moved.NextMonth, got.NextMonth)
	assert.Len(t, got.DateCells, 30)
	assert.ElementsMatch(t, moved.DateCells, got.DateCells)
}

func TestBuildAndQuery_DualPanels(t *testing.T) {
	a := newAdapter(t)

	left := testfixture.Default(60, 55)
	right := testfixture.Default(360, 55)
	right.Month = "Jul"
	right.FirstBlank = 4
	right.Days = 31
	doc := testfixture.Load(t, testfixture.Page(
		testfixture.Container("picker-range", 50, 50, 600, 260, left.HTML()+right.HTML())))
	root := doc.MustFindOne(`//div[@class='picker-range']`)
	l, r := testfixture.Find(t, doc, 1), testfixture.Find(t, doc, 2)

	chain, err := a.Build(root, []Elements{panelOf(l), panelOf(r)})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"header", "leftPreMonth", "leftYearMonth", "leftNextMonth", "leftDateTable",
		"header", "rightPreMonth", "rightYearMonth", "rightNextMonth", "rightDateTable",
	}, linkNames(chain))

	found, err := a.Query(root, chain)
	require.NoError(t, err)
	require.Len(t, found, 1, "one left/right pair, not two single panels")
	require.Len(t, found[0], 2)
	assert.Equal(t, l.YearMonth, found[0][0].YearMonth)
	assert.Equal(t, r.YearMonth, found[0][1].YearMonth)
	assert.Len(t, found[0][0].DateCells, 30)
	assert.Len(t, found[0][1].DateCells, 31)
}

func TestQuery_NoMatch(t *testing.T) {
	a := newAdapter(t)

	recorded := testfixture.Load(t, testfixture.Page(testfixture.Default(0, 0).HTML()))
	cal := testfixture.Find(t, recorded, 1)
	chain, err := a.Build(cal.Base, []Elements{panelOf(cal)})
	require.NoError(t, err)

	other := testfixture.Load(t, testfixture.Page(`<div id="empty" data-rect="0,0,280,250"></div>`))
	found, err := a.Query(other.MustFindOne(`//div[@id='empty']`), chain)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSpecs(t *testing.T) {
	flat := testfixture.Default(0, 0)
	flat.Flat = true
	flat.NoButtons = true
	doc := testfixture.Load(t, testfixture.Page(flat.HTML()))
	cal := testfixture.Find(t, doc, 1)
	require.Nil(t, cal.PreMonth)

	specs, err := Specs([]Elements{panelOf(cal)})
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, NameBase, specs[0].Name, "the header controls share a parent with the grid")
	assert.Equal(t, cal.Base, specs[0].Element)
	assert.True(t, specs[0].IsAnchor)
	assert.Equal(t, []schemas.VisualAttribute{schemas.VisualLeft, schemas.VisualRight, schemas.VisualTop}, specs[0].VisualAttributes)

	assert.Equal(t, "yearMonth", specs[1].Name)
	assert.Equal(t, []string{schemas.AttrInnerText}, specs[1].Forbidden)
	assert.Equal(t, []schemas.VisualAttribute{schemas.VisualCenter, schemas.VisualTop, schemas.VisualBottom}, specs[1].VisualAttributes)

	assert.Equal(t, "dateTable", specs[2].Name)
	assert.Equal(t, cal.Body, specs[2].Element)
}

func TestSpecs_Errors(t *testing.T) {
	doc := testfixture.Load(t, testfixture.Page(testfixture.Default(0, 0).HTML()))
	p := panelOf(testfixture.Find(t, doc, 1))

	_, err := Specs(nil)
	assert.Error(t, err)

	_, err = Specs([]Elements{p, p, p})
	assert.Error(t, err)

	noYear := p
	noYear.YearMonth = nil
	_, err = Specs([]Elements{noYear})
	assert.ErrorContains(t, err, "yearMonth")

	noCells := p
	noCells.DateCells = nil
	_, err = Specs([]Elements{noCells})
	assert.ErrorContains(t, err, "no date cells")
}

func TestFindAllDateCells(t *testing.T) {
	doc := testfixture.Load(t, testfixture.Page(testfixture.Default(0, 0).HTML()))
	cal := testfixture.Find(t, doc, 1)

	assert.ElementsMatch(t, cal.DateCells, FindAllDateCells(cal.Base))
	assert.Nil(t, FindAllDateCells(cal.Header))
	assert.Nil(t, FindAllDateCells(nil))
}

func TestIsDayElement(t *testing.T) {
	for text, want := range map[string]bool{
		"7": true, "07": true, "31": true, "1 2 3": true,
		"0": false, "32": false, "Mon": false, "": false,
	} {
		n := snapshot.NewElement("td").AppendText(text)
		assert.Equal(t, want, IsDayElement(n), "%q", text)
	}
}

func TestFindYearMonthBase(t *testing.T) {
	doc := testfixture.Load(t, testfixture.Page(testfixture.Default(0, 0).HTML()+
		`<div class="caption" data-rect="400,0,200,40"><div data-rect="400,0,200,40"><b data-rect="410,5,100,30">June 2024</b></div></div>`+
		`<div class="plain" data-rect="400,100,200,40"><span data-rect="410,105,100,30">June</span></div>`))
	cal := testfixture.Find(t, doc, 1)

	month := doc.MustFindOne(`//span[@class='month']`)
	assert.Equal(t, cal.YearMonth, FindYearMonthBase(month), "climbs to the caption holding the year")

	year := doc.MustFindOne(`//span[@class='year']`)
	assert.Equal(t, dom.Node(year), FindYearMonthBase(year))

	caption := doc.MustFindOne(`//div[@class='caption']`)
	assert.Equal(t, dom.Node(caption), FindYearMonthBase(doc.MustFindOne(`//b`)), "widens over wrappers with the same text")

	assert.Nil(t, FindYearMonthBase(doc.MustFindOne(`//div[@class='plain']/span`)))
}

func TestElementsEqual(t *testing.T) {
	a, b, c := snapshot.NewElement("td"), snapshot.NewElement("td"), snapshot.NewElement("td")
	ym := snapshot.NewElement("div")

	x := Elements{YearMonth: ym, DateCells: []dom.Node{a, b}}
	y := Elements{YearMonth: ym, DateCells: []dom.Node{b, a, c}}
	assert.True(t, x.Equal(y))
	assert.False(t, y.Equal(x), "every cell of the receiver must be present")

	y.DateCells = x.DateCells
	y.PreMonth = snapshot.NewElement("button")
	assert.False(t, x.Equal(y))
}

func TestToCamelCase(t *testing.T) {
	assert.Equal(t, "leftDateTable", ToCamelCase("LeftDateTable"))
	assert.Equal(t, "yearMonth", ToCamelCase("YearMonth"))
	assert.Equal(t, "", ToCamelCase(""))
}
