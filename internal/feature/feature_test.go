package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/attrs"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/dom/snapshot"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
	"github.com/xkilldash9x/scalpel-locator/internal/i18n"
	"github.com/xkilldash9x/scalpel-locator/internal/selector"
	"github.com/xkilldash9x/scalpel-locator/internal/testfixture"
	"github.com/xkilldash9x/scalpel-locator/internal/uierr"
)

var lrtb = []schemas.VisualAttribute{schemas.VisualLeft, schemas.VisualRight, schemas.VisualTop, schemas.VisualBottom}

func newEngine(t *testing.T) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	cat, err := i18n.New("en")
	require.NoError(t, err)
	return NewEngine(zap.New(core), selector.NewMatcher(attrs.NewMatcher(cat)), 0), logs
}

func load(t *testing.T, body string) *snapshot.Document {
	t.Helper()
	return testfixture.Load(t, testfixture.Page(body))
}

func link(name string, bounding geometry.Rect, visuals ...schemas.VisualAttribute) schemas.FeatureSelectorNode {
	if len(visuals) == 0 {
		visuals = lrtb
	}
	return schemas.FeatureSelectorNode{
		Name:             name,
		Type:             schemas.FeatureNodeSingle,
		Bounding:         bounding,
		VisualAttributes: visuals,
		Fuzzy:            schemas.DefaultFuzzy,
	}
}

func TestVisualMatch(t *testing.T) {
	expected := geometry.Rect{X: 100, Y: 100, Width: 50, Height: 20}
	tests := []struct {
		name    string
		rect    geometry.Rect
		visuals []schemas.VisualAttribute
		want    bool
	}{
		{"exact", expected, lrtb, true},
		{"left at tolerance", geometry.Rect{X: 108, Y: 100, Width: 42, Height: 20}, lrtb, true},
		{"left beyond tolerance", geometry.Rect{X: 109, Y: 100, Width: 41, Height: 20}, lrtb, false},
		{"only left checked", geometry.Rect{X: 100, Y: 300, Width: 500, Height: 500}, []schemas.VisualAttribute{schemas.VisualLeft}, true},
		{"center has one pixel slack", geometry.Rect{X: 109, Y: 100, Width: 50, Height: 20}, []schemas.VisualAttribute{schemas.VisualCenter}, true},
		{"center beyond slack", geometry.Rect{X: 110, Y: 100, Width: 50, Height: 20}, []schemas.VisualAttribute{schemas.VisualCenter}, false},
		{"middle has one pixel slack", geometry.Rect{X: 0, Y: 91, Width: 1, Height: 20}, []schemas.VisualAttribute{schemas.VisualMiddle}, true},
		{"bottom", geometry.Rect{X: 0, Y: 0, Width: 1, Height: 130}, []schemas.VisualAttribute{schemas.VisualBottom}, false},
		{"no axes", geometry.Rect{}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisualMatch(tt.rect, expected, tt.visuals, schemas.DefaultFuzzy))
		})
	}
}

func TestGetAlignment_Symmetry(t *testing.T) {
	rects := []geometry.DOMRect{
		{X: 10, Y: 10, Width: 50, Height: 20},
		{X: 10, Y: 10, Width: 80, Height: 30},
		{X: 10, Y: 10, Width: 20, Height: 45},
	}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range perms {
		in := []geometry.DOMRect{rects[p[0]], rects[p[1]], rects[p[2]]}
		assert.Equal(t, []schemas.VisualAttribute{schemas.VisualLeft, schemas.VisualTop}, GetAlignment(in), "order %v", p)
	}
}

func TestGetAlignment(t *testing.T) {
	tests := []struct {
		name  string
		rects []geometry.DOMRect
		want  []schemas.VisualAttribute
	}{
		{
			name:  "column",
			rects: []geometry.DOMRect{{X: 0, Y: 0, Width: 10, Height: 10}, {X: 0, Y: 20, Width: 10, Height: 10}, {X: 0, Y: 40, Width: 10, Height: 12}},
			want:  []schemas.VisualAttribute{schemas.VisualLeft},
		},
		{
			name:  "centered",
			rects: []geometry.DOMRect{{X: 0, Y: 0, Width: 20, Height: 10}, {X: 5, Y: 20, Width: 10, Height: 10}},
			want:  []schemas.VisualAttribute{schemas.VisualCenter},
		},
		{
			name:  "right and bottom",
			rects: []geometry.DOMRect{{X: 0, Y: 0, Width: 20, Height: 30}, {X: 10, Y: 10, Width: 10, Height: 20}},
			want:  []schemas.VisualAttribute{schemas.VisualRight, schemas.VisualBottom},
		},
		{
			name:  "row by middle",
			rects: []geometry.DOMRect{{X: 0, Y: 0, Width: 10, Height: 40}, {X: 30, Y: 10, Width: 12, Height: 20}},
			want:  []schemas.VisualAttribute{schemas.VisualMiddle},
		},
		{
			name:  "single rect",
			rects: []geometry.DOMRect{{X: 0, Y: 0, Width: 10, Height: 10}},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetAlignment(tt.rects))
		})
	}
}

func box(x, y, w, h float64) *snapshot.Node {
	return snapshot.NewElement("div").SetRect(geometry.DOMRect{X: x, Y: y, Width: w, Height: h})
}

func TestGetAlignmentOrigin(t *testing.T) {
	a := box(10, 60, 30, 10)
	b := box(10, 20, 30, 10)
	c := box(10, 40, 30, 10)

	got, err := GetAlignmentOrigin([]dom.Node{a, b, c}, []schemas.VisualAttribute{schemas.VisualLeft})
	require.NoError(t, err)
	assert.Equal(t, dom.Node(b), got, "ties fall back to the top-most member")

	wide := box(0, 0, 100, 10)
	narrow := box(20, 10, 20, 10)
	got, err = GetAlignmentOrigin([]dom.Node{wide, narrow}, []schemas.VisualAttribute{schemas.VisualCenter})
	require.NoError(t, err)
	assert.Equal(t, dom.Node(narrow), got)

	members := []dom.Node{a, b, c}
	_, err = GetAlignmentOrigin(members, nil)
	var ce *uierr.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []dom.Node{a, b, c}, members, "input order is preserved")
}

func TestIsDirectPath(t *testing.T) {
	a := snapshot.NewElement("div")
	b := snapshot.NewElement("div")
	c := snapshot.NewElement("span")
	d := snapshot.NewElement("p")
	a.Append(b)
	b.Append(c)

	assert.True(t, IsDirectPath(a, c))
	assert.True(t, IsDirectPath(b, c))
	assert.False(t, IsDirectPath(c, c))
	assert.False(t, IsDirectPath(c, a))

	b.Append(d)
	assert.False(t, IsDirectPath(a, c), "c has a sibling now")
	assert.False(t, IsDirectPath(b, d))
}

const toolbar = `<div id="bar" data-rect="0,0,300,200">
  <button type="button" data-rect="10,10,80,30">A</button>
  <button type="button" data-rect="10,50,80,30">B</button>
  <button type="button" data-rect="10,90,80,30">C</button>
  <button type="button" data-rect="200,10,80,30">D</button>
</div>`

func TestLayout_QuerySimilar(t *testing.T) {
	doc := load(t, toolbar)
	l := Flatten(doc.MustFindOne(`//div[@id='bar']`))
	a := doc.MustFindOne(`//button[.='A']`)

	members := l.QuerySimilar(a, []schemas.VisualAttribute{schemas.VisualLeft})
	assert.Len(t, members, 3)
	d := doc.MustFindOne(`//button[.='D']`)
	assert.NotContains(t, members, dom.Node(d))
	assert.Len(t, l.QuerySimilar(a, []schemas.VisualAttribute{schemas.VisualTop}), 2, "A and D share a top")
	assert.Empty(t, l.QuerySimilar(d, []schemas.VisualAttribute{schemas.VisualLeft}), "D is alone in its column")
	// Only A's bottom edge is shared, with D; B and C drop out on the second axis.
	assert.ElementsMatch(t, []dom.Node{a, d},
		l.QuerySimilar(a, []schemas.VisualAttribute{schemas.VisualLeft, schemas.VisualBottom}))
	assert.Equal(t, []dom.Node{a}, l.QuerySimilar(a, nil))

	r, ok := l.Rect(a)
	require.True(t, ok)
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 80, Height: 30}, r)
}

func TestFlatten_RelativeToRoot(t *testing.T) {
	doc := load(t, `<div id="root" data-rect="100,50,200,200"><p data-rect="110.4,60.6,20,20">x</p></div>`)
	l := Flatten(doc.MustFindOne(`//div[@id='root']`))
	require.Equal(t, 2, l.Len())

	r, ok := l.Rect(l.Nodes()[1])
	require.True(t, ok)
	assert.Equal(t, geometry.Rect{X: 10, Y: 11, Width: 20, Height: 20}, r)
}

func TestBuildNode(t *testing.T) {
	e, _ := newEngine(t)
	doc := load(t, toolbar)
	base := doc.MustFindOne(`//div[@id='bar']`).BoundingClientRect().Origin()

	single, err := e.BuildNode(base, NodeSpec{Name: "d", Type: schemas.FeatureNodeSingle, Element: doc.MustFindOne(`//button[.='D']`)})
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect{X: 200, Y: 10, Width: 80, Height: 30}, single.Bounding)
	assert.Equal(t, lrtb, single.VisualAttributes)
	assert.Equal(t, schemas.DefaultFuzzy, single.Fuzzy)
	assert.False(t, single.AllowNull)
	assert.Empty(t, single.SimilarAlignment)

	buttons, err := doc.FindXPath(`//button[.!='D']`)
	require.NoError(t, err)
	// Reverse the input order; the top-most member is still canonical.
	similar, err := e.BuildNode(base, NodeSpec{
		Name: "buttons", Type: schemas.FeatureNodeSimilar,
		Elements: []dom.Node{buttons[2], buttons[1], buttons[0]},
	})
	require.NoError(t, err)
	assert.Equal(t, []schemas.VisualAttribute{schemas.VisualLeft}, similar.SimilarAlignment)
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 80, Height: 30}, similar.Bounding)

	_, err = e.BuildNode(base, NodeSpec{
		Name: "scattered", Type: schemas.FeatureNodeSimilar,
		Elements: []dom.Node{box(0, 0, 10, 10), box(50, 50, 20, 20)},
	})
	var ce *uierr.ConstructionError
	require.ErrorAs(t, err, &ce)
}

func TestQuery_Similar(t *testing.T) {
	e, _ := newEngine(t)
	doc := load(t, toolbar)
	bar := doc.MustFindOne(`//div[@id='bar']`)
	buttons, err := doc.FindXPath(`//button[.!='D']`)
	require.NoError(t, err)

	chain, err := e.Build(bar.BoundingClientRect().Origin(), []NodeSpec{
		{Name: "bar", Type: schemas.FeatureNodeSingle, Element: bar, IsAnchor: true},
		{Name: "buttons", Type: schemas.FeatureNodeSimilar, Elements: buttons},
	})
	require.NoError(t, err)

	res, err := e.Query(bar, chain, false)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, -1, res.PrunedAt)
	assert.Equal(t, dom.Node(bar), res.Paths[0][0].Node)
	assert.Nil(t, res.Paths[0][0].Members)
	assert.ElementsMatch(t, buttons, res.Paths[0][1].Members)

	// The same selector against a toolbar with one left-aligned button.
	lone := load(t, `<div id="bar" data-rect="0,0,300,200">
  <button type="button" data-rect="10,10,80,30">A</button>
  <button type="button" data-rect="200,10,80,30">D</button>
</div>`)
	res, err = e.Query(lone.MustFindOne(`//div[@id='bar']`), chain, false)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 1, res.PrunedAt)
}

func TestRefine_SimilarUsesCanonicalMember(t *testing.T) {
	e, _ := newEngine(t)
	doc := load(t, toolbar)
	bar := doc.MustFindOne(`//div[@id='bar']`)
	a, b, c := doc.MustFindOne(`//button[.='A']`), doc.MustFindOne(`//button[.='B']`), doc.MustFindOne(`//button[.='C']`)

	specs := []NodeSpec{
		{Name: "bar", Type: schemas.FeatureNodeSingle, Element: bar, IsAnchor: true},
		// Members out of canonical order; A is the top-most.
		{Name: "buttons", Type: schemas.FeatureNodeSimilar, Elements: []dom.Node{c, b, a}},
	}
	assert.Equal(t, dom.Node(a), specs[1].Exemplar())

	chain, err := e.Build(bar.BoundingClientRect().Origin(), specs)
	require.NoError(t, err)
	require.NoError(t, e.Refine(bar, specs, chain))

	var text string
	for _, attr := range chain[1].Attributes {
		if attr.Name == schemas.AttrInnerText {
			text = attr.Value
		}
	}
	assert.Equal(t, "A", text, "attributes come from the member the box was recorded from")
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 80, Height: 30}, chain[1].Bounding)

	res, err := e.Query(bar, chain, false)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, dom.Node(a), res.Paths[0][1].Node)
	assert.ElementsMatch(t, []dom.Node{a, b, c}, res.Paths[0][1].Members)
}

func TestQuery_RoundTrip(t *testing.T) {
	e, _ := newEngine(t)
	doc := testfixture.Load(t, testfixture.Page(testfixture.Default(100, 100).HTML()))
	cal := testfixture.Find(t, doc, 1)

	specs := []NodeSpec{
		{Name: "header", Type: schemas.FeatureNodeSingle, Element: cal.Header, IsAnchor: true},
		{
			Name: "yearMonth", Type: schemas.FeatureNodeSingle, Element: cal.YearMonth,
			VisualAttributes: []schemas.VisualAttribute{schemas.VisualCenter, schemas.VisualTop, schemas.VisualBottom},
			Forbidden:        []string{schemas.AttrInnerText},
		},
	}
	chain, err := e.Build(cal.Base.BoundingClientRect().Origin(), specs)
	require.NoError(t, err)

	// Before refinement the header box itself passes the year-month geometry.
	res, err := e.Query(cal.Base, chain, true)
	require.NoError(t, err)
	assert.Len(t, res.Paths, 2)

	require.NoError(t, e.Refine(cal.Base, specs, chain))
	var required []string
	for _, a := range chain[1].Attributes {
		if a.Required {
			required = append(required, a.Name)
		}
	}
	assert.Equal(t, []string{"class"}, required)

	res, err = e.Query(cal.Base, chain, false)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, []dom.Node{cal.Header, cal.YearMonth}, res.Paths[0].Nodes())
}

const trunk = `<div id="a" data-rect="0,0,100,100">
  <div id="b" data-rect="10,10,50,50"><span id="c" data-rect="10,10,50,50">x</span></div>
</div>`

func TestQuery_TrunkMerge(t *testing.T) {
	e, _ := newEngine(t)
	doc := load(t, trunk)
	root := doc.MustFindOne(`//div[@id='a']`)
	chain := schemas.FeatureSelector{
		link("a", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}),
		link("inner", geometry.Rect{X: 10, Y: 10, Width: 50, Height: 50}),
	}

	res, err := e.Query(root, chain, false)
	require.NoError(t, err)
	require.Len(t, res.Paths, 2)

	res, err = e.Query(root, chain, true)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, dom.Node(doc.MustFindOne(`//span[@id='c']`)), res.Paths[0][1].Node)
}

const drifted = `<div id="root" data-rect="0,0,400,200">
  <div id="anchor" data-rect="5,0,100,50"><span id="label" data-rect="30,10,40,20">Name</span></div>
</div>`

func TestQuery_DriftPropagates(t *testing.T) {
	e, _ := newEngine(t)
	doc := load(t, drifted)
	root := doc.MustFindOne(`//div[@id='root']`)
	label := doc.MustFindOne(`//span[@id='label']`)

	chain := schemas.FeatureSelector{
		link("anchor", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 50}),
		link("label", geometry.Rect{X: 20, Y: 10, Width: 40, Height: 20}),
	}
	res, err := e.Query(root, chain, false)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, dom.Node(label), res.Paths[0][1].Node)
	assert.Equal(t, geometry.Rect{X: 30, Y: 10, Width: 40, Height: 20}, res.Paths[0][1].Rect)

	// Without a horizontal axis on the anchor nothing carries the 5px shift.
	chain[0].VisualAttributes = []schemas.VisualAttribute{schemas.VisualTop, schemas.VisualBottom}
	res, err = e.Query(root, chain, false)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 1, res.PrunedAt)
}

func TestQuery_AllowNull(t *testing.T) {
	e, _ := newEngine(t)
	doc := load(t, drifted)
	root := doc.MustFindOne(`//div[@id='root']`)

	missing := link("missing", geometry.Rect{X: 300, Y: 150, Width: 10, Height: 10})
	missing.AllowNull = true
	chain := schemas.FeatureSelector{
		link("anchor", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 50}),
		missing,
		link("label", geometry.Rect{X: 20, Y: 10, Width: 40, Height: 20}),
	}
	res, err := e.Query(root, chain, false)
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)

	placeholder := res.Paths[0][1]
	assert.Nil(t, placeholder.Node)
	assert.Equal(t, geometry.Rect{X: 305, Y: 150, Width: 10, Height: 10}, placeholder.Rect)
	assert.Equal(t, dom.Node(doc.MustFindOne(`//span[@id='label']`)), res.Paths[0][2].Node)
}

func TestQuery_EmptyIsLoggedNotFailed(t *testing.T) {
	e, logs := newEngine(t)
	doc := load(t, drifted)

	chain := schemas.FeatureSelector{link("nowhere", geometry.Rect{X: 900, Y: 900, Width: 1, Height: 1})}
	res, err := e.Query(doc.MustFindOne(`//div[@id='root']`), chain, false)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, 0, res.PrunedAt)

	entries := logs.FilterMessage("No matched elements for link.").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "nowhere", entries[0].ContextMap()["link"])

	res, err = e.Query(doc.Root(), nil, false)
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, -1, res.PrunedAt)
}

func TestQuery_PatternErrorPropagates(t *testing.T) {
	e, _ := newEngine(t)
	doc := load(t, drifted)

	l := link("anchor", geometry.Rect{X: 0, Y: 0, Width: 100, Height: 50})
	l.Attributes = []schemas.SelectorAttribute{{Name: "id", Value: "(", Operator: schemas.OperatorRegex, Required: true}}
	_, err := e.Query(doc.MustFindOne(`//div[@id='root']`), schemas.FeatureSelector{l}, false)
	var pe *uierr.PatternError
	require.ErrorAs(t, err, &pe)
}
