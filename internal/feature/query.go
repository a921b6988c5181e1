// File: internal/feature/query.go
package feature

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

// Match is what one link resolved to on a path. Node is nil when a link that
// allows null matched nothing. Members holds the expanded group of a similar
// link and is nil otherwise.
type Match struct {
	Node    dom.Node
	Members []dom.Node
	// Rect is the matched box, or the expected box for a null match.
	Rect geometry.Rect
}

// Path holds one Match per link of the chain.
type Path []Match

// Nodes returns the matched node of every link.
func (p Path) Nodes() []dom.Node {
	out := make([]dom.Node, len(p))
	for i, m := range p {
		out[i] = m.Node
	}
	return out
}

// Result is the outcome of a query. An empty result is an expected outcome:
// PrunedAt names the first link that left no path standing, or is -1 when
// paths survived.
type Result struct {
	Paths    []Path
	PrunedAt int
}

// Empty reports whether no path matched.
func (r Result) Empty() bool { return len(r.Paths) == 0 }

type candidate struct {
	node dom.Node
	rect geometry.Rect
}

type partial struct {
	matches []Match
	dx, dy  int
}

func (p partial) extend(m Match, dx, dy int) partial {
	next := make([]Match, len(p.matches), len(p.matches)+1)
	copy(next, p.matches)
	return partial{matches: append(next, m), dx: p.dx + dx, dy: p.dy + dy}
}

// Query snapshots root and resolves chain against it.
func (e *Engine) Query(root dom.Node, chain schemas.FeatureSelector, mergeTrunk bool) (Result, error) {
	return e.QueryLayout(Flatten(root), chain, mergeTrunk)
}

// QueryLayout resolves chain against a snapshot. The first link is matched
// against its recorded box. Every later link is matched against its recorded
// box shifted by the drift accumulated along the path so far, where each
// matched link contributes its offset along its own visual axes. With
// mergeTrunk, a candidate that is an only-child ancestor of another candidate
// for the same link is dropped in favour of the descendant.
func (e *Engine) QueryLayout(l *Layout, chain schemas.FeatureSelector, mergeTrunk bool) (Result, error) {
	res := Result{PrunedAt: -1}
	if len(chain) == 0 {
		return res, nil
	}

	var paths []partial
	first := chain[0]
	for _, n := range l.Nodes() {
		rect, _ := l.Rect(n)
		if !first.AllowNull {
			ok, err := e.accept(l, n, rect, first.Bounding, first)
			if err != nil {
				return Result{}, fmt.Errorf("link %q: %w", first.Name, err)
			}
			if !ok {
				continue
			}
		}
		dx, dy := drift(rect, first.Bounding, first.VisualAttributes)
		paths = append(paths, partial{}.extend(Match{Node: n, Rect: rect}, dx, dy))
	}
	if len(paths) == 0 {
		e.pruned(&res, 0, first)
		return res, nil
	}

	for i := 1; i < len(chain); i++ {
		link := chain[i]
		var next []partial
		for _, p := range paths {
			expected := link.Bounding
			expected.Offset(p.dx, p.dy)

			var found []candidate
			for _, n := range l.Nodes() {
				rect, _ := l.Rect(n)
				ok, err := e.accept(l, n, rect, expected, link)
				if err != nil {
					return Result{}, fmt.Errorf("link %q: %w", link.Name, err)
				}
				if ok {
					found = append(found, candidate{node: n, rect: rect})
				}
			}

			if len(found) == 0 && link.AllowNull {
				next = append(next, p.extend(Match{Rect: expected}, 0, 0))
				continue
			}
			if mergeTrunk {
				found = mergeTrunks(found)
			}
			for _, c := range found {
				dx, dy := drift(c.rect, expected, link.VisualAttributes)
				next = append(next, p.extend(Match{Node: c.node, Rect: c.rect}, dx, dy))
			}
		}
		paths = next
		if len(paths) == 0 {
			e.pruned(&res, i, link)
			return res, nil
		}
	}

	res.Paths = make([]Path, 0, len(paths))
	for _, p := range paths {
		out := make(Path, len(p.matches))
		for i, m := range p.matches {
			if m.Node != nil && chain[i].Type == schemas.FeatureNodeSimilar {
				m.Members = l.QuerySimilar(m.Node, chain[i].SimilarAlignment)
			}
			out[i] = m
		}
		res.Paths = append(res.Paths, out)
	}
	return res, nil
}

func (e *Engine) accept(l *Layout, n dom.Node, rect, expected geometry.Rect, link schemas.FeatureSelectorNode) (bool, error) {
	if !VisualMatch(rect, expected, link.VisualAttributes, link.Fuzzy) {
		return false, nil
	}
	ok, err := e.matcher.MatchLink(n, link.Attributes, false)
	if err != nil || !ok {
		return false, err
	}
	if link.Type == schemas.FeatureNodeSimilar && len(l.QuerySimilar(n, link.SimilarAlignment)) < 2 {
		return false, nil
	}
	return true, nil
}

func (e *Engine) pruned(res *Result, index int, link schemas.FeatureSelectorNode) {
	res.PrunedAt = index
	e.logger.Debug("No matched elements for link.", zap.String("link", link.Name), zap.Int("index", index))
}

// mergeTrunks drops every candidate that is an only-child ancestor of another
// candidate.
func mergeTrunks(found []candidate) []candidate {
	out := found[:0:0]
	for _, c := range found {
		trunk := false
		for _, o := range found {
			if IsDirectPath(c.node, o.node) {
				trunk = true
				break
			}
		}
		if !trunk {
			out = append(out, c)
		}
	}
	return out
}
