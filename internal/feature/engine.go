// File: internal/feature/engine.go
package feature

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/dom"
	"github.com/xkilldash9x/scalpel-locator/internal/selector"
)

// Engine builds feature selectors from exemplar nodes and queries snapshots
// with them. An Engine holds no per-query state; each call works on its own
// Layout.
type Engine struct {
	logger  *zap.Logger
	matcher *selector.Matcher
	fuzzy   int
}

// NewEngine creates an engine. fuzzy is the pixel tolerance recorded on built
// links; a non-positive value selects schemas.DefaultFuzzy.
func NewEngine(logger *zap.Logger, matcher *selector.Matcher, fuzzy int) *Engine {
	if fuzzy <= 0 {
		fuzzy = schemas.DefaultFuzzy
	}
	return &Engine{
		logger:  logger.Named("feature"),
		matcher: matcher,
		fuzzy:   fuzzy,
	}
}

// Logger is the engine's named logger.
func (e *Engine) Logger() *zap.Logger { return e.logger }

// Matcher is the chain matcher used for attribute constraints.
func (e *Engine) Matcher() *selector.Matcher { return e.matcher }

type nodeDescription struct{ n dom.Node }

func (d nodeDescription) String() string {
	if d.n == nil {
		return "<nil>"
	}
	if s, ok := d.n.(fmt.Stringer); ok {
		return s.String()
	}
	return d.n.TagName()
}

// describe renders a node for log fields.
func describe(n dom.Node) fmt.Stringer { return nodeDescription{n: n} }
