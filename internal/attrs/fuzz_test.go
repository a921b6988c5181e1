package attrs

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/i18n"
)

var fuzzOperators = []schemas.Operator{
	schemas.OperatorEqual, schemas.OperatorIncludes, schemas.OperatorRegex, schemas.OperatorWildcard,
}

func FuzzMatchValue(f *testing.F) {
	f.Add([]byte("seed-pattern-value"))
	f.Add([]byte{0x01, 0x02, '(', '*', '?', '['})

	cat, err := i18n.New("en")
	if err != nil {
		f.Fatal(err)
	}
	m := NewMatcher(cat)

	f.Fuzz(func(t *testing.T, data []byte) {
		c := fuzz.NewConsumer(data)
		pattern, err := c.GetString()
		if err != nil {
			return
		}
		value, err := c.GetString()
		if err != nil {
			return
		}
		opIdx, err := c.GetInt()
		if err != nil {
			return
		}
		name := "title"
		if classAttr, err := c.GetBool(); err == nil && classAttr {
			name = "class"
		}
		op := fuzzOperators[uint(opIdx)%uint(len(fuzzOperators))]

		ok, _ := m.MatchValue(value, true, schemas.SelectorAttribute{Name: name, Value: pattern, Operator: op})
		if ok && (op == schemas.OperatorRegex || op == schemas.OperatorWildcard) && jsLength(value) > MaxPatternInput {
			t.Fatalf("value of %d code units matched %s pattern %q", jsLength(value), op, pattern)
		}
	})
}
