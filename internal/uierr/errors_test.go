package uierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	base := New(NoSuchElement, "panels base not found")
	wrapped := fmt.Errorf("query panels: %w", base)

	assert.Equal(t, NoSuchElement, CodeOf(wrapped))
	assert.Equal(t, Unknown, CodeOf(errors.New("plain")))
	assert.Equal(t, Code(0), CodeOf(nil))
}

func TestError_Format(t *testing.T) {
	err := Wrap(DateSelectorBuildFailedDetailsFromPoints, "cannot resolve yearMonth", errors.New("no hit"))
	assert.Equal(t, "DateSelector_Build_Failed_Details_From_Points (5010005): cannot resolve yearMonth: no hit", err.Error())
	assert.Equal(t, "Code(42)", Code(42).String())
	assert.Equal(t, -2, int(ValidationFail))
	assert.Equal(t, 115, int(MultiElementID))
}

func TestPatternError_Unwrap(t *testing.T) {
	cause := errors.New("missing )")
	err := error(&PatternError{Pattern: "(a", Message: "invalid regular expression: (a", Err: cause})

	var pe *PatternError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "(a", pe.Pattern)
	assert.ErrorIs(t, err, cause)
}
