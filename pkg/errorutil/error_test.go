package errorutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSetsRetryableForInputUnavailable(t *testing.T) {
	assert.True(t, New(KindInputUnavailable, "gone").Retryable)
	assert.False(t, New(KindGeometryMismatch, "off grid").Retryable)
	assert.False(t, New(KindInternal, "boom").Retryable)
}

func TestWrapPreservesTypedErrors(t *testing.T) {
	orig := Newf(KindInsufficientCoverage, "only %d pixels", 7)
	wrapped := fmt.Errorf("stage failed: %w", orig)

	e := Wrap(wrapped)
	assert.Equal(t, KindInsufficientCoverage, e.Kind)
	assert.Equal(t, KindInsufficientCoverage, KindOf(wrapped))
}

func TestWrapForeignError(t *testing.T) {
	e := Wrap(errors.New("plain"))
	assert.Equal(t, KindInternal, e.Kind)
	assert.False(t, e.Retryable)
}

func TestWithDetail(t *testing.T) {
	e := New(KindLayerInvalid, "bad layer").WithDetail("layer", "hidrografia")
	assert.Equal(t, "hidrografia", e.Details["layer"])
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(New(KindInputUnavailable, "x")))
	assert.Equal(t, 3, ExitCode(New(KindInsufficientCoverage, "x")))
	assert.Equal(t, 4, ExitCode(New(KindConfiguration, "x")))
	assert.Equal(t, 1, ExitCode(errors.New("anything else")))
}
