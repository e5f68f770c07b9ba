package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindClassification(t *testing.T) {
	assert.True(t, IsValidation(NewValidation("bad input %d", 1)))
	assert.True(t, IsNotFound(NewNotFound("missing")))
	assert.True(t, IsStorage(WrapStorage(errors.New("boom"), "query failed")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestWrappedCauseIsPreserved(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapStorage(cause, "failed to load position for %s", "AAPL")

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "storage")
	assert.Contains(t, err.Error(), "AAPL")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewNotFound("transaction %s not found", "x"))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, KindNotFound, KindOf(err))
}
