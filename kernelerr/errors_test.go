package kernelerr

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_CarriesCode(t *testing.T) {
	err := New(CodeDepthExceeded, "tree exceeds max depth %d", 256)
	assert.True(t, HasCode(err, CodeDepthExceeded))
	assert.False(t, HasCode(err, CodeInvalidInput))
}

func TestWrap_PreservesUnderlyingCause(t *testing.T) {
	cause := stderrors.New("allocation failed")
	wrapped := Wrap(cause, CodeInternFailure, "intern table exhausted")
	assert.True(t, HasCode(wrapped, CodeInternFailure))
	assert.NotNil(t, wrapped)
}

func TestHasCode_NilError(t *testing.T) {
	assert.False(t, HasCode(nil, CodeViewNotFound))
}
