package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_PreservesCode(t *testing.T) {
	base := DatabaseError("query failed")
	wrapped := Wrap(base, "failed to list trial summaries")

	assert.Equal(t, CodeDatabaseError, GetCode(wrapped))
	assert.True(t, IsAppError(wrapped))
	assert.Equal(t, "failed to list trial summaries: query failed", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrap_ForeignError(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := Wrapf(cause, "failed to read samples for %s", "exp1")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("bad field name"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, "bad field name", err.Error())
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeConfigInvalid, GetCode(ConfigInvalid("DATABASE_URL is required")))
}
