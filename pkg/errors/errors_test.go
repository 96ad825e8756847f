package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := New(ErrCodeEmptyInput, "no spawn records loaded")
	assert.Equal(t, "[DATA_001] no spawn records loaded", err.Error())

	withDetail := err.WithDetail("path=data/positions.jsonl")
	assert.Equal(t, "[DATA_001] no spawn records loaded: path=data/positions.jsonl", withDetail.Error())
	// Original is untouched.
	assert.Empty(t, err.Detail)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "insert"))

	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "insert archetypes")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeDatabaseError, err.Code)
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := New(ErrCodeMalformedRecord, "bad line")
	outer := Wrap(fmt.Errorf("reading: %w", inner), ErrCodeUnknown, "load builds")
	assert.Equal(t, ErrCodeMalformedRecord, outer.Code)
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeNoClusters, "zero clusters")
	wrapped := fmt.Errorf("positions stage: %w", inner)

	assert.True(t, IsCode(wrapped, ErrCodeNoClusters))
	assert.False(t, IsCode(wrapped, ErrCodeDatabaseError))
	assert.False(t, IsCode(nil, ErrCodeNoClusters))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrorCode("OK"), GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeEmptyInput, GetCode(New(ErrCodeEmptyInput, "empty")))
}
