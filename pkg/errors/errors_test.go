// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test coded error creation, wrapping and detail propagation

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/danny/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "invalid_pattern",
			code:    errors.ErrInvalidPattern,
			message: "pattern too long",
			wantStr: "[INVALID_PATTERN] pattern too long",
		},
		{
			name:    "invalid_range",
			code:    errors.ErrInvalidRange,
			message: "min_usage_count (5) > max_usage_count (2)",
			wantStr: "[INVALID_RANGE] min_usage_count (5) > max_usage_count (2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.NotNil(t, err.Details)
			assert.Equal(t, tt.wantStr, err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrIO, "ignored"))

	base := stderrors.New("permission denied")
	err := errors.Wrapf(base, errors.ErrIO, "failed to read %s", "rules/a.toml")
	require.NotNil(t, err)
	assert.Equal(t, "[IO_ERROR] failed to read rules/a.toml: permission denied", err.Error())
	assert.True(t, stderrors.Is(err, base))
}

func TestIs(t *testing.T) {
	err := errors.New(errors.ErrLoad, "load failed")
	assert.True(t, stderrors.Is(err, errors.New(errors.ErrLoad, "other message")))
	assert.False(t, stderrors.Is(err, errors.New(errors.ErrParse, "load failed")))
}

func TestIsErrorCodeWalksChain(t *testing.T) {
	inner := errors.New(errors.ErrInvalidPattern, "pattern exceeds maximum length")
	outer := errors.Wrap(inner, errors.ErrLoad, "invalid rule file")

	assert.True(t, errors.IsErrorCode(outer, errors.ErrLoad))
	assert.True(t, errors.IsErrorCode(outer, errors.ErrInvalidPattern))
	assert.False(t, errors.IsErrorCode(outer, errors.ErrParse))
	assert.False(t, errors.IsErrorCode(stderrors.New("plain"), errors.ErrLoad))
	assert.False(t, errors.IsErrorCode(nil, errors.ErrLoad))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, errors.ErrLoad, errors.GetErrorCode(errors.New(errors.ErrLoad, "x")))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
}

func TestGetErrorDetailsMergesChain(t *testing.T) {
	inner := errors.New(errors.ErrInvalidPattern, "bad").
		WithDetail(errors.DetailRule, "hooks").
		WithDetail(errors.DetailPath, "inner")
	outer := errors.Wrap(inner, errors.ErrLoad, "load").
		WithDetails(map[string]interface{}{errors.DetailPath: "rules/react.toml"})

	details := errors.GetErrorDetails(outer)
	assert.Equal(t, "hooks", details[errors.DetailRule])
	assert.Equal(t, "rules/react.toml", details[errors.DetailPath])

	assert.Nil(t, errors.GetErrorDetails(stderrors.New("plain")))
}
