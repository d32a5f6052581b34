package nlpaerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeInvalidInput, "degree must be positive"),
			expected: "[INVALID_INPUT] degree must be positive",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeIOError, "failed to write degree sequence", errors.New("disk full")),
			expected: "[IO_ERROR] failed to write degree sequence: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("file not found")
	err := Wrap(CodeNotFound, "seed degree file missing", underlying)

	unwrapped := err.Unwrap()
	assert.Equal(t, underlying, unwrapped)
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeConfigError, "bad exponent")
	err2 := New(CodeConfigError, "bad offset")
	err3 := New(CodeAlgorithmError, "rejection loop stalled")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"invalid input error", New(CodeInvalidInput, "seed nodes must be even"), true},
		{"different error code", New(CodeIOError, "write failed"), false},
		{"plain error", errors.New("plain"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsInvalidInput(tt.err))
		})
	}
}

func TestIsCapacityError(t *testing.T) {
	assert.True(t, IsCapacityError(New(CodeCapacityError, "too many nodes")))
	assert.False(t, IsCapacityError(New(CodeInvalidInput, "bad flag")))
}

func TestIsAlgorithmError(t *testing.T) {
	assert.True(t, IsAlgorithmError(New(CodeAlgorithmError, "w(1) <= 0")))
	assert.False(t, IsAlgorithmError(New(CodeConfigError, "bad config")))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeCapacityError, GetErrorCode(New(CodeCapacityError, "n too large")))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("not an AppError")))
	assert.Equal(t, CodeUnknown, GetErrorCode(nil))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "n too large", GetErrorMessage(New(CodeCapacityError, "n too large")))
	assert.Equal(t, "plain", GetErrorMessage(errors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
