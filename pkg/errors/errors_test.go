package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewError tests the basic creation of errors.
func TestNewError(t *testing.T) {
	tests := []struct {
		name    string
		code    ErrorCode
		message string
	}{
		{
			name:    "ValidationFailed",
			code:    ValidationFailed,
			message: "validation failed",
		},
		{
			name:    "InvalidInput",
			code:    InvalidInput,
			message: "bad genotype config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)

			customErr, ok := err.(*Error)

			assert.True(t, ok, "should be a custom *Error")
			assert.Equal(t, tt.code, customErr.Code())
			assert.Equal(t, tt.message, customErr.Error())
			assert.Nil(t, customErr.Unwrap())
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(InvalidInput, "genes size must be positive, got %d", -3)
	customErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InvalidInput, customErr.Code())
	assert.Equal(t, "genes size must be positive, got -3", customErr.Error())
}

// TestWrapError tests error wrapping functionality.
func TestWrapError(t *testing.T) {
	originalErr := stderrors.New("original error")

	tests := []struct {
		name       string
		err        error
		code       ErrorCode
		wrapMsg    string
		expectNil  bool
		expectCode ErrorCode
	}{
		{
			name:       "Wrap normal error",
			err:        originalErr,
			code:       CacheFailed,
			wrapMsg:    "score store down",
			expectNil:  false,
			expectCode: CacheFailed,
		},
		{
			name:      "Wrap nil error",
			err:       nil,
			code:      CacheFailed,
			wrapMsg:   "score store down",
			expectNil: true,
		},
		{
			name:       "Wrap custom error",
			err:        New(ResourceNotFound, "not found"),
			code:       ValidationFailed,
			wrapMsg:    "validation context",
			expectNil:  false,
			expectCode: ValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, tt.code, tt.wrapMsg)

			if tt.expectNil {
				assert.Nil(t, wrapped)
				return
			}

			assert.NotNil(t, wrapped)

			ourErr := wrapped.(*Error)
			assert.Equal(t, tt.expectCode, ourErr.Code())
			assert.Contains(t, ourErr.Error(), tt.wrapMsg)

			unwrapped := ourErr.Unwrap()
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), unwrapped.Error())
			}
		})
	}
}

// TestErrorInterfaces tests compliance with Go error interfaces.
func TestErrorInterfaces(t *testing.T) {
	t.Run("errors.Is support", func(t *testing.T) {
		err1 := New(ValidationFailed, "first")
		err2 := New(ValidationFailed, "second")
		err3 := New(ResourceNotFound, "third")

		assert.True(t, stderrors.Is(err1, err2),
			"Errors with same code should match with Is")
		assert.False(t, stderrors.Is(err1, err3),
			"Errors with different codes should not match with Is")
	})

	t.Run("errors.As support", func(t *testing.T) {
		originalErr := New(ValidationFailed, "original")
		wrappedErr := Wrap(originalErr, ResourceNotFound, "wrapped")

		var customErr *Error
		assert.True(t, stderrors.As(wrappedErr, &customErr),
			"Should be able to extract custom error type")
		assert.Equal(t, ResourceNotFound, customErr.Code())
	})

	t.Run("error unwrapping", func(t *testing.T) {
		baseErr := stderrors.New("base error")
		wrapped := Wrap(baseErr, ValidationFailed, "wrapped error")

		unwrapped := stderrors.Unwrap(wrapped)
		assert.Equal(t, baseErr.Error(), unwrapped.Error())
	})
}

// TestErrorString tests the string representation of errors.
func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "Simple error",
			err:      New(ValidationFailed, "validation failed"),
			contains: []string{"validation failed"},
		},
		{
			name: "Wrapped error",
			err: Wrap(
				stderrors.New("original problem"),
				ValidationFailed,
				"validation context",
			),
			contains: []string{
				"validation context",
				"original problem",
			},
		},
		{
			name: "Multiple wraps",
			err: Wrap(
				Wrap(
					stderrors.New("root cause"),
					ResourceNotFound,
					"not found",
				),
				ValidationFailed,
				"validation failed",
			),
			contains: []string{
				"validation failed",
				"not found",
				"root cause",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errString := tt.err.Error()
			for _, str := range tt.contains {
				assert.Contains(t, errString, str,
					"Error string should contain expected message")
			}
		})
	}
}

func TestErrorFields(t *testing.T) {
	t.Run("Empty fields", func(t *testing.T) {
		err := New(ValidationFailed, "error")
		customErr := err.(*Error)
		assert.Empty(t, customErr.Fields())
	})

	t.Run("Add fields", func(t *testing.T) {
		fields := Fields{
			"genotype":  "binary",
			"genes":     42,
			"offspring": true,
		}
		err := WithFields(New(ValidationFailed, "error"), fields)
		customErr := err.(*Error)
		assert.Equal(t, fields, customErr.Fields())
	})

	t.Run("Merge fields", func(t *testing.T) {
		err := WithFields(New(ValidationFailed, "error"), Fields{"a": 1})
		err = WithFields(err, Fields{"b": 2})
		customErr := err.(*Error)
		assert.Len(t, customErr.Fields(), 2)
		assert.Equal(t, 1, customErr.Fields()["a"])
		assert.Equal(t, 2, customErr.Fields()["b"])
	})

	t.Run("Fields returns copy not reference", func(t *testing.T) {
		err := WithFields(New(ValidationFailed, "error"), Fields{"key": "original"})
		customErr := err.(*Error)

		returned := customErr.Fields()
		returned["key"] = "modified"

		assert.Equal(t, "original", customErr.Fields()["key"])
	})
}

// TestAllErrorCodes covers every code of the domain set.
func TestAllErrorCodes(t *testing.T) {
	testCases := []struct {
		code ErrorCode
		name string
	}{
		{Unknown, "Unknown"},
		{InvalidInput, "InvalidInput"},
		{ValidationFailed, "ValidationFailed"},
		{ResourceNotFound, "ResourceNotFound"},
		{Timeout, "Timeout"},
		{Canceled, "Canceled"},
		{UnsupportedOperation, "UnsupportedOperation"},
		{CapacityExhausted, "CapacityExhausted"},
		{BuildFailed, "BuildFailed"},
		{EvaluationFailed, "EvaluationFailed"},
		{CacheFailed, "CacheFailed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := New(tc.code, "test error")
			customErr, ok := err.(*Error)
			require.True(t, ok)
			assert.Equal(t, tc.code, customErr.Code())
		})
	}
}

func TestIsCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CacheFailed, "store down")
		assert.True(t, IsCode(err, CacheFailed))
		assert.False(t, IsCode(err, Timeout))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := Wrap(New(CacheFailed, "store down"), EvaluationFailed, "evaluation aborted")
		assert.True(t, IsCode(err, EvaluationFailed))
	})

	t.Run("nil and foreign errors", func(t *testing.T) {
		assert.False(t, IsCode(nil, CacheFailed))
		assert.False(t, IsCode(stderrors.New("plain"), CacheFailed))
	})
}

func TestCheckContext(t *testing.T) {
	t.Run("live context", func(t *testing.T) {
		assert.NoError(t, CheckContext(context.Background()))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := CheckContext(ctx)
		require.Error(t, err)
		assert.True(t, IsCode(err, Canceled))
	})
}

// TestErrorChainIntegration tests complex error chains.
func TestErrorChainIntegration(t *testing.T) {
	t.Run("Deep error chain with fields", func(t *testing.T) {
		baseErr := stderrors.New("sqlite connection failed")

		level1 := Wrap(baseErr, CacheFailed, "score lookup failed")
		level1 = WithFields(level1, Fields{"genes_hash": uint64(123)})

		level2 := Wrap(level1, EvaluationFailed, "evaluation aborted")
		level2 = WithFields(level2, Fields{"generation": 7})

		finalErr := level2.(*Error)
		assert.Equal(t, EvaluationFailed, finalErr.Code())
		assert.Contains(t, finalErr.Error(), "evaluation aborted")
		assert.Contains(t, finalErr.Error(), "score lookup failed")
		assert.Contains(t, finalErr.Error(), "sqlite connection failed")
		assert.Contains(t, finalErr.Error(), "generation=7")

		unwrapped := finalErr.Unwrap().(*Error)
		assert.Equal(t, CacheFailed, unwrapped.Code())
	})
}
