package gatekeep

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorCategory
	}{
		{429, ErrorTransient},
		{408, ErrorTransient},
		{500, ErrorTransient},
		{503, ErrorTransient},
		{401, ErrorPermanent},
		{403, ErrorPermanent},
		{400, ErrorUserInput},
		{404, ErrorUserInput},
		{422, ErrorUserInput},
		{418, ErrorPermanent},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeStatusCode(tt.code))
		})
	}
}

func TestNewStatusError(t *testing.T) {
	t.Run("carries retry after header", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		resp.Header.Set("Retry-After", "7")
		cause := errors.New("slow down")

		err := NewStatusError(ProviderOpenAI, 429, resp, cause)

		assert.Equal(t, ErrorTransient, err.Category())
		assert.Equal(t, 429, err.StatusCode())
		assert.Equal(t, 7*time.Second, err.RetryAfter())
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "openai")
	})

	t.Run("nil response", func(t *testing.T) {
		err := NewStatusError(ProviderAnthropic, 401, nil, nil)
		assert.Equal(t, ErrorPermanent, err.Category())
		assert.Zero(t, err.RetryAfter())
	})
}

func TestCategoryHelpers(t *testing.T) {
	transient := NewStatusError(ProviderGoogle, 503, nil, nil)
	wrapped := fmt.Errorf("query: %w", transient)

	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsPermanent(wrapped))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.True(t, IsPermanent(NewStatusError(ProviderGoogle, 403, nil, nil)))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	require.Greater(t, ParseRetryAfter(future), 50*time.Minute)
}
