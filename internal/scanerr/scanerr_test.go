package scanerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_WrapAndUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection reset")
	err := Wrap(KindTransient, "fetch failed", cause)

	assert.True(t, Is(err, KindTransient))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, Retryable(New(KindTransient, "x")))
	assert.True(t, Retryable(New(KindRateLimited, "x")))
	assert.False(t, Retryable(New(KindUnauthorized, "x")))
	assert.False(t, Retryable(New(KindNotFound, "x")))
	assert.False(t, Retryable(errors.New("plain error")))
}

func TestWithRetryAfter(t *testing.T) {
	t.Parallel()
	err := New(KindRateLimited, "slow down").WithRetryAfter(2.5)
	assert.NotNil(t, err.Retry)
	assert.Equal(t, 2.5, err.Retry.AfterSeconds)
}

func TestKindOf_NonTaxonomyError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
