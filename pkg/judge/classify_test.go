package judge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassifyCallErrorDetectsAuth(t *testing.T) {
	ce := classifyCallError(errors.New("401 Unauthorized: invalid api key"))
	require.True(t, ce.AuthError)
	require.False(t, ce.RateLimited)
}

func TestClassifyCallErrorDetectsRateLimit(t *testing.T) {
	ce := classifyCallError(errors.New("429 Too Many Requests: rate limit exceeded"))
	require.True(t, ce.RateLimited)
	require.False(t, ce.AuthError)
}

func TestClassifyCallErrorUnknownIsNeitherClass(t *testing.T) {
	ce := classifyCallError(errors.New("connection reset by peer"))
	require.False(t, ce.AuthError)
	require.False(t, ce.RateLimited)
}

func TestProviderBreakerTripsOnThreeConsecutiveAuthErrors(t *testing.T) {
	pb := newProviderBreaker("test-auth", 3, 5, 50*time.Millisecond)
	authErr := &CallError{Err: errors.New("401"), AuthError: true}

	for i := 0; i < 2; i++ {
		pb.record(authErr)
		require.False(t, pb.open(), "should not trip before 3 consecutive auth errors")
	}
	pb.record(authErr)
	require.True(t, pb.open())
}

func TestProviderBreakerTripsOnFiveConsecutiveRateLimits(t *testing.T) {
	pb := newProviderBreaker("test-ratelimit", 3, 5, 50*time.Millisecond)
	rlErr := &CallError{Err: errors.New("429"), RateLimited: true}

	for i := 0; i < 4; i++ {
		pb.record(rlErr)
		require.False(t, pb.open())
	}
	pb.record(rlErr)
	require.True(t, pb.open())
}

func TestProviderBreakerResetsOnSuccessBetweenClasses(t *testing.T) {
	pb := newProviderBreaker("test-reset", 3, 5, 50*time.Millisecond)
	authErr := &CallError{Err: errors.New("401"), AuthError: true}

	pb.record(authErr)
	pb.record(authErr)
	pb.record(nil) // a success resets the auth breaker's consecutive count
	pb.record(authErr)
	pb.record(authErr)
	require.False(t, pb.open(), "two consecutive auth errors after a reset should not trip a 3-threshold breaker")
}

func TestProviderBreakerDoesNotConflateClasses(t *testing.T) {
	pb := newProviderBreaker("test-independent", 3, 5, 50*time.Millisecond)
	authErr := &CallError{Err: errors.New("401"), AuthError: true}
	rlErr := &CallError{Err: errors.New("429"), RateLimited: true}

	// Two auth errors then a rate-limit error: the rate-limit record
	// counts as success for the auth breaker, resetting it.
	pb.record(authErr)
	pb.record(authErr)
	pb.record(rlErr)
	pb.record(authErr)
	pb.record(authErr)
	require.False(t, pb.open())
}
