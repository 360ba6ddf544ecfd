package pipeline

import (
	"errors"
	"math/rand"
	"time"

	"github.com/studyforge/syllabd/internal/llm"
)

const maxRetries = 3

// IsRetryable reports whether err is a transient LLM API error worth
// retrying (rate limit or server-side failure).
func IsRetryable(err error) bool {
	var rerr *llm.RetryableError
	return errors.As(err, &rerr)
}

// Backoff returns the delay before retry attempt n (0-based):
// exponential base of 2s with up to 50% jitter, capped at 30s.
func Backoff(attempt int) time.Duration {
	base := 2 * time.Second << uint(attempt)
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
