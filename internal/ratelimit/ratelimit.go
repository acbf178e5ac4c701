package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one attempt against a limited key.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter bounds attempts per key within a fixed window. Callers never see
// the backing store; the default is process-local memory, with a redis
// backing for multi-instance deployments.
type Limiter interface {
	// Consume records one attempt for key and reports whether it is
	// within the ceiling for the current window.
	Consume(ctx context.Context, key string) (Decision, error)
	// Reset forgets the key entirely, as if it had never been seen.
	// Called after a verified successful login so a legitimate user is
	// not penalized by earlier failures.
	Reset(ctx context.Context, key string) error
}
