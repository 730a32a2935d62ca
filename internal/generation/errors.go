// Package generation wraps calls to generative model providers: structured
// output enforcement, a retry policy split between schema mismatches and
// rate limits, and token/cost accounting.
package generation

import (
	"errors"
	"fmt"
)

// SchemaMismatchError reports model output that failed structural
// validation against the expected section schema. Recovered locally via
// bounded immediate retry.
type SchemaMismatchError struct {
	Section string
	Reason  string
	Err     error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch for %s: %s", e.Section, e.Reason)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

// RateLimitError reports a provider throughput rejection. Recovered locally
// via backoff retry, uncounted against the schema-mismatch budget.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.Provider)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is (or wraps) a rate-limit rejection.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsSchemaMismatch reports whether err is (or wraps) a structural mismatch.
func IsSchemaMismatch(err error) bool {
	var sm *SchemaMismatchError
	return errors.As(err, &sm)
}
