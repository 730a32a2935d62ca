package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"planforge/internal/logging"
	"planforge/internal/usage"
)

// Validator is the structural schema contract every generated section type
// implements: decode succeeded, now check required shape.
type Validator interface {
	Validate() error
}

// Usage summarizes the tokens and cost one Call consumed, across all of
// its attempts.
type Usage struct {
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Model        string
	Attempts     int
}

// Caller wraps an LLMClient with the pipeline's retry policy:
//   - structural mismatch: immediate retry, small fixed bound;
//   - rate limit: backoff of base × attempt, separate larger bound,
//     uncounted against the mismatch budget;
//   - anything else: fatal, propagates immediately.
type Caller struct {
	client        LLMClient
	schemaRetries int
	rateRetries   int
	rateBase      time.Duration

	// sleep is swapped out by tests to avoid wall-clock waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// CallerOption customizes a Caller.
type CallerOption func(*Caller)

// WithSchemaRetries sets the structural-mismatch retry bound.
func WithSchemaRetries(n int) CallerOption {
	return func(c *Caller) { c.schemaRetries = n }
}

// WithRateLimitRetries sets the rate-limit retry bound and backoff base.
func WithRateLimitRetries(n int, base time.Duration) CallerOption {
	return func(c *Caller) {
		c.rateRetries = n
		c.rateBase = base
	}
}

// WithSleeper overrides the backoff sleep. Tests use this.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) CallerOption {
	return func(c *Caller) { c.sleep = sleep }
}

// NewCaller creates a Caller with default retry bounds.
func NewCaller(client LLMClient, opts ...CallerOption) *Caller {
	c := &Caller{
		client:        client,
		schemaRetries: 2,
		rateRetries:   5,
		rateBase:      2 * time.Second,
		sleep:         sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call runs one generation call for the named section, decoding the
// response strictly into out and validating its shape. The returned Usage
// covers every attempt, so failed calls still report what they cost.
func (c *Caller) Call(ctx context.Context, section string, req Request, out Validator) (Usage, error) {
	total := Usage{Model: c.client.Model()}
	schemaAttempts := 0
	rateAttempts := 0

	for {
		total.Attempts++
		resp, err := c.client.Generate(ctx, req)
		if err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) {
				rateAttempts++
				if rateAttempts > c.rateRetries {
					return total, fmt.Errorf("%s: rate limit retries exhausted: %w", section, err)
				}
				delay := c.rateBase * time.Duration(rateAttempts)
				logging.GenerationWarn("%s: rate limited, backing off %v (attempt %d/%d)",
					section, delay, rateAttempts, c.rateRetries)
				if serr := c.sleep(ctx, delay); serr != nil {
					return total, serr
				}
				continue
			}
			var sm *SchemaMismatchError
			if errors.As(err, &sm) {
				// Empty/contentless completions count against the mismatch
				// budget like any other structural failure.
				schemaAttempts++
				if schemaAttempts > c.schemaRetries {
					return total, fmt.Errorf("%s: %w", section, err)
				}
				logging.GenerationWarn("%s: %v, retrying (%d/%d)", section, err, schemaAttempts, c.schemaRetries)
				continue
			}
			return total, fmt.Errorf("%s: %w", section, err)
		}

		c.account(ctx, section, resp, &total)

		// Each attempt decodes into its own zero value; out is written only
		// once an attempt passes both decode and validation, so fields from
		// a rejected response never leak into the accepted one.
		fresh := newTarget(out)
		if err := decodeStrict(resp.Text, fresh); err != nil {
			schemaAttempts++
			mismatch := &SchemaMismatchError{Section: section, Reason: err.Error(), Err: err}
			if schemaAttempts > c.schemaRetries {
				return total, mismatch
			}
			logging.GenerationWarn("%s: %v, retrying (%d/%d)", section, mismatch, schemaAttempts, c.schemaRetries)
			continue
		}
		reflect.ValueOf(out).Elem().Set(reflect.ValueOf(fresh).Elem())

		logging.Generation("%s: generated in %d attempt(s), %d tokens, $%.4f",
			section, total.Attempts, total.InputTokens+total.OutputTokens, total.CostUSD)
		return total, nil
	}
}

// account adds one attempt's tokens/cost to the running total and to the
// context tracker, if one is riding the context.
func (c *Caller) account(ctx context.Context, section string, resp *Response, total *Usage) {
	cost := EstimateCost(c.client.Model(), resp.InputTokens, resp.OutputTokens)
	total.InputTokens += resp.InputTokens
	total.OutputTokens += resp.OutputTokens
	total.CostUSD += cost

	if tracker := usage.FromContext(ctx); tracker != nil {
		tracker.Track(c.client.Model(), c.client.Provider(), section,
			resp.InputTokens, resp.OutputTokens, cost)
	}
}

// newTarget allocates a zero value of out's concrete type. Validators are
// always pointers to section structs.
func newTarget(out Validator) Validator {
	return reflect.New(reflect.TypeOf(out).Elem()).Interface().(Validator)
}

// decodeStrict parses the model's JSON into out, rejecting unknown fields,
// then runs the section's own structural check.
func decodeStrict(text string, out Validator) error {
	dec := json.NewDecoder(strings.NewReader(stripFences(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return out.Validate()
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite the response MIME type.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
