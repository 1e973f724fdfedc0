// Package model contains core data types for the project.
package model

import "net/url"

// DefaultIdentity tags every synthetic job emitted by the load producer.
const DefaultIdentity = "benchmark#benchmark#benchmark"

// Context is the payload and retry budget shared by a batch of jobs.
// It is never mutated after construction, so jobs share it by pointer.
type Context struct {
	Body       []byte // Request body sent to every target.
	RetryLimit int    // Maximum retry attempts for a job carrying this context.
}

// NewContext builds a shared job context. A retryLimit of 0 means no retries.
func NewContext(body []byte, retryLimit int) *Context {
	return &Context{Body: body, RetryLimit: retryLimit}
}

// Job is a single delivery attempt.
type Job struct {
	Context    *Context // Shared, read-only.
	RetryCount int      // Attempts already made.
	Target     *url.URL // Destination webhook.
	Identity   string   // Free-form correlation string.
}

// NewJob creates a job with a zero retry counter.
func NewJob(ctx *Context, target *url.URL, identity string) Job {
	return Job{Context: ctx, Target: target, Identity: identity}
}

// Retry returns a copy of j with the retry counter incremented.
// The receiver is a value, so the caller's job is left untouched.
func (j Job) Retry() Job {
	j.RetryCount++
	return j
}

// Exhausted reports whether the job has gone past its context's retry budget.
func (j Job) Exhausted() bool {
	if j.Context == nil {
		return j.RetryCount > 0
	}
	return j.RetryCount > j.Context.RetryLimit
}
