package storage

import (
	"time"

	"github.com/google/uuid"
)

// RetryPolicy bounds how many times a failed remote upsert is retried.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy retries once after two seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 1, Delay: DefaultRetryDelay}
}

// WriteIntent is one pending remote upsert.
type WriteIntent struct {
	ID      uuid.UUID
	Key     string
	Raw     string
	Attempt int
}

func newWriteIntent(key string, raw []byte) WriteIntent {
	return WriteIntent{
		ID:  uuid.New(),
		Key: key,
		Raw: string(raw),
	}
}

// Next returns the intent for the following attempt, or false when the policy is exhausted.
func (p RetryPolicy) Next(intent WriteIntent) (WriteIntent, bool) {
	if intent.Attempt >= p.MaxRetries {
		return intent, false
	}
	intent.Attempt++
	return intent, true
}

// pendingRetry is a retry waiting on its timer.
type pendingRetry struct {
	id    uuid.UUID
	timer Timer
}
