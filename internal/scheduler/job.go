// Package scheduler persists deferred units of work and executes them
// with a polling loop. Delivery is at-least-once: a claim lease keeps
// the next poll cycle from re-running a job while a handler is still
// working, but handlers touching money or external side effects must
// still guard themselves (the settlement engine does so with its
// payment-reference uniqueness check).
package scheduler

import (
	"encoding/json"
	"time"
)

// Job is a named, scheduled unit of work as stored in the `jobs`
// table. The payload is opaque JSON owned by the handler; the only
// key the scheduler itself reads is "retriesLeft".
//
// Fields:
//  ID          – primary key identifier.
//  Name        – registered handler name.
//  Payload     – opaque JSON payload.
//  RunAt       – next execution time (UTC).
//  Every       – optional recurrence; zero means one-shot.
//  LeasedUntil – claim lease expiry while a poll cycle owns the job.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Job struct {
	ID          uint64
	Name        string
	Payload     []byte
	RunAt       time.Time
	Every       time.Duration
	LeasedUntil *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	rescheduleAt *time.Time
}

// Reschedule asks the scheduler to run this job again at t instead of
// deleting it after the handler returns. Recurring reminders use this
// to extend their own due time.
func (j *Job) Reschedule(t time.Time) { j.rescheduleAt = &t }

// RescheduledAt reports the reschedule time requested by the handler,
// if any.
func (j *Job) RescheduledAt() (time.Time, bool) {
	if j.rescheduleAt == nil {
		return time.Time{}, false
	}
	return *j.rescheduleAt, true
}

// Unmarshal decodes the job payload into v.
func (j *Job) Unmarshal(v any) error { return json.Unmarshal(j.Payload, v) }

// retriesLeft reads the "retriesLeft" counter from a JSON payload. The
// second return value is false when the payload is not an object or
// the key is absent.
func retriesLeft(payload []byte) (int, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return 0, false
	}
	raw, ok := m["retriesLeft"]
	if !ok {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// setRetriesLeft writes the "retriesLeft" counter back into a JSON
// payload, preserving all other keys. Non-object payloads are
// returned unchanged.
func setRetriesLeft(payload []byte, n int) []byte {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return payload
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return payload
	}
	m["retriesLeft"] = raw
	out, err := json.Marshal(m)
	if err != nil {
		return payload
	}
	return out
}
