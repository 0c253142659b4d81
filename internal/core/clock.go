// AngelaMos | 2026
// clock.go

package core

import (
	"time"

	"github.com/google/uuid"
)

// Clock is the only source of "now" for anything that gets persisted.
// Timestamps are stored at millisecond precision, so Now truncates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func SystemClock() Clock {
	return systemClock{}
}

type IDGenerator func() string

func NewID() string {
	return uuid.New().String()
}

func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func ToMillisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := ToMillis(*t)
	return &ms
}

func FromMillisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := FromMillis(*ms)
	return &t
}
