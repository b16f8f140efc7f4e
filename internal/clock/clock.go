// Package clock provides Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/LavishGent/routegov/internal/types"
)

// Real returns the actual current time.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Fake provides a controllable clock for testing.
type Fake struct {
	mu      sync.RWMutex
	current time.Time
}

// NewFake creates a fake clock set to the given time.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Set sets the fake current time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// MonthStamp formats t as YYYY-MM in loc.
func MonthStamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}

// OrReal returns c, or the real clock when c is nil.
func OrReal(c types.Clock) types.Clock {
	if c == nil {
		return Real{}
	}
	return c
}

var (
	_ types.Clock = Real{}
	_ types.Clock = (*Fake)(nil)
)
