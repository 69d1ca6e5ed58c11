package chrono

import (
	"sync"
	"time"
)

// FakeTime is a TimeAPI that only moves when told to, each call to Now
// advances it by Step.
type FakeTime struct {
	mutex   sync.Mutex
	current time.Time
	Step    time.Duration
}

func NewFakeTime(start time.Time, step time.Duration) *FakeTime {
	return &FakeTime{current: start, Step: step}
}

func (f *FakeTime) Now() time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	now := f.current
	f.current = f.current.Add(f.Step)
	return now
}

func (f *FakeTime) Since(t time.Time) time.Duration {
	return f.Now().Sub(t)
}

func (f *FakeTime) Advance(d time.Duration) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.current = f.current.Add(d)
}
