package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_StartsAtEpoch(t *testing.T) {
	clock := NewClock(time.Time{})
	assert.Equal(t, Epoch, clock.Now())
}

func TestClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	assert.Equal(t, start.Add(time.Hour), clock.Advance(time.Hour))
	assert.Equal(t, start.Add(time.Hour), clock.Now())

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}

func TestClock_ThreadSafe(t *testing.T) {
	clock := NewClock(time.Time{})
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(numGoroutines*time.Second), clock.Now())
}

func TestFixedRunID(t *testing.T) {
	gen := FixedRunID("")
	assert.Equal(t, "test-run-default", gen())
	assert.Equal(t, gen(), gen())

	assert.Equal(t, "run-1", FixedRunID("run-1")())
}

func TestAppt_EmptyFieldsAreAbsent(t *testing.T) {
	r := Appt("1", "A", "", "2025-12-20", "C", "")
	assert.Equal(t, "A", *r.ClientID)
	assert.Nil(t, r.PetID)
	assert.Equal(t, "C", *r.ServiceID)
	assert.Equal(t, "scheduled", r.Status)
}
