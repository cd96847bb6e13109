package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTimeProvider_Now(t *testing.T) {
	tp := NewDefaultTimeProvider()

	before := time.Now()
	result := tp.Now()
	after := time.Now()

	assert.False(t, result.Before(before), "Now() earlier than expected")
	assert.False(t, result.After(after), "Now() later than expected")
}

func TestDefaultTimeProvider_Today(t *testing.T) {
	tp := NewDefaultTimeProvider()
	before := time.Now().Format(time.DateOnly)
	result := tp.Today()
	after := time.Now().Format(time.DateOnly)

	// Allow for a midnight rollover between the two reads.
	assert.Contains(t, []string{before, after}, result)
}

func TestMockTimeProvider(t *testing.T) {
	start := time.Date(2025, 2, 15, 23, 30, 0, 0, time.UTC)
	tp := NewMockTimeProvider(start)

	assert.Equal(t, start, tp.Now())
	assert.Equal(t, "2025-02-15", tp.Today())
	assert.Equal(t, "Saturday", tp.Weekday())

	tp.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), tp.Now())
	assert.Equal(t, "2025-02-16", tp.Today())
	assert.Equal(t, "Sunday", tp.Weekday())

	tp.SetTime(start)
	assert.Equal(t, start, tp.Now())
}
