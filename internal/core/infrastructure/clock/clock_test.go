package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockClock_Advance(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CST", 8*3600))
	c := NewMockClock(start)

	c.Advance(90 * time.Second)

	assert.Equal(t, 90*time.Second, c.Since(start))
	assert.Equal(t, time.UTC, c.UTC().Location())
}

func TestSystemClock(t *testing.T) {
	c := NewSystemClock()
	before := time.Now()

	assert.False(t, c.Now().Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))
}
