package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestShouldProcessWithinTTL(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	d := New(time.Minute, 10).WithClock(c.now)

	assert.True(t, d.ShouldProcess("a"))
	assert.False(t, d.ShouldProcess("a"))
	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""))

	c.advance(61 * time.Second)
	assert.True(t, d.ShouldProcess("a"))
}

func TestShouldProcessPayload(t *testing.T) {
	d := New(time.Minute, 10)

	assert.True(t, d.ShouldProcessPayload("sensor/aggregated/f1/s1", []byte(`{"moisture":30}`)))
	assert.False(t, d.ShouldProcessPayload("sensor/aggregated/f1/s1", []byte(`{"moisture":30}`)))
	assert.True(t, d.ShouldProcessPayload("sensor/aggregated/f1/s2", []byte(`{"moisture":30}`)))
	assert.True(t, d.ShouldProcessPayload("sensor/aggregated/f1/s1", []byte(`{"moisture":31}`)))
}

func TestCapacityIsEnforced(t *testing.T) {
	c := &clock{t: time.Unix(1700000000, 0)}
	d := New(time.Hour, 3).WithClock(c.now)

	for i := 0; i < 10; i++ {
		c.advance(time.Second)
		assert.True(t, d.ShouldProcess(fmt.Sprintf("id-%d", i)))
	}
	assert.Equal(t, 3, d.Len())
	// the most recent ids survive
	assert.False(t, d.ShouldProcess("id-9"))
	assert.True(t, d.ShouldProcess("id-0"))
}

func TestDefaults(t *testing.T) {
	d := New(0, 0)
	assert.Equal(t, 10*time.Minute, d.ttl)
	assert.Equal(t, 10000, d.max)
}
