package timecache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func BenchmarkTimeCache(b *testing.B) {
	tc := New(time.Millisecond)
	defer tc.Close()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = tc.Now()
		}
	})
}

func TestTimeCache(t *testing.T) {
	tc := New(5 * time.Millisecond)
	defer tc.Close()

	first := tc.Now()
	assert.False(t, first.IsZero())
	assert.Eventually(t, func() bool {
		return tc.Now().After(first)
	}, time.Second, 5*time.Millisecond)
}

func TestInterval(t *testing.T) {
	tc := New(0)
	defer tc.Close()
	assert.Equal(t, time.Second, tc.Interval())

	tc2 := New(time.Microsecond)
	defer tc2.Close()
	assert.Equal(t, time.Millisecond, tc2.Interval())
}

func TestGlobalClock(t *testing.T) {
	assert.WithinDuration(t, time.Now(), Now(), time.Second)

	tc := New(time.Hour)
	Set(tc)
	defer current.Store(nil)

	assert.Equal(t, tc.Now(), Now())
}
