package timecache

import (
	"sync/atomic"
	"time"
)

var current atomic.Pointer[TimeCache]

// Set installs tc as the process clock, closing the one it replaces.
func Set(tc *TimeCache) {
	if old := current.Swap(tc); old != nil && old != tc {
		old.Close()
	}
}

// Now reads the process clock, falling back to time.Now before Set is called.
func Now() time.Time {
	if tc := current.Load(); tc != nil {
		return tc.Now()
	}
	return time.Now()
}
