package registry

import (
	"net/url"
	"sync"
	"time"

	"github.com/nite-coder/ccipgate/pkg/timecache"
)

// Endpoint is a JSON-RPC node with passive health tracking. After maxFails failures inside
// failTimeout the endpoint is skipped until the window expires.
type Endpoint struct {
	url         string
	host        string
	maxFails    uint
	failTimeout time.Duration

	mu           sync.RWMutex
	failedCount  uint
	failExpireAt time.Time
}

func newEndpoint(rawURL string, maxFails uint, failTimeout time.Duration) *Endpoint {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	return &Endpoint{
		url:         rawURL,
		host:        host,
		maxFails:    maxFails,
		failTimeout: failTimeout,
	}
}

func (e *Endpoint) URL() string {
	return e.url
}

// Host is the label used in logs and metrics. Paths are left out since providers put API keys there.
func (e *Endpoint) Host() string {
	return e.host
}

func (e *Endpoint) IsAvailable() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.maxFails == 0 {
		return true
	}

	if timecache.Now().After(e.failExpireAt) {
		return true
	}

	return e.failedCount < e.maxFails
}

// AddFailedCount records failures and reports whether the endpoint is now skipped.
func (e *Endpoint) AddFailedCount(count uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := timecache.Now()
	if now.After(e.failExpireAt) {
		e.failExpireAt = now.Add(e.failTimeout)
		e.failedCount = count
	} else {
		e.failedCount += count
	}

	return e.maxFails > 0 && e.failedCount >= e.maxFails
}
