package gateway

import (
	"net"
	"sync"
	"time"
)

// authRateLimiter counts failed handshakes per remote host.
type authRateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	stop     chan struct{}
	once     sync.Once
}

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
	authRateMaxIPs   = 10000
)

func newAuthRateLimiter() *authRateLimiter {
	rl := &authRateLimiter{
		failures: make(map[string][]time.Time),
		stop:     make(chan struct{}),
	}
	go rl.periodicCleanup()
	return rl
}

func (l *authRateLimiter) close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *authRateLimiter) periodicCleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		l.mu.Lock()
		cutoff := time.Now().Add(-authRateWindow)
		for host := range l.failures {
			l.prune(host, cutoff)
		}
		l.mu.Unlock()
	}
}

// prune drops failures older than cutoff. l.mu must be held.
func (l *authRateLimiter) prune(host string, cutoff time.Time) []time.Time {
	kept := l.failures[host][:0]
	for _, t := range l.failures[host] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, host)
		return nil
	}
	l.failures[host] = kept
	return kept
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := hostOf(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(host, time.Now().Add(-authRateWindow))) < authRateMaxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := hostOf(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, tracked := l.failures[host]; !tracked && len(l.failures) >= authRateMaxIPs {
		l.evictOldest()
	}
	l.failures[host] = append(l.failures[host], time.Now())
}

func (l *authRateLimiter) evictOldest() {
	var oldest string
	var oldestAt time.Time
	for host, times := range l.failures {
		if len(times) > 0 && (oldest == "" || times[0].Before(oldestAt)) {
			oldest, oldestAt = host, times[0]
		}
	}
	if oldest != "" {
		delete(l.failures, oldest)
	}
}

func hostOf(remoteAddr string) string {
	host, _, _ := net.SplitHostPort(remoteAddr)
	if host == "" {
		return remoteAddr
	}
	return host
}
