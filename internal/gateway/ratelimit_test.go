package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthRateLimiter_BlocksAfterMaxFailures(t *testing.T) {
	rl := newAuthRateLimiter()
	t.Cleanup(rl.close)

	for i := range authRateMaxFails {
		assert.True(t, rl.allow("10.0.0.1:1234"), "attempt %d", i)
		rl.recordFailure(fmt.Sprintf("10.0.0.1:%d", 2000+i))
	}
	assert.False(t, rl.allow("10.0.0.1:9999"), "port is ignored")
	assert.True(t, rl.allow("10.0.0.2:1234"), "other hosts are unaffected")
}

func TestAuthRateLimiter_OldFailuresExpire(t *testing.T) {
	rl := newAuthRateLimiter()
	t.Cleanup(rl.close)

	old := time.Now().Add(-2 * authRateWindow)
	for range authRateMaxFails {
		rl.failures["10.0.0.1"] = append(rl.failures["10.0.0.1"], old)
	}
	assert.True(t, rl.allow("10.0.0.1:1"))
	assert.NotContains(t, rl.failures, "10.0.0.1")
}

func TestAuthRateLimiter_EvictsOldestHost(t *testing.T) {
	rl := newAuthRateLimiter()
	t.Cleanup(rl.close)

	base := time.Now()
	for i := range authRateMaxIPs {
		rl.failures[fmt.Sprintf("h%d", i)] = []time.Time{base.Add(time.Duration(i) * time.Millisecond)}
	}
	rl.recordFailure("new-host")

	assert.Len(t, rl.failures, authRateMaxIPs)
	assert.NotContains(t, rl.failures, "h0")
	assert.Contains(t, rl.failures, "new-host")
}

func TestAuthRateLimiter_CloseIsIdempotent(t *testing.T) {
	rl := newAuthRateLimiter()
	assert.NotPanics(t, func() {
		rl.close()
		rl.close()
	})
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "10.0.0.1", hostOf("10.0.0.1:80"))
	assert.Equal(t, "::1", hostOf("[::1]:80"))
	assert.Equal(t, "pipe", hostOf("pipe"))
}
