package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/soyeahso/gacc/internal/config"
)

func TestSafeEqual(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
	assert.True(t, safeEqual("", ""))
	assert.False(t, safeEqual("secret", "wrong"))
	assert.False(t, safeEqual("short", "longer-string"))
	assert.False(t, safeEqual("secret", ""))
	assert.False(t, safeEqual("", "secret"))
}

func TestResolveToken(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")

	assert.Equal(t, "from-config", ResolveToken(config.GatewayAuth{Token: "from-config"}))
	assert.Equal(t, "from-env", ResolveToken(config.GatewayAuth{}))

	t.Setenv(TokenEnv, "")
	assert.Empty(t, ResolveToken(config.GatewayAuth{}))
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		server string
		client *ConnectAuth
		ok     bool
		reason string
	}{
		{"match", "tok", &ConnectAuth{Token: "tok"}, true, ""},
		{"mismatch", "tok", &ConnectAuth{Token: "nope"}, false, "token_mismatch"},
		{"empty client token", "tok", &ConnectAuth{}, false, "token required"},
		{"nil credentials", "tok", nil, false, "no credentials provided"},
		{"server unconfigured", "", &ConnectAuth{Token: "tok"}, false, "server token not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Authorize(tt.server, tt.client)
			assert.Equal(t, tt.ok, res.OK)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestAuthRateLimiter(t *testing.T) {
	limiter := newAuthRateLimiter()
	t.Cleanup(limiter.close)

	assert.True(t, limiter.allow("192.168.1.1:12345"))

	for i := 0; i < authRateMaxFails-1; i++ {
		limiter.recordFailure("192.168.1.1:12345")
	}
	assert.True(t, limiter.allow("192.168.1.1:12345"))

	limiter.recordFailure("192.168.1.1:23456")
	assert.False(t, limiter.allow("192.168.1.1:12345"), "port is ignored")
	assert.True(t, limiter.allow("192.168.1.2:12345"))
}

func TestAuthRateLimiter_IPWithoutPort(t *testing.T) {
	limiter := newAuthRateLimiter()
	t.Cleanup(limiter.close)

	for i := 0; i < authRateMaxFails; i++ {
		limiter.recordFailure("192.168.1.1")
	}
	assert.False(t, limiter.allow("192.168.1.1"))
}

func TestAuthRateLimiter_ExpiredFailures(t *testing.T) {
	limiter := newAuthRateLimiter()
	t.Cleanup(limiter.close)

	old := time.Now().Add(-authRateWindow - time.Minute)
	limiter.mu.Lock()
	for i := 0; i < authRateMaxFails; i++ {
		limiter.failures["192.168.1.1"] = append(limiter.failures["192.168.1.1"], old)
	}
	limiter.mu.Unlock()

	assert.True(t, limiter.allow("192.168.1.1:12345"))
	limiter.mu.Lock()
	assert.NotContains(t, limiter.failures, "192.168.1.1")
	limiter.mu.Unlock()
}

func TestAuthRateLimiter_EvictsOldestWhenFull(t *testing.T) {
	limiter := newAuthRateLimiter()
	t.Cleanup(limiter.close)

	limiter.mu.Lock()
	now := time.Now()
	for i := 0; i < authRateMaxIPs; i++ {
		limiter.failures[hostKey(i)] = []time.Time{now.Add(time.Duration(i) * time.Millisecond)}
	}
	limiter.mu.Unlock()

	limiter.recordFailure("10.9.9.9:1")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.failures, authRateMaxIPs)
	assert.NotContains(t, limiter.failures, hostKey(0))
	assert.Contains(t, limiter.failures, "10.9.9.9")
}

func hostKey(i int) string {
	return "h" + time.Duration(i).String()
}

func originRequest(origin string) *http.Request {
	req := httptest.NewRequest("GET", "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestCheckWebSocketOrigin(t *testing.T) {
	assert.True(t, checkWebSocketOrigin(nil)(originRequest("")))
	assert.False(t, checkWebSocketOrigin(nil)(originRequest("http://evil.com")))
	assert.True(t, checkWebSocketOrigin([]string{"*"})(originRequest("http://anything.com")))

	check := checkWebSocketOrigin([]string{"http://one.com", "http://two.com"})
	assert.True(t, check(originRequest("http://one.com")))
	assert.True(t, check(originRequest("http://two.com")))
	assert.False(t, check(originRequest("http://three.com")))
}
