package gateway

import (
	"crypto/subtle"
	"os"

	"github.com/soyeahso/gacc/internal/config"
)

// TokenEnv overrides an empty gateway.auth.token.
const TokenEnv = "GACC_GATEWAY_TOKEN"

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// ResolveToken returns the configured token, falling back to the
// environment.
func ResolveToken(cfg config.GatewayAuth) string {
	if cfg.Token != "" {
		return cfg.Token
	}
	return os.Getenv(TokenEnv)
}

// Authorize checks client credentials against the server token.
func Authorize(serverToken string, clientAuth *ConnectAuth) AuthResult {
	switch {
	case serverToken == "":
		return AuthResult{Reason: "server token not configured"}
	case clientAuth == nil:
		return AuthResult{Reason: "no credentials provided"}
	case clientAuth.Token == "":
		return AuthResult{Reason: "token required"}
	case !safeEqual(clientAuth.Token, serverToken):
		return AuthResult{Reason: "token_mismatch"}
	}
	return AuthResult{OK: true}
}

// safeEqual compares in constant time, including the length check.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
