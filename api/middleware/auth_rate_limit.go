package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/cakeshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/cakeshop-backend/pkg/redis"
)

// maxRateLimitBody caps how much of the body is buffered to find the identity.
const maxRateLimitBody = 64 << 10

// AuthRateLimitPolicy throttles one public endpoint by client IP and by the
// identity named in identityField of the JSON body. A zero limit disables that
// dimension; a zero window disables the policy.
type AuthRateLimitPolicy struct {
	name          string
	identityField string
	window        time.Duration
	ipLimit       int
	identityLimit int
}

func NewAuthRateLimitPolicy(name, identityField string, window time.Duration, ipLimit, identityLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{
		name:          name,
		identityField: strings.TrimSpace(identityField),
		window:        window,
		ipLimit:       ipLimit,
		identityLimit: identityLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.identityLimit > 0)
}

func (p AuthRateLimitPolicy) countsIdentity() bool {
	return p.identityLimit > 0 && p.identityField != ""
}

// rateCheck is one counter a request is charged against.
type rateCheck struct {
	kind  string
	scope string
	limit int
	label string
}

// AuthRateLimit charges the request against every counter of policy and
// answers 429 with Retry-After set to the window once any is exhausted.
// Limiter failures surface as DEPENDENCY_ERROR rather than letting traffic through.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checks, err := policy.checksFor(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			for _, check := range checks {
				allowed, attempts, err := limiter.FixedWindowAllow(r.Context(), check.scope, int64(check.limit), policy.window)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(w, r, logg, check, attempts)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checksFor builds the counters for r. Reading the identity consumes the body,
// so it is restored for the handler.
func (p AuthRateLimitPolicy) checksFor(r *http.Request) ([]rateCheck, error) {
	var checks []rateCheck
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		checks = append(checks, rateCheck{kind: "ip", scope: p.name + ":ip:" + ip, limit: p.ipLimit, label: ip})
	}
	if !p.countsIdentity() || r.Body == nil {
		return checks, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitBody))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	identity := strings.ToLower(strings.TrimSpace(extractField(body, p.identityField)))
	if identity != "" {
		hash := hashValue(identity)
		checks = append(checks, rateCheck{kind: "identity", scope: p.name + ":id:" + hash, limit: p.identityLimit, label: hash})
	}
	return checks, nil
}

func (p AuthRateLimitPolicy) reject(w http.ResponseWriter, r *http.Request, logg *logger.Logger, check rateCheck, attempts int64) {
	if logg != nil {
		ctx := logg.WithFields(r.Context(), map[string]any{
			"policy":         p.name,
			"scope":          check.kind,
			"subject":        check.label,
			"attempts":       attempts,
			"limit":          check.limit,
			"window_seconds": int(p.window.Seconds()),
		})
		logg.Warn(ctx, "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(max(1, int(p.window.Seconds()))))
	responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(hop); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// extractField returns the top-level string field of a JSON object, or "".
func extractField(payload []byte, field string) string {
	var body map[string]json.RawMessage
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	var value string
	if json.Unmarshal(body[field], &value) != nil {
		return ""
	}
	return value
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
