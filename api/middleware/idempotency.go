package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/cakeshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/cakeshop-backend/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour
	maxIdempotencyKeyLen  = 128
)

// idempotentRoutes lists the "METHOD pattern" pairs that honour Idempotency-Key.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /cart/add": defaultIdempotencyTTL,
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	ttl, ok := idempotentRoutes[method+" "+pattern]
	return ttl, ok
}

// storedResponse is what gets replayed for a repeated key. Body is base64 so
// binary payloads survive the JSON round trip.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	RequestHash string `json:"request_hash"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key on the routes listed in idempotentRoutes. Requests without the
// header run normally. Reusing a key with a different body is rejected.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	g := &idempotencyGuard{store: store, logg: logg}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(next, w, r)
		})
	}
}

func (g *idempotencyGuard) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ttl, ok := routeTTL(r.Method, matchedPattern(r))
	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if !ok || clientKey == "" {
		next.ServeHTTP(w, r)
		return
	}
	if len(clientKey) > maxIdempotencyKeyLen {
		g.fail(w, r, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		g.fail(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	fingerprint := sha256.Sum256(body)
	requestHash := base64.StdEncoding.EncodeToString(fingerprint[:])
	key := g.store.IdempotencyKey(UserIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)

	prior, found, err := g.lookup(r, key)
	switch {
	case err != nil:
		g.fail(w, r, err)
		return
	case found && prior.RequestHash != requestHash:
		g.fail(w, r, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	case found:
		prior.replay(w)
		return
	}

	rec := &bodyRecorder{statusRecorder: statusRecorder{ResponseWriter: w}}
	next.ServeHTTP(rec, r)

	// failed attempts stay retryable under the same key
	if rec.Status() >= http.StatusBadRequest {
		return
	}
	g.remember(r, key, ttl, storedResponse{
		Status:      rec.Status(),
		ContentType: rec.Header().Get("Content-Type"),
		Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
		RequestHash: requestHash,
	})
}

func (g *idempotencyGuard) lookup(r *http.Request, key string) (storedResponse, bool, error) {
	var prior storedResponse
	raw, err := g.store.Get(r.Context(), key)
	if errors.Is(err, redis.Nil) {
		return prior, false, nil
	}
	if err != nil {
		return prior, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		return prior, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return prior, true, nil
}

func (g *idempotencyGuard) remember(r *http.Request, key string, ttl time.Duration, resp storedResponse) {
	payload, err := json.Marshal(resp)
	if err == nil {
		_, err = g.store.SetNX(r.Context(), key, string(payload), ttl)
	}
	if err != nil && g.logg != nil {
		g.logg.Error(r.Context(), "persist idempotency record", err)
	}
}

func (g *idempotencyGuard) fail(w http.ResponseWriter, r *http.Request, err error) {
	responses.WriteError(r.Context(), g.logg, w, err)
}

func (s storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.WriteHeader(s.Status)
	if body, err := base64.StdEncoding.DecodeString(s.Body); err == nil {
		_, _ = w.Write(body)
	}
}

func matchedPattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// bodyRecorder keeps a copy of everything written so it can be stored.
type bodyRecorder struct {
	statusRecorder
	body bytes.Buffer
}

func (b *bodyRecorder) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.statusRecorder.Write(p)
}
