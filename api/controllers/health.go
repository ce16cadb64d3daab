package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/angelmondragon/cakeshop-backend/api/responses"
	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by every backing service the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cakeshop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency and reports 503 when any of them fails.
func HealthReady(cfg *config.Config, checks map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cakeshop-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		failed := map[string]string{}
		var firstErr error
		for _, name := range names {
			pinger := checks[name]
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				failed[name] = "unavailable"
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		if len(failed) > 0 {
			err := pkgerrors.Wrap(pkgerrors.CodeDependency, firstErr, "dependency unavailable").
				WithDetails(map[string]any{"checks": failed})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
