package controllers

import (
	"net/http"

	"github.com/angelmondragon/cakeshop-backend/api/middleware"
	"github.com/angelmondragon/cakeshop-backend/api/responses"
	"github.com/angelmondragon/cakeshop-backend/api/validators"
	"github.com/angelmondragon/cakeshop-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

var errAuthUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")

// AuthLogin exchanges username and password for an access/refresh pair.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body auth.LoginRequest
		if err := guard(svc != nil, errAuthUnavailable, func() error { return validators.DecodeJSONBody(r, &body) }); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pair, err := svc.Login(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pair)
	}
}

// AuthRegister creates the account and returns tokens for it with 201.
func AuthRegister(reg auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body auth.RegisterRequest
		if err := guard(reg != nil, errAuthUnavailable, func() error { return validators.DecodeJSONBody(r, &body) }); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := reg.Register(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AuthRefresh reads the access token from the Authorization header, which may
// already be expired, and the refresh token from the body.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token, hasBearer := middleware.BearerToken(r)

		var body auth.RefreshRequest
		err := guard(svc != nil, errAuthUnavailable, func() error {
			if !hasBearer {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
			}
			return validators.DecodeJSONBody(r, &body)
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		body.AccessToken = token

		pair, err := svc.Refresh(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pair)
	}
}

// AuthLogout deletes the session of the presenting access token; the token
// stops authenticating immediately.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		err := guard(svc != nil, errAuthUnavailable, func() error {
			return svc.Logout(ctx, middleware.AccessIDFromContext(ctx))
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// Profile returns the caller with their cart lines.
func Profile(svc auth.ProfileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}
		ownerID, ok := middleware.OwnerFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		profile, err := svc.Profile(ctx, ownerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// guard returns unavailable when ready is false and otherwise runs step.
func guard(ready bool, unavailable error, step func() error) error {
	if !ready {
		return unavailable
	}
	return step()
}
