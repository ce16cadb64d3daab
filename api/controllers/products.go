package controllers

import (
	"net/http"

	"github.com/angelmondragon/cakeshop-backend/api/responses"
	"github.com/angelmondragon/cakeshop-backend/api/validators"
	product "github.com/angelmondragon/cakeshop-backend/internal/products"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

const maxCategoryLen = 64

// ProductsList returns the catalog, optionally filtered by ?category=.
func ProductsList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params := product.ListParams{
			Category: validators.SanitizeString(r.URL.Query().Get("category"), maxCategoryLen),
		}
		items, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}
