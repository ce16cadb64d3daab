package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/cakeshop-backend/api/middleware"
	"github.com/angelmondragon/cakeshop-backend/api/responses"
	"github.com/angelmondragon/cakeshop-backend/api/validators"
	cartsvc "github.com/angelmondragon/cakeshop-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity" validate:"omitempty,max=10000"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=10000"`
}

// CartList returns every line in the caller's cart.
func CartList(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := cartOwner(w, r, svc, logg)
		if !ok {
			return
		}

		lines, err := svc.ListLines(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, lines)
	}
}

func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := cartOwner(w, r, svc, logg)
		if !ok {
			return
		}

		lineID, err := validators.ParseUUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.GetLine(r.Context(), ownerID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, line)
	}
}

// CartAdd merges the product into the caller's cart, creating the line if needed.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := cartOwner(w, r, svc, logg)
		if !ok {
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddItem(r.Context(), ownerID, cartsvc.AddItemInput{
			ProductID: body.ProductID,
			Quantity:  body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := cartOwner(w, r, svc, logg)
		if !ok {
			return
		}

		lineID, err := validators.ParseUUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.SetQuantity(r.Context(), ownerID, lineID, cartsvc.SetQuantityInput{Quantity: *body.Quantity})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, line)
	}
}

func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := cartOwner(w, r, svc, logg)
		if !ok {
			return
		}

		lineID, err := validators.ParseUUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), ownerID, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

// CartClear deletes every line owned by the caller.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := cartOwner(w, r, svc, logg)
		if !ok {
			return
		}

		result, err := svc.ClearCart(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func CartTotal(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := cartOwner(w, r, svc, logg)
		if !ok {
			return
		}

		total, err := svc.ComputeTotal(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, total)
	}
}

// cartOwner resolves the authenticated owner and writes the error response
// itself when the request cannot proceed.
func cartOwner(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return uuid.Nil, false
	}
	ownerID, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return ownerID, true
}
