package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParseUUIDParam reads a chi URL parameter as a UUID. Malformed ids map to
// NOT_FOUND since no row can carry them.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "resource not found")
	}
	return id, nil
}
