package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
)

// Base is embedded by every domain repository. It scopes queries to the
// request context and can be rebound to a transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx rebinds to tx; a nil tx keeps the current connection.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx != nil {
		b.db = tx
	}
	return b
}

// NotFound turns gorm.ErrRecordNotFound into NOT_FOUND and returns every other error unchanged.
func NotFound(err error, message string) error {
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
}

// Classify maps a lookup error for services: missing rows become NOT_FOUND
// with notFound as the client message, anything else INTERNAL_ERROR.
func Classify(err error, notFound, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(err, notFound)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
	}
}
