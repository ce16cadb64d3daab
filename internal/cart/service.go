package cart

import (
	"context"
	"fmt"

	baserepo "github.com/angelmondragon/cakeshop-backend/internal/repo"
	"github.com/angelmondragon/cakeshop-backend/pkg/db"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxQuantity caps the quantity a single cart line may hold.
const MaxQuantity = 10000

const (
	OpAdd         = "add"
	OpSetQuantity = "set_quantity"
	OpRemove      = "remove"
	OpClear       = "clear"

	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeConflict = "conflict"
	outcomeError    = "error"
)

// Service is the cart aggregation engine. The owner is always passed
// explicitly and every operation is confined to that owner's lines.
type Service interface {
	AddItem(ctx context.Context, ownerID uuid.UUID, input AddItemInput) (*CartLineDTO, error)
	SetQuantity(ctx context.Context, ownerID, lineID uuid.UUID, input SetQuantityInput) (*CartLineDTO, error)
	RemoveItem(ctx context.Context, ownerID, lineID uuid.UUID) error
	ClearCart(ctx context.Context, ownerID uuid.UUID) (*ClearResultDTO, error)
	ComputeTotal(ctx context.Context, ownerID uuid.UUID) (*CartTotalDTO, error)
	ListLines(ctx context.Context, ownerID uuid.UUID) ([]CartLineDTO, error)
	GetLine(ctx context.Context, ownerID, lineID uuid.UUID) (*CartLineDTO, error)
}

// ServiceParams groups the cart service collaborators.
type ServiceParams struct {
	Repo            CartRepository
	Tx              txRunner
	Products        productChecker
	Observer        MutationObserver
	ConflictRetries int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productChecker
	observer MutationObserver
	retries  int
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product checker required")
	}
	if params.ConflictRetries < 0 {
		return nil, fmt.Errorf("conflict retries must be non-negative")
	}
	observer := params.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		products: params.Products,
		observer: observer,
		retries:  params.ConflictRetries,
	}, nil
}

func (s *service) AddItem(ctx context.Context, ownerID uuid.UUID, input AddItemInput) (*CartLineDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner is required")
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}
	if err := checkQuantity(quantity, "quantity must be at least 1"); err != nil {
		s.observer.ObserveMutation(OpAdd, outcomeRejected)
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		s.observer.ObserveMutation(OpAdd, outcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}

	exists, err := s.products.Exists(ctx, input.ProductID)
	if err != nil {
		s.observer.ObserveMutation(OpAdd, outcomeError)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !exists {
		s.observer.ObserveMutation(OpAdd, outcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	var line *models.CartLine
	err = s.withConflictRetry(ctx, OpAdd, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.UpsertIncrement(ctx, &models.CartLine{
				UserID:    ownerID,
				ProductID: input.ProductID,
				Quantity:  quantity,
			}); err != nil {
				return err
			}
			loaded, err := repo.FindByOwnerAndProduct(ctx, ownerID, input.ProductID)
			if err != nil {
				return err
			}
			if loaded.Quantity > MaxQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart line would exceed the maximum quantity").
					WithDetails(map[string]any{"quantity": loaded.Quantity - quantity, "max": MaxQuantity})
			}
			line = loaded
			return nil
		})
	})
	if db.IsForeignKeyViolation(err) {
		// the product went away between the existence check and the upsert
		err = pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	if err != nil {
		return nil, s.fail(OpAdd, err, "add cart line")
	}

	s.observer.ObserveMutation(OpAdd, outcomeOK)
	return NewCartLineDTO(line), nil
}

func (s *service) SetQuantity(ctx context.Context, ownerID, lineID uuid.UUID, input SetQuantityInput) (*CartLineDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner is required")
	}
	if err := checkQuantity(input.Quantity, "quantity must be at least 1; use remove to delete a line"); err != nil {
		s.observer.ObserveMutation(OpSetQuantity, outcomeRejected)
		return nil, err
	}

	var line *models.CartLine
	err := s.withConflictRetry(ctx, OpSetQuantity, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			affected, err := repo.UpdateQuantity(ctx, lineID, ownerID, input.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			loaded, err := repo.FindByIDAndOwner(ctx, lineID, ownerID)
			if err != nil {
				return err
			}
			line = loaded
			return nil
		})
	})
	if err != nil {
		return nil, s.fail(OpSetQuantity, err, "update cart line")
	}

	s.observer.ObserveMutation(OpSetQuantity, outcomeOK)
	return NewCartLineDTO(line), nil
}

func (s *service) RemoveItem(ctx context.Context, ownerID, lineID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "owner is required")
	}
	err := s.withConflictRetry(ctx, OpRemove, func() error {
		affected, err := s.repo.DeleteByIDAndOwner(ctx, lineID, ownerID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil
	})
	if err != nil {
		return s.fail(OpRemove, err, "remove cart line")
	}
	s.observer.ObserveMutation(OpRemove, outcomeOK)
	return nil
}

func (s *service) ClearCart(ctx context.Context, ownerID uuid.UUID) (*ClearResultDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner is required")
	}
	var removed int64
	err := s.withConflictRetry(ctx, OpClear, func() error {
		n, err := s.repo.DeleteByOwner(ctx, ownerID)
		removed = n
		return err
	})
	if err != nil {
		return nil, s.fail(OpClear, err, "clear cart")
	}
	s.observer.ObserveMutation(OpClear, outcomeOK)
	return &ClearResultDTO{Removed: removed}, nil
}

func (s *service) ComputeTotal(ctx context.Context, ownerID uuid.UUID) (*CartTotalDTO, error) {
	lines, err := s.loadLines(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	total := Summarize(lines)
	return &total, nil
}

func (s *service) ListLines(ctx context.Context, ownerID uuid.UUID) ([]CartLineDTO, error) {
	lines, err := s.loadLines(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return NewCartLineDTOs(lines), nil
}

func (s *service) GetLine(ctx context.Context, ownerID, lineID uuid.UUID) (*CartLineDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner is required")
	}
	line, err := s.repo.FindByIDAndOwner(ctx, lineID, ownerID)
	if err != nil {
		return nil, baserepo.Classify(err, "cart line not found", "load cart line")
	}
	return NewCartLineDTO(line), nil
}

func (s *service) loadLines(ctx context.Context, ownerID uuid.UUID) ([]models.CartLine, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner is required")
	}
	lines, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart lines")
	}
	return lines, nil
}

func checkQuantity(quantity int, tooSmall string) error {
	switch {
	case quantity < 1:
		return pkgerrors.New(pkgerrors.CodeValidation, tooSmall).
			WithDetails(map[string]any{"quantity": quantity})
	case quantity > MaxQuantity:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at most %d", MaxQuantity)).
			WithDetails(map[string]any{"quantity": quantity, "max": MaxQuantity})
	}
	return nil
}

// withConflictRetry reruns fn while the store reports a transient conflict,
// up to the configured number of retries.
func (s *service) withConflictRetry(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !db.IsTransientConflict(err) {
			return err
		}
		if attempt >= s.retries {
			return pkgerrors.Wrap(pkgerrors.CodeTransientConflict, err, "cart is being modified concurrently")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.observer.ObserveConflictRetry(op)
	}
}

// fail records the outcome and makes sure only typed errors leave the engine.
func (s *service) fail(op string, err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeTransientConflict:
			s.observer.ObserveMutation(op, outcomeConflict)
		case pkgerrors.CodeNotFound, pkgerrors.CodeValidation:
			s.observer.ObserveMutation(op, outcomeRejected)
		default:
			s.observer.ObserveMutation(op, outcomeError)
		}
		return err
	}
	s.observer.ObserveMutation(op, outcomeError)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}
