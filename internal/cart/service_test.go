package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubRepo struct {
	upsertErrs  []error
	upsertCalls int
	line        *models.CartLine
	lines       []models.CartLine
	affected    int64
	listErr     error
}

func (s *stubRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubRepo) UpsertIncrement(ctx context.Context, line *models.CartLine) error {
	s.upsertCalls++
	if len(s.upsertErrs) > 0 {
		err := s.upsertErrs[0]
		s.upsertErrs = s.upsertErrs[1:]
		if err != nil {
			return err
		}
	}
	s.line = &models.CartLine{
		ID:        uuid.New(),
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Product:   &models.Product{ID: line.ProductID, Price: decimal.RequireFromString("2.25")},
		User:      &models.User{ID: line.UserID, Username: "baker"},
	}
	return nil
}

func (s *stubRepo) FindByOwnerAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	if s.line == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.line, nil
}

func (s *stubRepo) FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*models.CartLine, error) {
	if s.line == nil || s.line.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.line, nil
}

func (s *stubRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	return s.lines, s.listErr
}

func (s *stubRepo) UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) (int64, error) {
	if s.affected > 0 && s.line != nil {
		s.line.Quantity = quantity
	}
	return s.affected, nil
}

func (s *stubRepo) DeleteByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	return s.affected, nil
}

func (s *stubRepo) DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.affected, nil
}

type stubTx struct{ calls int }

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

type stubProducts struct {
	exists bool
	err    error
}

func (s stubProducts) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.exists, s.err
}

type recordingObserver struct {
	outcomes map[string]int
	retries  int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: map[string]int{}}
}

func (r *recordingObserver) ObserveMutation(op, outcome string) { r.outcomes[op+":"+outcome]++ }
func (r *recordingObserver) ObserveConflictRetry(op string)    { r.retries++ }

func newStubService(t *testing.T, repo *stubRepo, products stubProducts, retries int) (Service, *recordingObserver) {
	t.Helper()
	obs := newRecordingObserver()
	svc, err := NewService(ServiceParams{
		Repo:            repo,
		Tx:              &stubTx{},
		Products:        products,
		Observer:        obs,
		ConflictRetries: retries,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, obs
}

func intPtr(v int) *int { return &v }

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error without repo")
	}
	if _, err := NewService(ServiceParams{Repo: &stubRepo{}}); err == nil {
		t.Fatal("expected error without tx runner")
	}
	if _, err := NewService(ServiceParams{Repo: &stubRepo{}, Tx: &stubTx{}}); err == nil {
		t.Fatal("expected error without product checker")
	}
	if _, err := NewService(ServiceParams{Repo: &stubRepo{}, Tx: &stubTx{}, Products: stubProducts{}, ConflictRetries: -1}); err == nil {
		t.Fatal("expected error for negative retries")
	}
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	repo := &stubRepo{}
	svc, obs := newStubService(t, repo, stubProducts{exists: true}, 0)

	line, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New()})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if line.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", line.Quantity)
	}
	if line.Subtotal != "2.25" || line.Username != "baker" {
		t.Fatalf("unexpected line %+v", line)
	}
	if obs.outcomes["add:ok"] != 1 {
		t.Fatalf("expected ok outcome, got %v", obs.outcomes)
	}
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	svc, obs := newStubService(t, &stubRepo{}, stubProducts{exists: true}, 0)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: intPtr(0)})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: intPtr(-3)})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, uuid.New(), AddItemInput{})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, uuid.Nil, AddItemInput{ProductID: uuid.New()})
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	if obs.outcomes["add:rejected"] != 3 {
		t.Fatalf("expected 3 rejections, got %v", obs.outcomes)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newStubService(t, repo, stubProducts{exists: false}, 0)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New()})
	assertCode(t, err, pkgerrors.CodeNotFound)
	if repo.upsertCalls != 0 {
		t.Fatal("store must not be touched for unknown product")
	}
}

func TestAddItemRetriesTransientConflicts(t *testing.T) {
	conflict := &pgconn.PgError{Code: "40001"}
	repo := &stubRepo{upsertErrs: []error{conflict, conflict}}
	svc, obs := newStubService(t, repo, stubProducts{exists: true}, 2)

	line, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: intPtr(2)})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if line.Quantity != 2 {
		t.Fatalf("unexpected quantity %d", line.Quantity)
	}
	if repo.upsertCalls != 3 || obs.retries != 2 {
		t.Fatalf("expected 3 attempts and 2 retries, got %d and %d", repo.upsertCalls, obs.retries)
	}
}

func TestAddItemSurfacesTransientConflictAfterRetries(t *testing.T) {
	conflict := errors.New("database is locked")
	repo := &stubRepo{upsertErrs: []error{conflict, conflict, conflict}}
	svc, obs := newStubService(t, repo, stubProducts{exists: true}, 1)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New()})
	assertCode(t, err, pkgerrors.CodeTransientConflict)
	if !pkgerrors.MetadataFor(pkgerrors.CodeTransientConflict).Retryable {
		t.Fatal("transient conflict must be retryable")
	}
	if repo.upsertCalls != 2 {
		t.Fatalf("expected 2 attempts, got %d", repo.upsertCalls)
	}
	if obs.outcomes["add:conflict"] != 1 {
		t.Fatalf("expected conflict outcome, got %v", obs.outcomes)
	}
}

func TestAddItemWrapsUnexpectedStoreErrors(t *testing.T) {
	repo := &stubRepo{upsertErrs: []error{errors.New("disk full")}}
	svc, _ := newStubService(t, repo, stubProducts{exists: true}, 3)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New()})
	assertCode(t, err, pkgerrors.CodeInternal)
	if repo.upsertCalls != 1 {
		t.Fatalf("non-transient errors must not be retried, got %d attempts", repo.upsertCalls)
	}
}

func TestAddItemRejectsQuantityAboveMax(t *testing.T) {
	repo := &stubRepo{}
	svc, obs := newStubService(t, repo, stubProducts{exists: true}, 0)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: intPtr(MaxQuantity + 1)})
	assertCode(t, err, pkgerrors.CodeValidation)
	if repo.upsertCalls != 0 {
		t.Fatal("store must not be touched for an oversized quantity")
	}
	if obs.outcomes["add:rejected"] != 1 {
		t.Fatalf("expected rejection, got %v", obs.outcomes)
	}
}

func TestAddItemProductRemovedDuringUpsert(t *testing.T) {
	repo := &stubRepo{upsertErrs: []error{&pgconn.PgError{Code: "23503", ConstraintName: "fk_cart_lines_product"}}}
	svc, obs := newStubService(t, repo, stubProducts{exists: true}, 0)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New()})
	assertCode(t, err, pkgerrors.CodeNotFound)
	if obs.outcomes["add:rejected"] != 1 {
		t.Fatalf("expected rejection, got %v", obs.outcomes)
	}
}

func TestSetQuantityRejectsAboveMax(t *testing.T) {
	owner := uuid.New()
	repo := &stubRepo{affected: 1, line: &models.CartLine{ID: uuid.New(), UserID: owner, Quantity: 4}}
	svc, _ := newStubService(t, repo, stubProducts{exists: true}, 0)

	_, err := svc.SetQuantity(context.Background(), owner, repo.line.ID, SetQuantityInput{Quantity: MaxQuantity + 1})
	assertCode(t, err, pkgerrors.CodeValidation)
	if repo.line.Quantity != 4 {
		t.Fatalf("line must be untouched, got %d", repo.line.Quantity)
	}
}

func TestSetQuantityRejectsNonPositive(t *testing.T) {
	owner := uuid.New()
	repo := &stubRepo{affected: 1, line: &models.CartLine{ID: uuid.New(), UserID: owner, Quantity: 4}}
	svc, _ := newStubService(t, repo, stubProducts{exists: true}, 0)

	for _, q := range []int{0, -1} {
		_, err := svc.SetQuantity(context.Background(), owner, repo.line.ID, SetQuantityInput{Quantity: q})
		assertCode(t, err, pkgerrors.CodeValidation)
	}
	if repo.line.Quantity != 4 {
		t.Fatalf("rejected quantity must not be persisted, got %d", repo.line.Quantity)
	}
}

func TestSetQuantityMissingLine(t *testing.T) {
	svc, obs := newStubService(t, &stubRepo{affected: 0}, stubProducts{}, 0)
	_, err := svc.SetQuantity(context.Background(), uuid.New(), uuid.New(), SetQuantityInput{Quantity: 3})
	assertCode(t, err, pkgerrors.CodeNotFound)
	if obs.outcomes["set_quantity:rejected"] != 1 {
		t.Fatalf("expected rejected outcome, got %v", obs.outcomes)
	}
}

func TestRemoveItemMissingLine(t *testing.T) {
	svc, _ := newStubService(t, &stubRepo{affected: 0}, stubProducts{}, 0)
	err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestComputeTotalSumsSubtotals(t *testing.T) {
	repo := &stubRepo{lines: []models.CartLine{
		{Quantity: 2, Product: &models.Product{Price: decimal.RequireFromString("3.50")}},
		{Quantity: 1, Product: &models.Product{Price: decimal.RequireFromString("9.99")}},
	}}
	svc, _ := newStubService(t, repo, stubProducts{}, 0)

	total, err := svc.ComputeTotal(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("compute total: %v", err)
	}
	if total.Total != "16.99" || total.ItemCount != 3 || total.LineCount != 2 {
		t.Fatalf("unexpected total %+v", total)
	}
}

func TestComputeTotalEmptyCart(t *testing.T) {
	svc, _ := newStubService(t, &stubRepo{}, stubProducts{}, 0)
	total, err := svc.ComputeTotal(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("compute total: %v", err)
	}
	if total.Total != "0.00" || total.ItemCount != 0 {
		t.Fatalf("expected zero total, got %+v", total)
	}
}

func TestComputeTotalWrapsStoreError(t *testing.T) {
	svc, _ := newStubService(t, &stubRepo{listErr: errors.New("boom")}, stubProducts{}, 0)
	_, err := svc.ComputeTotal(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeInternal)
}
