package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/cakeshop-backend/api/middleware"
	"github.com/angelmondragon/cakeshop-backend/internal/auth"
	cartsvc "github.com/angelmondragon/cakeshop-backend/internal/cart"
	"github.com/angelmondragon/cakeshop-backend/internal/newsletter"
	product "github.com/angelmondragon/cakeshop-backend/internal/products"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withOwner(req *http.Request, ownerID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), ownerID.String()))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.RouteContext(req.Context())
	if rc == nil {
		rc = chi.NewRouteContext()
	}
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return env
}

type stubCartService struct {
	addInput   cartsvc.AddItemInput
	addOwner   uuid.UUID
	setInput   cartsvc.SetQuantityInput
	removed    uuid.UUID
	line       *cartsvc.CartLineDTO
	lines      []cartsvc.CartLineDTO
	total      *cartsvc.CartTotalDTO
	cleared    *cartsvc.ClearResultDTO
	err        error
	calledWith uuid.UUID
}

func (s *stubCartService) AddItem(_ context.Context, ownerID uuid.UUID, input cartsvc.AddItemInput) (*cartsvc.CartLineDTO, error) {
	s.addOwner = ownerID
	s.addInput = input
	return s.line, s.err
}

func (s *stubCartService) SetQuantity(_ context.Context, ownerID, lineID uuid.UUID, input cartsvc.SetQuantityInput) (*cartsvc.CartLineDTO, error) {
	s.calledWith = lineID
	s.setInput = input
	return s.line, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, ownerID, lineID uuid.UUID) error {
	s.removed = lineID
	return s.err
}

func (s *stubCartService) ClearCart(_ context.Context, ownerID uuid.UUID) (*cartsvc.ClearResultDTO, error) {
	return s.cleared, s.err
}

func (s *stubCartService) ComputeTotal(_ context.Context, ownerID uuid.UUID) (*cartsvc.CartTotalDTO, error) {
	return s.total, s.err
}

func (s *stubCartService) ListLines(_ context.Context, ownerID uuid.UUID) ([]cartsvc.CartLineDTO, error) {
	s.calledWith = ownerID
	return s.lines, s.err
}

func (s *stubCartService) GetLine(_ context.Context, ownerID, lineID uuid.UUID) (*cartsvc.CartLineDTO, error) {
	s.calledWith = lineID
	return s.line, s.err
}

type stubProductService struct {
	params product.ListParams
	items  []product.ProductDTO
	item   *product.ProductDTO
	err    error
}

func (s *stubProductService) List(_ context.Context, params product.ListParams) ([]product.ProductDTO, error) {
	s.params = params
	return s.items, s.err
}

func (s *stubProductService) Get(_ context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	return s.item, s.err
}

type stubAuthService struct {
	login     auth.LoginRequest
	refresh   auth.RefreshRequest
	loggedOut string
	pair      *auth.TokenPair
	err       error
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.TokenPair, error) {
	s.login = req
	return s.pair, s.err
}

func (s *stubAuthService) Refresh(_ context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	s.refresh = req
	return s.pair, s.err
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

type stubRegisterService struct {
	req  auth.RegisterRequest
	resp *auth.RegisterResponse
	err  error
}

func (s *stubRegisterService) Register(_ context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	s.req = req
	return s.resp, s.err
}

type stubProfileService struct {
	profile *auth.ProfileDTO
	err     error
}

func (s *stubProfileService) Profile(_ context.Context, userID uuid.UUID) (*auth.ProfileDTO, error) {
	return s.profile, s.err
}

type stubNewsletterService struct {
	email  string
	result *newsletter.SubscribeResult
	err    error
}

func (s *stubNewsletterService) Subscribe(_ context.Context, email string) (*newsletter.SubscribeResult, error) {
	s.email = email
	return s.result, s.err
}
