package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const testDeviceID = "device-test"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type memoryPersister struct {
	mu    sync.Mutex
	carts map[string][]cart.LineItem
}

func newMemoryPersister() *memoryPersister {
	return &memoryPersister{carts: map[string][]cart.LineItem{}}
}

func (m *memoryPersister) Load(_ context.Context, scope, identity string) cart.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cart.NewCart(m.carts[scope+"|"+identity]...)
}

func (m *memoryPersister) Save(_ context.Context, scope string, c cart.Cart, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[scope+"|"+identity] = c.Items()
	return nil
}

func newTestRegistry(t *testing.T) *cart.Registry {
	t.Helper()
	registry := cart.NewRegistry(newMemoryPersister(), 0, 0, testLogger(), nil)
	t.Cleanup(func() { _ = registry.Close() })
	return registry
}

type stubProducts struct {
	products map[uuid.UUID]models.Product
}

func newStubProducts(products ...models.Product) *stubProducts {
	s := &stubProducts{products: map[uuid.UUID]models.Product{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *stubProducts) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func testProduct(name, price string) models.Product {
	return models.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: "shirts",
		Price:    decimal.RequireFromString(price),
		Variants: types.Variants{
			{Color: "white", Image: name + "-white.png"},
			{Color: "black", Image: name + "-black.png"},
		},
		Sizes: types.StringList{"S", "M", "L"},
	}
}

func deviceContext(identity string) context.Context {
	ctx := middleware.WithDeviceID(context.Background(), testDeviceID)
	if identity != "" {
		ctx = middleware.WithUserID(ctx, identity)
	}
	return ctx
}

func serve(t *testing.T, h http.HandlerFunc, ctx context.Context, method, target string, body any, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return envelope.Data
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error: %v (%s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}
