package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubCatalog struct {
	*stubProducts
	lastCategory string
	lastParams   pagination.Params
}

func (s *stubCatalog) FindProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *stubCatalog) ListProducts(_ context.Context, category string, params pagination.Params) (*catalog.ListResult, error) {
	s.lastCategory = category
	s.lastParams = params
	result := &catalog.ListResult{NextCursor: "next"}
	for _, p := range s.products {
		result.Products = append(result.Products, p)
	}
	return result, nil
}

func TestListProducts(t *testing.T) {
	logg := testLogger()
	svc := &stubCatalog{stubProducts: newStubProducts(testProduct("tee", "15"))}

	rec := serve(t, ListProducts(svc, logg), context.Background(), http.MethodGet, "/api/v1/products?category=+Shirts+&limit=10&cursor=abc", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastCategory != "Shirts" || svc.lastParams.Limit != 10 || svc.lastParams.Cursor != "abc" {
		t.Fatalf("unexpected list call %q %+v", svc.lastCategory, svc.lastParams)
	}
	list := decodeData[productListResponse](t, rec)
	if len(list.Products) != 1 || list.NextCursor != "next" {
		t.Fatalf("unexpected response %+v", list)
	}
	if len(list.Products[0].Variants) != 2 || list.Products[0].Variants[1].Color != "black" {
		t.Fatalf("variants not exposed: %+v", list.Products[0].Variants)
	}

	rec = serve(t, ListProducts(svc, logg), context.Background(), http.MethodGet, "/api/v1/products?limit=abc", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric limit, got %d", rec.Code)
	}
}

func TestGetProduct(t *testing.T) {
	logg := testLogger()
	tee := testProduct("tee", "15")
	svc := &stubCatalog{stubProducts: newStubProducts(tee)}

	rec := serve(t, GetProduct(svc, logg), context.Background(), http.MethodGet, "/api/v1/products/"+tee.ID.String(), nil, map[string]string{"productId": tee.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeData[productResponse](t, rec); got.ID != tee.ID || got.Name != "tee" {
		t.Fatalf("unexpected product %+v", got)
	}

	rec = serve(t, GetProduct(svc, logg), context.Background(), http.MethodGet, "/api/v1/products/nope", nil, map[string]string{"productId": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	missing := uuid.NewString()
	rec = serve(t, GetProduct(svc, logg), context.Background(), http.MethodGet, "/api/v1/products/"+missing, nil, map[string]string{"productId": missing})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
