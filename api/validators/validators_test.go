package validators

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Size      string `json:"size" validate:"required,oneof=XS S M L XL XXL"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"product_id":"6f1d2c1e-0000-4000-8000-000000000a01","size":"M","quantity":2}`))
	var body addItemBody
	if err := DecodeJSONBody(r, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Quantity != 2 || body.Size != "M" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONBodyValidation(t *testing.T) {
	cases := map[string]string{
		"unknown field": `{"product_id":"6f1d2c1e-0000-4000-8000-000000000a01","size":"M","color":"red"}`,
		"bad size":      `{"product_id":"6f1d2c1e-0000-4000-8000-000000000a01","size":"XXXL"}`,
		"missing id":    `{"size":"M"}`,
		"not json":      `nope`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(payload))
			var body addItemBody
			err := DecodeJSONBody(r, &body)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=20&bad=x&big=500", nil)
	if v, err := ParseQueryInt(r, "limit", 25, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected 20, got %d %v", v, err)
	}
	if v, err := ParseQueryInt(r, "missing", 25, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected default, got %d %v", v, err)
	}
	if _, err := ParseQueryInt(r, "bad", 25, 1, 100); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if _, err := ParseQueryInt(r, "big", 25, 1, 100); err == nil {
		t.Fatalf("expected error for out of range value")
	}
}

func TestSanitizeStringCutsOnRuneBoundary(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "ascii", input: "  outerwear  ", maxLen: 5, want: "outer"},
		{name: "multi-byte", input: "café crème", maxLen: 4, want: "café"},
		{name: "all multi-byte", input: "ñññññ", maxLen: 2, want: "ññ"},
		{name: "trailing space after cut", input: "ab cd", maxLen: 3, want: "ab"},
		{name: "no limit", input: " niño ", maxLen: 0, want: "niño"},
		{name: "invalid bytes dropped", input: "ab\xffc", maxLen: 10, want: "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeString(tc.input, tc.maxLen)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("result %q is not valid utf-8", got)
			}
		})
	}
}

func TestParseQueryStringKeepsRunesWhole(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/products?category="+url.QueryEscape("été"), nil)
	if got := ParseQueryString(r, "category", 2); got != "ét" {
		t.Fatalf("expected \"ét\", got %q", got)
	}
}

func TestBearerToken(t *testing.T) {
	if token, err := BearerToken(""); err != nil || token != "" {
		t.Fatalf("expected empty token, got %q %v", token, err)
	}
	if token, err := BearerToken("Bearer abc.def"); err != nil || token != "abc.def" {
		t.Fatalf("expected token, got %q %v", token, err)
	}
	if _, err := BearerToken("Basic xyz"); err != ErrInvalidToken {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if _, err := BearerToken("Bearer   "); err != ErrInvalidToken {
		t.Fatalf("expected invalid token for blank bearer, got %v", err)
	}
}
