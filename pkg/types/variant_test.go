package types

import "testing"

func TestVariantsScan(t *testing.T) {
	var got Variants
	if err := got.Scan([]byte(`[{"color":"red","image":"red.png"},{"color":"blue","image":"blue.png"}]`)); err != nil {
		t.Fatalf("scan variants: %v", err)
	}
	if len(got) != 2 || got[1].Color != "blue" || got[0].Image != "red.png" {
		t.Fatalf("unexpected variants %+v", got)
	}

	if err := got.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty variants for nil, got %+v", got)
	}

	if err := got.Scan(42); err == nil {
		t.Fatal("expected unsupported scan type to fail")
	}
}

func TestVariantsValueOfNil(t *testing.T) {
	var v Variants
	raw, err := v.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if raw != "[]" {
		t.Fatalf("expected empty json array, got %v", raw)
	}
}

func TestStringListRoundTripThroughDriver(t *testing.T) {
	list := StringList{"S", "M"}
	raw, err := list.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var decoded StringList
	if err := decoded.Scan(raw); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != "S" || decoded[1] != "M" {
		t.Fatalf("unexpected list %v", decoded)
	}
}
