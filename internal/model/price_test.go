package model

import (
	"math/big"
	"testing"
)

func TestNewPriceValue(t *testing.T) {
	// 1.5 at 30 decimals.
	raw, _ := new(big.Int).SetString("1500000000000000000000000000000", 10)
	price := NewPrice(raw)
	if price.Value.String() != "1.5" {
		t.Fatalf("price value = %s, want 1.5", price.Value)
	}
	if price.Raw.Cmp(raw) != 0 {
		t.Fatalf("price raw = %s, want %s", price.Raw, raw)
	}

	// The raw integer is copied, not aliased.
	raw.SetInt64(0)
	if price.Raw.Sign() == 0 {
		t.Fatal("NewPrice aliased its input")
	}
}

func TestPriceIsZero(t *testing.T) {
	var unset *Price
	if !unset.IsZero() {
		t.Fatal("nil price should report zero")
	}
	if !NewPrice(big.NewInt(0)).IsZero() {
		t.Fatal("zero raw price should report zero")
	}
	if NewPrice(big.NewInt(1)).IsZero() {
		t.Fatal("nonzero price should not report zero")
	}
}

func TestPriceCloneNil(t *testing.T) {
	var unset *Price
	if unset.Clone() != nil {
		t.Fatal("cloning a nil price should stay nil")
	}
}
