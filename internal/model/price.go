package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PriceDecimals is the fixed-point base of contract-reported prices.
const PriceDecimals = 30

// Price carries a contract-reported price both as the raw 30-decimal integer
// and as a parsed decimal for display. A zero raw value is the contract's
// "invalid/unset" signal, not an error.
type Price struct {
	Raw   *big.Int        `json:"raw"`
	Value decimal.Decimal `json:"value"`
}

// NewPrice builds a Price from the raw 30-decimal fixed-point integer.
func NewPrice(raw *big.Int) *Price {
	return &Price{
		Raw:   new(big.Int).Set(raw),
		Value: decimal.NewFromBigInt(raw, -PriceDecimals),
	}
}

// IsZero reports whether the price is unset or reported as zero.
func (p *Price) IsZero() bool {
	return p == nil || p.Raw == nil || p.Raw.Sign() == 0
}

// Clone returns a deep copy, preserving nil.
func (p *Price) Clone() *Price {
	if p == nil {
		return nil
	}
	return &Price{Raw: new(big.Int).Set(p.Raw), Value: p.Value}
}
