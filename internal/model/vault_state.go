package model

import "math/big"

// BasisPointsDivisor is the denominator for all basis-point fields.
const BasisPointsDivisor = 10000

// VaultState is one vault's global configuration snapshot. Scalar fields are
// populated by InitVaultState; TotalAum holds the conservative (buy-side)
// valuation at index 0 and the liberal (sell-side) valuation at index 1.
type VaultState struct {
	UsdpAddress string `json:"usdp_address"`

	FeeBasisPoints           uint64 `json:"fee_basis_points"`
	TaxBasisPoints           uint64 `json:"tax_basis_points"`
	StableTaxBasisPoints     uint64 `json:"stable_tax_basis_points"`
	MintBurnFeeBasisPoints   uint64 `json:"mint_burn_fee_basis_points"`
	SwapFeeBasisPoints       uint64 `json:"swap_fee_basis_points"`
	StableSwapFeeBasisPoints uint64 `json:"stable_swap_fee_basis_points"`
	MarginFeeBasisPoints     uint64 `json:"margin_fee_basis_points"`

	HasDynamicFees bool `json:"has_dynamic_fees"`
	InManagerMode  bool `json:"in_manager_mode"`
	IsSwapEnabled  bool `json:"is_swap_enabled"`

	BorrowingRateInterval     uint64 `json:"borrowing_rate_interval"`
	BorrowingRateFactor       uint64 `json:"borrowing_rate_factor"`
	StableBorrowingRateFactor uint64 `json:"stable_borrowing_rate_factor"`

	UsdpSupply        *big.Int    `json:"usdp_supply"`
	TotalTokenWeights *big.Int    `json:"total_token_weights"`
	TotalAum          [2]*big.Int `json:"total_aum"`
	PlpSupply         *big.Int    `json:"plp_supply"`
}

// Clone returns a deep copy of the state.
func (s *VaultState) Clone() *VaultState {
	if s == nil {
		return nil
	}
	out := *s
	out.UsdpSupply = cloneBig(s.UsdpSupply)
	out.TotalTokenWeights = cloneBig(s.TotalTokenWeights)
	out.TotalAum = [2]*big.Int{cloneBig(s.TotalAum[0]), cloneBig(s.TotalAum[1])}
	out.PlpSupply = cloneBig(s.PlpSupply)
	return &out
}

func cloneBig(n *big.Int) *big.Int {
	if n == nil {
		return nil
	}
	return new(big.Int).Set(n)
}
