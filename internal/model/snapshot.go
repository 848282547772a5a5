package model

import (
	"math/big"
	"time"
)

// TokenMetrics is the serializable per-token slice of a refresh snapshot.
// Amounts are decimal strings; empty means the field was never fetched.
type TokenMetrics struct {
	Address            string `json:"address"`
	Symbol             string `json:"symbol"`
	UsdpAmount         string `json:"usdp_amount,omitempty"`
	PoolAmounts        string `json:"pool_amounts,omitempty"`
	FeeReserves        string `json:"fee_reserves,omitempty"`
	ReservedAmounts    string `json:"reserved_amounts,omitempty"`
	AvailableLiquidity string `json:"available_liquidity,omitempty"`
	AskPrice           string `json:"ask_price,omitempty"`
	BidPrice           string `json:"bid_price,omitempty"`
}

// Snapshot is one successful refresh cycle's result, for the history sinks.
type Snapshot struct {
	ChainID      uint64         `json:"chain_id"`
	TakenAt      time.Time      `json:"taken_at"`
	UsdpSupply   string         `json:"usdp_supply,omitempty"`
	TotalAumMin  string         `json:"total_aum_min,omitempty"`
	TotalAumMax  string         `json:"total_aum_max,omitempty"`
	PlpSupply    string         `json:"plp_supply,omitempty"`
	PlpPriceBuy  string         `json:"plp_price_buy,omitempty"`
	PlpPriceSell string         `json:"plp_price_sell,omitempty"`
	Tokens       []TokenMetrics `json:"tokens"`
}

// BuildSnapshot flattens the refreshed state into a Snapshot.
func BuildSnapshot(chainID uint64, state *VaultState, tokens []*Token, plpPriceBuy, plpPriceSell *big.Int, takenAt time.Time) Snapshot {
	snap := Snapshot{
		ChainID:      chainID,
		TakenAt:      takenAt.UTC(),
		PlpPriceBuy:  bigString(plpPriceBuy),
		PlpPriceSell: bigString(plpPriceSell),
	}
	if state != nil {
		snap.UsdpSupply = bigString(state.UsdpSupply)
		snap.TotalAumMin = bigString(state.TotalAum[0])
		snap.TotalAumMax = bigString(state.TotalAum[1])
		snap.PlpSupply = bigString(state.PlpSupply)
	}
	snap.Tokens = make([]TokenMetrics, 0, len(tokens))
	for _, token := range tokens {
		snap.Tokens = append(snap.Tokens, TokenMetrics{
			Address:            token.Address,
			Symbol:             token.Symbol,
			UsdpAmount:         bigString(token.UsdpAmount),
			PoolAmounts:        bigString(token.PoolAmounts),
			FeeReserves:        bigString(token.FeeReserves),
			ReservedAmounts:    bigString(token.ReservedAmounts),
			AvailableLiquidity: bigString(token.AvailableLiquidity),
			AskPrice:           priceString(token.AskPrice),
			BidPrice:           priceString(token.BidPrice),
		})
	}
	return snap
}

func bigString(n *big.Int) string {
	if n == nil {
		return ""
	}
	return n.String()
}

func priceString(p *Price) string {
	if p == nil || p.Raw == nil {
		return ""
	}
	return p.Raw.String()
}
