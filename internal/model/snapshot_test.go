package model

import (
	"math/big"
	"testing"
	"time"
)

func TestBuildSnapshotUnfetchedFieldsStayEmpty(t *testing.T) {
	token := testToken()
	snap := BuildSnapshot(56, nil, []*Token{token}, nil, nil, time.Unix(1700000000, 0))

	if snap.ChainID != 56 {
		t.Fatalf("chain id = %d, want 56", snap.ChainID)
	}
	if snap.UsdpSupply != "" || snap.PlpSupply != "" || snap.PlpPriceBuy != "" {
		t.Fatal("nil state should leave vault-level fields empty")
	}
	if len(snap.Tokens) != 1 {
		t.Fatalf("token metrics = %d, want 1", len(snap.Tokens))
	}
	if snap.Tokens[0].UsdpAmount != "" || snap.Tokens[0].AskPrice != "" {
		t.Fatal("unfetched token fields should stay empty")
	}
}

func TestBuildSnapshotFlattensState(t *testing.T) {
	token := testToken()
	token.UsdpAmount = big.NewInt(111)
	token.AskPrice = NewPrice(big.NewInt(222))
	state := &VaultState{
		UsdpSupply: big.NewInt(5000),
		PlpSupply:  big.NewInt(4000),
		TotalAum:   [2]*big.Int{big.NewInt(1), big.NewInt(2)},
	}

	snap := BuildSnapshot(56, state, []*Token{token}, big.NewInt(9), big.NewInt(8), time.Unix(1700000000, 0))
	if snap.UsdpSupply != "5000" || snap.PlpSupply != "4000" {
		t.Fatalf("supplies = %s/%s", snap.UsdpSupply, snap.PlpSupply)
	}
	if snap.TotalAumMin != "1" || snap.TotalAumMax != "2" {
		t.Fatalf("aum = %s/%s", snap.TotalAumMin, snap.TotalAumMax)
	}
	if snap.PlpPriceBuy != "9" || snap.PlpPriceSell != "8" {
		t.Fatalf("plp prices = %s/%s", snap.PlpPriceBuy, snap.PlpPriceSell)
	}
	if snap.Tokens[0].UsdpAmount != "111" || snap.Tokens[0].AskPrice != "222" {
		t.Fatalf("token metrics = %+v", snap.Tokens[0])
	}
	if !snap.TakenAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("taken at = %s", snap.TakenAt)
	}
}

func TestVaultStateCloneIsDeep(t *testing.T) {
	state := &VaultState{
		UsdpSupply:        big.NewInt(10),
		TotalTokenWeights: big.NewInt(20),
		TotalAum:          [2]*big.Int{big.NewInt(1), big.NewInt(2)},
		PlpSupply:         big.NewInt(30),
	}
	clone := state.Clone()
	clone.UsdpSupply.SetInt64(999)
	clone.TotalAum[0].SetInt64(999)

	if state.UsdpSupply.Int64() != 10 || state.TotalAum[0].Int64() != 1 {
		t.Fatal("clone mutated the original state")
	}

	var unset *VaultState
	if unset.Clone() != nil {
		t.Fatal("cloning a nil state should stay nil")
	}
}
