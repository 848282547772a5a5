package model

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func testToken() *Token {
	return &Token{
		ChainID:     56,
		Address:     "0x55d398326f99059ff775485246999027b3197955",
		Name:        "Tether USD",
		Symbol:      "USDT",
		Decimals:    18,
		IsTradeable: true,
	}
}

func TestCanonicalAddress(t *testing.T) {
	got := CanonicalAddress("0x55D398326F99059fF775485246999027B3197955")
	want := "0x55d398326f99059ff775485246999027b3197955"
	if got != want {
		t.Fatalf("CanonicalAddress = %s, want %s", got, want)
	}
}

func TestBalanceOfCallData(t *testing.T) {
	token := testToken()
	account := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	call, err := token.BalanceOfCall(account)
	if err != nil {
		t.Fatalf("BalanceOfCall: %v", err)
	}
	if call.Target != common.HexToAddress(token.Address) {
		t.Fatalf("call target = %s, want token address", call.Target.Hex())
	}
	want := "70a08231000000000000000000000000000000000000000000000000000000000000dead"
	if hex.EncodeToString(call.CallData) != want {
		t.Fatalf("call data = %x, want %s", call.CallData, want)
	}
}

func TestAllowanceCallData(t *testing.T) {
	token := testToken()
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	call, err := token.AllowanceCall(owner, spender)
	if err != nil {
		t.Fatalf("AllowanceCall: %v", err)
	}
	want := "dd62ed3e" +
		"0000000000000000000000001111111111111111111111111111111111111111" +
		"0000000000000000000000002222222222222222222222222222222222222222"
	if hex.EncodeToString(call.CallData) != want {
		t.Fatalf("call data = %x, want %s", call.CallData, want)
	}
}

func TestBalanceDefaultsToZero(t *testing.T) {
	token := testToken()
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if got := token.Balance(account); got.Sign() != 0 {
		t.Fatalf("unset balance = %s, want 0", got)
	}

	token.SetBalance(account, big.NewInt(500))
	if got := token.Balance(account); got.Int64() != 500 {
		t.Fatalf("balance = %s, want 500", got)
	}
}

func TestAllowanceDefaultsToZero(t *testing.T) {
	token := testToken()
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	if got := token.Allowance(owner, spender); got.Sign() != 0 {
		t.Fatalf("unset allowance = %s, want 0", got)
	}

	token.SetAllowance(owner, spender, big.NewInt(77))
	if got := token.Allowance(owner, spender); got.Int64() != 77 {
		t.Fatalf("allowance = %s, want 77", got)
	}
	other := common.HexToAddress("0x3333333333333333333333333333333333333333")
	if got := token.Allowance(owner, other); got.Sign() != 0 {
		t.Fatalf("other spender allowance = %s, want 0", got)
	}
}

func TestRecomputeAvailableLiquidity(t *testing.T) {
	token := testToken()

	token.RecomputeAvailableLiquidity()
	if token.AvailableLiquidity != nil {
		t.Fatal("available liquidity should stay unset before both inputs are fetched")
	}

	token.MaxUsdpAmount = big.NewInt(1000)
	token.RecomputeAvailableLiquidity()
	if token.AvailableLiquidity != nil {
		t.Fatal("available liquidity should stay unset with usdp amount missing")
	}

	token.UsdpAmount = big.NewInt(300)
	token.RecomputeAvailableLiquidity()
	if token.AvailableLiquidity == nil || token.AvailableLiquidity.Int64() != 700 {
		t.Fatalf("available liquidity = %v, want 700", token.AvailableLiquidity)
	}

	// Cap already exceeded: floors at zero instead of going negative.
	token.UsdpAmount = big.NewInt(1500)
	token.RecomputeAvailableLiquidity()
	if token.AvailableLiquidity == nil || token.AvailableLiquidity.Sign() != 0 {
		t.Fatalf("available liquidity = %v, want 0", token.AvailableLiquidity)
	}
}

func TestWeightRatio(t *testing.T) {
	token := testToken()
	if !token.WeightRatio(100000).IsZero() {
		t.Fatal("weight ratio should be zero before the weight is fetched")
	}

	weight := uint64(25000)
	token.TokenWeight = &weight
	got := token.WeightRatio(100000)
	if got.String() != "0.25" {
		t.Fatalf("weight ratio = %s, want 0.25", got)
	}

	if !token.WeightRatio(0).IsZero() {
		t.Fatal("weight ratio with zero total should be zero")
	}
}

func TestTokenCloneIndependence(t *testing.T) {
	token := testToken()
	weight := uint64(100)
	token.TokenWeight = &weight
	token.UsdpAmount = big.NewInt(42)
	token.AskPrice = NewPrice(big.NewInt(1e9))
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	token.SetBalance(account, big.NewInt(5))

	clone := token.Clone()
	*clone.TokenWeight = 999
	clone.UsdpAmount.SetInt64(999)
	clone.AskPrice.Raw.SetInt64(999)
	clone.SetBalance(account, big.NewInt(999))

	if *token.TokenWeight != 100 {
		t.Fatalf("clone mutated original weight: %d", *token.TokenWeight)
	}
	if token.UsdpAmount.Int64() != 42 {
		t.Fatalf("clone mutated original usdp amount: %s", token.UsdpAmount)
	}
	if token.AskPrice.Raw.Int64() != 1e9 {
		t.Fatalf("clone mutated original ask price: %s", token.AskPrice.Raw)
	}
	if token.Balance(account).Int64() != 5 {
		t.Fatalf("clone mutated original balance: %s", token.Balance(account))
	}
}

func TestApplyVaultInfoCopies(t *testing.T) {
	token := testToken()
	usdp := big.NewInt(10)
	token.ApplyVaultInfo(big.NewInt(1), usdp, big.NewInt(3), big.NewInt(4))
	usdp.SetInt64(999)
	if token.UsdpAmount.Int64() != 10 {
		t.Fatalf("ApplyVaultInfo aliased its input: %s", token.UsdpAmount)
	}
}
