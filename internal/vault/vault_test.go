package vault

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"vaultQuote/internal/chain"
	"vaultQuote/internal/contracts"
	"vaultQuote/internal/model"
)

type stubExecutor struct {
	raw    func(calls []chain.Call) ([][]byte, error)
	exec   func(calls []chain.Call, method string) ([][]interface{}, error)
	native func(account common.Address) (*big.Int, error)
}

func (s *stubExecutor) ExecuteRaw(_ context.Context, calls []chain.Call) ([][]byte, error) {
	return s.raw(calls)
}

func (s *stubExecutor) Execute(_ context.Context, calls []chain.Call, _ abi.ABI, method string) ([][]interface{}, error) {
	return s.exec(calls, method)
}

func (s *stubExecutor) NativeBalance(_ context.Context, account common.Address) (*big.Int, error) {
	if s.native != nil {
		return s.native(account)
	}
	return new(big.Int), nil
}

var testAddresses = Addresses{
	Vault:      "0x1000000000000000000000000000000000000001",
	PlpManager: "0x1000000000000000000000000000000000000002",
	PlpToken:   "0x1000000000000000000000000000000000000003",
	Gateway:    "0x1000000000000000000000000000000000000004",
}

func word(n int64) []byte {
	return common.LeftPadBytes(big.NewInt(n).Bytes(), 32)
}

func newTestTokens(t *testing.T) *model.TokenList {
	t.Helper()
	return model.NewTokenList([]*model.Token{
		{
			Address:     "0x2000000000000000000000000000000000000001",
			Symbol:      "AAA",
			Decimals:    18,
			IsTradeable: true,
		},
		{
			Address:  "0x2000000000000000000000000000000000000002",
			Symbol:   "BBB",
			Decimals: 6,
		},
	})
}

func TestNewRejectsBadAddresses(t *testing.T) {
	bad := testAddresses
	bad.Gateway = "not-an-address"
	if _, err := New(&stubExecutor{}, bad, nil); err == nil {
		t.Fatal("expected invalid gateway address error")
	}
	if _, err := New(nil, testAddresses, nil); err == nil {
		t.Fatal("expected nil executor error")
	}
}

func TestInitVaultState(t *testing.T) {
	plpManagerABI, err := contracts.PlpManager()
	if err != nil {
		t.Fatalf("parse plp manager abi: %v", err)
	}
	usdpAddr := common.HexToAddress("0x3000000000000000000000000000000000000001")
	aums, err := plpManagerABI.Methods["getAums"].Outputs.Pack([]*big.Int{big.NewInt(111), big.NewInt(222)})
	if err != nil {
		t.Fatalf("pack aums: %v", err)
	}

	executor := &stubExecutor{
		raw: func(calls []chain.Call) ([][]byte, error) {
			switch len(calls) {
			case 1:
				return [][]byte{common.LeftPadBytes(usdpAddr.Bytes(), 32)}, nil
			case 3:
				if calls[2].Target != usdpAddr {
					t.Fatalf("usdp supply call target = %s, want resolved usdp address", calls[2].Target.Hex())
				}
				return [][]byte{aums, word(4000), word(5000)}, nil
			case len(vaultScalars):
				out := make([][]byte, len(vaultScalars))
				for i := range out {
					out[i] = word(int64(i + 1))
				}
				// hasDynamicFees on, inManagerMode off.
				out[7] = word(1)
				out[8] = word(0)
				return out, nil
			default:
				t.Fatalf("unexpected batch size %d", len(calls))
				return nil, nil
			}
		},
	}

	v, err := New(executor, testAddresses, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	state, err := v.InitVaultState(context.Background())
	if err != nil {
		t.Fatalf("InitVaultState: %v", err)
	}
	if state.UsdpAddress != model.CanonicalAddress(usdpAddr.Hex()) {
		t.Fatalf("usdp address = %s", state.UsdpAddress)
	}
	if state.TotalAum[0].Int64() != 111 || state.TotalAum[1].Int64() != 222 {
		t.Fatalf("total aum = %v", state.TotalAum)
	}
	if state.PlpSupply.Int64() != 4000 || state.UsdpSupply.Int64() != 5000 {
		t.Fatalf("supplies = %s/%s", state.PlpSupply, state.UsdpSupply)
	}
	if state.FeeBasisPoints != 1 || state.TaxBasisPoints != 2 || state.MintBurnFeeBasisPoints != 4 {
		t.Fatalf("scalar bps = %d/%d/%d", state.FeeBasisPoints, state.TaxBasisPoints, state.MintBurnFeeBasisPoints)
	}
	if !state.HasDynamicFees || state.InManagerMode {
		t.Fatalf("flags = %v/%v", state.HasDynamicFees, state.InManagerMode)
	}
	if state.TotalTokenWeights.Int64() != 14 {
		t.Fatalf("total token weights = %s", state.TotalTokenWeights)
	}

	// The assembled state is returned, not published.
	if v.State() != nil {
		t.Fatal("InitVaultState must not publish the state")
	}
}

func TestFetchTokenConfigurationApplies(t *testing.T) {
	executor := &stubExecutor{
		exec: func(calls []chain.Call, method string) ([][]interface{}, error) {
			if method != "tokenConfigurations" {
				t.Fatalf("unexpected method %s", method)
			}
			out := make([][]interface{}, len(calls))
			for i := range calls {
				out[i] = []interface{}{
					true, big.NewInt(18), i == 1, true,
					big.NewInt(75), big.NewInt(25000), big.NewInt(1000),
				}
			}
			return out, nil
		},
	}

	v, err := New(executor, testAddresses, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tokens := newTestTokens(t)
	if err := v.FetchTokenConfiguration(context.Background(), tokens); err != nil {
		t.Fatalf("FetchTokenConfiguration: %v", err)
	}

	tokens.View(func(items []*model.Token) {
		for i, token := range items {
			if token.TokenWeight == nil || *token.TokenWeight != 25000 {
				t.Fatalf("token %d weight = %v", i, token.TokenWeight)
			}
			if token.IsWhitelisted == nil || !*token.IsWhitelisted {
				t.Fatalf("token %d not whitelisted", i)
			}
			if token.IsStableToken == nil || *token.IsStableToken != (i == 1) {
				t.Fatalf("token %d stable flag = %v", i, token.IsStableToken)
			}
			if token.MaxUsdpAmount == nil || token.MaxUsdpAmount.Int64() != 1000 {
				t.Fatalf("token %d max usdp = %v", i, token.MaxUsdpAmount)
			}
		}
	})
}

func TestFetchTokenConfigurationBadTuple(t *testing.T) {
	executor := &stubExecutor{
		exec: func(calls []chain.Call, _ string) ([][]interface{}, error) {
			out := make([][]interface{}, len(calls))
			for i := range calls {
				out[i] = []interface{}{true, big.NewInt(18)}
			}
			return out, nil
		},
	}
	v, err := New(executor, testAddresses, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := v.FetchTokenConfiguration(context.Background(), newTestTokens(t)); err == nil {
		t.Fatal("expected tuple shape error")
	}
}

func TestFetchVaultInfoSignalsGate(t *testing.T) {
	executor := &stubExecutor{
		exec: func(calls []chain.Call, method string) ([][]interface{}, error) {
			if method != "vaultInfo" {
				t.Fatalf("unexpected method %s", method)
			}
			out := make([][]interface{}, len(calls))
			for i := range calls {
				out[i] = []interface{}{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)}
			}
			return out, nil
		},
	}
	v, err := New(executor, testAddresses, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tokens := newTestTokens(t)
	if err := v.FetchVaultInfo(context.Background(), tokens); err != nil {
		t.Fatalf("FetchVaultInfo: %v", err)
	}

	select {
	case <-v.vaultInfoReady():
	default:
		t.Fatal("vault info gate should be released after a successful fetch")
	}

	tokens.View(func(items []*model.Token) {
		if items[0].FeeReserves.Int64() != 1 || items[0].UsdpAmount.Int64() != 2 {
			t.Fatalf("vault info not applied: %+v", items[0])
		}
	})
}

func TestFetchMultiVaultTokenVariablesWaitsForGate(t *testing.T) {
	executor := &stubExecutor{
		raw: func(calls []chain.Call) ([][]byte, error) {
			out := make([][]byte, len(calls))
			for i := range calls {
				out[i] = word(int64(i + 1))
			}
			return out, nil
		},
	}
	v, err := New(executor, testAddresses, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v.BeginRefresh()
	tokens := newTestTokens(t)

	done := make(chan error, 1)
	go func() {
		done <- v.FetchMultiVaultTokenVariables(context.Background(), tokens)
	}()

	// The batch has returned but the gate is still armed, so nothing may be
	// written yet.
	time.Sleep(20 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("fetch finished before the gate opened: %v", err)
	default:
	}
	tokens.View(func(items []*model.Token) {
		if items[0].GuaranteedUsd != nil {
			t.Fatal("wrote token variables before vault info")
		}
	})

	v.signalVaultInfoReady()
	if err := <-done; err != nil {
		t.Fatalf("FetchMultiVaultTokenVariables: %v", err)
	}

	tokens.View(func(items []*model.Token) {
		if items[0].GuaranteedUsd.Int64() != 1 || items[0].MaxGlobalShortSize.Int64() != 4 {
			t.Fatalf("token 0 variables = %+v", items[0])
		}
		if items[1].GuaranteedUsd.Int64() != 5 || items[1].MaxGlobalShortSize.Int64() != 8 {
			t.Fatalf("token 1 variables = %+v", items[1])
		}
	})
}

func TestFetchMultiVaultTokenVariablesHonorsCancellation(t *testing.T) {
	executor := &stubExecutor{
		raw: func(calls []chain.Call) ([][]byte, error) {
			out := make([][]byte, len(calls))
			for i := range calls {
				out[i] = word(1)
			}
			return out, nil
		},
	}
	v, err := New(executor, testAddresses, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v.BeginRefresh()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tokens := newTestTokens(t)
	if err := v.FetchMultiVaultTokenVariables(ctx, tokens); err != context.Canceled {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	tokens.View(func(items []*model.Token) {
		if items[0].GuaranteedUsd != nil {
			t.Fatal("cancelled fetch must not write")
		}
	})
}

func TestFetchTokenPricesOnlyTradeable(t *testing.T) {
	executor := &stubExecutor{
		exec: func(calls []chain.Call, method string) ([][]interface{}, error) {
			out := make([][]interface{}, len(calls))
			price := big.NewInt(100)
			if method == "getBidPrice" {
				price = big.NewInt(99)
			}
			for i := range calls {
				out[i] = []interface{}{new(big.Int).Set(price)}
			}
			return out, nil
		},
	}
	v, err := New(executor, testAddresses, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tokens := newTestTokens(t)
	if err := v.FetchTokenPrices(context.Background(), tokens); err != nil {
		t.Fatalf("FetchTokenPrices: %v", err)
	}

	tokens.View(func(items []*model.Token) {
		if items[0].AskPrice == nil || items[0].AskPrice.Raw.Int64() != 100 {
			t.Fatalf("tradeable ask price = %+v", items[0].AskPrice)
		}
		if items[0].BidPrice == nil || items[0].BidPrice.Raw.Int64() != 99 {
			t.Fatalf("tradeable bid price = %+v", items[0].BidPrice)
		}
		if items[0].MinPrice == nil || items[0].MaxPrice == nil {
			t.Fatal("min/max prices not mirrored")
		}
		if items[1].AskPrice != nil || items[1].BidPrice != nil {
			t.Fatal("non-tradeable token must not get prices")
		}
	})
}
