package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"vaultQuote/internal/chain"
	"vaultQuote/internal/codec"
	"vaultQuote/internal/contracts"
)

// Token is one whitelisted vault asset. Address, symbol, name, and decimals are
// immutable once loaded from configuration. Everything fetched from the vault is
// pointer-typed: nil means "never fetched", which is distinct from an on-chain
// zero.
type Token struct {
	ChainID       uint64 `json:"chain_id"`
	Address       string `json:"address"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	IsNativeToken bool   `json:"is_native_token"`
	IsTradeable   bool   `json:"is_tradeable"`

	TokenWeight          *uint64  `json:"token_weight,omitempty"`
	IsWhitelisted        *bool    `json:"is_whitelisted,omitempty"`
	IsStableToken        *bool    `json:"is_stable_token,omitempty"`
	IsShortableToken     *bool    `json:"is_shortable_token,omitempty"`
	MinProfitBasisPoints *uint64  `json:"min_profit_basis_points,omitempty"`
	MaxUsdpAmount        *big.Int `json:"max_usdp_amount,omitempty"`

	AskPrice *Price `json:"ask_price,omitempty"`
	BidPrice *Price `json:"bid_price,omitempty"`
	MinPrice *Price `json:"min_price,omitempty"`
	MaxPrice *Price `json:"max_price,omitempty"`

	UsdpAmount         *big.Int `json:"usdp_amount,omitempty"`
	FeeReserves        *big.Int `json:"fee_reserves,omitempty"`
	PoolAmounts        *big.Int `json:"pool_amounts,omitempty"`
	ReservedAmounts    *big.Int `json:"reserved_amounts,omitempty"`
	AvailableLiquidity *big.Int `json:"available_liquidity,omitempty"`

	GuaranteedUsd      *big.Int `json:"guaranteed_usd,omitempty"`
	GlobalShortSize    *big.Int `json:"global_short_size,omitempty"`
	MaxGlobalLongSize  *big.Int `json:"max_global_long_size,omitempty"`
	MaxGlobalShortSize *big.Int `json:"max_global_short_size,omitempty"`

	Balances   map[common.Address]*big.Int                    `json:"balances,omitempty"`
	Allowances map[common.Address]map[common.Address]*big.Int `json:"allowances,omitempty"`
}

// ParsedAddress validates and parses the token's contract address.
func (t *Token) ParsedAddress() (common.Address, error) {
	if !common.IsHexAddress(t.Address) {
		return common.Address{}, fmt.Errorf("invalid token address %q", t.Address)
	}
	return common.HexToAddress(t.Address), nil
}

// CanonicalAddress lower-cases a hex address into the model's canonical form.
func CanonicalAddress(address string) string {
	return strings.ToLower(address)
}

// BalanceOfCall builds the ERC20 balanceOf call for an account.
func (t *Token) BalanceOfCall(account common.Address) (chain.Call, error) {
	target, err := t.ParsedAddress()
	if err != nil {
		return chain.Call{}, err
	}
	erc20, err := contracts.ERC20()
	if err != nil {
		return chain.Call{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := codec.EncodeCall(erc20, "balanceOf", account)
	if err != nil {
		return chain.Call{}, err
	}
	return chain.Call{Target: target, CallData: data}, nil
}

// AllowanceCall builds the ERC20 allowance call for an owner/spender pair.
func (t *Token) AllowanceCall(owner, spender common.Address) (chain.Call, error) {
	target, err := t.ParsedAddress()
	if err != nil {
		return chain.Call{}, err
	}
	erc20, err := contracts.ERC20()
	if err != nil {
		return chain.Call{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := codec.EncodeCall(erc20, "allowance", owner, spender)
	if err != nil {
		return chain.Call{}, err
	}
	return chain.Call{Target: target, CallData: data}, nil
}

// TokenConfigurationCall builds the vault tokenConfigurations call for this token.
func (t *Token) TokenConfigurationCall(vault common.Address) (chain.Call, error) {
	return t.vaultMethodCall(vault, "tokenConfigurations")
}

// VaultInfoCall builds the vault per-token info call for this token.
func (t *Token) VaultInfoCall(vault common.Address) (chain.Call, error) {
	return t.vaultMethodCall(vault, "vaultInfo")
}

// GuaranteedUsdCall builds the vault guaranteedUsd call for this token.
func (t *Token) GuaranteedUsdCall(vault common.Address) (chain.Call, error) {
	return t.vaultMethodCall(vault, "guaranteedUsd")
}

// GlobalShortSizesCall builds the vault globalShortSizes call for this token.
func (t *Token) GlobalShortSizesCall(vault common.Address) (chain.Call, error) {
	return t.vaultMethodCall(vault, "globalShortSizes")
}

func (t *Token) vaultMethodCall(vault common.Address, method string) (chain.Call, error) {
	tokenAddr, err := t.ParsedAddress()
	if err != nil {
		return chain.Call{}, err
	}
	vaultABI, err := contracts.Vault()
	if err != nil {
		return chain.Call{}, fmt.Errorf("parse vault abi: %w", err)
	}
	data, err := codec.EncodeCall(vaultABI, method, tokenAddr)
	if err != nil {
		return chain.Call{}, err
	}
	return chain.Call{Target: vault, CallData: data}, nil
}

// GatewayCall builds a single-token gateway call (max sizes, ask/bid price).
func (t *Token) GatewayCall(gateway common.Address, method string) (chain.Call, error) {
	tokenAddr, err := t.ParsedAddress()
	if err != nil {
		return chain.Call{}, err
	}
	gatewayABI, err := contracts.Gateway()
	if err != nil {
		return chain.Call{}, fmt.Errorf("parse gateway abi: %w", err)
	}
	data, err := codec.EncodeCall(gatewayABI, method, tokenAddr)
	if err != nil {
		return chain.Call{}, err
	}
	return chain.Call{Target: gateway, CallData: data}, nil
}

// ApplyTokenConfiguration writes the decoded vault configuration tuple.
func (t *Token) ApplyTokenConfiguration(weight uint64, whitelisted, stable, shortable bool, minProfitBps uint64, maxUsdpAmount *big.Int) {
	t.TokenWeight = &weight
	t.IsWhitelisted = &whitelisted
	t.IsStableToken = &stable
	t.IsShortableToken = &shortable
	t.MinProfitBasisPoints = &minProfitBps
	t.MaxUsdpAmount = new(big.Int).Set(maxUsdpAmount)
}

// ApplyVaultInfo writes the decoded per-token vault info tuple.
func (t *Token) ApplyVaultInfo(feeReserves, usdpAmount, poolAmounts, reservedAmounts *big.Int) {
	t.FeeReserves = new(big.Int).Set(feeReserves)
	t.UsdpAmount = new(big.Int).Set(usdpAmount)
	t.PoolAmounts = new(big.Int).Set(poolAmounts)
	t.ReservedAmounts = new(big.Int).Set(reservedAmounts)
}

// SetBalance records an account balance.
func (t *Token) SetBalance(account common.Address, balance *big.Int) {
	if t.Balances == nil {
		t.Balances = make(map[common.Address]*big.Int)
	}
	t.Balances[account] = new(big.Int).Set(balance)
}

// Balance returns the recorded balance, defaulting to zero for display.
func (t *Token) Balance(account common.Address) *big.Int {
	if b, ok := t.Balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// SetAllowance records an owner->spender allowance.
func (t *Token) SetAllowance(owner, spender common.Address, allowance *big.Int) {
	if t.Allowances == nil {
		t.Allowances = make(map[common.Address]map[common.Address]*big.Int)
	}
	if t.Allowances[owner] == nil {
		t.Allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.Allowances[owner][spender] = new(big.Int).Set(allowance)
}

// Allowance returns the recorded allowance, defaulting to zero for display.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	if byOwner, ok := t.Allowances[owner]; ok {
		if a, ok := byOwner[spender]; ok {
			return new(big.Int).Set(a)
		}
	}
	return new(big.Int)
}

// WeightRatio returns this token's share of the total token weights.
func (t *Token) WeightRatio(totalTokenWeights uint64) decimal.Decimal {
	if totalTokenWeights == 0 {
		return decimal.Zero
	}
	weight := uint64(0)
	if t.TokenWeight != nil {
		weight = *t.TokenWeight
	}
	return decimal.NewFromInt(int64(weight)).Div(decimal.NewFromInt(int64(totalTokenWeights)))
}

// RecomputeAvailableLiquidity derives available liquidity once both the vault
// cap and the current USDP amount are known. Before that it stays unset.
func (t *Token) RecomputeAvailableLiquidity() {
	if t.MaxUsdpAmount == nil || t.UsdpAmount == nil {
		t.AvailableLiquidity = nil
		return
	}
	available := new(big.Int).Sub(t.MaxUsdpAmount, t.UsdpAmount)
	if available.Sign() < 0 {
		available.SetInt64(0)
	}
	t.AvailableLiquidity = available
}

// Clone returns a deep copy of the token.
func (t *Token) Clone() *Token {
	out := *t
	out.TokenWeight = cloneUint64(t.TokenWeight)
	out.IsWhitelisted = cloneBool(t.IsWhitelisted)
	out.IsStableToken = cloneBool(t.IsStableToken)
	out.IsShortableToken = cloneBool(t.IsShortableToken)
	out.MinProfitBasisPoints = cloneUint64(t.MinProfitBasisPoints)
	out.MaxUsdpAmount = cloneBig(t.MaxUsdpAmount)
	out.AskPrice = t.AskPrice.Clone()
	out.BidPrice = t.BidPrice.Clone()
	out.MinPrice = t.MinPrice.Clone()
	out.MaxPrice = t.MaxPrice.Clone()
	out.UsdpAmount = cloneBig(t.UsdpAmount)
	out.FeeReserves = cloneBig(t.FeeReserves)
	out.PoolAmounts = cloneBig(t.PoolAmounts)
	out.ReservedAmounts = cloneBig(t.ReservedAmounts)
	out.AvailableLiquidity = cloneBig(t.AvailableLiquidity)
	out.GuaranteedUsd = cloneBig(t.GuaranteedUsd)
	out.GlobalShortSize = cloneBig(t.GlobalShortSize)
	out.MaxGlobalLongSize = cloneBig(t.MaxGlobalLongSize)
	out.MaxGlobalShortSize = cloneBig(t.MaxGlobalShortSize)
	if t.Balances != nil {
		out.Balances = make(map[common.Address]*big.Int, len(t.Balances))
		for account, balance := range t.Balances {
			out.Balances[account] = new(big.Int).Set(balance)
		}
	}
	if t.Allowances != nil {
		out.Allowances = make(map[common.Address]map[common.Address]*big.Int, len(t.Allowances))
		for owner, byOwner := range t.Allowances {
			cloned := make(map[common.Address]*big.Int, len(byOwner))
			for spender, allowance := range byOwner {
				cloned[spender] = new(big.Int).Set(allowance)
			}
			out.Allowances[owner] = cloned
		}
	}
	return &out
}

func cloneUint64(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
