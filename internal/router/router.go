package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vaultQuote/internal/chain"
	"vaultQuote/internal/config"
	"vaultQuote/internal/contracts"
	"vaultQuote/internal/model"
	"vaultQuote/internal/vault"
)

// Router is the top-level façade: it owns the configuration, the batched call
// executor, and the vault orchestrator, and drives the concurrent refresh that
// brings the whole model up to date for one account.
type Router struct {
	cfg      *config.Config
	executor chain.Executor
	vault    *vault.Vault
	logger   *zap.Logger

	tokens *model.TokenList
}

// New wires a Router from loaded configuration.
func New(cfg *config.Config, logger *zap.Logger) (*Router, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	executor, err := chain.New(cfg.Chain.ChainID, cfg.Chain.RPCURLs, cfg.Chain.MulticallAddress, logger)
	if err != nil {
		return nil, err
	}
	return NewWithExecutor(cfg, executor, logger)
}

// NewWithExecutor wires a Router over an explicit executor.
func NewWithExecutor(cfg *config.Config, executor chain.Executor, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v, err := vault.New(executor, vault.Addresses{
		Vault:      cfg.ContractAddress.Vault,
		PlpManager: cfg.ContractAddress.PlpManager,
		PlpToken:   cfg.ContractAddress.PlpToken,
		Gateway:    cfg.ContractAddress.Gateway,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Router{
		cfg:      cfg,
		executor: executor,
		vault:    v,
		logger:   logger,
		tokens:   model.NewTokenList(cfg.Tokens),
	}, nil
}

// SetAccount selects the account to fetch balances and allowances for.
func (r *Router) SetAccount(account string) error {
	return r.cfg.SetAccount(account)
}

// LoadTokens returns a deep copy of the current token list.
func (r *Router) LoadTokens() []*model.Token {
	return r.tokens.Clone().Items()
}

// TokenByAddress returns a deep copy of one token.
func (r *Router) TokenByAddress(address string) (*model.Token, error) {
	canonical := model.CanonicalAddress(address)
	var found *model.Token
	r.tokens.View(func(items []*model.Token) {
		for _, token := range items {
			if token.Address == canonical {
				found = token.Clone()
				return
			}
		}
	})
	if found == nil {
		return nil, fmt.Errorf("unknown token %s", address)
	}
	return found, nil
}

// VaultState returns the current vault state snapshot, or nil before the
// first successful refresh.
func (r *Router) VaultState() *model.VaultState {
	return r.vault.State()
}

// RefreshAll refreshes token configuration, vault info, prices, per-token
// vault variables, vault state, and (when an account is selected) balances
// and allowances, all concurrently against a private clone of the shared
// state. The tasks are joined fail-together: every task settles before the
// first error is surfaced, and on any error the published state is left
// untouched.
func (r *Router) RefreshAll(ctx context.Context) error {
	started := time.Now()
	working := r.tokens.Clone()
	r.vault.BeginRefresh()

	var freshState *model.VaultState

	// Deliberately no shared cancellation: a failed task must not abort its
	// siblings mid-write, so every task runs to completion and Wait reports
	// the first error.
	var group errgroup.Group
	group.Go(func() error { return r.vault.FetchTokenConfiguration(ctx, working) })
	group.Go(func() error { return r.vault.FetchVaultInfo(ctx, working) })
	group.Go(func() error { return r.vault.FetchMultiVaultTokenVariables(ctx, working) })
	group.Go(func() error { return r.vault.FetchTokenPrices(ctx, working) })
	group.Go(func() error {
		state, err := r.vault.InitVaultState(ctx)
		if err != nil {
			return err
		}
		freshState = state
		return nil
	})
	group.Go(func() error { return r.fetchBalances(ctx, working) })
	group.Go(func() error { return r.fetchAllowances(ctx, working) })

	if err := group.Wait(); err != nil {
		r.logger.Warn("refresh failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return err
	}

	// All tasks settled; one exclusive pass for the derived fields.
	working.Update(func(items []*model.Token) {
		for _, token := range items {
			token.RecomputeAvailableLiquidity()
		}
	})

	r.tokens = working
	r.cfg.Tokens = working.Items()
	r.vault.SetState(freshState)

	r.logger.Info("refresh complete",
		zap.Int("tokens", working.Len()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// fetchBalances reads the selected account's balance of every token: ERC20
// balances through multicall, the native token directly.
func (r *Router) fetchBalances(ctx context.Context, tokens *model.TokenList) error {
	account, ok := r.cfg.Account()
	if !ok {
		return nil
	}

	erc20ABI, err := contracts.ERC20()
	if err != nil {
		return err
	}

	var calls []chain.Call
	var indexes []int
	var nativeIndexes []int
	var buildErr error
	tokens.View(func(items []*model.Token) {
		for i, token := range items {
			if token.IsNativeToken {
				nativeIndexes = append(nativeIndexes, i)
				continue
			}
			call, err := token.BalanceOfCall(account)
			if err != nil {
				buildErr = err
				return
			}
			calls = append(calls, call)
			indexes = append(indexes, i)
		}
	})
	if buildErr != nil {
		return buildErr
	}

	var balances []*big.Int
	if len(calls) > 0 {
		results, err := r.executor.Execute(ctx, calls, erc20ABI, "balanceOf")
		if err != nil {
			return fmt.Errorf("fetch balances: %w", err)
		}
		balances = make([]*big.Int, len(results))
		for i, values := range results {
			balance, err := singleBigValue(values)
			if err != nil {
				return fmt.Errorf("balance %d: %w", i, err)
			}
			balances[i] = balance
		}
	}

	nativeBalances := make([]*big.Int, len(nativeIndexes))
	for i := range nativeIndexes {
		balance, err := r.executor.NativeBalance(ctx, account)
		if err != nil {
			return fmt.Errorf("fetch native balance: %w", err)
		}
		nativeBalances[i] = balance
	}

	tokens.Update(func(items []*model.Token) {
		for j, i := range indexes {
			items[i].SetBalance(account, balances[j])
		}
		for j, i := range nativeIndexes {
			items[i].SetBalance(account, nativeBalances[j])
		}
	})
	return nil
}

// fetchAllowances reads the selected account's allowance toward every
// configured spender, one call per (token, spender) pair.
func (r *Router) fetchAllowances(ctx context.Context, tokens *model.TokenList) error {
	account, ok := r.cfg.Account()
	if !ok {
		return nil
	}
	spenders := r.cfg.SpenderAddresses()
	if len(spenders) == 0 {
		return nil
	}

	erc20ABI, err := contracts.ERC20()
	if err != nil {
		return err
	}

	type slot struct {
		tokenIndex int
		spender    common.Address
	}
	var calls []chain.Call
	var slots []slot
	var buildErr error
	tokens.View(func(items []*model.Token) {
		for i, token := range items {
			if token.IsNativeToken {
				continue
			}
			for _, spender := range spenders {
				call, err := token.AllowanceCall(account, spender)
				if err != nil {
					buildErr = err
					return
				}
				calls = append(calls, call)
				slots = append(slots, slot{tokenIndex: i, spender: spender})
			}
		}
	})
	if buildErr != nil {
		return buildErr
	}
	if len(calls) == 0 {
		return nil
	}

	results, err := r.executor.Execute(ctx, calls, erc20ABI, "allowance")
	if err != nil {
		return fmt.Errorf("fetch allowances: %w", err)
	}
	allowances := make([]*big.Int, len(results))
	for i, values := range results {
		allowance, err := singleBigValue(values)
		if err != nil {
			return fmt.Errorf("allowance %d: %w", i, err)
		}
		allowances[i] = allowance
	}

	tokens.Update(func(items []*model.Token) {
		for i, s := range slots {
			items[s.tokenIndex].SetAllowance(account, s.spender, allowances[i])
		}
	})
	return nil
}

// PlpPrice returns the pool-share price for the given side.
func (r *Router) PlpPrice(isBuy bool) *big.Int {
	return vault.PlpPrice(r.vault.State(), isBuy)
}

// SwapDetails quotes a swap between two tokens by address.
func (r *Router) SwapDetails(tokenInAddr, tokenOutAddr string, amountIn *big.Int) (*big.Int, *big.Int, uint64, error) {
	tokenIn, err := r.TokenByAddress(tokenInAddr)
	if err != nil {
		return nil, nil, 0, err
	}
	tokenOut, err := r.TokenByAddress(tokenOutAddr)
	if err != nil {
		return nil, nil, 0, err
	}
	return vault.SwapDetails(tokenIn, tokenOut, amountIn, r.vault.State())
}

// BuyPlpToAmount quotes pool-share output for an exact token input.
func (r *Router) BuyPlpToAmount(amount *big.Int, tokenAddr string) (*big.Int, uint64, error) {
	token, err := r.TokenByAddress(tokenAddr)
	if err != nil {
		return nil, 0, err
	}
	return vault.BuyPlpToAmount(amount, token, r.vault.State())
}

// BuyPlpFromAmount quotes token input for an exact pool-share output.
func (r *Router) BuyPlpFromAmount(amount *big.Int, tokenAddr string) (*big.Int, uint64, error) {
	token, err := r.TokenByAddress(tokenAddr)
	if err != nil {
		return nil, 0, err
	}
	return vault.BuyPlpFromAmount(amount, token, r.vault.State())
}

// SellPlpToAmount quotes token output for an exact pool-share input.
func (r *Router) SellPlpToAmount(amount *big.Int, tokenAddr string) (*big.Int, uint64, error) {
	token, err := r.TokenByAddress(tokenAddr)
	if err != nil {
		return nil, 0, err
	}
	return vault.SellPlpToAmount(amount, token, r.vault.State())
}

// SellPlpFromAmount quotes pool-share input for an exact token output.
func (r *Router) SellPlpFromAmount(amount *big.Int, tokenAddr string) (*big.Int, uint64, error) {
	token, err := r.TokenByAddress(tokenAddr)
	if err != nil {
		return nil, 0, err
	}
	return vault.SellPlpFromAmount(amount, token, r.vault.State())
}

// MintFeeBasisPoints returns the mint fee each tradeable token would pay for
// a nominal deposit, for client-side fee display.
func (r *Router) MintFeeBasisPoints(usdpDelta *big.Int) map[string]uint64 {
	state := r.vault.State()
	fees := make(map[string]uint64)
	if state == nil {
		return fees
	}
	r.tokens.View(func(items []*model.Token) {
		for _, token := range items {
			if !token.IsTradeable || token.TokenWeight == nil || token.UsdpAmount == nil {
				continue
			}
			fees[token.Address] = vault.FeeBasisPoints(
				*token.TokenWeight, token.UsdpAmount, usdpDelta,
				state.MintBurnFeeBasisPoints, state.TaxBasisPoints, true,
				state.UsdpSupply, state.TotalTokenWeights, state.HasDynamicFees,
			)
		}
	})
	return fees
}

// Snapshot flattens the current state for the history sinks.
func (r *Router) Snapshot() model.Snapshot {
	state := r.vault.State()
	return model.BuildSnapshot(
		r.cfg.Chain.ChainID,
		state,
		r.LoadTokens(),
		vault.PlpPrice(state, true),
		vault.PlpPrice(state, false),
		time.Now(),
	)
}

func singleBigValue(values []interface{}) (*big.Int, error) {
	if len(values) != 1 {
		return nil, fmt.Errorf("got %d values, want 1", len(values))
	}
	switch v := values[0].(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", values[0])
	}
}
