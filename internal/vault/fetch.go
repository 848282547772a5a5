package vault

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"vaultQuote/internal/chain"
	"vaultQuote/internal/codec"
	"vaultQuote/internal/contracts"
	"vaultQuote/internal/model"
)

// FetchTokenConfiguration reads every token's vault configuration tuple in one
// batch. A tuple of the wrong shape fails the whole operation.
func (v *Vault) FetchTokenConfiguration(ctx context.Context, tokens *model.TokenList) error {
	vaultABI, err := contracts.Vault()
	if err != nil {
		return fmt.Errorf("parse vault abi: %w", err)
	}

	var calls []chain.Call
	var buildErr error
	tokens.View(func(items []*model.Token) {
		calls = make([]chain.Call, 0, len(items))
		for _, token := range items {
			call, err := token.TokenConfigurationCall(v.vaultAddr)
			if err != nil {
				buildErr = err
				return
			}
			calls = append(calls, call)
		}
	})
	if buildErr != nil {
		return buildErr
	}
	if len(calls) == 0 {
		return nil
	}

	results, err := v.executor.Execute(ctx, calls, vaultABI, "tokenConfigurations")
	if err != nil {
		return fmt.Errorf("fetch token configurations: %w", err)
	}

	var applyErr error
	tokens.Update(func(items []*model.Token) {
		for i, token := range items {
			if err := applyTokenConfiguration(token, results[i]); err != nil {
				applyErr = fmt.Errorf("token configuration for %s: %w", token.Address, err)
				return
			}
		}
	})
	if applyErr != nil {
		return applyErr
	}

	v.logger.Debug("token configurations applied", zap.Int("tokens", len(calls)))
	return nil
}

// FetchVaultInfo reads every token's liquidity accounting tuple and releases
// the one-shot gate awaited by FetchMultiVaultTokenVariables. The gate opens
// on failure too: the waiter would otherwise hang, and on a failed cycle the
// working copy is discarded anyway.
func (v *Vault) FetchVaultInfo(ctx context.Context, tokens *model.TokenList) error {
	defer v.signalVaultInfoReady()

	vaultABI, err := contracts.Vault()
	if err != nil {
		return fmt.Errorf("parse vault abi: %w", err)
	}

	var calls []chain.Call
	var buildErr error
	tokens.View(func(items []*model.Token) {
		calls = make([]chain.Call, 0, len(items))
		for _, token := range items {
			call, err := token.VaultInfoCall(v.vaultAddr)
			if err != nil {
				buildErr = err
				return
			}
			calls = append(calls, call)
		}
	})
	if buildErr != nil {
		return buildErr
	}

	results, err := v.executor.Execute(ctx, calls, vaultABI, "vaultInfo")
	if err != nil {
		return fmt.Errorf("fetch vault info: %w", err)
	}

	var applyErr error
	tokens.Update(func(items []*model.Token) {
		for i, token := range items {
			fields, err := bigTuple(results[i], 4)
			if err != nil {
				applyErr = fmt.Errorf("vault info for %s: %w", token.Address, err)
				return
			}
			token.ApplyVaultInfo(fields[0], fields[1], fields[2], fields[3])
		}
	})
	if applyErr != nil {
		return applyErr
	}

	v.logger.Debug("vault info applied", zap.Int("tokens", len(calls)))
	return nil
}

// FetchMultiVaultTokenVariables reads four per-token position limits (two from
// the vault, two from the gateway) in one flattened batch. Results are applied
// only after FetchVaultInfo has signalled, because available-liquidity
// computation downstream needs both writes in order.
func (v *Vault) FetchMultiVaultTokenVariables(ctx context.Context, tokens *model.TokenList) error {
	var calls []chain.Call
	var buildErr error
	tokens.View(func(items []*model.Token) {
		calls = make([]chain.Call, 0, len(items)*4)
		for _, token := range items {
			guaranteed, err := token.GuaranteedUsdCall(v.vaultAddr)
			if err != nil {
				buildErr = err
				return
			}
			shortSizes, err := token.GlobalShortSizesCall(v.vaultAddr)
			if err != nil {
				buildErr = err
				return
			}
			maxLong, err := token.GatewayCall(v.gateway, "maxGlobalLongSizes")
			if err != nil {
				buildErr = err
				return
			}
			maxShort, err := token.GatewayCall(v.gateway, "maxGlobalShortSizes")
			if err != nil {
				buildErr = err
				return
			}
			calls = append(calls, guaranteed, shortSizes, maxLong, maxShort)
		}
	})
	if buildErr != nil {
		return buildErr
	}
	if len(calls) == 0 {
		return nil
	}

	raw, err := v.executor.ExecuteRaw(ctx, calls)
	if err != nil {
		return fmt.Errorf("fetch vault token variables: %w", err)
	}

	words := make([]*big.Int, len(raw))
	for i, data := range raw {
		word, err := codec.DecodeWord(data)
		if err != nil {
			return fmt.Errorf("decode vault token variable %d: %w", i, err)
		}
		words[i] = word
	}

	select {
	case <-v.vaultInfoReady():
	case <-ctx.Done():
		return ctx.Err()
	}

	tokens.Update(func(items []*model.Token) {
		for i, token := range items {
			token.GuaranteedUsd = words[i*4]
			token.GlobalShortSize = words[i*4+1]
			token.MaxGlobalLongSize = words[i*4+2]
			token.MaxGlobalShortSize = words[i*4+3]
		}
	})

	v.logger.Debug("vault token variables applied", zap.Int("calls", len(calls)))
	return nil
}

// FetchTokenPrices reads ask and bid prices for tradeable tokens in two
// batches. Ask fills the buy-side minimum, bid fills the sell-side maximum.
func (v *Vault) FetchTokenPrices(ctx context.Context, tokens *model.TokenList) error {
	gatewayABI, err := contracts.Gateway()
	if err != nil {
		return fmt.Errorf("parse gateway abi: %w", err)
	}

	var askCalls, bidCalls []chain.Call
	var indexes []int
	var buildErr error
	tokens.View(func(items []*model.Token) {
		for i, token := range items {
			if !token.IsTradeable {
				continue
			}
			ask, err := token.GatewayCall(v.gateway, "getAskPrice")
			if err != nil {
				buildErr = err
				return
			}
			bid, err := token.GatewayCall(v.gateway, "getBidPrice")
			if err != nil {
				buildErr = err
				return
			}
			askCalls = append(askCalls, ask)
			bidCalls = append(bidCalls, bid)
			indexes = append(indexes, i)
		}
	})
	if buildErr != nil {
		return buildErr
	}
	if len(askCalls) == 0 {
		return nil
	}

	askResults, err := v.executor.Execute(ctx, askCalls, gatewayABI, "getAskPrice")
	if err != nil {
		return fmt.Errorf("fetch ask prices: %w", err)
	}
	bidResults, err := v.executor.Execute(ctx, bidCalls, gatewayABI, "getBidPrice")
	if err != nil {
		return fmt.Errorf("fetch bid prices: %w", err)
	}

	asks := make([]*big.Int, len(askResults))
	bids := make([]*big.Int, len(bidResults))
	for i := range askResults {
		if asks[i], err = singleBig(askResults[i]); err != nil {
			return fmt.Errorf("ask price %d: %w", i, err)
		}
		if bids[i], err = singleBig(bidResults[i]); err != nil {
			return fmt.Errorf("bid price %d: %w", i, err)
		}
	}

	tokens.Update(func(items []*model.Token) {
		for j, i := range indexes {
			token := items[i]
			token.AskPrice = model.NewPrice(asks[j])
			token.MinPrice = model.NewPrice(asks[j])
			token.BidPrice = model.NewPrice(bids[j])
			token.MaxPrice = model.NewPrice(bids[j])
		}
	})

	v.logger.Debug("token prices applied", zap.Int("tokens", len(indexes)))
	return nil
}

// applyTokenConfiguration coerces the 7-field tokenConfigurations tuple and
// writes the five vault-side fields. The tokenDecimals field is contract-side
// bookkeeping and is not mirrored into the model.
func applyTokenConfiguration(token *model.Token, values []interface{}) error {
	if len(values) != 7 {
		return fmt.Errorf("%w: got %d fields, want 7", codec.ErrBadTuple, len(values))
	}
	whitelisted, err := codec.AsBool(values[0])
	if err != nil {
		return fmt.Errorf("is_whitelisted: %w", err)
	}
	stable, err := codec.AsBool(values[2])
	if err != nil {
		return fmt.Errorf("is_stable_token: %w", err)
	}
	shortable, err := codec.AsBool(values[3])
	if err != nil {
		return fmt.Errorf("is_shortable_token: %w", err)
	}
	minProfitBps, err := codec.AsUint64(values[4])
	if err != nil {
		return fmt.Errorf("min_profit_basis_points: %w", err)
	}
	weight, err := codec.AsUint64(values[5])
	if err != nil {
		return fmt.Errorf("token_weight: %w", err)
	}
	maxUsdp, err := codec.AsBigInt(values[6])
	if err != nil {
		return fmt.Errorf("max_usdp_amount: %w", err)
	}
	token.ApplyTokenConfiguration(weight, whitelisted, stable, shortable, minProfitBps, maxUsdp)
	return nil
}

func bigTuple(values []interface{}, want int) ([]*big.Int, error) {
	if len(values) != want {
		return nil, fmt.Errorf("%w: got %d fields, want %d", codec.ErrBadTuple, len(values), want)
	}
	out := make([]*big.Int, len(values))
	for i, value := range values {
		n, err := codec.AsBigInt(value)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func singleBig(values []interface{}) (*big.Int, error) {
	fields, err := bigTuple(values, 1)
	if err != nil {
		return nil, err
	}
	return fields[0], nil
}
