package vault

import (
	"fmt"
	"math/big"

	"vaultQuote/internal/model"
)

// UsdpDecimals is the decimal base of the vault's internal accounting unit.
const UsdpDecimals = 18

var (
	// pricePrecision is the 30-decimal fixed-point base of contract prices.
	pricePrecision = expandDecimals(1, model.PriceDecimals)
	// bpsDivisor is the 10,000 basis-points denominator as a big integer.
	bpsDivisor = big.NewInt(model.BasisPointsDivisor)
)

func expandDecimals(value int64, decimals uint) *big.Int {
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return exp.Mul(exp, big.NewInt(value))
}

// adjustForDecimals rescales amount from divDecimals to mulDecimals, matching
// the contract's adjustForDecimals helper (multiply first, floor divide after).
func adjustForDecimals(amount *big.Int, divDecimals, mulDecimals uint) *big.Int {
	out := new(big.Int).Mul(amount, expandDecimals(1, mulDecimals))
	return out.Div(out, expandDecimals(1, divDecimals))
}

// satSub returns a-b floored at zero, mirroring contract-side checked_sub.
func satSub(a, b *big.Int) *big.Int {
	if b.Cmp(a) > 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(a, b)
}

func isUnset(n *big.Int) bool {
	return n == nil || n.Sign() == 0
}

// PlpPrice returns the pool-share token price for the given side, scaled to 30
// decimals. A zero USDP supply yields zero, matching the contract.
func PlpPrice(state *model.VaultState, isBuy bool) *big.Int {
	if state == nil || isUnset(state.UsdpSupply) || isUnset(state.PlpSupply) {
		return new(big.Int)
	}
	aum := state.TotalAum[0]
	if !isBuy {
		aum = state.TotalAum[1]
	}
	if aum == nil {
		return new(big.Int)
	}
	numerator := new(big.Int).Mul(aum, expandDecimals(1, UsdpDecimals))
	denominator := new(big.Int).Mul(state.PlpSupply, expandDecimals(1, 12))
	return numerator.Div(numerator, denominator)
}

// FeeBasisPoints reproduces the vault's dynamic fee formula. With dynamic fees
// disabled the base fee passes through untouched; otherwise the fee is taxed
// or rebated by how far the operation moves the token from its target USDP
// share. All divisions floor, all subtractions saturate at zero.
func FeeBasisPoints(tokenWeight uint64, tokenUsdpAmount, usdpDelta *big.Int, baseBps, taxBps uint64, increment bool, usdpSupply, totalTokenWeights *big.Int, hasDynamicFees bool) uint64 {
	if isUnset(tokenUsdpAmount) || isUnset(usdpSupply) || isUnset(totalTokenWeights) {
		return 0
	}
	if !hasDynamicFees {
		return baseBps
	}
	if usdpDelta == nil {
		usdpDelta = new(big.Int)
	}

	target := new(big.Int).SetUint64(tokenWeight)
	target.Mul(target, usdpSupply)
	target.Div(target, totalTokenWeights)
	if target.Sign() == 0 {
		return baseBps
	}

	initialAmount := tokenUsdpAmount
	var nextAmount *big.Int
	if increment {
		nextAmount = new(big.Int).Add(initialAmount, usdpDelta)
	} else {
		nextAmount = satSub(initialAmount, usdpDelta)
	}

	initialDiff := new(big.Int).Sub(initialAmount, target)
	initialDiff.Abs(initialDiff)
	nextDiff := new(big.Int).Sub(nextAmount, target)
	nextDiff.Abs(nextDiff)

	base := new(big.Int).SetUint64(baseBps)
	tax := new(big.Int).SetUint64(taxBps)

	if nextDiff.Cmp(initialDiff) < 0 {
		rebate := new(big.Int).Mul(tax, initialDiff)
		rebate.Div(rebate, target)
		if rebate.Cmp(base) > 0 {
			return 0
		}
		return new(big.Int).Sub(base, rebate).Uint64()
	}

	averageDiff := new(big.Int).Add(initialDiff, nextDiff)
	averageDiff.Rsh(averageDiff, 1)
	if averageDiff.Cmp(target) > 0 {
		averageDiff.Set(target)
	}
	extra := new(big.Int).Mul(tax, averageDiff)
	extra.Div(extra, target)
	return new(big.Int).Add(base, extra).Uint64()
}

// tokenFeeInputs pulls the fetched fields a fee computation needs, failing
// loudly when a required prior fetch has not happened.
func tokenFeeInputs(token *model.Token) (uint64, *big.Int, error) {
	if token.TokenWeight == nil {
		return 0, nil, fmt.Errorf("token %s: weight not fetched", token.Address)
	}
	if token.UsdpAmount == nil {
		return 0, nil, fmt.Errorf("token %s: usdp amount not fetched", token.Address)
	}
	return *token.TokenWeight, token.UsdpAmount, nil
}

func applyFee(amount *big.Int, feeBps uint64) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).Sub(bpsDivisor, new(big.Int).SetUint64(feeBps)))
	return out.Div(out, bpsDivisor)
}

func grossUpFee(amount *big.Int, feeBps uint64) *big.Int {
	out := new(big.Int).Mul(amount, bpsDivisor)
	return out.Div(out, new(big.Int).Sub(bpsDivisor, new(big.Int).SetUint64(feeBps)))
}

// BuyPlpToAmount quotes how many pool-share tokens an exact token input mints,
// and the mint fee in basis points.
func BuyPlpToAmount(fromAmount *big.Int, payToken *model.Token, state *model.VaultState) (*big.Int, uint64, error) {
	zero := new(big.Int)
	if state == nil {
		return zero, 0, fmt.Errorf("vault state not initialized")
	}
	if isUnset(fromAmount) || isUnset(state.UsdpSupply) || isUnset(state.TotalTokenWeights) {
		return zero, 0, nil
	}
	if payToken.MinPrice == nil {
		return nil, 0, fmt.Errorf("token %s: min price not fetched", payToken.Address)
	}
	weight, tokenUsdp, err := tokenFeeInputs(payToken)
	if err != nil {
		return nil, 0, err
	}
	plpPrice := PlpPrice(state, true)
	minPrice := payToken.MinPrice.Raw
	if plpPrice.Sign() == 0 || minPrice.Sign() == 0 {
		return zero, 0, nil
	}

	plpAmount := new(big.Int).Mul(fromAmount, minPrice)
	plpAmount.Div(plpAmount, plpPrice)
	plpAmount = adjustForDecimals(plpAmount, uint(payToken.Decimals), UsdpDecimals)

	usdpDelta := new(big.Int).Mul(fromAmount, minPrice)
	usdpDelta.Div(usdpDelta, pricePrecision)
	usdpDelta = adjustForDecimals(usdpDelta, uint(payToken.Decimals), UsdpDecimals)

	feeBps := FeeBasisPoints(weight, tokenUsdp, usdpDelta, state.MintBurnFeeBasisPoints, state.TaxBasisPoints, true, state.UsdpSupply, state.TotalTokenWeights, state.HasDynamicFees)
	return applyFee(plpAmount, feeBps), feeBps, nil
}

// BuyPlpFromAmount quotes the token input required to mint an exact
// pool-share amount, grossing the input up by the mint fee.
func BuyPlpFromAmount(toAmount *big.Int, payToken *model.Token, state *model.VaultState) (*big.Int, uint64, error) {
	zero := new(big.Int)
	if state == nil {
		return zero, 0, fmt.Errorf("vault state not initialized")
	}
	if isUnset(toAmount) || isUnset(state.UsdpSupply) || isUnset(state.TotalTokenWeights) {
		return zero, 0, nil
	}
	if payToken.MinPrice == nil {
		return nil, 0, fmt.Errorf("token %s: min price not fetched", payToken.Address)
	}
	weight, tokenUsdp, err := tokenFeeInputs(payToken)
	if err != nil {
		return nil, 0, err
	}
	plpPrice := PlpPrice(state, true)
	minPrice := payToken.MinPrice.Raw
	if plpPrice.Sign() == 0 || minPrice.Sign() == 0 {
		return zero, 0, nil
	}

	fromAmount := new(big.Int).Mul(toAmount, plpPrice)
	fromAmount.Div(fromAmount, minPrice)
	fromAmount = adjustForDecimals(fromAmount, UsdpDecimals, uint(payToken.Decimals))

	usdpDelta := new(big.Int).Mul(toAmount, plpPrice)
	usdpDelta.Div(usdpDelta, pricePrecision)

	feeBps := FeeBasisPoints(weight, tokenUsdp, usdpDelta, state.MintBurnFeeBasisPoints, state.TaxBasisPoints, true, state.UsdpSupply, state.TotalTokenWeights, state.HasDynamicFees)
	return grossUpFee(fromAmount, feeBps), feeBps, nil
}

// SellPlpToAmount quotes how many tokens an exact pool-share input redeems.
// The USDP accounting is reduced by the implied delta before the fee lookup,
// mirroring the contract's decrement-then-assess order.
func SellPlpToAmount(plpAmount *big.Int, receiveToken *model.Token, state *model.VaultState) (*big.Int, uint64, error) {
	zero := new(big.Int)
	if state == nil {
		return zero, 0, fmt.Errorf("vault state not initialized")
	}
	if isUnset(plpAmount) || isUnset(state.UsdpSupply) || isUnset(state.TotalTokenWeights) {
		return zero, 0, nil
	}
	if receiveToken.MaxPrice == nil {
		return nil, 0, fmt.Errorf("token %s: max price not fetched", receiveToken.Address)
	}
	weight, tokenUsdp, err := tokenFeeInputs(receiveToken)
	if err != nil {
		return nil, 0, err
	}
	plpPrice := PlpPrice(state, false)
	maxPrice := receiveToken.MaxPrice.Raw
	if plpPrice.Sign() == 0 || maxPrice.Sign() == 0 {
		return zero, 0, nil
	}

	toAmount := new(big.Int).Mul(plpAmount, plpPrice)
	toAmount.Div(toAmount, maxPrice)
	toAmount = adjustForDecimals(toAmount, UsdpDecimals, uint(receiveToken.Decimals))

	usdpDelta := new(big.Int).Mul(plpAmount, plpPrice)
	usdpDelta.Div(usdpDelta, pricePrecision)

	reducedTokenUsdp := satSub(tokenUsdp, usdpDelta)
	reducedSupply := satSub(state.UsdpSupply, usdpDelta)

	feeBps := FeeBasisPoints(weight, reducedTokenUsdp, usdpDelta, state.MintBurnFeeBasisPoints, state.TaxBasisPoints, false, reducedSupply, state.TotalTokenWeights, state.HasDynamicFees)
	return applyFee(toAmount, feeBps), feeBps, nil
}

// SellPlpFromAmount quotes the pool-share input required to redeem an exact
// token amount, grossing the input up by the burn fee.
func SellPlpFromAmount(toAmount *big.Int, receiveToken *model.Token, state *model.VaultState) (*big.Int, uint64, error) {
	zero := new(big.Int)
	if state == nil {
		return zero, 0, fmt.Errorf("vault state not initialized")
	}
	if isUnset(toAmount) || isUnset(state.UsdpSupply) || isUnset(state.TotalTokenWeights) {
		return zero, 0, nil
	}
	if receiveToken.MaxPrice == nil {
		return nil, 0, fmt.Errorf("token %s: max price not fetched", receiveToken.Address)
	}
	weight, tokenUsdp, err := tokenFeeInputs(receiveToken)
	if err != nil {
		return nil, 0, err
	}
	plpPrice := PlpPrice(state, false)
	maxPrice := receiveToken.MaxPrice.Raw
	if plpPrice.Sign() == 0 || maxPrice.Sign() == 0 {
		return zero, 0, nil
	}

	plpAmount := new(big.Int).Mul(toAmount, maxPrice)
	plpAmount.Div(plpAmount, plpPrice)
	plpAmount = adjustForDecimals(plpAmount, uint(receiveToken.Decimals), UsdpDecimals)

	usdpDelta := new(big.Int).Mul(toAmount, maxPrice)
	usdpDelta.Div(usdpDelta, pricePrecision)
	usdpDelta = adjustForDecimals(usdpDelta, uint(receiveToken.Decimals), UsdpDecimals)

	reducedTokenUsdp := satSub(tokenUsdp, usdpDelta)
	reducedSupply := satSub(state.UsdpSupply, usdpDelta)

	feeBps := FeeBasisPoints(weight, reducedTokenUsdp, usdpDelta, state.MintBurnFeeBasisPoints, state.TaxBasisPoints, false, reducedSupply, state.TotalTokenWeights, state.HasDynamicFees)
	return grossUpFee(plpAmount, feeBps), feeBps, nil
}

// SwapDetails quotes a token-to-token swap: output after fees, the fee amount
// in output-token units, and the applied basis points. Each side's fee is
// computed independently and the larger one applies; stable-to-stable pairs
// use the stable rates.
func SwapDetails(tokenIn, tokenOut *model.Token, amountIn *big.Int, state *model.VaultState) (*big.Int, *big.Int, uint64, error) {
	zero := new(big.Int)
	if state == nil {
		return zero, zero, 0, fmt.Errorf("vault state not initialized")
	}
	if isUnset(amountIn) {
		return zero, zero, 0, nil
	}
	if tokenIn.AskPrice == nil {
		return nil, nil, 0, fmt.Errorf("token %s: ask price not fetched", tokenIn.Address)
	}
	if tokenOut.BidPrice == nil {
		return nil, nil, 0, fmt.Errorf("token %s: bid price not fetched", tokenOut.Address)
	}
	if tokenIn.IsStableToken == nil || tokenOut.IsStableToken == nil {
		return nil, nil, 0, fmt.Errorf("token configuration not fetched")
	}
	weightIn, usdpIn, err := tokenFeeInputs(tokenIn)
	if err != nil {
		return nil, nil, 0, err
	}
	weightOut, usdpOut, err := tokenFeeInputs(tokenOut)
	if err != nil {
		return nil, nil, 0, err
	}
	if tokenIn.AskPrice.IsZero() || tokenOut.BidPrice.IsZero() {
		return zero, zero, 0, nil
	}

	priceIn := tokenIn.AskPrice.Raw
	priceOut := tokenOut.BidPrice.Raw

	amountOut := new(big.Int).Mul(amountIn, priceIn)
	amountOut.Div(amountOut, priceOut)
	amountOut = adjustForDecimals(amountOut, uint(tokenIn.Decimals), uint(tokenOut.Decimals))

	usdpDelta := new(big.Int).Mul(amountIn, priceIn)
	usdpDelta.Div(usdpDelta, pricePrecision)
	usdpDelta = adjustForDecimals(usdpDelta, uint(tokenIn.Decimals), UsdpDecimals)

	baseBps := state.SwapFeeBasisPoints
	taxBps := state.TaxBasisPoints
	if *tokenIn.IsStableToken && *tokenOut.IsStableToken {
		baseBps = state.StableSwapFeeBasisPoints
		taxBps = state.StableTaxBasisPoints
	}

	feeIn := FeeBasisPoints(weightIn, usdpIn, usdpDelta, baseBps, taxBps, true, state.UsdpSupply, state.TotalTokenWeights, state.HasDynamicFees)
	feeOut := FeeBasisPoints(weightOut, usdpOut, usdpDelta, baseBps, taxBps, false, state.UsdpSupply, state.TotalTokenWeights, state.HasDynamicFees)
	feeBps := feeIn
	if feeOut > feeBps {
		feeBps = feeOut
	}

	afterFee := applyFee(amountOut, feeBps)
	feeAmount := new(big.Int).Sub(amountOut, afterFee)
	return afterFee, feeAmount, feeBps, nil
}
