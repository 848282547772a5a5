package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vaultQuote/internal/router"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote swaps and pool-share trades against fresh state",
	}

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote a token-to-token swap",
		RunE:  runQuoteSwap,
	}
	swapCmd.Flags().String("in", "", "input token address")
	swapCmd.Flags().String("out", "", "output token address")
	swapCmd.Flags().String("amount", "", "input amount in token units")

	buyCmd := &cobra.Command{
		Use:   "buy",
		Short: "Quote buying pool shares with a token",
		RunE:  runQuoteBuy,
	}
	buyCmd.Flags().String("token", "", "payment token address")
	buyCmd.Flags().String("amount", "", "token amount to spend")
	buyCmd.Flags().String("plp-amount", "", "pool-share amount to receive (instead of --amount)")

	sellCmd := &cobra.Command{
		Use:   "sell",
		Short: "Quote selling pool shares for a token",
		RunE:  runQuoteSell,
	}
	sellCmd.Flags().String("token", "", "payout token address")
	sellCmd.Flags().String("amount", "", "pool-share amount to sell")
	sellCmd.Flags().String("token-amount", "", "token amount to receive (instead of --amount)")

	cmd.AddCommand(swapCmd, buyCmd, sellCmd)
	return cmd
}

func newPlpPriceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plp-price",
		Short: "Print the buy and sell side pool-share prices",
		RunE:  runPlpPrice,
	}
}

// refreshedRouter loads the router and performs one full refresh so quotes
// run against current state.
func refreshedRouter(cmd *cobra.Command) (*router.Router, func(), error) {
	r, _, logger, err := loadRouter(cmd)
	if err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cleanup := func() {
		stop()
		logger.Sync()
	}
	if err := r.RefreshAll(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return r, cleanup, nil
}

func parseAmount(value, flag string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("--%s is required", flag)
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid --%s value %q", flag, value)
	}
	return amount, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runQuoteSwap(cmd *cobra.Command, _ []string) error {
	tokenIn, _ := cmd.Flags().GetString("in")
	tokenOut, _ := cmd.Flags().GetString("out")
	rawAmount, _ := cmd.Flags().GetString("amount")
	amount, err := parseAmount(rawAmount, "amount")
	if err != nil {
		return err
	}

	r, cleanup, err := refreshedRouter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	afterFee, feeAmount, feeBps, err := r.SwapDetails(tokenIn, tokenOut, amount)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"amount_in":        amount.String(),
		"amount_out":       afterFee.String(),
		"fee_amount":       feeAmount.String(),
		"fee_basis_points": fmt.Sprintf("%d", feeBps),
	})
}

func runQuoteBuy(cmd *cobra.Command, _ []string) error {
	token, _ := cmd.Flags().GetString("token")
	rawAmount, _ := cmd.Flags().GetString("amount")
	rawPlpAmount, _ := cmd.Flags().GetString("plp-amount")

	r, cleanup, err := refreshedRouter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if rawPlpAmount != "" {
		amount, err := parseAmount(rawPlpAmount, "plp-amount")
		if err != nil {
			return err
		}
		tokenIn, feeBps, err := r.BuyPlpFromAmount(amount, token)
		if err != nil {
			return err
		}
		return printJSON(map[string]string{
			"plp_out":          amount.String(),
			"token_in":         tokenIn.String(),
			"fee_basis_points": fmt.Sprintf("%d", feeBps),
		})
	}

	amount, err := parseAmount(rawAmount, "amount")
	if err != nil {
		return err
	}
	plpOut, feeBps, err := r.BuyPlpToAmount(amount, token)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"token_in":         amount.String(),
		"plp_out":          plpOut.String(),
		"fee_basis_points": fmt.Sprintf("%d", feeBps),
	})
}

func runQuoteSell(cmd *cobra.Command, _ []string) error {
	token, _ := cmd.Flags().GetString("token")
	rawAmount, _ := cmd.Flags().GetString("amount")
	rawTokenAmount, _ := cmd.Flags().GetString("token-amount")

	r, cleanup, err := refreshedRouter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if rawTokenAmount != "" {
		amount, err := parseAmount(rawTokenAmount, "token-amount")
		if err != nil {
			return err
		}
		plpIn, feeBps, err := r.SellPlpFromAmount(amount, token)
		if err != nil {
			return err
		}
		return printJSON(map[string]string{
			"token_out":        amount.String(),
			"plp_in":           plpIn.String(),
			"fee_basis_points": fmt.Sprintf("%d", feeBps),
		})
	}

	amount, err := parseAmount(rawAmount, "amount")
	if err != nil {
		return err
	}
	tokenOut, feeBps, err := r.SellPlpToAmount(amount, token)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"plp_in":           amount.String(),
		"token_out":        tokenOut.String(),
		"fee_basis_points": fmt.Sprintf("%d", feeBps),
	})
}

func runPlpPrice(cmd *cobra.Command, _ []string) error {
	r, cleanup, err := refreshedRouter(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return printJSON(map[string]string{
		"buy":  r.PlpPrice(true).String(),
		"sell": r.PlpPrice(false).String(),
	})
}
