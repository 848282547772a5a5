package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vaultQuote/internal/model"
)

// Store provides Postgres persistence for refresh snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutSnapshot inserts the vault-level row and upserts one metrics row per
// token, all in a single batch.
func (s *Store) PutSnapshot(ctx context.Context, snap model.Snapshot) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO vault_snapshots (
			chain_id, taken_at, usdp_supply, total_aum_min, total_aum_max,
			plp_supply, plp_price_buy, plp_price_sell, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (chain_id, taken_at)
		DO UPDATE SET
			usdp_supply = EXCLUDED.usdp_supply,
			total_aum_min = EXCLUDED.total_aum_min,
			total_aum_max = EXCLUDED.total_aum_max,
			plp_supply = EXCLUDED.plp_supply,
			plp_price_buy = EXCLUDED.plp_price_buy,
			plp_price_sell = EXCLUDED.plp_price_sell
	`,
		int64(snap.ChainID),
		snap.TakenAt,
		snap.UsdpSupply,
		snap.TotalAumMin,
		snap.TotalAumMax,
		snap.PlpSupply,
		snap.PlpPriceBuy,
		snap.PlpPriceSell,
	)
	for _, token := range snap.Tokens {
		batch.Queue(`
			INSERT INTO token_metrics (
				chain_id, taken_at, token_address, symbol, usdp_amount,
				pool_amounts, fee_reserves, reserved_amounts,
				available_liquidity, ask_price, bid_price, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (chain_id, taken_at, token_address)
			DO UPDATE SET
				symbol = EXCLUDED.symbol,
				usdp_amount = EXCLUDED.usdp_amount,
				pool_amounts = EXCLUDED.pool_amounts,
				fee_reserves = EXCLUDED.fee_reserves,
				reserved_amounts = EXCLUDED.reserved_amounts,
				available_liquidity = EXCLUDED.available_liquidity,
				ask_price = EXCLUDED.ask_price,
				bid_price = EXCLUDED.bid_price
		`,
			int64(snap.ChainID),
			snap.TakenAt,
			token.Address,
			token.Symbol,
			token.UsdpAmount,
			token.PoolAmounts,
			token.FeeReserves,
			token.ReservedAmounts,
			token.AvailableLiquidity,
			token.AskPrice,
			token.BidPrice,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(snap.Tokens)+1; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
