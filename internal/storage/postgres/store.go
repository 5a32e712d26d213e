package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"terminusdex/internal/model"
	"terminusdex/internal/storage"
)

//go:embed schema.sql
var schema string

// dbtx is the query surface shared by the pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides Postgres persistence for DEX records.
type Store struct {
	queries
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{queries: queries{db: pool}, pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{queries: queries{db: tx}, tx: tx}, nil
}

type Tx struct {
	queries
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return storage.ErrTxDone
		}
		return err
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

type queries struct {
	db dbtx
}

func numeric(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseNumeric(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric %q", s)
	}
	return v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func expectOne(tag pgconn.CommandTag, what, addr string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", what, addr, storage.ErrNotFound)
	}
	return nil
}

const assetColumns = `address, symbol, name, image_url, decimals, is_whitelisted, is_community, is_deprecated, is_blacklisted`

func (q queries) GetAsset(ctx context.Context, addr string) (model.Asset, bool, error) {
	var a model.Asset
	err := q.db.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE address=$1`, addr).Scan(
		&a.Address, &a.Symbol, &a.Name, &a.ImageURL, &a.Decimals,
		&a.IsWhitelisted, &a.IsCommunity, &a.IsDeprecated, &a.IsBlacklisted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Asset{}, false, nil
		}
		return model.Asset{}, false, err
	}
	return a, true, nil
}

func (q queries) CreateAsset(ctx context.Context, a model.Asset) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO assets (`+assetColumns+`, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	`, a.Address, a.Symbol, a.Name, a.ImageURL, a.Decimals,
		a.IsWhitelisted, a.IsCommunity, a.IsDeprecated, a.IsBlacklisted)
	if isUniqueViolation(err) {
		return fmt.Errorf("asset %s: %w", a.Address, storage.ErrAlreadyExists)
	}
	return err
}

func (q queries) UpdateAsset(ctx context.Context, a model.Asset) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE assets SET
			symbol = $2, name = $3, image_url = $4, decimals = $5,
			is_whitelisted = $6, is_community = $7, is_deprecated = $8, is_blacklisted = $9,
			updated_at = now()
		WHERE address = $1
	`, a.Address, a.Symbol, a.Name, a.ImageURL, a.Decimals,
		a.IsWhitelisted, a.IsCommunity, a.IsDeprecated, a.IsBlacklisted)
	if err != nil {
		return err
	}
	return expectOne(tag, "asset", a.Address)
}

const poolColumns = `address, reserve0::text, reserve1::text,
	token0_wallet_address, token1_wallet_address, token0_minter_address, token1_minter_address,
	lp_fee, protocol_fee, ref_fee, protocol_fee_address,
	collected_token0_protocol_fee::text, collected_token1_protocol_fee::text, total_supply::text`

func scanPool(row pgx.Row) (model.Pool, error) {
	var (
		p                          model.Pool
		r0, r1, c0, c1, supply     string
		lpFee, protocolFee, refFee int64
	)
	if err := row.Scan(
		&p.Address, &r0, &r1,
		&p.Token0WalletAddress, &p.Token1WalletAddress, &p.Token0MinterAddress, &p.Token1MinterAddress,
		&lpFee, &protocolFee, &refFee, &p.ProtocolFeeAddress,
		&c0, &c1, &supply,
	); err != nil {
		return model.Pool{}, err
	}
	p.LpFee, p.ProtocolFee, p.RefFee = uint64(lpFee), uint64(protocolFee), uint64(refFee)

	ints := []struct {
		src string
		dst **big.Int
	}{
		{r0, &p.Reserve0},
		{r1, &p.Reserve1},
		{c0, &p.CollectedToken0ProtocolFee},
		{c1, &p.CollectedToken1ProtocolFee},
		{supply, &p.TotalSupply},
	}
	for _, f := range ints {
		v, err := parseNumeric(f.src)
		if err != nil {
			return model.Pool{}, fmt.Errorf("pool %s: %w", p.Address, err)
		}
		*f.dst = v
	}
	return p, nil
}

func (q queries) GetPool(ctx context.Context, addr string) (model.Pool, bool, error) {
	p, err := scanPool(q.db.QueryRow(ctx, `SELECT `+poolColumns+` FROM pools WHERE address=$1`, addr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, err
	}
	return p, true, nil
}

func (q queries) ListPools(ctx context.Context) ([]model.Pool, error) {
	rows, err := q.db.Query(ctx, `SELECT `+poolColumns+` FROM pools ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q queries) CreatePool(ctx context.Context, p model.Pool) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO pools (
			address, reserve0, reserve1,
			token0_wallet_address, token1_wallet_address, token0_minter_address, token1_minter_address,
			lp_fee, protocol_fee, ref_fee, protocol_fee_address,
			collected_token0_protocol_fee, collected_token1_protocol_fee, total_supply,
			created_at, updated_at
		) VALUES ($1, $2::numeric, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11,
			$12::numeric, $13::numeric, $14::numeric, now(), now())
	`,
		p.Address, numeric(p.Reserve0), numeric(p.Reserve1),
		p.Token0WalletAddress, p.Token1WalletAddress, p.Token0MinterAddress, p.Token1MinterAddress,
		int64(p.LpFee), int64(p.ProtocolFee), int64(p.RefFee), p.ProtocolFeeAddress,
		numeric(p.CollectedToken0ProtocolFee), numeric(p.CollectedToken1ProtocolFee), numeric(p.TotalSupply),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("pool %s: %w", p.Address, storage.ErrAlreadyExists)
	}
	return err
}

func (q queries) UpdatePool(ctx context.Context, addr string, u model.PoolUpdate) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE pools SET
			reserve0 = $2::numeric,
			reserve1 = $3::numeric,
			lp_fee = $4,
			protocol_fee = $5,
			ref_fee = $6,
			collected_token0_protocol_fee = $7::numeric,
			collected_token1_protocol_fee = $8::numeric,
			total_supply = $9::numeric,
			updated_at = now()
		WHERE address = $1
	`,
		addr, numeric(u.Reserve0), numeric(u.Reserve1),
		int64(u.LpFee), int64(u.ProtocolFee), int64(u.RefFee),
		numeric(u.CollectedToken0ProtocolFee), numeric(u.CollectedToken1ProtocolFee), numeric(u.TotalSupply),
	)
	if err != nil {
		return err
	}
	return expectOne(tag, "pool", addr)
}

const stakingColumns = `address, in_asset_address, out_asset_address, apy::text, fees::text, min_offer_amount::text, is_active`

func scanStaking(row pgx.Row) (model.StakingContract, error) {
	var (
		c                  model.StakingContract
		apy, fees, minimum string
	)
	if err := row.Scan(&c.Address, &c.InAssetAddress, &c.OutAssetAddress, &apy, &fees, &minimum, &c.IsActive); err != nil {
		return model.StakingContract{}, err
	}
	var err error
	if c.APY, err = decimal.NewFromString(apy); err != nil {
		return model.StakingContract{}, fmt.Errorf("staking %s apy: %w", c.Address, err)
	}
	if c.Fees, err = decimal.NewFromString(fees); err != nil {
		return model.StakingContract{}, fmt.Errorf("staking %s fees: %w", c.Address, err)
	}
	if c.MinOfferAmount, err = parseNumeric(minimum); err != nil {
		return model.StakingContract{}, fmt.Errorf("staking %s: %w", c.Address, err)
	}
	return c, nil
}

func (q queries) GetStakingContract(ctx context.Context, addr string) (model.StakingContract, bool, error) {
	c, err := scanStaking(q.db.QueryRow(ctx, `SELECT `+stakingColumns+` FROM staking_contracts WHERE address=$1`, addr))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StakingContract{}, false, nil
		}
		return model.StakingContract{}, false, err
	}
	return c, true, nil
}

func (q queries) ListStakingContracts(ctx context.Context) ([]model.StakingContract, error) {
	rows, err := q.db.Query(ctx, `SELECT `+stakingColumns+` FROM staking_contracts ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.StakingContract
	for rows.Next() {
		c, err := scanStaking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q queries) CreateStakingContract(ctx context.Context, c model.StakingContract) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO staking_contracts (address, in_asset_address, out_asset_address, apy, fees, min_offer_amount, is_active)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7)
	`, c.Address, c.InAssetAddress, c.OutAssetAddress, c.APY.String(), c.Fees.String(), numeric(c.MinOfferAmount), c.IsActive)
	if isUniqueViolation(err) {
		return fmt.Errorf("staking contract %s: %w", c.Address, storage.ErrAlreadyExists)
	}
	return err
}

func (q queries) UpdateStakingContract(ctx context.Context, c model.StakingContract) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE staking_contracts SET
			in_asset_address = $2, out_asset_address = $3,
			apy = $4::numeric, fees = $5::numeric, min_offer_amount = $6::numeric, is_active = $7
		WHERE address = $1
	`, c.Address, c.InAssetAddress, c.OutAssetAddress, c.APY.String(), c.Fees.String(), numeric(c.MinOfferAmount), c.IsActive)
	if err != nil {
		return err
	}
	return expectOne(tag, "staking contract", c.Address)
}

// GetCell returns a named storage cell value.
func (q queries) GetCell(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, fmt.Errorf("cell name required")
	}
	var v string
	if err := q.db.QueryRow(ctx, `SELECT value FROM storage_cells WHERE name=$1`, name).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

// SetCell upserts a named storage cell.
func (q queries) SetCell(ctx context.Context, name, value string) error {
	if name == "" {
		return fmt.Errorf("cell name required")
	}
	_, err := q.db.Exec(ctx, `
		INSERT INTO storage_cells (name, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`, name, value)
	return err
}
