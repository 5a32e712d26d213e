package memory

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminusdex/internal/model"
	"terminusdex/internal/storage"
)

func testPool(addr string) model.Pool {
	return model.Pool{
		Address:                    addr,
		Reserve0:                   big.NewInt(100),
		Reserve1:                   big.NewInt(200),
		Token0WalletAddress:        "0:aa",
		Token1WalletAddress:        "0:bb",
		LpFee:                      20,
		ProtocolFee:                10,
		RefFee:                     10,
		CollectedToken0ProtocolFee: big.NewInt(0),
		CollectedToken1ProtocolFee: big.NewInt(0),
		TotalSupply:                big.NewInt(141),
	}
}

func TestTxCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := New()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreatePool(ctx, testPool("0:01")))
	require.NoError(t, tx.SetCell(ctx, storage.CellMaxLT, "42"))

	_, ok, err := s.GetPool(ctx, "0:01")
	require.NoError(t, err)
	assert.False(t, ok, "uncommitted writes must not be visible")

	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	p, ok, err := s.GetPool(ctx, "0:01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(200), p.Reserve1.Int64())
	v, ok, _ := s.GetCell(ctx, storage.CellMaxLT)
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetCell(ctx, storage.CellMaxLT, "99"))
	require.NoError(t, tx.Rollback(ctx))
	v, _, _ = s.GetCell(ctx, storage.CellMaxLT)
	assert.Equal(t, "42", v)

	assert.ErrorIs(t, tx.Commit(ctx), storage.ErrTxDone)
}

func TestCreateUpdateErrors(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreatePool(ctx, testPool("0:01")))
	assert.ErrorIs(t, s.CreatePool(ctx, testPool("0:01")), storage.ErrAlreadyExists)
	assert.ErrorIs(t, s.UpdatePool(ctx, "0:02", model.PoolUpdate{}), storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateAsset(ctx, model.Asset{Address: "0:03"}), storage.ErrNotFound)

	update := testPool("0:01").Update()
	update.Reserve0 = big.NewInt(7)
	require.NoError(t, s.UpdatePool(ctx, "0:01", update))
	p, _, _ := s.GetPool(ctx, "0:01")
	assert.Equal(t, int64(7), p.Reserve0.Int64())
	assert.Equal(t, "0:aa", p.Token0WalletAddress)
}

func TestReturnedPoolsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreatePool(ctx, testPool("0:01")))

	p, _, _ := s.GetPool(ctx, "0:01")
	p.Reserve0.SetInt64(0)

	again, _, _ := s.GetPool(ctx, "0:01")
	assert.Equal(t, int64(100), again.Reserve0.Int64())
}

func TestOpenPersistsCommits(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "store.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateAsset(ctx, model.Asset{Address: "0:aa", Symbol: "AAA", Decimals: 9}))
	require.NoError(t, s.CreateStakingContract(ctx, model.StakingContract{
		Address:        "0:cc",
		InAssetAddress: "0:aa",
		APY:            decimal.RequireFromString("12.5"),
		MinOfferAmount: big.NewInt(1_000),
		IsActive:       true,
	}))
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreatePool(ctx, testPool("0:01")))
	require.NoError(t, tx.Commit(ctx))

	reopened, err := Open(path)
	require.NoError(t, err)
	a, ok, _ := reopened.GetAsset(ctx, "0:aa")
	require.True(t, ok)
	assert.Equal(t, "AAA", a.Symbol)

	pools, err := reopened.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, int64(141), pools[0].TotalSupply.Int64())

	contracts, err := reopened.ListStakingContracts(ctx)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.True(t, contracts[0].APY.Equal(decimal.RequireFromString("12.5")))
}
