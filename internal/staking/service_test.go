package staking

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain/chaintest"
	"terminusdex/internal/contract"
	"terminusdex/internal/model"
	"terminusdex/internal/storage/memory"
)

var (
	stakingAddr = chaintest.Addr("staking")
	inAsset     = chaintest.Addr("in-asset")
	outAsset    = chaintest.Addr("out-asset")
	userAddr    = chaintest.Addr("user")
	fixedNow    = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
)

func newFixture(t *testing.T, active bool) (*chaintest.Reader, *Service) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.CreateStakingContract(context.Background(), model.StakingContract{
		Address:         boc.Key(stakingAddr),
		InAssetAddress:  boc.Key(inAsset),
		OutAssetAddress: boc.Key(outAsset),
		APY:             decimal.RequireFromString("12.5"),
		Fees:            decimal.Zero,
		MinOfferAmount:  big.NewInt(1_000),
		IsActive:        active,
	}))
	r := chaintest.New()
	return r, NewService(store, r, false, WithClock(func() time.Time { return fixedNow }))
}

func TestStakeData(t *testing.T) {
	r, s := newFixture(t, true)
	r.Stack(stakingAddr, "get_staking_data", chaintest.Int(0), chaintest.Int(1_050_000_000))

	data, err := s.StakeData(context.Background(), stakingAddr)
	require.NoError(t, err)
	assert.True(t, data.IsActive)
	assert.Equal(t, "1050000000", data.Price.String())
	assert.Equal(t, boc.FriendlyString(stakingAddr, true, false), data.Address)

	r.Stack(stakingAddr, "get_staking_data", chaintest.Int(0))
	_, err = s.StakeData(context.Background(), stakingAddr)
	assert.ErrorIs(t, err, ErrGetStakeData)
}

func TestUnknownContract(t *testing.T) {
	_, s := newFixture(t, true)
	ctx := context.Background()
	other := chaintest.Addr("other")

	_, err := s.StakeData(ctx, other)
	assert.ErrorIs(t, err, ErrStakingContractNotFound)
	_, err = s.ExpectedAmount(ctx, other, big.NewInt(1))
	assert.ErrorIs(t, err, ErrStakingContractNotFound)
	_, err = s.PrepareStake(ctx, other, userAddr, big.NewInt(5_000))
	assert.ErrorIs(t, err, ErrStakingContractNotFound)
}

func TestPrepareStake(t *testing.T) {
	r, s := newFixture(t, true)
	ctx := context.Background()
	userWallet := chaintest.Addr("user-in-wallet")
	r.SetWallet(inAsset, userAddr, userWallet)
	r.Handle(stakingAddr, "get_jetton_amount", func(args []any) ([]any, error) {
		offer := args[0].(*big.Int)
		return []any{new(big.Int).Div(offer, big.NewInt(2))}, nil
	})

	got, err := s.PrepareStake(ctx, stakingAddr, userAddr, big.NewInt(5_000))
	require.NoError(t, err)
	assert.Equal(t, "2500", got.ExpectedAmount.String())
	assert.Equal(t, fixedNow.Add(contract.TransactionLifetime).Unix(), got.Transaction.ValidUntil)
	require.Len(t, got.Transaction.Messages, 1)

	msg := got.Transaction.Messages[0]
	assert.Equal(t, boc.FriendlyString(userWallet, true, false), msg.Address)
	assert.Equal(t, int64(contract.GasStake), msg.Amount.Int64())

	body, err := boc.DecodeBase64(msg.Payload)
	require.NoError(t, err)
	sl, _ := boc.Parse(body)
	op, _ := sl.LoadUint(32)
	assert.Equal(t, uint64(contract.OpJettonTransfer), op)
	_, _ = sl.LoadUint(64)
	amount, _ := sl.LoadCoins()
	assert.Equal(t, "5000", amount.String())
	dest, _ := sl.LoadAddress()
	assert.True(t, boc.Equal(stakingAddr, dest))
	resp, _ := sl.LoadAddress()
	assert.True(t, boc.Equal(userAddr, resp))
}

func TestPrepareStakeRejects(t *testing.T) {
	ctx := context.Background()

	_, s := newFixture(t, true)
	_, err := s.PrepareStake(ctx, stakingAddr, userAddr, big.NewInt(999))
	assert.ErrorIs(t, err, ErrOfferTooSmall)
	_, err = s.PrepareStake(ctx, stakingAddr, userAddr, big.NewInt(0))
	assert.Error(t, err)

	_, inactive := newFixture(t, false)
	_, err = inactive.PrepareStake(ctx, stakingAddr, userAddr, big.NewInt(5_000))
	assert.ErrorIs(t, err, ErrStakingInactive)
}

func TestContracts(t *testing.T) {
	_, s := newFixture(t, true)
	list, err := s.Contracts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, boc.Key(stakingAddr), list[0].Address)
}
