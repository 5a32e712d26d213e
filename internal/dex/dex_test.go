package dex

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/amm"
	"terminusdex/internal/boc"
	"terminusdex/internal/chain/chaintest"
	"terminusdex/internal/contract"
)

var (
	routerAddr = chaintest.Addr("router")
	proxyTon   = chaintest.Addr("pton")
	userAddr   = chaintest.Addr("user")
	jettonA    = chaintest.Addr("jetton-a")
	jettonB    = chaintest.Addr("jetton-b")
	poolAddr   = chaintest.Addr("pool-ab")
	walletA    = chaintest.Addr("router-wallet-a")
	walletB    = chaintest.Addr("router-wallet-b")
	lpAccount  = chaintest.Addr("lp-account")
	fixedNow   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

// Token B sits on reserve 0, so token A enters through reserve 1.
const (
	reserveB = 2_000_000
	reserveA = 1_000_000
)

func friendly(addr *address.Address) string {
	return boc.FriendlyString(addr, true, false)
}

func newFixture(t *testing.T) (*chaintest.Reader, *Service) {
	t.Helper()
	r := chaintest.New()
	r.SetWallet(jettonA, routerAddr, walletA)
	r.SetWallet(jettonB, routerAddr, walletB)
	r.Stack(routerAddr, "get_pool_address", chaintest.AddrCell(poolAddr))

	s, err := NewService(r, Config{Router: routerAddr, ProxyTon: proxyTon},
		WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return r, s
}

func deployPool(r *chaintest.Reader) {
	r.Stack(poolAddr, "get_pool_data",
		chaintest.Int(reserveB), chaintest.Int(reserveA),
		chaintest.AddrCell(walletB), chaintest.AddrCell(walletA),
		chaintest.Int(20), chaintest.Int(10), chaintest.Int(10),
		chaintest.AddrCell(chaintest.Addr("protocol")),
		chaintest.Int(0), chaintest.Int(0),
	)
}

func TestNewServiceRequiresAddresses(t *testing.T) {
	_, err := NewService(chaintest.New(), Config{Router: routerAddr})
	assert.Error(t, err)
	_, err = NewService(nil, Config{Router: routerAddr, ProxyTon: proxyTon})
	assert.Error(t, err)
}

func TestSwapQuoteOrientsReserves(t *testing.T) {
	r, s := newFixture(t)
	deployPool(r)

	quote, err := s.SwapQuote(context.Background(), SwapRequest{
		Offer: jettonA, Ask: jettonB, Units: big.NewInt(10_000), Slippage: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	want, err := amm.DirectSwap(amm.SwapInput{
		Units: big.NewInt(10_000), ReserveIn: big.NewInt(reserveA), ReserveOut: big.NewInt(reserveB),
		LpFee: 20, ProtocolFee: 10, RefFee: 10, Slippage: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	assert.Equal(t, want.AskUnits.String(), quote.AskUnits.String())
	assert.Equal(t, want.MinAskUnits.String(), quote.MinAskUnits.String())
	assert.Equal(t, want.FeeUnits().String(), quote.FeeUnits.String())
	assert.Equal(t, friendly(jettonB), quote.FeeAddress)
	assert.Equal(t, friendly(poolAddr), quote.PoolAddress)
	assert.Equal(t, friendly(routerAddr), quote.RouterAddress)
	assert.Equal(t, int64(contract.GasSwapMin), quote.MinFee.Int64())
	assert.Equal(t, int64(contract.GasSwap), quote.MaxFee.Int64())
}

func TestSwapQuoteReverseWithReferral(t *testing.T) {
	r, s := newFixture(t)
	deployPool(r)

	quote, err := s.SwapQuote(context.Background(), SwapRequest{
		Offer: jettonB, Ask: jettonA, Units: big.NewInt(5_000),
		Referral: chaintest.Addr("ref"), Slippage: decimal.NewFromInt(2), Type: SwapReverse,
	})
	require.NoError(t, err)

	want, err := amm.ReverseSwap(amm.SwapInput{
		Units: big.NewInt(5_000), ReserveIn: big.NewInt(reserveB), ReserveOut: big.NewInt(reserveA),
		LpFee: 20, ProtocolFee: 10, RefFee: 10, HasReferral: true, Slippage: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.Equal(t, want.OfferUnits.String(), quote.OfferUnits.String())
	assert.Equal(t, "5000", quote.AskUnits.String())
	assert.True(t, want.RefFeeUnits.Sign() > 0)
}

func TestSwapQuoteErrors(t *testing.T) {
	r, s := newFixture(t)
	ctx := context.Background()

	_, err := s.SwapQuote(ctx, SwapRequest{Offer: jettonA, Ask: jettonB, Units: big.NewInt(1)})
	assert.ErrorIs(t, err, amm.ErrPoolNotFound)

	deployPool(r)
	_, err = s.SwapQuote(ctx, SwapRequest{Offer: jettonA, Ask: jettonB, Units: big.NewInt(1), Type: "sideways"})
	assert.Error(t, err)

	_, err = s.SwapQuote(ctx, SwapRequest{Offer: jettonA, Ask: chaintest.Addr("other"), Units: big.NewInt(1)})
	assert.ErrorIs(t, err, amm.ErrUnknownPoolSide)
	_, _, err = s.PrepareSwap(ctx, userAddr, SwapRequest{Offer: jettonA, Ask: chaintest.Addr("other"), Units: big.NewInt(1)})
	assert.ErrorIs(t, err, amm.ErrUnknownPoolSide)

	noPools := chaintest.New()
	svc, err := NewService(noPools, Config{Router: routerAddr, ProxyTon: proxyTon})
	require.NoError(t, err)
	_, err = svc.SwapQuote(ctx, SwapRequest{Offer: jettonA, Ask: jettonB, Units: big.NewInt(1)})
	assert.ErrorIs(t, err, ErrPoolAddressNotFound)
}

func TestPrepareSwap(t *testing.T) {
	r, s := newFixture(t)
	deployPool(r)
	ctx := context.Background()

	tx, quote, err := s.PrepareSwap(ctx, userAddr, SwapRequest{
		Offer: jettonA, Ask: jettonB, Units: big.NewInt(10_000), Slippage: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(contract.TransactionLifetime).Unix(), tx.ValidUntil)
	assert.Equal(t, contract.MainnetID, tx.Network)
	require.Len(t, tx.Messages, 1)

	userWallet, _ := r.GetJettonWalletAddress(ctx, jettonA, userAddr)
	msg := tx.Messages[0]
	assert.Equal(t, friendly(userWallet), msg.Address)
	assert.Equal(t, int64(contract.GasSwap), msg.Amount.Int64())

	body, err := boc.DecodeBase64(msg.Payload)
	require.NoError(t, err)
	sl, err := boc.Parse(body)
	require.NoError(t, err)
	op, _ := sl.LoadUint(32)
	assert.Equal(t, uint64(contract.OpJettonTransfer), op)
	_, _ = sl.LoadUint(64)
	amount, _ := sl.LoadCoins()
	assert.Equal(t, "10000", amount.String())
	assert.True(t, quote.MinAskUnits.Sign() > 0)

	_, _, err = s.PrepareSwap(ctx, userAddr, SwapRequest{Offer: jettonA, Ask: jettonB, Units: big.NewInt(0)})
	assert.ErrorIs(t, err, amm.ErrInvalidAmount)
}

func TestProvideParamsCreatePool(t *testing.T) {
	_, s := newFixture(t)

	params, err := s.ProvideLiquidityParams(context.Background(), ProvideRequest{
		First: jettonA, Second: jettonB, FirstUnits: big.NewInt(10), SecondUnits: big.NewInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, string(amm.ActionCreatePool), params.Action)
	assert.Equal(t, "1001", params.FirstTokenUnits.String())
	assert.Equal(t, "5005", params.SecondTokenUnits.String())
	assert.Equal(t, int64(300_000_000), params.FeeMin.Int64())
	assert.Equal(t, int64(3_000_000_000), params.FeeMax.Int64())
	assert.Nil(t, params.ExpectedLpUnits)
}

func TestProvideParamsProvideInPoolOrder(t *testing.T) {
	r, s := newFixture(t)
	deployPool(r)
	var args []any
	r.Handle(poolAddr, "get_expected_tokens", func(a []any) ([]any, error) {
		args = a
		return []any{chaintest.Int(500)}, nil
	})

	params, err := s.ProvideLiquidityParams(context.Background(), ProvideRequest{
		First: jettonA, Second: jettonB, FirstUnits: big.NewInt(1000), FirstIsBase: true,
		Slippage: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, string(amm.ActionProvide), params.Action)
	assert.Equal(t, "1000", params.FirstTokenUnits.String())
	assert.Equal(t, "2000", params.SecondTokenUnits.String())
	require.Len(t, args, 2)
	assert.Equal(t, "2000", args[0].(*big.Int).String())
	assert.Equal(t, "1000", args[1].(*big.Int).String())
	assert.Equal(t, "500", params.ExpectedLpUnits.String())
	assert.Equal(t, "495", params.MinExpectedLpUnits.String())
	assert.Empty(t, params.LpAccountAddress)
	assert.Empty(t, params.SendTokenAddress)
}

func TestProvideParamsProvideSecond(t *testing.T) {
	r, s := newFixture(t)
	deployPool(r)
	r.Stack(poolAddr, "get_expected_tokens", chaintest.Int(700))
	r.Stack(poolAddr, "get_lp_account_address", chaintest.AddrCell(lpAccount))
	r.Stack(lpAccount, "get_lp_account_data",
		chaintest.AddrCell(userAddr), chaintest.AddrCell(poolAddr),
		chaintest.Int(0), chaintest.Int(1000),
	)

	params, err := s.ProvideLiquidityParams(context.Background(), ProvideRequest{
		First: jettonA, Second: jettonB, FirstUnits: big.NewInt(1), FirstIsBase: true,
		Slippage: decimal.NewFromInt(1), Account: userAddr,
	})
	require.NoError(t, err)
	assert.Equal(t, string(amm.ActionProvideSecond), params.Action)
	assert.Equal(t, "1000", params.FirstTokenBalance.String())
	assert.Equal(t, "0", params.SecondTokenBalance.String())
	assert.Equal(t, friendly(jettonB), params.SendTokenAddress)
	assert.Equal(t, "2000", params.SendUnits.String())
	assert.Equal(t, friendly(lpAccount), params.LpAccountAddress)
	assert.Equal(t, int64(150_000_000), params.FeeMin.Int64())
}

func TestProvideParamsUndeployedLpAccount(t *testing.T) {
	r, s := newFixture(t)
	deployPool(r)
	r.Stack(poolAddr, "get_expected_tokens", chaintest.Int(1))
	r.Stack(poolAddr, "get_lp_account_address", chaintest.AddrCell(lpAccount))

	params, err := s.ProvideLiquidityParams(context.Background(), ProvideRequest{
		First: jettonA, Second: jettonB, SecondUnits: big.NewInt(400), Account: userAddr,
	})
	require.NoError(t, err)
	assert.Equal(t, string(amm.ActionProvide), params.Action)
	assert.Equal(t, "200", params.FirstTokenUnits.String())
}

func TestPrepareCreatePool(t *testing.T) {
	_, s := newFixture(t)

	tx, err := s.PrepareCreatePool(context.Background(), LiquidityRequest{
		User: userAddr, First: jettonA, Second: jettonB,
		FirstUnits: big.NewInt(1001), SecondUnits: big.NewInt(5005),
	})
	require.NoError(t, err)
	require.Len(t, tx.Messages, 3)
	assert.Equal(t, friendly(poolAddr), tx.Messages[0].Address)
	assert.Equal(t, int64(contract.GasPoolDeploy), tx.Messages[0].Amount.Int64())
	assert.Empty(t, tx.Messages[0].Payload)

	for _, m := range tx.Messages[1:] {
		body, err := boc.DecodeBase64(m.Payload)
		require.NoError(t, err)
		sl, _ := boc.Parse(body)
		require.NoError(t, sl.SkipBits(32+64))
		_, _ = sl.LoadCoins()
		_, _ = sl.LoadAddress()
		_, _ = sl.LoadAddress()
		_, _ = sl.LoadMaybeRef()
		_, _ = sl.LoadCoins()
		payload, err := sl.LoadMaybeRef()
		require.NoError(t, err)
		ps, _ := boc.Parse(payload)
		require.NoError(t, ps.SkipBits(32))
		_, _ = ps.LoadAddress()
		minLP, err := ps.LoadCoins()
		require.NoError(t, err)
		assert.Equal(t, int64(1), minLP.Int64())
	}
}

func TestPrepareProvideAndSingleSide(t *testing.T) {
	_, s := newFixture(t)
	ctx := context.Background()
	req := LiquidityRequest{
		User: userAddr, First: jettonA, Second: contract.Native(),
		FirstUnits: big.NewInt(10), SecondUnits: big.NewInt(20), MinLP: big.NewInt(3),
	}

	tx, err := s.PrepareProvideLiquidity(ctx, req)
	require.NoError(t, err)
	require.Len(t, tx.Messages, 2)
	assert.Equal(t, int64(contract.GasProvideLp), tx.Messages[0].Amount.Int64())
	assert.Equal(t, int64(20+contract.GasProvideLpTonForward), tx.Messages[1].Amount.Int64())

	tx, err = s.PrepareSingleSideProvide(ctx, req)
	require.NoError(t, err)
	require.Len(t, tx.Messages, 1)

	req.FirstUnits = big.NewInt(0)
	_, err = s.PrepareProvideLiquidity(ctx, req)
	assert.Error(t, err)
}

func TestPrepareActivateLiquidityUsesPoolOrder(t *testing.T) {
	r, s := newFixture(t)
	deployPool(r)
	r.Stack(poolAddr, "get_lp_account_address", chaintest.AddrCell(lpAccount))

	tx, err := s.PrepareActivateLiquidity(context.Background(), LiquidityRequest{
		User: userAddr, First: jettonA, Second: jettonB,
		FirstUnits: big.NewInt(11), SecondUnits: big.NewInt(22), MinLP: big.NewInt(5),
	})
	require.NoError(t, err)
	require.Len(t, tx.Messages, 1)
	assert.Equal(t, friendly(lpAccount), tx.Messages[0].Address)
	assert.Equal(t, int64(contract.GasDirectAddLp), tx.Messages[0].Amount.Int64())

	body, err := boc.DecodeBase64(tx.Messages[0].Payload)
	require.NoError(t, err)
	sl, _ := boc.Parse(body)
	op, _ := sl.LoadUint(32)
	assert.Equal(t, uint64(contract.OpDirectAddLiquidity), op)
	_, _ = sl.LoadUint(64)
	a0, _ := sl.LoadCoins()
	a1, _ := sl.LoadCoins()
	assert.Equal(t, "22", a0.String())
	assert.Equal(t, "11", a1.String())
}

func TestPrepareRefund(t *testing.T) {
	r, s := newFixture(t)
	ctx := context.Background()
	req := LiquidityRequest{User: userAddr, First: jettonA, Second: jettonB}

	_, err := s.PrepareRefund(ctx, req)
	assert.ErrorIs(t, err, ErrLpAccountAddressNotFound)

	r.Stack(poolAddr, "get_lp_account_address", chaintest.AddrCell(lpAccount))
	tx, err := s.PrepareRefund(ctx, req)
	require.NoError(t, err)
	require.Len(t, tx.Messages, 1)
	assert.Equal(t, friendly(lpAccount), tx.Messages[0].Address)
	assert.Equal(t, int64(contract.GasRefund), tx.Messages[0].Amount.Int64())
}

func TestPrepareBurnLiquidity(t *testing.T) {
	r, s := newFixture(t)
	ctx := context.Background()
	lpWallet := chaintest.Addr("lp-wallet")
	r.SetWallet(poolAddr, userAddr, lpWallet)

	tx, err := s.PrepareBurnLiquidity(ctx, userAddr, jettonA, jettonB, big.NewInt(900))
	require.NoError(t, err)
	require.Len(t, tx.Messages, 1)
	assert.Equal(t, friendly(lpWallet), tx.Messages[0].Address)
	assert.Equal(t, int64(contract.GasBurn), tx.Messages[0].Amount.Int64())

	body, _ := boc.DecodeBase64(tx.Messages[0].Payload)
	sl, _ := boc.Parse(body)
	op, _ := sl.LoadUint(32)
	assert.Equal(t, uint64(contract.OpBurn), op)
	_, _ = sl.LoadUint(64)
	amount, _ := sl.LoadCoins()
	assert.Equal(t, "900", amount.String())
	resp, err := sl.LoadAddress()
	require.NoError(t, err)
	assert.True(t, boc.Equal(userAddr, resp))

	_, err = s.PrepareBurnLiquidity(ctx, userAddr, jettonA, jettonB, big.NewInt(0))
	assert.Error(t, err)
}

func TestExpectedLiquidity(t *testing.T) {
	r, s := newFixture(t)
	r.Stack(poolAddr, "get_expected_liquidity", chaintest.Int(40), chaintest.Int(20))

	got, err := s.ExpectedLiquidity(context.Background(), jettonA, jettonB, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, "40", got.Token0Units.String())
	assert.Equal(t, "20", got.Token1Units.String())
}

func stageBalances(r *chaintest.Reader, balB, balA int64) {
	r.Stack(poolAddr, "get_lp_account_address", chaintest.AddrCell(lpAccount))
	r.Stack(lpAccount, "get_lp_account_data",
		chaintest.AddrCell(userAddr), chaintest.AddrCell(poolAddr),
		chaintest.Int(balB), chaintest.Int(balA),
	)
}

func TestPrepareProvideDispatchesByAction(t *testing.T) {
	ctx := context.Background()
	req := ProvideRequest{
		First: jettonA, Second: jettonB, FirstUnits: big.NewInt(1000), FirstIsBase: true,
		Slippage: decimal.NewFromInt(1),
	}

	t.Run("create", func(t *testing.T) {
		_, s := newFixture(t)
		tx, params, err := s.PrepareProvide(ctx, userAddr, ProvideRequest{
			First: jettonA, Second: jettonB, FirstUnits: big.NewInt(10), SecondUnits: big.NewInt(50),
		})
		require.NoError(t, err)
		assert.Equal(t, string(amm.ActionCreatePool), params.Action)
		assert.Len(t, tx.Messages, 3)
	})

	t.Run("provide", func(t *testing.T) {
		r, s := newFixture(t)
		deployPool(r)
		r.Stack(poolAddr, "get_expected_tokens", chaintest.Int(500))
		stageBalances(r, 0, 0)
		tx, params, err := s.PrepareProvide(ctx, userAddr, req)
		require.NoError(t, err)
		assert.Equal(t, string(amm.ActionProvide), params.Action)
		assert.Len(t, tx.Messages, 2)
	})

	t.Run("provide_second", func(t *testing.T) {
		r, s := newFixture(t)
		deployPool(r)
		r.Stack(poolAddr, "get_expected_tokens", chaintest.Int(500))
		stageBalances(r, 0, 1000)
		tx, params, err := s.PrepareProvide(ctx, userAddr, req)
		require.NoError(t, err)
		assert.Equal(t, string(amm.ActionProvideSecond), params.Action)
		require.Len(t, tx.Messages, 1)

		userWalletB, _ := r.GetJettonWalletAddress(ctx, jettonB, userAddr)
		assert.Equal(t, friendly(userWalletB), tx.Messages[0].Address)
		body, err := boc.DecodeBase64(tx.Messages[0].Payload)
		require.NoError(t, err)
		sl, _ := boc.Parse(body)
		require.NoError(t, sl.SkipBits(32+64))
		amount, _ := sl.LoadCoins()
		assert.Equal(t, "2000", amount.String())
	})

	t.Run("provide_direct", func(t *testing.T) {
		r, s := newFixture(t)
		deployPool(r)
		r.Stack(poolAddr, "get_expected_tokens", chaintest.Int(500))
		stageBalances(r, 2000, 1000)
		tx, params, err := s.PrepareProvide(ctx, userAddr, req)
		require.NoError(t, err)
		assert.Equal(t, string(amm.ActionProvideDirect), params.Action)
		require.Len(t, tx.Messages, 1)
		assert.Equal(t, friendly(lpAccount), tx.Messages[0].Address)
	})
}
