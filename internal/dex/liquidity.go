package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/amm"
	"terminusdex/internal/contract"
	"terminusdex/internal/model"
)

// LiquidityRequest names a user's position in a pair. Units are in the order
// the tokens are given.
type LiquidityRequest struct {
	User        *address.Address
	First       *address.Address
	Second      *address.Address
	FirstUnits  *big.Int
	SecondUnits *big.Int
	MinLP       *big.Int
}

func (r LiquidityRequest) validate() error {
	if r.User == nil || r.First == nil || r.Second == nil {
		return fmt.Errorf("user and both tokens are required")
	}
	return nil
}

func (s *Service) legs(ctx context.Context, req LiquidityRequest, qid uint64) ([]contract.Message, error) {
	first, err := s.router.ProvideMessage(ctx, contract.ProvideRequest{
		User:    req.User,
		Send:    req.First,
		Pair:    req.Second,
		Units:   req.FirstUnits,
		MinLP:   req.MinLP,
		QueryID: qid,
	})
	if err != nil {
		return nil, fmt.Errorf("first leg: %w", err)
	}
	second, err := s.router.ProvideMessage(ctx, contract.ProvideRequest{
		User:    req.User,
		Send:    req.Second,
		Pair:    req.First,
		Units:   req.SecondUnits,
		MinLP:   req.MinLP,
		QueryID: qid,
	})
	if err != nil {
		return nil, fmt.Errorf("second leg: %w", err)
	}
	return []contract.Message{first, second}, nil
}

// PrepareCreatePool deploys a new pool: a top-up of the pool address
// followed by both provide legs with a minimum LP output of one.
func (s *Service) PrepareCreatePool(ctx context.Context, req LiquidityRequest) (model.PreparedTransaction, error) {
	if err := req.validate(); err != nil {
		return model.PreparedTransaction{}, err
	}
	poolAddr, err := s.router.PoolAddress(ctx, req.First, req.Second)
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	req.MinLP = big.NewInt(1)
	legs, err := s.legs(ctx, req, s.queryID())
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	deploy := contract.Message{To: poolAddr, Amount: big.NewInt(contract.GasPoolDeploy)}
	return s.network.Prepare(s.now(), append([]contract.Message{deploy}, legs...)...), nil
}

// PrepareProvideLiquidity sends both tokens to the router in one transaction.
func (s *Service) PrepareProvideLiquidity(ctx context.Context, req LiquidityRequest) (model.PreparedTransaction, error) {
	if err := req.validate(); err != nil {
		return model.PreparedTransaction{}, err
	}
	if _, err := s.router.PoolAddress(ctx, req.First, req.Second); err != nil {
		return model.PreparedTransaction{}, err
	}
	legs, err := s.legs(ctx, req, s.queryID())
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	return s.network.Prepare(s.now(), legs...), nil
}

// PrepareSingleSideProvide sends only First; Second names the pair.
func (s *Service) PrepareSingleSideProvide(ctx context.Context, req LiquidityRequest) (model.PreparedTransaction, error) {
	if err := req.validate(); err != nil {
		return model.PreparedTransaction{}, err
	}
	if _, err := s.router.PoolAddress(ctx, req.First, req.Second); err != nil {
		return model.PreparedTransaction{}, err
	}
	msg, err := s.router.ProvideMessage(ctx, contract.ProvideRequest{
		User:    req.User,
		Send:    req.First,
		Pair:    req.Second,
		Units:   req.FirstUnits,
		MinLP:   req.MinLP,
		QueryID: s.queryID(),
	})
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	return s.network.Prepare(s.now(), msg), nil
}

func (s *Service) lpAccount(ctx context.Context, req LiquidityRequest) (*contract.Pool, *contract.LpAccount, error) {
	poolAddr, err := s.router.PoolAddress(ctx, req.First, req.Second)
	if err != nil {
		return nil, nil, err
	}
	pool := contract.NewPool(s.reader, poolAddr, s.lpAccounts)
	addr, err := pool.LpAccountAddress(ctx, req.User)
	if err != nil {
		return nil, nil, err
	}
	return pool, contract.NewLpAccount(s.reader, addr), nil
}

// PrepareActivateLiquidity mints LP from balances already staged on the
// user's LP account.
func (s *Service) PrepareActivateLiquidity(ctx context.Context, req LiquidityRequest) (model.PreparedTransaction, error) {
	if err := req.validate(); err != nil {
		return model.PreparedTransaction{}, err
	}
	pool, account, err := s.lpAccount(ctx, req)
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	snap, err := pool.Data(ctx)
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	firstIs0, err := s.isToken0(ctx, snap, req.First)
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	a0, a1 := poolOrder(firstIs0, req.FirstUnits, req.SecondUnits)
	msg, err := account.ActivateMessage(a0, a1, req.MinLP, nil, s.queryID())
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	return s.network.Prepare(s.now(), msg), nil
}

// PrepareRefund returns the staged LP account balances to the user.
func (s *Service) PrepareRefund(ctx context.Context, req LiquidityRequest) (model.PreparedTransaction, error) {
	if err := req.validate(); err != nil {
		return model.PreparedTransaction{}, err
	}
	_, account, err := s.lpAccount(ctx, req)
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	msg, err := account.RefundMessage(nil, s.queryID())
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	return s.network.Prepare(s.now(), msg), nil
}

// PrepareBurnLiquidity burns lpUnits from the user's LP wallet of the pair.
func (s *Service) PrepareBurnLiquidity(ctx context.Context, user, first, second *address.Address, lpUnits *big.Int) (model.PreparedTransaction, error) {
	if user == nil || first == nil || second == nil {
		return model.PreparedTransaction{}, fmt.Errorf("user and both tokens are required")
	}
	if lpUnits == nil || lpUnits.Sign() <= 0 {
		return model.PreparedTransaction{}, fmt.Errorf("burn amount must be positive")
	}
	poolAddr, err := s.router.PoolAddress(ctx, first, second)
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	wallet, err := s.wallets.WalletAddress(ctx, poolAddr, user)
	if err != nil {
		return model.PreparedTransaction{}, fmt.Errorf("%w: %v", ErrLpWalletAddressNotFound, err)
	}
	msg, err := contract.LpWallet{Address: wallet}.BurnMessage(lpUnits, user, nil, s.queryID())
	if err != nil {
		return model.PreparedTransaction{}, err
	}
	return s.network.Prepare(s.now(), msg), nil
}

// ExpectedLiquidity reports what burning lpUnits of the pair returns, in
// pool order.
func (s *Service) ExpectedLiquidity(ctx context.Context, first, second *address.Address, lpUnits *big.Int) (model.ExpectedLiquidity, error) {
	if lpUnits == nil || lpUnits.Sign() < 0 {
		return model.ExpectedLiquidity{}, fmt.Errorf("lp amount must not be negative")
	}
	poolAddr, err := s.router.PoolAddress(ctx, first, second)
	if err != nil {
		return model.ExpectedLiquidity{}, err
	}
	return contract.NewPool(s.reader, poolAddr, s.lpAccounts).ExpectedLiquidity(ctx, lpUnits)
}

// PrepareProvide resolves the liquidity action for the user's LP account and
// builds the matching transaction: both legs for create_pool and provide, the
// missing leg for provide_second and provide_additional, and an activation
// for provide_direct.
func (s *Service) PrepareProvide(ctx context.Context, user *address.Address, req ProvideRequest) (model.PreparedTransaction, model.ProvideParams, error) {
	if user == nil {
		return model.PreparedTransaction{}, model.ProvideParams{}, fmt.Errorf("user address is required")
	}
	req.Account = user
	params, err := s.ProvideLiquidityParams(ctx, req)
	if err != nil {
		return model.PreparedTransaction{}, model.ProvideParams{}, err
	}

	lr := LiquidityRequest{
		User:        user,
		First:       req.First,
		Second:      req.Second,
		FirstUnits:  params.FirstTokenUnits,
		SecondUnits: params.SecondTokenUnits,
		MinLP:       params.MinExpectedLpUnits,
	}
	var tx model.PreparedTransaction
	switch amm.ProvideAction(params.Action) {
	case amm.ActionCreatePool:
		tx, err = s.PrepareCreatePool(ctx, lr)
	case amm.ActionProvide:
		tx, err = s.PrepareProvideLiquidity(ctx, lr)
	case amm.ActionProvideSecond, amm.ActionProvideAdditional:
		if params.SendTokenAddress != params.FirstTokenAddress {
			lr.First, lr.Second = req.Second, req.First
		}
		lr.FirstUnits, lr.SecondUnits = params.SendUnits, nil
		tx, err = s.PrepareSingleSideProvide(ctx, lr)
	case amm.ActionProvideDirect:
		tx, err = s.PrepareActivateLiquidity(ctx, lr)
	default:
		err = fmt.Errorf("unknown provide action %q", params.Action)
	}
	if err != nil {
		return model.PreparedTransaction{}, model.ProvideParams{}, err
	}
	return tx, params, nil
}
