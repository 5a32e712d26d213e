package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"terminusdex/internal/amm"
	"terminusdex/internal/contract"
	"terminusdex/internal/model"
)

// ProvideRequest asks which liquidity action fits a pair. Account is
// optional; without it staged LP account balances are not considered.
type ProvideRequest struct {
	First       *address.Address
	Second      *address.Address
	FirstUnits  *big.Int
	SecondUnits *big.Int
	FirstIsBase bool
	Slippage    decimal.Decimal
	Account     *address.Address
}

// ProvideLiquidityParams resolves the liquidity action for a pair together
// with the amounts, the expected LP output and the fee bounds.
func (s *Service) ProvideLiquidityParams(ctx context.Context, req ProvideRequest) (model.ProvideParams, error) {
	if req.First == nil || req.Second == nil {
		return model.ProvideParams{}, fmt.Errorf("both tokens are required")
	}
	pool, snap, err := s.pool(ctx, req.First, req.Second)
	if errors.Is(err, amm.ErrPoolNotFound) {
		return s.createPoolParams(pool, req)
	}
	if err != nil {
		return model.ProvideParams{}, err
	}

	firstIs0, err := s.isToken0(ctx, snap, req.First)
	if err != nil {
		return model.ProvideParams{}, err
	}

	var (
		lpAccount  *address.Address
		bal0, bal1 = new(big.Int), new(big.Int)
	)
	if req.Account != nil {
		lpAccount, err = pool.LpAccountAddress(ctx, req.Account)
		if err != nil {
			return model.ProvideParams{}, err
		}
		data, ok, err := contract.NewLpAccount(s.reader, lpAccount).Data(ctx)
		if err != nil {
			return model.ProvideParams{}, fmt.Errorf("lp account data: %w", err)
		}
		if ok {
			bal0, bal1 = data.Balance0, data.Balance1
		}
	}

	r1, r2 := poolOrder(firstIs0, snap.Reserve0, snap.Reserve1)
	b1, b2 := poolOrder(firstIs0, bal0, bal1)
	intent, err := amm.ResolveProvide(amm.ProvideInput{
		FirstUnits:    req.FirstUnits,
		SecondUnits:   req.SecondUnits,
		FirstReserve:  r1,
		SecondReserve: r2,
		FirstBalance:  b1,
		SecondBalance: b2,
		FirstIsBase:   req.FirstIsBase,
		Slippage:      req.Slippage,
	})
	if err != nil {
		return model.ProvideParams{}, err
	}

	a0, a1 := poolOrder(firstIs0, intent.FirstUnits, intent.SecondUnits)
	expected, err := pool.ExpectedTokens(ctx, a0, a1)
	if err != nil {
		return model.ProvideParams{}, fmt.Errorf("expected lp tokens: %w", err)
	}
	minLP, err := amm.MinExpectedLP(expected, req.Slippage)
	if err != nil {
		return model.ProvideParams{}, err
	}

	fees := contract.ProvideFeeBounds(intent.Action)
	params := model.ProvideParams{
		Action:             string(intent.Action),
		FirstTokenAddress:  s.friendly(req.First),
		SecondTokenAddress: s.friendly(req.Second),
		FirstTokenUnits:    intent.FirstUnits,
		SecondTokenUnits:   intent.SecondUnits,
		ExpectedLpUnits:    expected,
		MinExpectedLpUnits: minLP,
		EstimatedShare:     intent.EstimatedShare,
		PoolAddress:        s.friendly(pool.Address),
		LpAccountAddress:   s.friendly(lpAccount),
		SlippageTolerance:  req.Slippage,
		FeeMin:             fees.Min,
		FeeMax:             fees.Max,
	}
	if intent.Action != amm.ActionProvide {
		params.FirstTokenBalance = intent.FirstBalance
		params.SecondTokenBalance = intent.SecondBalance
	}
	switch intent.Send {
	case amm.SendFirst:
		params.SendTokenAddress = params.FirstTokenAddress
		params.SendUnits = intent.SendUnits
	case amm.SendSecond:
		params.SendTokenAddress = params.SecondTokenAddress
		params.SendUnits = intent.SendUnits
	}

	s.logger.Debug("provide resolved",
		zap.String("pool", pool.Address.String()),
		zap.String("action", params.Action),
		zap.Stringer("send", intent.Send),
	)
	return params, nil
}

func (s *Service) createPoolParams(pool *contract.Pool, req ProvideRequest) (model.ProvideParams, error) {
	intent, err := amm.CreatePool(req.FirstUnits, req.SecondUnits)
	if err != nil {
		return model.ProvideParams{}, err
	}
	fees := contract.ProvideFeeBounds(amm.ActionCreatePool)
	return model.ProvideParams{
		Action:             string(amm.ActionCreatePool),
		FirstTokenAddress:  s.friendly(req.First),
		SecondTokenAddress: s.friendly(req.Second),
		FirstTokenUnits:    intent.FirstUnits,
		SecondTokenUnits:   intent.SecondUnits,
		EstimatedShare:     intent.EstimatedShare,
		PoolAddress:        s.friendly(pool.Address),
		SlippageTolerance:  req.Slippage,
		FeeMin:             fees.Min,
		FeeMax:             fees.Max,
	}, nil
}
