package amm

import "errors"

var (
	ErrPoolNotFound       = errors.New("pool not found")
	ErrNotEnoughLiquidity = errors.New("not enough liquidity")
	ErrUnknownPoolSide    = errors.New("token wallet belongs to neither side of the pool")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidSlippage    = errors.New("slippage tolerance must be within [0, 100]")
)
