package amm

import (
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/boc"
)

// PoolSnapshot is the state returned by a pool's get_pool_data.
type PoolSnapshot struct {
	Address                    *address.Address
	Reserve0                   *big.Int
	Reserve1                   *big.Int
	Token0Wallet               *address.Address
	Token1Wallet               *address.Address
	LpFee                      uint64
	ProtocolFee                uint64
	RefFee                     uint64
	ProtocolFeeAddress         *address.Address
	CollectedToken0ProtocolFee *big.Int
	CollectedToken1ProtocolFee *big.Int
}

// Side identifies one of the two pool reserves.
type Side int

const (
	Side0 Side = iota
	Side1
)

// SideOf reports which reserve the given router jetton wallet feeds.
func (p PoolSnapshot) SideOf(routerWallet *address.Address) (Side, error) {
	switch {
	case boc.Equal(routerWallet, p.Token0Wallet):
		return Side0, nil
	case boc.Equal(routerWallet, p.Token1Wallet):
		return Side1, nil
	default:
		return 0, ErrUnknownPoolSide
	}
}

// Orient returns the reserves as (in, out) for a token entering the pool
// through routerWallet.
func (p PoolSnapshot) Orient(routerWallet *address.Address) (*big.Int, *big.Int, error) {
	side, err := p.SideOf(routerWallet)
	if err != nil {
		return nil, nil, err
	}
	if side == Side0 {
		return cloneInt(p.Reserve0), cloneInt(p.Reserve1), nil
	}
	return cloneInt(p.Reserve1), cloneInt(p.Reserve0), nil
}

// SwapInput builds the quote input for a swap entering through offerWallet.
func (p PoolSnapshot) SwapInput(offerWallet *address.Address, units *big.Int) (SwapInput, error) {
	in, out, err := p.Orient(offerWallet)
	if err != nil {
		return SwapInput{}, err
	}
	return SwapInput{
		Units:       units,
		ReserveIn:   in,
		ReserveOut:  out,
		LpFee:       p.LpFee,
		ProtocolFee: p.ProtocolFee,
		RefFee:      p.RefFee,
	}, nil
}
