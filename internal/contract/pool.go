package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/amm"
	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/model"
)

// Pool wraps a DEX pool contract. The pool is also the LP jetton minter.
type Pool struct {
	Address *address.Address

	reader     chain.Reader
	lpAccounts *AddressCache
}

// NewPool binds a pool. lpAccounts may be shared between pools; a nil cache
// gets a private one.
func NewPool(reader chain.Reader, addr *address.Address, lpAccounts *AddressCache) *Pool {
	if lpAccounts == nil {
		lpAccounts = NewAddressCache()
	}
	return &Pool{Address: addr, reader: reader, lpAccounts: lpAccounts}
}

// Data reads get_pool_data. An undeployed pool yields amm.ErrPoolNotFound.
func (p *Pool) Data(ctx context.Context) (amm.PoolSnapshot, error) {
	res, err := p.reader.RunGetMethod(ctx, p.Address, "get_pool_data")
	if err != nil {
		if errors.Is(err, chain.ErrGetMethodNotFound) {
			return amm.PoolSnapshot{}, fmt.Errorf("%w: %v", amm.ErrPoolNotFound, err)
		}
		return amm.PoolSnapshot{}, err
	}
	if err := res.Expect(10); err != nil {
		return amm.PoolSnapshot{}, err
	}

	snap := amm.PoolSnapshot{Address: p.Address}
	ints := []struct {
		idx int
		dst **big.Int
	}{
		{0, &snap.Reserve0},
		{1, &snap.Reserve1},
		{8, &snap.CollectedToken0ProtocolFee},
		{9, &snap.CollectedToken1ProtocolFee},
	}
	for _, f := range ints {
		if *f.dst, err = res.Int(f.idx); err != nil {
			return amm.PoolSnapshot{}, err
		}
	}
	fees := []struct {
		idx int
		dst *uint64
	}{
		{4, &snap.LpFee},
		{5, &snap.ProtocolFee},
		{6, &snap.RefFee},
	}
	for _, f := range fees {
		if *f.dst, err = res.Uint64(f.idx); err != nil {
			return amm.PoolSnapshot{}, err
		}
	}
	if snap.Token0Wallet, err = res.Address(2); err != nil {
		return amm.PoolSnapshot{}, err
	}
	if snap.Token1Wallet, err = res.Address(3); err != nil {
		return amm.PoolSnapshot{}, err
	}
	if snap.ProtocolFeeAddress, err = res.Address(7); err != nil {
		return amm.PoolSnapshot{}, err
	}
	return snap, nil
}

// JettonData reads the LP jetton state of the pool.
func (p *Pool) JettonData(ctx context.Context) (JettonData, error) {
	return NewJettonMinter(p.reader, p.Address).Data(ctx)
}

// ExpectedTokens returns the LP amount minted for the given side amounts,
// in pool order.
func (p *Pool) ExpectedTokens(ctx context.Context, amount0, amount1 *big.Int) (*big.Int, error) {
	res, err := p.reader.RunGetMethod(ctx, p.Address, "get_expected_tokens", amount0, amount1)
	if err != nil {
		if errors.Is(err, chain.ErrGetMethodNotFound) {
			return nil, fmt.Errorf("%w: %v", amm.ErrPoolNotFound, err)
		}
		return nil, err
	}
	return res.Int(0)
}

// ExpectedLiquidity returns what burning lpAmount pays on each side.
func (p *Pool) ExpectedLiquidity(ctx context.Context, lpAmount *big.Int) (model.ExpectedLiquidity, error) {
	res, err := p.reader.RunGetMethod(ctx, p.Address, "get_expected_liquidity", lpAmount)
	if err != nil {
		if errors.Is(err, chain.ErrGetMethodNotFound) {
			return model.ExpectedLiquidity{}, fmt.Errorf("%w: %v", amm.ErrPoolNotFound, err)
		}
		return model.ExpectedLiquidity{}, err
	}
	a0, err := res.Int(0)
	if err != nil {
		return model.ExpectedLiquidity{}, err
	}
	a1, err := res.Int(1)
	if err != nil {
		return model.ExpectedLiquidity{}, err
	}
	return model.ExpectedLiquidity{Token0Units: a0, Token1Units: a1}, nil
}

// LpAccountAddress resolves the LP account of owner in this pool.
func (p *Pool) LpAccountAddress(ctx context.Context, owner *address.Address) (*address.Address, error) {
	key := boc.Key(p.Address) + "/" + boc.Key(owner)
	return p.lpAccounts.Load(ctx, key, func(ctx context.Context) (*address.Address, error) {
		res, err := p.reader.RunGetMethod(ctx, p.Address, "get_lp_account_address", owner)
		if err != nil {
			if errors.Is(err, chain.ErrGetMethodNotFound) {
				return nil, fmt.Errorf("%w: %v", ErrLpAccountAddressNotFound, err)
			}
			return nil, err
		}
		addr, err := res.Address(0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLpAccountAddressNotFound, err)
		}
		return addr, nil
	})
}
