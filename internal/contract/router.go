package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
)

var nativeAddress = boc.MustParseAddress(NativeAddress)

// IsNative reports whether token is the TON placeholder address.
func IsNative(token *address.Address) bool {
	return boc.Equal(token, nativeAddress)
}

// Native returns the TON placeholder address.
func Native() *address.Address {
	return nativeAddress
}

// Router wraps the DEX router contract.
type Router struct {
	Address  *address.Address
	ProxyTon *address.Address

	reader  chain.Reader
	wallets *Wallets
	pools   *AddressCache
}

func NewRouter(reader chain.Reader, wallets *Wallets, routerAddr, proxyTon *address.Address) *Router {
	return &Router{
		Address:  routerAddr,
		ProxyTon: proxyTon,
		reader:   reader,
		wallets:  wallets,
		pools:    NewAddressCache(),
	}
}

// Minter maps the TON placeholder onto the proxy-TON minter.
func (r *Router) Minter(token *address.Address) *address.Address {
	if IsNative(token) {
		return r.ProxyTon
	}
	return token
}

// WalletOf returns the router's jetton wallet for token.
func (r *Router) WalletOf(ctx context.Context, token *address.Address) (*address.Address, error) {
	return r.wallets.WalletAddress(ctx, r.Minter(token), r.Address)
}

// PoolAddress resolves the pool of a token pair. The result is cached for
// both orders of the pair.
func (r *Router) PoolAddress(ctx context.Context, token0, token1 *address.Address) (*address.Address, error) {
	m0, m1 := r.Minter(token0), r.Minter(token1)
	key := boc.Key(m0) + "/" + boc.Key(m1)
	addr, err := r.pools.Load(ctx, key, func(ctx context.Context) (*address.Address, error) {
		w0, err := r.WalletOf(ctx, m0)
		if err != nil {
			return nil, err
		}
		w1, err := r.WalletOf(ctx, m1)
		if err != nil {
			return nil, err
		}
		res, err := r.reader.RunGetMethod(ctx, r.Address, "get_pool_address", w0, w1)
		if err != nil {
			if errors.Is(err, chain.ErrGetMethodNotFound) {
				return nil, fmt.Errorf("%w: %v", ErrPoolAddressNotFound, err)
			}
			return nil, err
		}
		pool, err := res.Address(0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPoolAddressNotFound, err)
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	r.pools.Set(boc.Key(m1)+"/"+boc.Key(m0), addr)
	return addr, nil
}

// SwapRequest describes a swap from the user's wallet. Zero Gas and
// ForwardGas select the defaults for the swap direction.
type SwapRequest struct {
	User        *address.Address
	Offer       *address.Address
	Ask         *address.Address
	OfferUnits  *big.Int
	MinAskUnits *big.Int
	Referral    *address.Address
	Response    *address.Address
	Gas         *big.Int
	ForwardGas  *big.Int
	QueryID     uint64
}

// SwapMessage builds the wallet message for a swap. A TON offer goes through
// the router's proxy-TON wallet and carries the offer in its value.
func (r *Router) SwapMessage(ctx context.Context, req SwapRequest) (Message, error) {
	if req.OfferUnits == nil || req.OfferUnits.Sign() <= 0 {
		return Message{}, fmt.Errorf("swap offer must be positive")
	}
	response := req.Response
	if response == nil {
		response = req.User
	}

	askWallet, err := r.WalletOf(ctx, req.Ask)
	if err != nil {
		return Message{}, fmt.Errorf("router ask wallet: %w", err)
	}
	swap, err := SwapBody(askWallet, req.MinAskUnits, req.User, req.Referral)
	if err != nil {
		return Message{}, err
	}

	var (
		target  *address.Address
		gas     *big.Int
		forward *big.Int
	)
	if IsNative(req.Offer) {
		forward = orDefault(req.ForwardGas, GasSwapTonToJettonForward)
		gas = new(big.Int).Add(forward, req.OfferUnits)
		target, err = r.WalletOf(ctx, req.Offer)
		if err != nil {
			return Message{}, fmt.Errorf("router proxy wallet: %w", err)
		}
	} else {
		toTon := IsNative(req.Ask)
		if toTon {
			gas = orDefault(req.Gas, GasSwapJettonToTon)
			forward = orDefault(req.ForwardGas, GasSwapJettonToTonForward)
		} else {
			gas = orDefault(req.Gas, GasSwap)
			forward = orDefault(req.ForwardGas, GasSwapForward)
		}
		target, err = r.wallets.WalletAddress(ctx, req.Offer, req.User)
		if err != nil {
			return Message{}, fmt.Errorf("user offer wallet: %w", err)
		}
	}

	body, err := JettonTransfer{
		QueryID:        req.QueryID,
		Amount:         req.OfferUnits,
		Destination:    r.Address,
		Response:       response,
		ForwardAmount:  forward,
		ForwardPayload: swap,
	}.Cell()
	if err != nil {
		return Message{}, err
	}
	return Message{To: target, Amount: gas, Body: body}, nil
}

// ProvideRequest describes one provide-liquidity leg: Send is transferred,
// Pair is the other token of the pool.
type ProvideRequest struct {
	User       *address.Address
	Send       *address.Address
	Pair       *address.Address
	Units      *big.Int
	MinLP      *big.Int
	Response   *address.Address
	Gas        *big.Int
	ForwardGas *big.Int
	QueryID    uint64
}

// ProvideMessage builds the wallet message of one provide leg.
func (r *Router) ProvideMessage(ctx context.Context, req ProvideRequest) (Message, error) {
	if req.Units == nil || req.Units.Sign() <= 0 {
		return Message{}, fmt.Errorf("provide amount must be positive")
	}
	response := req.Response
	if response == nil {
		response = req.User
	}

	pairWallet, err := r.WalletOf(ctx, req.Pair)
	if err != nil {
		return Message{}, fmt.Errorf("router pair wallet: %w", err)
	}
	provide, err := ProvideLiquidityBody(pairWallet, req.MinLP)
	if err != nil {
		return Message{}, err
	}

	var (
		target  *address.Address
		gas     *big.Int
		forward *big.Int
	)
	if IsNative(req.Send) {
		forward = orDefault(req.ForwardGas, GasProvideLpTonForward)
		gas = new(big.Int).Add(forward, req.Units)
		target, err = r.WalletOf(ctx, req.Send)
		if err != nil {
			return Message{}, fmt.Errorf("router proxy wallet: %w", err)
		}
	} else {
		gas = orDefault(req.Gas, GasProvideLp)
		forward = orDefault(req.ForwardGas, GasProvideLpJettonForward)
		target, err = r.wallets.WalletAddress(ctx, req.Send, req.User)
		if err != nil {
			return Message{}, fmt.Errorf("user jetton wallet: %w", err)
		}
	}

	body, err := JettonTransfer{
		QueryID:        req.QueryID,
		Amount:         req.Units,
		Destination:    r.Address,
		Response:       response,
		ForwardAmount:  forward,
		ForwardPayload: provide,
	}.Cell()
	if err != nil {
		return Message{}, err
	}
	return Message{To: target, Amount: gas, Body: body}, nil
}

func orDefault(v *big.Int, def int64) *big.Int {
	if v != nil && v.Sign() > 0 {
		return new(big.Int).Set(v)
	}
	return big.NewInt(def)
}
