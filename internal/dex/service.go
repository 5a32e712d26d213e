// Package dex prices swaps and liquidity actions against live pool state and
// turns them into wallet transactions.
package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"terminusdex/internal/amm"
	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/contract"
)

var (
	ErrPoolAddressNotFound      = contract.ErrPoolAddressNotFound
	ErrLpAccountAddressNotFound = contract.ErrLpAccountAddressNotFound
	ErrLpWalletAddressNotFound  = errors.New("lp wallet address not found")
)

type Config struct {
	Router   *address.Address
	ProxyTon *address.Address
	Testnet  bool
}

type Service struct {
	reader     chain.Reader
	router     *contract.Router
	wallets    *contract.Wallets
	lpAccounts *contract.AddressCache
	network    contract.Network
	now        func() time.Time
	logger     *zap.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(reader chain.Reader, cfg Config, opts ...Option) (*Service, error) {
	if reader == nil {
		return nil, fmt.Errorf("chain reader is nil")
	}
	if cfg.Router == nil || cfg.ProxyTon == nil {
		return nil, fmt.Errorf("router and proxy ton addresses are required")
	}
	wallets := contract.NewWallets(reader)
	s := &Service{
		reader:     reader,
		router:     contract.NewRouter(reader, wallets, cfg.Router, cfg.ProxyTon),
		wallets:    wallets,
		lpAccounts: contract.NewAddressCache(),
		network:    contract.Network{Testnet: cfg.Testnet},
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) friendly(addr *address.Address) string {
	if addr == nil {
		return ""
	}
	return boc.FriendlyString(addr, true, s.network.Testnet)
}

func (s *Service) queryID() uint64 {
	return uint64(s.now().UnixNano())
}

// pool resolves the pool of a pair and reads its state.
func (s *Service) pool(ctx context.Context, a, b *address.Address) (*contract.Pool, amm.PoolSnapshot, error) {
	poolAddr, err := s.router.PoolAddress(ctx, a, b)
	if err != nil {
		return nil, amm.PoolSnapshot{}, err
	}
	pool := contract.NewPool(s.reader, poolAddr, s.lpAccounts)
	snap, err := pool.Data(ctx)
	if err != nil {
		return pool, amm.PoolSnapshot{}, err
	}
	return pool, snap, nil
}

// isToken0 reports whether token enters the pool on the reserve 0 side.
func (s *Service) isToken0(ctx context.Context, snap amm.PoolSnapshot, token *address.Address) (bool, error) {
	wallet, err := s.router.WalletOf(ctx, token)
	if err != nil {
		return false, fmt.Errorf("router wallet: %w", err)
	}
	side, err := snap.SideOf(wallet)
	if err != nil {
		return false, err
	}
	return side == amm.Side0, nil
}

// poolOrder maps (first, second) amounts onto (token0, token1).
func poolOrder(firstIs0 bool, first, second *big.Int) (*big.Int, *big.Int) {
	if firstIs0 {
		return first, second
	}
	return second, first
}
