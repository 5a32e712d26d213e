// Package staking serves the jetton staking contracts registered in storage.
package staking

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/contract"
	"terminusdex/internal/model"
)

var (
	ErrStakingContractNotFound = errors.New("staking contract not found")
	ErrStakingInactive         = errors.New("staking contract is not active")
	ErrOfferTooSmall           = errors.New("offer is below the contract minimum")
	ErrGetStakeData            = contract.ErrGetStakeData
)

// Registry is the part of storage the service reads.
type Registry interface {
	GetStakingContract(ctx context.Context, address string) (model.StakingContract, bool, error)
	ListStakingContracts(ctx context.Context) ([]model.StakingContract, error)
}

type Service struct {
	registry Registry
	reader   chain.Reader
	wallets  *contract.Wallets
	network  contract.Network
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(registry Registry, reader chain.Reader, testnet bool, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		reader:   reader,
		wallets:  contract.NewWallets(reader),
		network:  contract.Network{Testnet: testnet},
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Contracts lists every registered staking contract.
func (s *Service) Contracts(ctx context.Context) ([]model.StakingContract, error) {
	return s.registry.ListStakingContracts(ctx)
}

func (s *Service) lookup(ctx context.Context, addr *address.Address) (model.StakingContract, *contract.Staking, error) {
	rec, ok, err := s.registry.GetStakingContract(ctx, boc.Key(addr))
	if err != nil {
		return model.StakingContract{}, nil, fmt.Errorf("load staking contract: %w", err)
	}
	if !ok {
		return model.StakingContract{}, nil, fmt.Errorf("%w: %s", ErrStakingContractNotFound, boc.Key(addr))
	}
	return rec, contract.NewStaking(s.reader, addr), nil
}

// StakeData reads the live state of a registered contract.
func (s *Service) StakeData(ctx context.Context, addr *address.Address) (model.StakeData, error) {
	_, staking, err := s.lookup(ctx, addr)
	if err != nil {
		return model.StakeData{}, err
	}
	state, err := staking.Data(ctx)
	if err != nil {
		return model.StakeData{}, err
	}
	return model.StakeData{
		Address:  boc.FriendlyString(addr, true, s.network.Testnet),
		Price:    state.Price,
		IsActive: state.IsActive,
	}, nil
}

// ExpectedAmount returns the out-asset amount staking offer yields.
func (s *Service) ExpectedAmount(ctx context.Context, addr *address.Address, offer *big.Int) (*big.Int, error) {
	_, staking, err := s.lookup(ctx, addr)
	if err != nil {
		return nil, err
	}
	return staking.JettonAmount(ctx, offer)
}

// PrepareStake builds the in-asset transfer from the user's jetton wallet to
// the staking contract, paired with the amount the user should receive.
func (s *Service) PrepareStake(ctx context.Context, addr, user *address.Address, offer *big.Int) (model.PreparedStake, error) {
	if user == nil {
		return model.PreparedStake{}, fmt.Errorf("user address is required")
	}
	if offer == nil || offer.Sign() <= 0 {
		return model.PreparedStake{}, fmt.Errorf("stake amount must be positive")
	}
	rec, staking, err := s.lookup(ctx, addr)
	if err != nil {
		return model.PreparedStake{}, err
	}
	if !rec.IsActive {
		return model.PreparedStake{}, ErrStakingInactive
	}
	if rec.MinOfferAmount != nil && offer.Cmp(rec.MinOfferAmount) < 0 {
		return model.PreparedStake{}, fmt.Errorf("%w: %s < %s", ErrOfferTooSmall, offer, rec.MinOfferAmount)
	}

	expected, err := staking.JettonAmount(ctx, offer)
	if err != nil {
		return model.PreparedStake{}, fmt.Errorf("expected amount: %w", err)
	}
	inAsset, err := boc.ParseAddress(rec.InAssetAddress)
	if err != nil {
		return model.PreparedStake{}, fmt.Errorf("in asset address: %w", err)
	}
	wallet, err := s.wallets.WalletAddress(ctx, inAsset, user)
	if err != nil {
		return model.PreparedStake{}, fmt.Errorf("user jetton wallet: %w", err)
	}
	now := s.now()
	msg, err := staking.StakeMessage(wallet, user, offer, uint64(now.UnixNano()))
	if err != nil {
		return model.PreparedStake{}, err
	}

	s.logger.Debug("stake prepared",
		zap.String("contract", rec.Address),
		zap.String("offer", offer.String()),
		zap.String("expected", expected.String()),
	)
	return model.PreparedStake{
		Transaction:    s.network.Prepare(now, msg),
		ExpectedAmount: expected,
	}, nil
}
