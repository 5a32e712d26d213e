package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/chain"
)

type StakeState struct {
	IsActive bool
	Price    *big.Int
}

// Staking wraps a jetton staking contract.
type Staking struct {
	Address *address.Address
	reader  chain.Reader
}

func NewStaking(reader chain.Reader, addr *address.Address) *Staking {
	return &Staking{Address: addr, reader: reader}
}

// Data reads get_staking_data. The contract reports 0 in the first entry when active.
func (s *Staking) Data(ctx context.Context) (StakeState, error) {
	res, err := s.reader.RunGetMethod(ctx, s.Address, "get_staking_data")
	if err != nil {
		return StakeState{}, err
	}
	if err := res.Expect(2); err != nil {
		return StakeState{}, fmt.Errorf("%w: %v", ErrGetStakeData, err)
	}
	flag, err := res.Int(0)
	if err != nil {
		return StakeState{}, fmt.Errorf("%w: %v", ErrGetStakeData, err)
	}
	price, err := res.Int(1)
	if err != nil {
		return StakeState{}, fmt.Errorf("%w: %v", ErrGetStakeData, err)
	}
	return StakeState{IsActive: flag.Sign() == 0, Price: price}, nil
}

// JettonAmount returns how many out-asset jettons staking offer yields.
func (s *Staking) JettonAmount(ctx context.Context, offer *big.Int) (*big.Int, error) {
	res, err := s.reader.RunGetMethod(ctx, s.Address, "get_jetton_amount", offer)
	if err != nil {
		return nil, err
	}
	return res.Int(0)
}

// StakeMessage transfers amount of the in-asset from userWallet to the
// staking contract with the stake forward payload.
func (s *Staking) StakeMessage(userWallet, user *address.Address, amount *big.Int, queryID uint64) (Message, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Message{}, fmt.Errorf("stake amount must be positive")
	}
	payload, err := StakeBody(queryID)
	if err != nil {
		return Message{}, err
	}
	body, err := JettonTransfer{
		QueryID:        queryID,
		Amount:         amount,
		Destination:    s.Address,
		Response:       user,
		ForwardAmount:  big.NewInt(StakeForwardAmount),
		ForwardPayload: payload,
	}.Cell()
	if err != nil {
		return Message{}, err
	}
	return Message{To: userWallet, Amount: big.NewInt(GasStake), Body: body}, nil
}
