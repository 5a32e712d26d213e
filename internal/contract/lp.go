package contract

import (
	"context"
	"errors"
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/chain"
)

// LpAccountData holds the staged provide balances, in pool order.
type LpAccountData struct {
	Owner    *address.Address
	Pool     *address.Address
	Balance0 *big.Int
	Balance1 *big.Int
}

// LpAccount wraps the per-user staging contract of a pool.
type LpAccount struct {
	Address *address.Address
	reader  chain.Reader
}

func NewLpAccount(reader chain.Reader, addr *address.Address) *LpAccount {
	return &LpAccount{Address: addr, reader: reader}
}

// Data reads get_lp_account_data. ok is false when the account is not deployed.
func (a *LpAccount) Data(ctx context.Context) (LpAccountData, bool, error) {
	res, err := a.reader.RunGetMethod(ctx, a.Address, "get_lp_account_data")
	if err != nil {
		if errors.Is(err, chain.ErrGetMethodNotFound) {
			return LpAccountData{}, false, nil
		}
		return LpAccountData{}, false, err
	}
	if err := res.Expect(4); err != nil {
		return LpAccountData{}, false, err
	}
	owner, err := res.Address(0)
	if err != nil {
		return LpAccountData{}, false, err
	}
	pool, err := res.Address(1)
	if err != nil {
		return LpAccountData{}, false, err
	}
	b0, err := res.Int(2)
	if err != nil {
		return LpAccountData{}, false, err
	}
	b1, err := res.Int(3)
	if err != nil {
		return LpAccountData{}, false, err
	}
	return LpAccountData{Owner: owner, Pool: pool, Balance0: b0, Balance1: b1}, true, nil
}

// ActivateMessage mints LP from staged balances. Amounts are in pool order.
func (a *LpAccount) ActivateMessage(amount0, amount1, minLP, gas *big.Int, queryID uint64) (Message, error) {
	body, err := ActivateLiquidityBody(queryID, amount0, amount1, minLP)
	if err != nil {
		return Message{}, err
	}
	return Message{To: a.Address, Amount: orDefault(gas, GasDirectAddLp), Body: body}, nil
}

// RefundMessage returns the staged balances to the owner.
func (a *LpAccount) RefundMessage(gas *big.Int, queryID uint64) (Message, error) {
	body, err := RefundBody(queryID)
	if err != nil {
		return Message{}, err
	}
	return Message{To: a.Address, Amount: orDefault(gas, GasRefund), Body: body}, nil
}

// LpWallet is a user's LP jetton wallet.
type LpWallet struct {
	Address *address.Address
}

// BurnMessage burns LP jettons; the released tokens and excess go to response.
func (w LpWallet) BurnMessage(amount *big.Int, response *address.Address, gas *big.Int, queryID uint64) (Message, error) {
	body, err := BurnBody(queryID, amount, response)
	if err != nil {
		return Message{}, err
	}
	return Message{To: w.Address, Amount: orDefault(gas, GasBurn), Body: body}, nil
}
