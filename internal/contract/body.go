package contract

import (
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"terminusdex/internal/boc"
)

// SwapBody is the router payload of a swap. Referral is optional.
func SwapBody(askWallet *address.Address, minOut *big.Int, to, referral *address.Address) (*cell.Cell, error) {
	b := boc.BeginCell().
		StoreUint(uint64(OpSwap), 32).
		StoreAddress(askWallet).
		StoreCoins(minOut).
		StoreAddress(to)
	if referral != nil {
		b.StoreBit(true).StoreAddress(referral)
	} else {
		b.StoreBit(false)
	}
	return b.EndCell()
}

// ProvideLiquidityBody is the router payload of one provide leg. pairWallet
// is the router's jetton wallet of the other token.
func ProvideLiquidityBody(pairWallet *address.Address, minLP *big.Int) (*cell.Cell, error) {
	return boc.BeginCell().
		StoreUint(uint64(OpProvideLiquidity), 32).
		StoreAddress(pairWallet).
		StoreCoins(minLP).
		EndCell()
}

// ActivateLiquidityBody asks an LP account to mint from its staged balances.
func ActivateLiquidityBody(queryID uint64, amount0, amount1, minLP *big.Int) (*cell.Cell, error) {
	return boc.BeginCell().
		StoreUint(uint64(OpDirectAddLiquidity), 32).
		StoreUint(queryID, 64).
		StoreCoins(amount0).
		StoreCoins(amount1).
		StoreCoins(minLP).
		EndCell()
}

func RefundBody(queryID uint64) (*cell.Cell, error) {
	return boc.BeginCell().
		StoreUint(uint64(OpRefundMe), 32).
		StoreUint(queryID, 64).
		EndCell()
}

func BurnBody(queryID uint64, amount *big.Int, response *address.Address) (*cell.Cell, error) {
	return boc.BeginCell().
		StoreUint(uint64(OpBurn), 32).
		StoreUint(queryID, 64).
		StoreCoins(amount).
		StoreAddress(response).
		EndCell()
}

// StakeBody is the forward payload of a stake transfer.
func StakeBody(queryID uint64) (*cell.Cell, error) {
	return boc.BeginCell().
		StoreUint(uint64(OpStake), 32).
		StoreUint(queryID, 64).
		EndCell()
}

// JettonTransfer is the body sent to the sender's own jetton wallet.
type JettonTransfer struct {
	QueryID     uint64
	Amount      *big.Int
	Destination *address.Address
	// Response receives the excess gas; defaults to Destination.
	Response       *address.Address
	CustomPayload  *cell.Cell
	ForwardAmount  *big.Int
	ForwardPayload *cell.Cell
}

func (t JettonTransfer) Cell() (*cell.Cell, error) {
	response := t.Response
	if response == nil {
		response = t.Destination
	}
	return boc.BeginCell().
		StoreUint(uint64(OpJettonTransfer), 32).
		StoreUint(t.QueryID, 64).
		StoreCoins(t.Amount).
		StoreAddress(t.Destination).
		StoreAddress(response).
		StoreMaybeRef(t.CustomPayload).
		StoreCoins(t.ForwardAmount).
		StoreMaybeRef(t.ForwardPayload).
		EndCell()
}
