package contract

import (
	"math/big"

	"github.com/xssnick/tonutils-go/address"

	"terminusdex/internal/amm"
)

// FeeBounds is the TON range a wallet should attach for an operation.
type FeeBounds struct {
	Min *big.Int
	Max *big.Int
}

func bounds(min, max int64) FeeBounds {
	return FeeBounds{Min: big.NewInt(min), Max: big.NewInt(max)}
}

// SwapFeeBounds depends on which side of the swap is TON.
func SwapFeeBounds(offer, ask *address.Address) FeeBounds {
	switch {
	case IsNative(offer):
		return bounds(GasSwapMin, GasSwapTonToJettonForward)
	case IsNative(ask):
		return bounds(GasSwapMin, GasSwapJettonToTon)
	default:
		return bounds(GasSwapMin, GasSwap)
	}
}

func ProvideFeeBounds(action amm.ProvideAction) FeeBounds {
	switch action {
	case amm.ActionCreatePool:
		return bounds(300_000_000, 3_000_000_000)
	case amm.ActionProvide:
		return bounds(300_000_000, 600_000_000)
	default:
		return bounds(150_000_000, 300_000_000)
	}
}
