package amm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BootstrapUnits is the amount the smaller side of a new pool is scaled to.
const BootstrapUnits = 1001

type ProvideAction string

const (
	ActionCreatePool        ProvideAction = "create_pool"
	ActionProvide           ProvideAction = "provide"
	ActionProvideSecond     ProvideAction = "provide_second"
	ActionProvideAdditional ProvideAction = "provide_additional"
	ActionProvideDirect     ProvideAction = "provide_direct"
)

// SendSide tells which token still has to be transferred to the router.
type SendSide int

const (
	SendNone SendSide = iota
	SendFirst
	SendSecond
)

func (s SendSide) String() string {
	switch s {
	case SendFirst:
		return "first"
	case SendSecond:
		return "second"
	default:
		return "none"
	}
}

// ProvideInput is oriented by the caller: "first" and "second" refer to the
// tokens in the order the user named them, reserves and staged balances
// already mapped onto that order.
type ProvideInput struct {
	FirstUnits    *big.Int
	SecondUnits   *big.Int
	FirstReserve  *big.Int
	SecondReserve *big.Int
	FirstBalance  *big.Int
	SecondBalance *big.Int
	FirstIsBase   bool
	Slippage      decimal.Decimal
}

// ProvideIntent is the resolved liquidity action with the amounts that go with it.
type ProvideIntent struct {
	Action         ProvideAction
	FirstUnits     *big.Int
	SecondUnits    *big.Int
	FirstBalance   *big.Int
	SecondBalance  *big.Int
	Send           SendSide
	SendUnits      *big.Int
	EstimatedShare decimal.Decimal
}

// ResolveProvide picks the liquidity action for an existing pool:
//
//	no staged balances         -> provide
//	exactly one staged balance -> provide_second
//	ratio drift > slippage     -> provide_additional
//	otherwise                  -> provide_direct
func ResolveProvide(in ProvideInput) (ProvideIntent, error) {
	if err := checkSlippage(in.Slippage); err != nil {
		return ProvideIntent{}, err
	}
	if !isPositive(in.FirstReserve) || !isPositive(in.SecondReserve) {
		return ProvideIntent{}, ErrNotEnoughLiquidity
	}
	b1, b2 := cloneInt(in.FirstBalance), cloneInt(in.SecondBalance)
	if b1.Sign() < 0 || b2.Sign() < 0 {
		return ProvideIntent{}, ErrInvalidAmount
	}
	r1, r2 := in.FirstReserve, in.SecondReserve

	intent := ProvideIntent{
		FirstBalance:  b1,
		SecondBalance: b2,
		SendUnits:     new(big.Int),
	}

	switch {
	case b1.Sign() == 0 && b2.Sign() == 0:
		first, second, err := matchAmounts(in)
		if err != nil {
			return ProvideIntent{}, err
		}
		intent.Action = ActionProvide
		intent.FirstUnits, intent.SecondUnits = first, second

	case b1.Sign() == 0 || b2.Sign() == 0:
		intent.Action = ActionProvideSecond
		if b1.Sign() > 0 {
			intent.FirstUnits = cloneInt(b1)
			intent.SecondUnits = mulDivFloor(b1, r2, r1)
			intent.Send = SendSecond
			intent.SendUnits = cloneInt(intent.SecondUnits)
		} else {
			intent.SecondUnits = cloneInt(b2)
			intent.FirstUnits = mulDivFloor(b2, r1, r2)
			intent.Send = SendFirst
			intent.SendUnits = cloneInt(intent.FirstUnits)
		}

	default:
		staged := new(big.Rat).SetFrac(b1, b2)
		current := new(big.Rat).SetFrac(r1, r2)
		if ratioDrift(staged, current).Cmp(in.Slippage.Rat()) > 0 {
			intent.Action = ActionProvideAdditional
			if current.Cmp(staged) > 0 {
				intent.FirstUnits = mulDivFloor(b2, r1, r2)
				intent.SecondUnits = cloneInt(b2)
				intent.Send = SendFirst
				intent.SendUnits = new(big.Int).Sub(intent.FirstUnits, b1)
			} else {
				intent.FirstUnits = cloneInt(b1)
				intent.SecondUnits = mulDivFloor(b1, r2, r1)
				intent.Send = SendSecond
				intent.SendUnits = new(big.Int).Sub(intent.SecondUnits, b2)
			}
		}
		// A top-up that floors to zero cannot be sent; activate what is staged.
		if intent.Action != ActionProvideAdditional || intent.SendUnits.Sign() <= 0 {
			intent.Action = ActionProvideDirect
			intent.FirstUnits = cloneInt(b1)
			intent.SecondUnits = cloneInt(b2)
			intent.Send = SendNone
			intent.SendUnits = new(big.Int)
		}
	}

	intent.EstimatedShare = EstimatedShare(intent.FirstUnits, r1)
	return intent, nil
}

// matchAmounts derives the counter amount from the base side at the current reserve ratio.
func matchAmounts(in ProvideInput) (*big.Int, *big.Int, error) {
	if in.FirstIsBase {
		if in.FirstUnits == nil || in.FirstUnits.Sign() < 0 {
			return nil, nil, ErrInvalidAmount
		}
		return cloneInt(in.FirstUnits), mulDivFloor(in.FirstUnits, in.SecondReserve, in.FirstReserve), nil
	}
	if in.SecondUnits == nil || in.SecondUnits.Sign() < 0 {
		return nil, nil, ErrInvalidAmount
	}
	return mulDivFloor(in.SecondUnits, in.FirstReserve, in.SecondReserve), cloneInt(in.SecondUnits), nil
}

// ratioDrift returns 100 * (1 - min(a, b) / max(a, b)).
func ratioDrift(a, b *big.Rat) *big.Rat {
	lo, hi := a, b
	if lo.Cmp(hi) > 0 {
		lo, hi = hi, lo
	}
	d := new(big.Rat).Quo(lo, hi)
	d.Sub(big.NewRat(1, 1), d)
	return d.Mul(d, big.NewRat(100, 1))
}

// EstimatedShare is the percentage of the pool the provided first-side
// amount represents, rounded to two decimal places.
func EstimatedShare(units, reserve *big.Int) decimal.Decimal {
	if units == nil || units.Sign() <= 0 {
		return decimal.Zero
	}
	return percent(units, new(big.Int).Add(reserve, units)).Round(2)
}

// CreatePool scales the requested amounts so the smaller side equals
// BootstrapUnits while keeping their ratio.
func CreatePool(first, second *big.Int) (ProvideIntent, error) {
	if !isPositive(first) || !isPositive(second) {
		return ProvideIntent{}, ErrInvalidAmount
	}
	floor := big.NewInt(BootstrapUnits)
	intent := ProvideIntent{
		Action:         ActionCreatePool,
		SendUnits:      new(big.Int),
		EstimatedShare: decimal.NewFromInt(100),
	}
	if first.Cmp(second) < 0 {
		intent.FirstUnits = new(big.Int).Set(floor)
		intent.SecondUnits = mulDivFloor(second, floor, first)
	} else {
		intent.FirstUnits = mulDivFloor(first, floor, second)
		intent.SecondUnits = new(big.Int).Set(floor)
	}
	return intent, nil
}

// MinExpectedLP applies slippage to the expected LP amount.
func MinExpectedLP(expected *big.Int, slippage decimal.Decimal) (*big.Int, error) {
	if expected == nil || expected.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if err := checkSlippage(slippage); err != nil {
		return nil, err
	}
	return applySlippage(expected, slippage), nil
}
