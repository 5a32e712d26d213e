package amm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FeeDivider is the basis-point denominator used by pool fees.
const FeeDivider = 10_000

// ratioPrecision is the number of decimal places kept for rates and percentages.
const ratioPrecision = 18

var (
	bigOne     = big.NewInt(1)
	bigHundred = big.NewInt(100)
	bigDivider = big.NewInt(FeeDivider)
)

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

// mulDivFloor returns floor(a*b/c) for non-negative operands.
func mulDivFloor(a, b, c *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	return n.Quo(n, c)
}

// mulDivCeil returns ceil(a*b/c) for non-negative operands.
func mulDivCeil(a, b, c *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	return ceilDiv(n, c)
}

func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, bigOne)
	}
	return q
}

// floorRat returns floor(r) for a non-negative rational.
func floorRat(r *big.Rat) *big.Int {
	return new(big.Int).Quo(r.Num(), r.Denom())
}

// ratio returns num/den as a decimal, or zero when den is zero.
func ratio(num, den *big.Int) decimal.Decimal {
	if den == nil || den.Sign() == 0 {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(den, 0), ratioPrecision)
}

// percent returns num/den*100 as a decimal, or zero when den is zero.
func percent(num, den *big.Int) decimal.Decimal {
	if den == nil || den.Sign() == 0 {
		return decimal.Zero
	}
	scaled := new(big.Int).Mul(num, bigHundred)
	return decimal.NewFromBigInt(scaled, 0).DivRound(decimal.NewFromBigInt(den, 0), ratioPrecision)
}

func checkSlippage(slippage decimal.Decimal) error {
	if slippage.IsNegative() || slippage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidSlippage
	}
	return nil
}

// applySlippage returns floor(amount * (100 - slippage) / 100).
func applySlippage(amount *big.Int, slippage decimal.Decimal) *big.Int {
	keep := new(big.Rat).Sub(big.NewRat(100, 1), slippage.Rat())
	keep.Quo(keep, big.NewRat(100, 1))
	return floorRat(new(big.Rat).Mul(new(big.Rat).SetInt(amount), keep))
}
