package amm

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// reversePadBase is the fixed inflation, in basis points, applied to a
// reverse quote before slippage.
const reversePadBase = 10_020

// SwapInput holds everything a quote needs. Units is the offer amount for a
// direct swap and the wanted ask amount for a reverse swap.
type SwapInput struct {
	Units       *big.Int
	ReserveIn   *big.Int
	ReserveOut  *big.Int
	LpFee       uint64
	ProtocolFee uint64
	RefFee      uint64
	HasReferral bool
	Slippage    decimal.Decimal
}

// Quote is the outcome of a swap computation in token units.
type Quote struct {
	OfferUnits       *big.Int
	AskUnits         *big.Int
	MinAskUnits      *big.Int
	ProtocolFeeUnits *big.Int
	RefFeeUnits      *big.Int
	FeePercent       decimal.Decimal
	PriceImpact      decimal.Decimal
	SwapRate         decimal.Decimal
}

// FeeUnits is the sum of protocol and referral fees taken from the output.
func (q Quote) FeeUnits() *big.Int {
	return new(big.Int).Add(q.ProtocolFeeUnits, q.RefFeeUnits)
}

func (in SwapInput) validate() error {
	if in.Units == nil || in.Units.Sign() < 0 {
		return ErrInvalidAmount
	}
	if in.ReserveIn == nil || in.ReserveOut == nil || in.ReserveIn.Sign() < 0 || in.ReserveOut.Sign() < 0 {
		return ErrInvalidAmount
	}
	if in.LpFee >= FeeDivider || in.outputFee() >= FeeDivider {
		return ErrInvalidAmount
	}
	return checkSlippage(in.Slippage)
}

func (in SwapInput) outputFee() uint64 {
	fee := in.ProtocolFee
	if in.HasReferral {
		fee += in.RefFee
	}
	return fee
}

type outAmount struct {
	ask      *big.Int
	protocol *big.Int
	ref      *big.Int
}

// amountOut runs the pool formula for offer units entering the pool.
// Protocol and referral fees are floored as one amount.
func (in SwapInput) amountOut(offer *big.Int) outAmount {
	if offer.Sign() == 0 {
		return outAmount{ask: new(big.Int), protocol: new(big.Int), ref: new(big.Int)}
	}
	amountIn := new(big.Int).Mul(offer, new(big.Int).SetUint64(FeeDivider-in.LpFee))
	den := new(big.Int).Mul(in.ReserveIn, bigDivider)
	den.Add(den, amountIn)
	base := mulDivFloor(amountIn, in.ReserveOut, den)

	fees := mulDivFloor(base, new(big.Int).SetUint64(in.outputFee()), bigDivider)
	protocol := mulDivFloor(base, new(big.Int).SetUint64(in.ProtocolFee), bigDivider)
	if protocol.Cmp(fees) > 0 {
		protocol.Set(fees)
	}
	ref := new(big.Int).Sub(fees, protocol)

	return outAmount{
		ask:      base.Sub(base, fees),
		protocol: protocol,
		ref:      ref,
	}
}

// PriceImpact returns amount / (reserve + amount) * 100.
func PriceImpact(amount, reserve *big.Int) decimal.Decimal {
	return percent(amount, new(big.Int).Add(reserve, amount))
}

// DirectSwap quotes the output for a known offer amount.
func DirectSwap(in SwapInput) (Quote, error) {
	if err := in.validate(); err != nil {
		return Quote{}, err
	}
	offer := cloneInt(in.Units)
	out := in.amountOut(offer)

	minAsk := new(big.Int)
	if out.ask.Sign() > 0 {
		minAsk = applySlippage(out.ask, in.Slippage)
	}

	return Quote{
		OfferUnits:       offer,
		AskUnits:         out.ask,
		MinAskUnits:      minAsk,
		ProtocolFeeUnits: out.protocol,
		RefFeeUnits:      out.ref,
		FeePercent:       percent(new(big.Int).Add(out.protocol, out.ref), out.ask),
		PriceImpact:      PriceImpact(offer, in.ReserveIn),
		SwapRate:         ratio(out.ask, offer),
	}, nil
}

// ReverseSwap quotes the offer needed to receive at least the requested ask
// amount. The exact inverse is padded by one unit and then inflated by
// (10020 + slippage*100) / 10000.
func ReverseSwap(in SwapInput) (Quote, error) {
	if err := in.validate(); err != nil {
		return Quote{}, err
	}
	ask := cloneInt(in.Units)
	if ask.Cmp(in.ReserveOut) >= 0 {
		return Quote{}, ErrNotEnoughLiquidity
	}
	if ask.Sign() == 0 {
		return Quote{
			OfferUnits:       new(big.Int),
			AskUnits:         new(big.Int),
			MinAskUnits:      new(big.Int),
			ProtocolFeeUnits: new(big.Int),
			RefFeeUnits:      new(big.Int),
		}, nil
	}

	offer, err := in.exactOffer(ask)
	if err != nil {
		return Quote{}, err
	}

	pad := new(big.Rat).Mul(in.Slippage.Rat(), big.NewRat(100, 1))
	pad.Add(pad, big.NewRat(reversePadBase, 1))
	pad.Quo(pad, big.NewRat(FeeDivider, 1))
	offer.Add(offer, bigOne)
	offer = floorRat(new(big.Rat).Mul(new(big.Rat).SetInt(offer), pad))

	out := in.amountOut(offer)

	return Quote{
		OfferUnits:       offer,
		AskUnits:         ask,
		MinAskUnits:      new(big.Int).Set(ask),
		ProtocolFeeUnits: out.protocol,
		RefFeeUnits:      out.ref,
		FeePercent:       percent(new(big.Int).Add(out.protocol, out.ref), ask),
		PriceImpact:      PriceImpact(offer, in.ReserveIn),
		SwapRate:         ratio(ask, offer),
	}, nil
}

// exactOffer returns the smallest offer whose forward quote reaches ask.
func (in SwapInput) exactOffer(ask *big.Int) (*big.Int, error) {
	keep := new(big.Int).SetUint64(FeeDivider - in.outputFee())
	base := mulDivCeil(ask, bigDivider, keep)
	if base.Cmp(in.ReserveOut) >= 0 {
		return nil, ErrNotEnoughLiquidity
	}

	num := new(big.Int).Mul(base, in.ReserveIn)
	num.Mul(num, bigDivider)
	amountIn := ceilDiv(num, new(big.Int).Sub(in.ReserveOut, base))

	return ceilDiv(amountIn, new(big.Int).SetUint64(FeeDivider-in.LpFee)), nil
}
