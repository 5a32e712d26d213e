package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"terminusdex/internal/amm"
	"terminusdex/internal/contract"
	"terminusdex/internal/model"
)

type SwapType string

const (
	SwapDirect  SwapType = "direct"
	SwapReverse SwapType = "reverse"
)

// SwapRequest asks for a quote. Units is the offer amount for a direct swap
// and the ask amount for a reverse one.
type SwapRequest struct {
	Offer    *address.Address
	Ask      *address.Address
	Referral *address.Address
	Units    *big.Int
	Slippage decimal.Decimal
	Type     SwapType
}

// SwapQuote prices a swap against the current pool reserves.
func (s *Service) SwapQuote(ctx context.Context, req SwapRequest) (model.SwapQuote, error) {
	if req.Offer == nil || req.Ask == nil {
		return model.SwapQuote{}, fmt.Errorf("offer and ask tokens are required")
	}
	pool, snap, err := s.pool(ctx, req.Offer, req.Ask)
	if err != nil {
		return model.SwapQuote{}, err
	}
	offerWallet, err := s.router.WalletOf(ctx, req.Offer)
	if err != nil {
		return model.SwapQuote{}, fmt.Errorf("router offer wallet: %w", err)
	}
	askWallet, err := s.router.WalletOf(ctx, req.Ask)
	if err != nil {
		return model.SwapQuote{}, fmt.Errorf("router ask wallet: %w", err)
	}
	in, err := snap.SwapInput(offerWallet, req.Units)
	if err != nil {
		return model.SwapQuote{}, err
	}
	offerSide, _ := snap.SideOf(offerWallet)
	if askSide, err := snap.SideOf(askWallet); err != nil || askSide == offerSide {
		return model.SwapQuote{}, amm.ErrUnknownPoolSide
	}
	in.HasReferral = req.Referral != nil
	in.Slippage = req.Slippage

	var q amm.Quote
	switch req.Type {
	case SwapDirect, "":
		q, err = amm.DirectSwap(in)
	case SwapReverse:
		q, err = amm.ReverseSwap(in)
	default:
		return model.SwapQuote{}, fmt.Errorf("unknown swap type %q", req.Type)
	}
	if err != nil {
		return model.SwapQuote{}, err
	}

	fees := contract.SwapFeeBounds(req.Offer, req.Ask)
	s.logger.Debug("swap quoted",
		zap.String("pool", pool.Address.String()),
		zap.String("type", string(req.Type)),
		zap.String("offer_units", q.OfferUnits.String()),
		zap.String("ask_units", q.AskUnits.String()),
	)
	return model.SwapQuote{
		OfferAddress:      s.friendly(req.Offer),
		AskAddress:        s.friendly(req.Ask),
		OfferUnits:        q.OfferUnits,
		AskUnits:          q.AskUnits,
		MinAskUnits:       q.MinAskUnits,
		FeeAddress:        s.friendly(req.Ask),
		FeeUnits:          q.FeeUnits(),
		FeePercent:        q.FeePercent,
		PriceImpact:       q.PriceImpact,
		SwapRate:          q.SwapRate,
		SlippageTolerance: req.Slippage,
		PoolAddress:       s.friendly(pool.Address),
		RouterAddress:     s.friendly(s.router.Address),
		MinFee:            fees.Min,
		MaxFee:            fees.Max,
	}, nil
}

// PrepareSwap quotes the swap and builds the transaction that executes it
// with the quoted minimum output.
func (s *Service) PrepareSwap(ctx context.Context, user *address.Address, req SwapRequest) (model.PreparedTransaction, model.SwapQuote, error) {
	if user == nil {
		return model.PreparedTransaction{}, model.SwapQuote{}, fmt.Errorf("user address is required")
	}
	quote, err := s.SwapQuote(ctx, req)
	if err != nil {
		return model.PreparedTransaction{}, model.SwapQuote{}, err
	}
	if quote.OfferUnits.Sign() == 0 {
		return model.PreparedTransaction{}, model.SwapQuote{}, amm.ErrInvalidAmount
	}

	msg, err := s.router.SwapMessage(ctx, contract.SwapRequest{
		User:        user,
		Offer:       req.Offer,
		Ask:         req.Ask,
		OfferUnits:  quote.OfferUnits,
		MinAskUnits: quote.MinAskUnits,
		Referral:    req.Referral,
		QueryID:     s.queryID(),
	})
	if err != nil {
		return model.PreparedTransaction{}, model.SwapQuote{}, err
	}
	return s.network.Prepare(s.now(), msg), quote, nil
}
