package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// SwapQuote is the priced swap offered to a user. Addresses are user-friendly.
type SwapQuote struct {
	OfferAddress      string          `json:"offer_address"`
	AskAddress        string          `json:"ask_address"`
	OfferUnits        *big.Int        `json:"offer_units"`
	AskUnits          *big.Int        `json:"ask_units"`
	MinAskUnits       *big.Int        `json:"min_ask_units"`
	FeeAddress        string          `json:"fee_address"`
	FeeUnits          *big.Int        `json:"fee_units"`
	FeePercent        decimal.Decimal `json:"fee_percent"`
	PriceImpact       decimal.Decimal `json:"price_impact"`
	SwapRate          decimal.Decimal `json:"swap_rate"`
	SlippageTolerance decimal.Decimal `json:"slippage_tolerance"`
	PoolAddress       string          `json:"pool_address"`
	RouterAddress     string          `json:"router_address"`
	MinFee            *big.Int        `json:"min_fee"`
	MaxFee            *big.Int        `json:"max_fee"`
}

// ProvideParams is a resolved liquidity action with the amounts to use.
type ProvideParams struct {
	Action             string          `json:"action"`
	FirstTokenAddress  string          `json:"first_token_address"`
	SecondTokenAddress string          `json:"second_token_address"`
	FirstTokenUnits    *big.Int        `json:"first_token_units"`
	SecondTokenUnits   *big.Int        `json:"second_token_units"`
	FirstTokenBalance  *big.Int        `json:"first_token_balance,omitempty"`
	SecondTokenBalance *big.Int        `json:"second_token_balance,omitempty"`
	ExpectedLpUnits    *big.Int        `json:"expected_lp_units,omitempty"`
	MinExpectedLpUnits *big.Int        `json:"min_expected_lp_units,omitempty"`
	EstimatedShare     decimal.Decimal `json:"estimated_share_of_pool"`
	SendTokenAddress   string          `json:"send_token_address,omitempty"`
	SendUnits          *big.Int        `json:"send_units,omitempty"`
	PoolAddress        string          `json:"pool_address"`
	LpAccountAddress   string          `json:"lp_account_address,omitempty"`
	SlippageTolerance  decimal.Decimal `json:"slippage_tolerance"`
	FeeMin             *big.Int        `json:"fee_min"`
	FeeMax             *big.Int        `json:"fee_max"`
}

// ExpectedLiquidity is what burning an LP amount returns on each side.
type ExpectedLiquidity struct {
	Token0Units *big.Int `json:"token_0_units"`
	Token1Units *big.Int `json:"token_1_units"`
}
