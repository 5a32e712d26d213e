package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// StakingContract describes a jetton staking contract registered in storage.
type StakingContract struct {
	Address         string          `json:"address"`
	InAssetAddress  string          `json:"in_asset_address"`
	OutAssetAddress string          `json:"out_asset_address"`
	APY             decimal.Decimal `json:"apy"`
	Fees            decimal.Decimal `json:"fees"`
	MinOfferAmount  *big.Int        `json:"min_offer_amount"`
	IsActive        bool            `json:"is_active"`
}

// StakeData is the live state reported by get_staking_data.
type StakeData struct {
	Address  string   `json:"address"`
	Price    *big.Int `json:"price"`
	IsActive bool     `json:"is_active"`
}

// PreparedStake pairs a stake transaction with the amount the user should receive.
type PreparedStake struct {
	Transaction    PreparedTransaction `json:"transaction"`
	ExpectedAmount *big.Int            `json:"expected_amount"`
}
