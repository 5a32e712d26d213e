package model

import "math/big"

// Pool is the stored state of a DEX pool. Addresses are in raw "wc:hex" form.
type Pool struct {
	Address                    string   `json:"address"`
	Reserve0                   *big.Int `json:"reserve_0"`
	Reserve1                   *big.Int `json:"reserve_1"`
	Token0WalletAddress        string   `json:"token_0_wallet_address"`
	Token1WalletAddress        string   `json:"token_1_wallet_address"`
	Token0MinterAddress        string   `json:"token_0_minter_address"`
	Token1MinterAddress        string   `json:"token_1_minter_address"`
	LpFee                      uint64   `json:"lp_fee"`
	ProtocolFee                uint64   `json:"protocol_fee"`
	RefFee                     uint64   `json:"ref_fee"`
	ProtocolFeeAddress         string   `json:"protocol_fee_address"`
	CollectedToken0ProtocolFee *big.Int `json:"collected_token_0_protocol_fee"`
	CollectedToken1ProtocolFee *big.Int `json:"collected_token_1_protocol_fee"`
	TotalSupply                *big.Int `json:"total_supply"`
}

// PoolUpdate carries the mutable part of a pool refreshed by the indexer.
type PoolUpdate struct {
	Reserve0                   *big.Int
	Reserve1                   *big.Int
	LpFee                      uint64
	ProtocolFee                uint64
	RefFee                     uint64
	CollectedToken0ProtocolFee *big.Int
	CollectedToken1ProtocolFee *big.Int
	TotalSupply                *big.Int
}

// Apply copies the mutable fields onto p.
func (u PoolUpdate) Apply(p *Pool) {
	p.Reserve0 = u.Reserve0
	p.Reserve1 = u.Reserve1
	p.LpFee = u.LpFee
	p.ProtocolFee = u.ProtocolFee
	p.RefFee = u.RefFee
	p.CollectedToken0ProtocolFee = u.CollectedToken0ProtocolFee
	p.CollectedToken1ProtocolFee = u.CollectedToken1ProtocolFee
	p.TotalSupply = u.TotalSupply
}

// Update returns the mutable part of p.
func (p Pool) Update() PoolUpdate {
	return PoolUpdate{
		Reserve0:                   p.Reserve0,
		Reserve1:                   p.Reserve1,
		LpFee:                      p.LpFee,
		ProtocolFee:                p.ProtocolFee,
		RefFee:                     p.RefFee,
		CollectedToken0ProtocolFee: p.CollectedToken0ProtocolFee,
		CollectedToken1ProtocolFee: p.CollectedToken1ProtocolFee,
		TotalSupply:                p.TotalSupply,
	}
}
