package contract

import "time"

// Operation codes.
const (
	OpJettonTransfer       uint32 = 0x0f8a7ea5
	OpTransferNotification uint32 = 0x7362d09c
	OpExcesses             uint32 = 0xd53276db
	OpStake                uint32 = 0x402eff0b
	OpSwap                 uint32 = 0x25938561
	OpProvideLiquidity     uint32 = 0xfcf9e58f
	OpDirectAddLiquidity   uint32 = 0x4cf82803
	OpRefundMe             uint32 = 0x0bf3f447
	OpBurn                 uint32 = 0x595f07bc
	OpPayTo                uint32 = 0xf93bb43f
)

// Default gas and forward amounts in nanoton.
const (
	GasSwap                   = 220_000_000
	GasSwapJettonToTon        = 170_000_000
	GasSwapMin                = 65_000_000
	GasSwapForward            = 175_000_000
	GasSwapTonToJettonForward = 185_000_000
	GasSwapJettonToTonForward = 125_000_000
	GasProvideLp              = 300_000_000
	GasProvideLpTonForward    = 265_000_000
	GasProvideLpJettonForward = 240_000_000
	GasBurn                   = 500_000_000
	GasDirectAddLp            = 300_000_000
	GasRefund                 = 300_000_000
	GasStake                  = 50_000_000
	GasPoolDeploy             = 500_000_000
	StakeForwardAmount        = 100
)

// TransactionLifetime bounds how long a prepared transaction stays valid.
const TransactionLifetime = 5 * time.Minute

// NativeAddress is the placeholder address that stands for TON itself.
const NativeAddress = "EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9c"

// Network identifiers used by wallets.
const (
	MainnetID = -239
	TestnetID = -3
)
