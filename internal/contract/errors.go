package contract

import "errors"

var (
	ErrPoolAddressNotFound      = errors.New("pool address not found")
	ErrLpAccountAddressNotFound = errors.New("lp account address not found")
	ErrGetStakeData             = errors.New("invalid staking data")
)
