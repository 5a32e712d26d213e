package model

import "math/big"

// PreparedMessage is one message of an unsigned wallet transaction.
// Address is user-friendly, Payload is a base64 BOC.
type PreparedMessage struct {
	Address string   `json:"address"`
	Amount  *big.Int `json:"amount"`
	Payload string   `json:"payload,omitempty"`
}

// PreparedTransaction is handed to an external wallet for signing.
type PreparedTransaction struct {
	ValidUntil int64             `json:"valid_until"`
	Network    int               `json:"network"`
	Messages   []PreparedMessage `json:"messages"`
}
