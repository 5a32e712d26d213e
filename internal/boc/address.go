package boc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// ParseAddress accepts the user-friendly base64 / base64url form or the raw
// "wc:hex" form.
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("parse address: empty string")
	}
	if strings.Contains(s, ":") {
		addr, err := address.ParseRawAddr(s)
		if err != nil {
			return nil, fmt.Errorf("parse raw address %q: %w", s, err)
		}
		return addr, nil
	}
	addr, err := address.ParseAddr(s)
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", s, err)
	}
	return addr, nil
}

// MustParseAddress is ParseAddress for constants.
func MustParseAddress(s string) *address.Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Equal compares workchain and account hash, ignoring the presentation flags.
func Equal(a, b *address.Address) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Workchain() == b.Workchain() && bytes.Equal(a.Data(), b.Data())
}

// Key returns the canonical raw form, suitable as a map key.
func Key(addr *address.Address) string {
	if addr == nil {
		return ""
	}
	return fmt.Sprintf("%d:%x", addr.Workchain(), addr.Data())
}

// FriendlyString renders addr in user-friendly form with the requested flags.
// addr itself is left untouched.
func FriendlyString(addr *address.Address, bounceable, testnet bool) string {
	if addr == nil {
		return ""
	}
	data := make([]byte, len(addr.Data()))
	copy(data, addr.Data())
	out := address.NewAddress(0, byte(addr.Workchain()), data)
	out.SetBounce(bounceable)
	out.SetTestnetOnly(testnet)
	return out.String()
}
