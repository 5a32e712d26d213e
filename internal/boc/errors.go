package boc

import (
	"fmt"

	"github.com/xssnick/tonutils-go/address"
)

// MalformedCellError reports a cell that could not be built or read as requested.
type MalformedCellError struct {
	Op  string
	Err error
}

func (e *MalformedCellError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed cell: %s", e.Op)
	}
	return fmt.Sprintf("malformed cell: %s: %v", e.Op, e.Err)
}

func (e *MalformedCellError) Unwrap() error {
	return e.Err
}

// UnsupportedAddressKindError reports an address that is not a standard internal address.
type UnsupportedAddressKindError struct {
	Kind address.AddrType
}

func (e *UnsupportedAddressKindError) Error() string {
	return fmt.Sprintf("unsupported address kind: %s", addrTypeName(e.Kind))
}

func addrTypeName(t address.AddrType) string {
	switch t {
	case address.NoneAddress:
		return "none"
	case address.ExtAddress:
		return "external"
	case address.StdAddress:
		return "std"
	case address.VarAddress:
		return "var"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

func malformed(op string, err error) error {
	return &MalformedCellError{Op: op, Err: err}
}
