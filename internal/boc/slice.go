package boc

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Slice reads fields from a cell in the order they were written.
type Slice struct {
	s *cell.Slice
}

// Parse starts reading c from its first bit.
func Parse(c *cell.Cell) (*Slice, error) {
	if c == nil {
		return nil, malformed("parse", fmt.Errorf("nil cell"))
	}
	return &Slice{s: c.BeginParse()}, nil
}

// FromSlice wraps a slice returned by a get-method.
func FromSlice(s *cell.Slice) *Slice {
	return &Slice{s: s}
}

func (s *Slice) BitsLeft() uint {
	return s.s.BitsLeft()
}

func (s *Slice) RefsLeft() int {
	return s.s.RefsNum()
}

func (s *Slice) ensureBits(op string, n uint) error {
	if left := s.s.BitsLeft(); left < n {
		return malformed(op, fmt.Errorf("need %d bits, %d left", n, left))
	}
	return nil
}

// SkipBits discards n bits.
func (s *Slice) SkipBits(n uint) error {
	if n == 0 {
		return nil
	}
	if err := s.ensureBits("skip bits", n); err != nil {
		return err
	}
	if _, err := s.s.LoadSlice(n); err != nil {
		return malformed("skip bits", err)
	}
	return nil
}

func (s *Slice) LoadUint(bits uint) (uint64, error) {
	if err := s.ensureBits("load uint", bits); err != nil {
		return 0, err
	}
	v, err := s.s.LoadUInt(bits)
	if err != nil {
		return 0, malformed("load uint", err)
	}
	return v, nil
}

func (s *Slice) LoadBigUint(bits uint) (*big.Int, error) {
	if err := s.ensureBits("load big uint", bits); err != nil {
		return nil, err
	}
	v, err := s.s.LoadBigUInt(bits)
	if err != nil {
		return nil, malformed("load big uint", err)
	}
	return v, nil
}

func (s *Slice) LoadBit() (bool, error) {
	if err := s.ensureBits("load bit", 1); err != nil {
		return false, err
	}
	v, err := s.s.LoadBoolBit()
	if err != nil {
		return false, malformed("load bit", err)
	}
	return v, nil
}

// LoadBytes reads n whole bytes.
func (s *Slice) LoadBytes(n uint) ([]byte, error) {
	if err := s.ensureBits("load bytes", n*8); err != nil {
		return nil, err
	}
	data, err := s.s.LoadSlice(n * 8)
	if err != nil {
		return nil, malformed("load bytes", err)
	}
	return data, nil
}

func (s *Slice) LoadCoins() (*big.Int, error) {
	v, err := s.s.LoadBigCoins()
	if err != nil {
		return nil, malformed("load coins", err)
	}
	return v, nil
}

func (s *Slice) LoadRef() (*cell.Cell, error) {
	if s.s.RefsNum() == 0 {
		return nil, malformed("load ref", fmt.Errorf("no refs left"))
	}
	ref, err := s.s.LoadRefCell()
	if err != nil {
		return nil, malformed("load ref", err)
	}
	return ref, nil
}

// LoadMaybeRef reads the presence bit and the reference it announces, if any.
func (s *Slice) LoadMaybeRef() (*cell.Cell, error) {
	present, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return s.LoadRef()
}

// LoadAddress reads a message address. addr_none yields nil; external and
// var addresses are rejected.
func (s *Slice) LoadAddress() (*address.Address, error) {
	addr, err := s.s.LoadAddr()
	if err != nil {
		return nil, malformed("load address", err)
	}
	switch addr.Type() {
	case address.StdAddress:
		return addr, nil
	case address.NoneAddress:
		return nil, nil
	default:
		return nil, &UnsupportedAddressKindError{Kind: addr.Type()}
	}
}

// Remaining returns the unread part as a standalone cell.
func (s *Slice) Remaining() (*cell.Cell, error) {
	c, err := s.s.ToCell()
	if err != nil {
		return nil, malformed("to cell", err)
	}
	return c, nil
}
