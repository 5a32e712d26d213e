package boc

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Builder appends fields to a cell. The first failing store is kept and
// returned by EndCell; later stores are ignored.
type Builder struct {
	b   *cell.Builder
	err error
}

// BeginCell starts an empty cell.
func BeginCell() *Builder {
	return &Builder{b: cell.BeginCell()}
}

func (b *Builder) fail(op string, err error) *Builder {
	if b.err == nil && err != nil {
		b.err = malformed(op, err)
	}
	return b
}

// StoreUint appends value as a big-endian unsigned integer of the given bit width.
func (b *Builder) StoreUint(value uint64, bits uint) *Builder {
	if b.err != nil {
		return b
	}
	return b.fail("store uint", b.b.StoreUInt(value, bits))
}

// StoreBigUint appends an arbitrary precision unsigned integer.
func (b *Builder) StoreBigUint(value *big.Int, bits uint) *Builder {
	if b.err != nil {
		return b
	}
	if value == nil || value.Sign() < 0 {
		return b.fail("store big uint", fmt.Errorf("value must be non-negative"))
	}
	return b.fail("store big uint", b.b.StoreBigUInt(value, bits))
}

// StoreBit appends a single bit.
func (b *Builder) StoreBit(bit bool) *Builder {
	if b.err != nil {
		return b
	}
	return b.fail("store bit", b.b.StoreBoolBit(bit))
}

// StoreCoins appends a VarUInteger 16: a 4-bit byte length followed by the value bytes.
func (b *Builder) StoreCoins(value *big.Int) *Builder {
	if b.err != nil {
		return b
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return b.fail("store coins", fmt.Errorf("negative amount %s", value))
	}
	return b.fail("store coins", b.b.StoreBigCoins(value))
}

// StoreAddress appends a standard internal address. A nil address is stored as addr_none.
func (b *Builder) StoreAddress(addr *address.Address) *Builder {
	if b.err != nil {
		return b
	}
	if addr != nil && addr.Type() != address.StdAddress {
		b.err = &UnsupportedAddressKindError{Kind: addr.Type()}
		return b
	}
	if addr == nil {
		addr = address.NewAddressNone()
	}
	return b.fail("store address", b.b.StoreAddr(addr))
}

// StoreRef appends a child reference.
func (b *Builder) StoreRef(ref *cell.Cell) *Builder {
	if b.err != nil {
		return b
	}
	if ref == nil {
		return b.fail("store ref", fmt.Errorf("nil ref"))
	}
	return b.fail("store ref", b.b.StoreRef(ref))
}

// StoreMaybeRef appends a presence bit and, when ref is not nil, the reference.
func (b *Builder) StoreMaybeRef(ref *cell.Cell) *Builder {
	if b.err != nil {
		return b
	}
	return b.fail("store maybe ref", b.b.StoreMaybeRef(ref))
}

// BitsUsed returns the number of bits written so far.
func (b *Builder) BitsUsed() uint {
	return b.b.BitsUsed()
}

// EndCell finalizes the cell.
func (b *Builder) EndCell() (*cell.Cell, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.b.EndCell(), nil
}
