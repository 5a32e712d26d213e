package chain

import (
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"terminusdex/internal/boc"
)

// GetMethodResult holds the stack returned by a get-method. Entries are
// *big.Int, *cell.Cell, *cell.Slice or nil.
type GetMethodResult struct {
	Method   string
	ExitCode int32
	Stack    []any
}

func (r *GetMethodResult) invalid(format string, args ...any) error {
	return &ResultValidationError{Method: r.Method, Reason: fmt.Sprintf(format, args...)}
}

func (r *GetMethodResult) at(i int) (any, error) {
	if i < 0 || i >= len(r.Stack) {
		return nil, r.invalid("stack has %d entries, want index %d", len(r.Stack), i)
	}
	return r.Stack[i], nil
}

// Expect checks that the stack holds at least n entries.
func (r *GetMethodResult) Expect(n int) error {
	if len(r.Stack) < n {
		return r.invalid("stack has %d entries, want %d", len(r.Stack), n)
	}
	return nil
}

func (r *GetMethodResult) Int(i int) (*big.Int, error) {
	v, err := r.at(i)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*big.Int)
	if !ok || n == nil {
		return nil, r.invalid("entry %d is %T, want int", i, v)
	}
	return new(big.Int).Set(n), nil
}

// Uint64 reads an integer entry that must fit into uint64.
func (r *GetMethodResult) Uint64(i int) (uint64, error) {
	n, err := r.Int(i)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, r.invalid("entry %d out of range: %s", i, n)
	}
	return n.Uint64(), nil
}

// Cell returns a cell entry. Slices are converted to a cell of their remaining data.
func (r *GetMethodResult) Cell(i int) (*cell.Cell, error) {
	v, err := r.at(i)
	if err != nil {
		return nil, err
	}
	switch c := v.(type) {
	case *cell.Cell:
		if c != nil {
			return c, nil
		}
	case *cell.Slice:
		if c != nil {
			out, err := c.ToCell()
			if err != nil {
				return nil, r.invalid("entry %d: %v", i, err)
			}
			return out, nil
		}
	}
	return nil, r.invalid("entry %d is %T, want cell", i, v)
}

// Address reads a std address stored at the start of a cell or slice entry.
func (r *GetMethodResult) Address(i int) (*address.Address, error) {
	c, err := r.Cell(i)
	if err != nil {
		return nil, err
	}
	s, err := boc.Parse(c)
	if err != nil {
		return nil, err
	}
	addr, err := s.LoadAddress()
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, r.invalid("entry %d holds no address", i)
	}
	return addr, nil
}

// OptionalAddress is Address for entries that may hold addr_none, which yields nil.
func (r *GetMethodResult) OptionalAddress(i int) (*address.Address, error) {
	c, err := r.Cell(i)
	if err != nil {
		return nil, err
	}
	s, err := boc.Parse(c)
	if err != nil {
		return nil, err
	}
	return s.LoadAddress()
}
