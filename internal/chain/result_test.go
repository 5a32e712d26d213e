package chain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminusdex/internal/boc"
)

func TestGetMethodResultAccessors(t *testing.T) {
	addr := boc.MustParseAddress("EQB3ncyBUTjZUA5EnFKR5_EnOMI9V1tTEAAPaiU71gc4TiUt")
	addrCell, err := boc.BeginCell().StoreAddress(addr).EndCell()
	require.NoError(t, err)

	res := &GetMethodResult{
		Method: "get_wallet_data",
		Stack:  []any{big.NewInt(42), addrCell, addrCell.BeginParse(), nil, big.NewInt(-1)},
	}

	n, err := res.Int(0)
	require.NoError(t, err)
	assert.Equal(t, "42", n.String())

	a, err := res.Address(1)
	require.NoError(t, err)
	assert.True(t, boc.Equal(addr, a))

	a, err = res.Address(2)
	require.NoError(t, err)
	assert.True(t, boc.Equal(addr, a))

	_, err = res.Int(1)
	var rve *ResultValidationError
	require.True(t, errors.As(err, &rve))
	assert.Equal(t, "get_wallet_data", rve.Method)

	_, err = res.Cell(3)
	assert.True(t, errors.As(err, &rve))

	_, err = res.Uint64(4)
	assert.True(t, errors.As(err, &rve))

	_, err = res.Int(9)
	assert.True(t, errors.As(err, &rve))

	assert.NoError(t, res.Expect(5))
	assert.Error(t, res.Expect(6))
}
