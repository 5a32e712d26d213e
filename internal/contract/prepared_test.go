package contract

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain/chaintest"
)

func TestNetworkPrepare(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body, err := RefundBody(1)
	require.NoError(t, err)
	to := chaintest.Addr("lp-account")

	tx := Network{}.Prepare(now, Message{To: to, Amount: big.NewInt(GasRefund), Body: body})
	assert.Equal(t, MainnetID, tx.Network)
	assert.Equal(t, now.Add(5*time.Minute).Unix(), tx.ValidUntil)
	require.Len(t, tx.Messages, 1)
	assert.Equal(t, boc.FriendlyString(to, true, false), tx.Messages[0].Address)

	decoded, err := boc.DecodeBase64(tx.Messages[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, body.Hash(), decoded.Hash())

	assert.Equal(t, TestnetID, Network{Testnet: true}.Prepare(now).Network)
}
