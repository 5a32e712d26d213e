package contract

import (
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"terminusdex/internal/boc"
	"terminusdex/internal/model"
)

// Message is an outgoing wallet message before serialization.
type Message struct {
	To     *address.Address
	Amount *big.Int
	Body   *cell.Cell
}

func (m Message) Prepared(testnet bool) model.PreparedMessage {
	out := model.PreparedMessage{
		Address: boc.FriendlyString(m.To, true, testnet),
		Amount:  new(big.Int).Set(m.Amount),
	}
	if m.Body != nil {
		out.Payload = boc.EncodeBase64(m.Body)
	}
	return out
}

// Network describes the chain prepared transactions target.
type Network struct {
	Testnet bool
}

func (n Network) ID() int {
	if n.Testnet {
		return TestnetID
	}
	return MainnetID
}

// Prepare wraps messages into a transaction valid for TransactionLifetime from now.
func (n Network) Prepare(now time.Time, msgs ...Message) model.PreparedTransaction {
	tx := model.PreparedTransaction{
		ValidUntil: now.Add(TransactionLifetime).Unix(),
		Network:    n.ID(),
		Messages:   make([]model.PreparedMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		tx.Messages = append(tx.Messages, m.Prepared(n.Testnet))
	}
	return tx
}
