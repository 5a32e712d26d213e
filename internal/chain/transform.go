package chain

import (
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
)

func buildTransaction(account *address.Address, tx *tlb.Transaction) (Transaction, error) {
	out := Transaction{
		LT:      tx.LT,
		Hash:    tx.Hash,
		Now:     tx.Now,
		Account: account,
	}
	if tx.IO.In != nil {
		if msg, ok := buildMessage(tx.IO.In); ok {
			out.In = &msg
		}
	}
	if tx.IO.Out != nil {
		list, err := tx.IO.Out.ToSlice()
		if err != nil {
			return Transaction{}, err
		}
		out.Out = make([]Message, 0, len(list))
		for i := range list {
			if msg, ok := buildMessage(&list[i]); ok {
				out.Out = append(out.Out, msg)
			}
		}
	}
	return out, nil
}

// buildMessage keeps internal and inbound external messages; outbound
// external messages carry nothing the indexer looks at.
func buildMessage(m *tlb.Message) (Message, bool) {
	switch m.MsgType {
	case tlb.MsgTypeInternal:
		in := m.AsInternal()
		return Message{
			Source:      in.SrcAddr,
			Destination: in.DstAddr,
			Value:       in.Amount.Nano(),
			Body:        in.Body,
		}, true
	case tlb.MsgTypeExternalIn:
		ext := m.AsExternalIn()
		return Message{
			Destination: ext.DstAddr,
			Body:        ext.Body,
		}, true
	default:
		return Message{}, false
	}
}
