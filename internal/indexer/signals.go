package indexer

import (
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/contract"
)

// candidates is a set of pool addresses keyed by raw address.
type candidates map[string]*address.Address

func (c candidates) add(addr *address.Address) {
	if addr == nil {
		return
	}
	c[boc.Key(addr)] = addr
}

// collect adds every pool address the router transaction points at.
func (c candidates) collect(tx chain.Transaction) {
	if in := tx.In; in != nil && in.Source != nil {
		switch op, err := boc.OpCode(in.Body); {
		case err != nil:
		case op == contract.OpPayTo:
			c.add(in.Source)
		case op == contract.OpTransferNotification:
			if forwardOp, ok := notificationForwardOp(in.Body); ok &&
				(forwardOp == contract.OpSwap || forwardOp == contract.OpProvideLiquidity) {
				c.add(in.Source)
			}
		}
	}
	for _, out := range tx.Out {
		if out.Destination == nil {
			continue
		}
		if op, err := boc.OpCode(out.Body); err == nil && op == contract.OpProvideLiquidity {
			c.add(out.Destination)
		}
	}
}

type transferNotification struct {
	_              tlb.Magic        `tlb:"#7362d09c"`
	QueryID        uint64           `tlb:"## 64"`
	Amount         tlb.Coins        `tlb:"."`
	Sender         *address.Address `tlb:"addr"`
	ForwardPayload *cell.Cell       `tlb:"either . ^"`
}

// notificationForwardOp decodes a transfer notification and returns the
// opcode of its forward payload.
func notificationForwardOp(body *cell.Cell) (uint32, bool) {
	var n transferNotification
	if err := tlb.LoadFromCell(&n, body.BeginParse()); err != nil {
		return 0, false
	}
	op, err := boc.OpCode(n.ForwardPayload)
	if err != nil {
		return 0, false
	}
	return op, true
}
