package chain

import (
	"context"
	"math/big"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Reader is the read side of the chain used by contracts, the indexer and
// the proof verifier.
type Reader interface {
	// RunGetMethod executes a get-method. Arguments may be *big.Int, integer
	// values, *cell.Cell, *cell.Slice or *address.Address.
	RunGetMethod(ctx context.Context, addr *address.Address, method string, args ...any) (*GetMethodResult, error)
	GetAccountTransactions(ctx context.Context, addr *address.Address, query TxQuery) ([]Transaction, error)
	GetAllJettons(ctx context.Context, limit, offset int) ([]JettonInfo, error)
	GetJettonWalletAddress(ctx context.Context, minter, owner *address.Address) (*address.Address, error)
	GetPublicKey(ctx context.Context, addr *address.Address) ([]byte, error)
	GetPublicKeyFromStateInit(ctx context.Context, addr *address.Address, stateInit *cell.Cell) ([]byte, error)
	GetBalances(ctx context.Context, owner *address.Address) (Balances, error)
}

// TxQuery selects a page of account transactions. A zero BeforeLT or
// AfterLT means no bound on that side.
//
// With AfterLT set the page holds the oldest Limit transactions above it,
// so repeated calls with the running maximum walk forward without gaps.
// Otherwise the page holds the newest Limit transactions below BeforeLT.
type TxQuery struct {
	Limit    uint32
	BeforeLT uint64
	AfterLT  uint64
}

type Transaction struct {
	LT      uint64
	Hash    []byte
	Now     uint32
	In      *Message
	Out     []Message
	Account *address.Address
}

type Message struct {
	Source      *address.Address
	Destination *address.Address
	Value       *big.Int
	Body        *cell.Cell
}

// JettonInfo is a registered jetton from the asset catalog.
type JettonInfo struct {
	Address       *address.Address
	Name          string
	Symbol        string
	Decimals      int
	ImageURL      string
	IsWhitelisted bool
	IsCommunity   bool
	IsBlacklisted bool
}

// Balances holds native and jetton balances keyed by the raw minter address.
type Balances struct {
	Native  *big.Int
	Jettons map[string]*big.Int
}
