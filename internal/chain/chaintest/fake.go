// Package chaintest provides an in-memory chain.Reader for tests.
package chaintest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
)

// MethodFunc answers one get-method call.
type MethodFunc func(args []any) ([]any, error)

// Reader is a scripted chain.Reader. Jetton wallets that are not registered
// are derived deterministically from the minter and owner.
type Reader struct {
	mu sync.Mutex

	methods        map[string]MethodFunc
	wallets        map[string]*address.Address
	txs            map[string][]chain.Transaction
	jettons        []chain.JettonInfo
	publicKeys     map[string][]byte
	stateInitKeys  map[string][]byte
	balances       map[string]chain.Balances
	calls          map[string]int
	TxErr          func(query chain.TxQuery) error
	JettonsErr     error
	PublicKeyErr   error
	BalancesErr    error
	TxQueries      []chain.TxQuery
	JettonsQueries [][2]int
}

var _ chain.Reader = (*Reader)(nil)

func New() *Reader {
	return &Reader{
		methods:       make(map[string]MethodFunc),
		wallets:       make(map[string]*address.Address),
		txs:           make(map[string][]chain.Transaction),
		publicKeys:    make(map[string][]byte),
		stateInitKeys: make(map[string][]byte),
		balances:      make(map[string]chain.Balances),
		calls:         make(map[string]int),
	}
}

func methodKey(addr *address.Address, method string) string {
	return boc.Key(addr) + "#" + method
}

// Handle registers a get-method handler.
func (r *Reader) Handle(addr *address.Address, method string, fn MethodFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[methodKey(addr, method)] = fn
}

// Stack registers a get-method returning a fixed stack.
func (r *Reader) Stack(addr *address.Address, method string, stack ...any) {
	r.Handle(addr, method, func([]any) ([]any, error) { return stack, nil })
}

// Calls reports how often a get-method was run, or how often jetton
// wallets were resolved for method "jetton_wallet".
func (r *Reader) Calls(addr *address.Address, method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[methodKey(addr, method)]
}

func (r *Reader) RunGetMethod(_ context.Context, addr *address.Address, method string, args ...any) (*chain.GetMethodResult, error) {
	r.mu.Lock()
	key := methodKey(addr, method)
	r.calls[key]++
	fn, ok := r.methods[key]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s on %s: %w", method, boc.Key(addr), chain.ErrGetMethodNotFound)
	}
	stack, err := fn(args)
	if err != nil {
		return nil, err
	}
	return &chain.GetMethodResult{Method: method, Stack: stack}, nil
}

// SetWallet pins the jetton wallet of owner for minter.
func (r *Reader) SetWallet(minter, owner, wallet *address.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[boc.Key(minter)+"/"+boc.Key(owner)] = wallet
}

func (r *Reader) GetJettonWalletAddress(_ context.Context, minter, owner *address.Address) (*address.Address, error) {
	key := boc.Key(minter) + "/" + boc.Key(owner)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[methodKey(minter, "jetton_wallet")]++
	if w, ok := r.wallets[key]; ok {
		return w, nil
	}
	return Addr(key), nil
}

// AddTransactions appends account transactions in any order.
func (r *Reader) AddTransactions(account *address.Address, txs ...chain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := boc.Key(account)
	for _, tx := range txs {
		tx.Account = account
		r.txs[k] = append(r.txs[k], tx)
	}
	sort.Slice(r.txs[k], func(i, j int) bool { return r.txs[k][i].LT > r.txs[k][j].LT })
}

func (r *Reader) GetAccountTransactions(_ context.Context, addr *address.Address, q chain.TxQuery) ([]chain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TxQueries = append(r.TxQueries, q)
	if r.TxErr != nil {
		if err := r.TxErr(q); err != nil {
			return nil, err
		}
	}
	all := r.txs[boc.Key(addr)]
	var out []chain.Transaction
	if q.AfterLT > 0 {
		// oldest first above AfterLT, returned newest first
		for i := len(all) - 1; i >= 0 && len(out) < int(q.Limit); i-- {
			if all[i].LT > q.AfterLT && (q.BeforeLT == 0 || all[i].LT < q.BeforeLT) {
				out = append(out, all[i])
			}
		}
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return out, nil
	}
	for _, tx := range all {
		if len(out) >= int(q.Limit) {
			break
		}
		if q.BeforeLT == 0 || tx.LT < q.BeforeLT {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *Reader) SetJettons(jettons ...chain.JettonInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jettons = jettons
}

func (r *Reader) GetAllJettons(_ context.Context, limit, offset int) ([]chain.JettonInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.JettonsQueries = append(r.JettonsQueries, [2]int{limit, offset})
	if r.JettonsErr != nil {
		return nil, r.JettonsErr
	}
	if offset >= len(r.jettons) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.jettons) {
		end = len(r.jettons)
	}
	return append([]chain.JettonInfo(nil), r.jettons[offset:end]...), nil
}

func (r *Reader) SetPublicKey(addr *address.Address, key []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publicKeys[boc.Key(addr)] = key
}

func (r *Reader) GetPublicKey(_ context.Context, addr *address.Address) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.PublicKeyErr != nil {
		return nil, r.PublicKeyErr
	}
	key, ok := r.publicKeys[boc.Key(addr)]
	if !ok {
		return nil, fmt.Errorf("get_public_key on %s: %w", boc.Key(addr), chain.ErrGetMethodNotFound)
	}
	return key, nil
}

// SetStateInitKey registers the key returned for a state init with the given hash.
func (r *Reader) SetStateInitKey(stateInit *cell.Cell, key []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stateInitKeys[string(stateInit.Hash())] = key
}

func (r *Reader) GetPublicKeyFromStateInit(_ context.Context, _ *address.Address, stateInit *cell.Cell) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stateInit == nil {
		return nil, nil
	}
	return r.stateInitKeys[string(stateInit.Hash())], nil
}

func (r *Reader) SetBalances(owner *address.Address, b chain.Balances) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[boc.Key(owner)] = b
}

func (r *Reader) GetBalances(_ context.Context, owner *address.Address) (chain.Balances, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.BalancesErr != nil {
		return chain.Balances{}, r.BalancesErr
	}
	b, ok := r.balances[boc.Key(owner)]
	if !ok {
		return chain.Balances{Native: new(big.Int), Jettons: map[string]*big.Int{}}, nil
	}
	return b, nil
}

// Addr derives a stable basechain address from seed.
func Addr(seed string) *address.Address {
	sum := sha256.Sum256([]byte(seed))
	return address.NewAddress(0, 0, sum[:])
}

// AddrCell wraps an address the way get-methods return it.
func AddrCell(addr *address.Address) *cell.Cell {
	c, err := boc.BeginCell().StoreAddress(addr).EndCell()
	if err != nil {
		panic(err)
	}
	return c
}

// Int is shorthand for a stack integer.
func Int(v int64) *big.Int {
	return big.NewInt(v)
}
