package indexer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/chain/chaintest"
	"terminusdex/internal/contract"
	"terminusdex/internal/storage"
	"terminusdex/internal/storage/memory"
)

var (
	router   = chaintest.Addr("router")
	minterA  = chaintest.Addr("minter-a")
	minterB  = chaintest.Addr("minter-b")
	stranger = chaintest.Addr("minter-unknown")
)

func opBody(t *testing.T, op uint32) *cell.Cell {
	t.Helper()
	c, err := boc.BeginCell().StoreUint(uint64(op), 32).StoreUint(0, 64).EndCell()
	require.NoError(t, err)
	return c
}

func notificationBody(t *testing.T, forwardOp uint32) *cell.Cell {
	t.Helper()
	c, err := boc.BeginCell().
		StoreUint(uint64(contract.OpTransferNotification), 32).
		StoreUint(1, 64).
		StoreCoins(big.NewInt(1000)).
		StoreAddress(chaintest.Addr("sender")).
		StoreMaybeRef(opBody(t, forwardOp)).
		EndCell()
	require.NoError(t, err)
	return c
}

type poolFixture struct {
	addr     *address.Address
	reserve0 int64
}

// registerPool wires the get-methods a readable pool answers.
func registerPool(r *chaintest.Reader, f *poolFixture, m0, m1 *address.Address) {
	w0 := chaintest.Addr(f.addr.String() + "/w0")
	w1 := chaintest.Addr(f.addr.String() + "/w1")
	r.Handle(f.addr, "get_pool_data", func([]any) ([]any, error) {
		return []any{
			chaintest.Int(f.reserve0), chaintest.Int(2_000),
			chaintest.AddrCell(w0), chaintest.AddrCell(w1),
			chaintest.Int(20), chaintest.Int(10), chaintest.Int(10),
			chaintest.AddrCell(chaintest.Addr("fee")),
			chaintest.Int(0), chaintest.Int(0),
		}, nil
	})
	r.Stack(f.addr, "get_jetton_data", chaintest.Int(1_414), chaintest.Int(-1), chaintest.AddrCell(nil))
	r.Stack(w0, "get_wallet_data", chaintest.Int(f.reserve0), chaintest.AddrCell(f.addr), chaintest.AddrCell(m0))
	r.Stack(w1, "get_wallet_data", chaintest.Int(2_000), chaintest.AddrCell(f.addr), chaintest.AddrCell(m1))
}

func jettonInfo(addr *address.Address, symbol string) chain.JettonInfo {
	return chain.JettonInfo{Address: addr, Symbol: symbol, Name: symbol, Decimals: 9, IsWhitelisted: true}
}

func newObserver(r chain.Reader, s storage.Store) *Observer {
	return NewObserver(Config{Router: router, RetryBackoff: time.Microsecond}, r, s, nil)
}

func TestUpdatePoolsDiscoversAndSkips(t *testing.T) {
	ctx := context.Background()
	r := chaintest.New()
	r.SetJettons(jettonInfo(minterA, "AAA"), jettonInfo(minterB, "BBB"))

	payTo := &poolFixture{addr: chaintest.Addr("pool-pay-to"), reserve0: 1_000}
	swapped := &poolFixture{addr: chaintest.Addr("pool-swap"), reserve0: 1_000}
	provided := &poolFixture{addr: chaintest.Addr("pool-provide")}
	unreadable := chaintest.Addr("pool-unreadable")
	unknown := &poolFixture{addr: chaintest.Addr("pool-unknown-jetton"), reserve0: 5}
	ignored := chaintest.Addr("not-a-pool")

	registerPool(r, payTo, minterA, minterB)
	registerPool(r, swapped, minterB, minterA)
	registerPool(r, provided, minterA, minterB)
	registerPool(r, unknown, minterA, stranger)

	r.AddTransactions(router,
		chain.Transaction{LT: 10, In: &chain.Message{Source: payTo.addr, Body: opBody(t, contract.OpPayTo)}},
		chain.Transaction{LT: 11, In: &chain.Message{Source: swapped.addr, Body: notificationBody(t, contract.OpSwap)}},
		chain.Transaction{LT: 12, In: &chain.Message{Source: ignored, Body: notificationBody(t, contract.OpBurn)}},
		chain.Transaction{LT: 13, Out: []chain.Message{{Destination: provided.addr, Body: opBody(t, contract.OpProvideLiquidity)}}},
		chain.Transaction{LT: 14, In: &chain.Message{Source: unreadable, Body: opBody(t, contract.OpPayTo)}},
		chain.Transaction{LT: 15, In: &chain.Message{Source: unknown.addr, Body: opBody(t, contract.OpPayTo)}},
		chain.Transaction{LT: 16, In: &chain.Message{Source: ignored}},
	)

	store := memory.New()
	res, err := newObserver(r, store).UpdatePools(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Candidates)
	assert.Equal(t, 3, res.Pools)
	assert.Equal(t, 2, res.Assets)
	assert.Equal(t, uint64(10), res.MinLT)
	assert.Equal(t, uint64(16), res.MaxLT)

	pools, err := store.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 3)

	p, ok, err := store.GetPool(ctx, boc.Key(payTo.addr))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, boc.Key(minterA), p.Token0MinterAddress)
	assert.Equal(t, boc.Key(minterB), p.Token1MinterAddress)
	assert.Equal(t, int64(1_414), p.TotalSupply.Int64())

	_, ok, _ = store.GetPool(ctx, boc.Key(unknown.addr))
	assert.False(t, ok)
	_, ok, _ = store.GetAsset(ctx, boc.Key(stranger))
	assert.False(t, ok)

	minLT, _, _ := store.GetCell(ctx, storage.CellMinLT)
	maxLT, _, _ := store.GetCell(ctx, storage.CellMaxLT)
	assert.Equal(t, "10", minLT)
	assert.Equal(t, "16", maxLT)
}

func TestUpdatePoolsIdempotentAndIncremental(t *testing.T) {
	ctx := context.Background()
	r := chaintest.New()
	r.SetJettons(jettonInfo(minterA, "AAA"), jettonInfo(minterB, "BBB"))
	pool := &poolFixture{addr: chaintest.Addr("pool"), reserve0: 1_000}
	registerPool(r, pool, minterA, minterB)
	r.AddTransactions(router,
		chain.Transaction{LT: 100, In: &chain.Message{Source: pool.addr, Body: opBody(t, contract.OpPayTo)}},
	)

	store := memory.New()
	obs := newObserver(r, store)

	_, err := obs.UpdatePools(ctx)
	require.NoError(t, err)
	first, _, _ := store.GetPool(ctx, boc.Key(pool.addr))

	res, err := obs.UpdatePools(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Candidates)
	second, _, _ := store.GetPool(ctx, boc.Key(pool.addr))
	assert.Equal(t, first, second)
	maxLT, _, _ := store.GetCell(ctx, storage.CellMaxLT)
	assert.Equal(t, "100", maxLT)

	last := r.TxQueries[len(r.TxQueries)-1]
	assert.Equal(t, uint64(100), last.AfterLT)
	assert.Zero(t, last.BeforeLT)

	pool.reserve0 = 5_000
	r.AddTransactions(router,
		chain.Transaction{LT: 120, In: &chain.Message{Source: pool.addr, Body: opBody(t, contract.OpPayTo)}},
	)
	res, err = obs.UpdatePools(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pools)
	assert.Equal(t, uint64(100), res.MinLT)
	assert.Equal(t, uint64(120), res.MaxLT)

	updated, _, _ := store.GetPool(ctx, boc.Key(pool.addr))
	assert.Equal(t, int64(5_000), updated.Reserve0.Int64())
	assert.Equal(t, first.Token0WalletAddress, updated.Token0WalletAddress)
}

func TestUpdatePoolsInitialScanPagesBackward(t *testing.T) {
	ctx := context.Background()
	r := chaintest.New()
	for lt := uint64(1); lt <= 5; lt++ {
		r.AddTransactions(router, chain.Transaction{LT: lt})
	}
	obs := NewObserver(Config{Router: router, PageSize: 2}, r, memory.New(), nil)

	res, err := obs.UpdatePools(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.MinLT)
	assert.Equal(t, uint64(5), res.MaxLT)

	require.Len(t, r.TxQueries, 4)
	assert.Equal(t, chain.TxQuery{Limit: 2}, r.TxQueries[0])
	assert.Equal(t, uint64(4), r.TxQueries[1].BeforeLT)
	assert.Equal(t, uint64(2), r.TxQueries[2].BeforeLT)
	assert.Equal(t, uint64(1), r.TxQueries[3].BeforeLT)
}

func TestUpdatePoolsShrinksPageOnFailure(t *testing.T) {
	ctx := context.Background()
	r := chaintest.New()
	r.AddTransactions(router, chain.Transaction{LT: 7})
	r.TxErr = func(q chain.TxQuery) error {
		if q.Limit > 100 {
			return errors.New("response too large")
		}
		return nil
	}

	res, err := newObserver(r, memory.New()).UpdatePools(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), res.MaxLT)

	var limits []uint32
	for _, q := range r.TxQueries {
		limits = append(limits, q.Limit)
	}
	// 500 -> 250 -> 125 fail, 62 succeeds, next page doubles to 124 and fails.
	assert.Equal(t, []uint32{500, 250, 125, 62, 124, 62}, limits)
}

func TestUpdatePoolsAbortsAtMinimumPage(t *testing.T) {
	ctx := context.Background()
	r := chaintest.New()
	r.AddTransactions(router, chain.Transaction{LT: 7})
	r.TxErr = func(chain.TxQuery) error { return errors.New("node down") }
	store := memory.New()

	_, err := NewObserver(Config{Router: router, PageSize: 4, RetryBackoff: time.Microsecond}, r, store, nil).UpdatePools(ctx)
	require.Error(t, err)
	assert.Len(t, r.TxQueries, 3)

	_, ok, _ := store.GetCell(ctx, storage.CellMaxLT)
	assert.False(t, ok)
}

func TestUpdatePoolsConcurrentCallIsSkipped(t *testing.T) {
	ctx := context.Background()
	r := chaintest.New()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	r.TxErr = func(chain.TxQuery) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}
	obs := newObserver(r, memory.New())

	done := make(chan error, 1)
	go func() {
		_, err := obs.UpdatePools(ctx)
		done <- err
	}()
	<-started
	reads := len(r.TxQueries)

	res, err := obs.UpdatePools(ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Len(t, r.TxQueries, reads)

	close(release)
	require.NoError(t, <-done)
}

func TestLoadCatalogPagesUntilEmpty(t *testing.T) {
	r := chaintest.New()
	r.SetJettons(jettonInfo(minterA, "AAA"), jettonInfo(minterB, "BBB"), jettonInfo(stranger, "CCC"))
	obs := NewObserver(Config{Router: router, CatalogPageSize: 2}, r, memory.New(), nil)

	catalog, err := obs.loadCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog, 3)
	assert.Equal(t, [][2]int{{2, 0}, {2, 2}, {2, 4}}, r.JettonsQueries)
}

func TestNotificationForwardOp(t *testing.T) {
	op, ok := notificationForwardOp(notificationBody(t, contract.OpProvideLiquidity))
	require.True(t, ok)
	assert.Equal(t, contract.OpProvideLiquidity, op)

	_, ok = notificationForwardOp(opBody(t, contract.OpPayTo))
	assert.False(t, ok)
}

type recordingJournal struct {
	records []any
	err     error
}

func (j *recordingJournal) Append(records ...any) error {
	j.records = append(j.records, records...)
	return j.err
}

func TestUpdatePoolsWritesJournal(t *testing.T) {
	ctx := context.Background()
	r := chaintest.New()
	r.AddTransactions(router, chain.Transaction{LT: 3})

	journal := &recordingJournal{err: errors.New("disk full")}
	obs := NewObserver(Config{Router: router, Journal: journal}, r, memory.New(), nil)

	res, err := obs.UpdatePools(ctx)
	require.NoError(t, err)
	require.Len(t, journal.records, 1)
	got := journal.records[0].(Result)
	assert.Equal(t, uint64(3), got.MaxLT)
	assert.False(t, got.FinishedAt.IsZero())
	assert.Equal(t, res, got)
}
