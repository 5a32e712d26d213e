package indexer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"terminusdex/internal/boc"
	"terminusdex/internal/chain"
	"terminusdex/internal/contract"
	"terminusdex/internal/model"
	"terminusdex/internal/storage"
)

const (
	DefaultPageSize        = 500
	DefaultCatalogPageSize = 1000
)

// Config holds runtime settings for the pool observer.
type Config struct {
	Router          *address.Address
	PageSize        int
	CatalogPageSize int
	RetryBackoff    time.Duration
	// Journal, when set, receives the Result of every committed run.
	Journal Journal
}

type Journal interface {
	Append(records ...any) error
}

// Result summarizes one pool update run.
type Result struct {
	Skipped    bool      `json:"skipped,omitempty"`
	Candidates int       `json:"candidates"`
	Pools      int       `json:"pools"`
	Assets     int       `json:"assets"`
	MinLT      uint64    `json:"min_lt"`
	MaxLT      uint64    `json:"max_lt"`
	FinishedAt time.Time `json:"finished_at"`
}

// Observer discovers pools from router traffic and keeps pool and asset
// records in storage up to date.
type Observer struct {
	cfg    Config
	reader chain.Reader
	store  storage.Store
	logger *zap.Logger

	mu sync.Mutex
}

func NewObserver(cfg Config, reader chain.Reader, store storage.Store, logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.CatalogPageSize <= 0 {
		cfg.CatalogPageSize = DefaultCatalogPageSize
	}
	return &Observer{cfg: cfg, reader: reader, store: store, logger: logger}
}

// Run updates pools immediately and then on every tick until ctx is done.
// Failed runs are logged and retried on the next tick.
func (o *Observer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("update interval must be greater than zero")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := o.UpdatePools(ctx); err != nil {
			o.logger.Error("update pools failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// UpdatePools runs one discovery pass. A call made while another pass is in
// progress returns immediately with Result.Skipped set.
func (o *Observer) UpdatePools(ctx context.Context) (Result, error) {
	if !o.mu.TryLock() {
		o.logger.Info("pool update already running, skipping")
		return Result{Skipped: true}, nil
	}
	defer o.mu.Unlock()

	if o.cfg.Router == nil {
		return Result{}, fmt.Errorf("router address is required")
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := o.update(ctx, tx)
	if err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	res.FinishedAt = time.Now().UTC()
	if o.cfg.Journal != nil {
		if err := o.cfg.Journal.Append(res); err != nil {
			o.logger.Warn("journal append failed", zap.Error(err))
		}
	}
	o.logger.Info("pools updated",
		zap.Int("candidates", res.Candidates),
		zap.Int("pools", res.Pools),
		zap.Int("assets", res.Assets),
		zap.Uint64("min_lt", res.MinLT),
		zap.Uint64("max_lt", res.MaxLT),
	)
	return res, nil
}

func (o *Observer) update(ctx context.Context, tx storage.Tx) (Result, error) {
	found, cur, err := o.findPools(ctx, tx)
	if err != nil {
		return Result{}, fmt.Errorf("find pools: %w", err)
	}
	res := Result{Candidates: len(found), MinLT: cur.minLT, MaxLT: cur.maxLT}
	if len(found) == 0 {
		return res, nil
	}

	catalog, err := o.loadCatalog(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load jetton catalog: %w", err)
	}
	o.logger.Info("jetton catalog loaded", zap.Int("jettons", len(catalog)))

	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updatedAssets := make(map[string]struct{})
	for _, k := range keys {
		ok, err := o.updatePool(ctx, tx, found[k], catalog, updatedAssets)
		if err != nil {
			return Result{}, fmt.Errorf("update pool %s: %w", k, err)
		}
		if ok {
			res.Pools++
		}
	}
	res.Assets = len(updatedAssets)
	return res, nil
}

type cursor struct {
	minLT uint64
	maxLT uint64
}

func (c *cursor) empty() bool {
	return c.minLT == 0 && c.maxLT == 0
}

func (c *cursor) observe(lt uint64) {
	if c.minLT == 0 || lt < c.minLT {
		c.minLT = lt
	}
	if lt > c.maxLT {
		c.maxLT = lt
	}
}

func loadCell(ctx context.Context, q storage.Queries, name string) (uint64, error) {
	v, ok, err := q.GetCell(ctx, name)
	if err != nil || !ok || v == "" {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("storage cell %s: %w", name, err)
	}
	return n, nil
}

// findPools scans router transactions from the stored cursor, extends the
// cursor and returns the candidate pools. The first run walks backward from
// the newest transaction, later runs walk forward from max_lt.
func (o *Observer) findPools(ctx context.Context, tx storage.Tx) (candidates, cursor, error) {
	var cur cursor
	var err error
	if cur.minLT, err = loadCell(ctx, tx, storage.CellMinLT); err != nil {
		return nil, cursor{}, err
	}
	if cur.maxLT, err = loadCell(ctx, tx, storage.CellMaxLT); err != nil {
		return nil, cursor{}, err
	}
	firstRun := cur.empty()

	found := make(candidates)
	p := newPager(o.cfg.PageSize, o.cfg.RetryBackoff, o.logger)
	for {
		query := chain.TxQuery{}
		if firstRun {
			query.BeforeLT = cur.minLT
		} else {
			query.AfterLT = cur.maxLT
		}
		txs, err := p.next(ctx, func(ctx context.Context, limit int) ([]chain.Transaction, error) {
			query.Limit = uint32(limit)
			return o.reader.GetAccountTransactions(ctx, o.cfg.Router, query)
		})
		if err != nil {
			return nil, cursor{}, err
		}
		if len(txs) == 0 {
			break
		}
		for _, t := range txs {
			cur.observe(t.LT)
			found.collect(t)
		}
		o.logger.Debug("router page scanned",
			zap.Int("transactions", len(txs)),
			zap.Int("candidates", len(found)),
			zap.Uint64("min_lt", cur.minLT),
			zap.Uint64("max_lt", cur.maxLT),
		)
	}

	if !cur.empty() {
		if err := tx.SetCell(ctx, storage.CellMaxLT, strconv.FormatUint(cur.maxLT, 10)); err != nil {
			return nil, cursor{}, err
		}
		if err := tx.SetCell(ctx, storage.CellMinLT, strconv.FormatUint(cur.minLT, 10)); err != nil {
			return nil, cursor{}, err
		}
	}
	return found, cur, nil
}

// loadCatalog pages through the registered jettons until an empty page.
func (o *Observer) loadCatalog(ctx context.Context) (map[string]chain.JettonInfo, error) {
	out := make(map[string]chain.JettonInfo)
	for offset := 0; ; offset += o.cfg.CatalogPageSize {
		page, err := o.reader.GetAllJettons(ctx, o.cfg.CatalogPageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return out, nil
		}
		for _, j := range page {
			out[boc.Key(j.Address)] = j
		}
	}
}

func assetFromJetton(j chain.JettonInfo) model.Asset {
	return model.Asset{
		Address:       boc.Key(j.Address),
		Symbol:        j.Symbol,
		Name:          j.Name,
		ImageURL:      j.ImageURL,
		Decimals:      j.Decimals,
		IsWhitelisted: j.IsWhitelisted,
		IsCommunity:   j.IsCommunity,
		IsBlacklisted: j.IsBlacklisted,
	}
}

// updatePool refreshes one pool. Chain read failures and unknown jettons
// skip the pool (false, nil); only storage errors are returned.
func (o *Observer) updatePool(ctx context.Context, tx storage.Tx, addr *address.Address, catalog map[string]chain.JettonInfo, updatedAssets map[string]struct{}) (bool, error) {
	log := o.logger.With(zap.String("pool", addr.String()))
	pool := contract.NewPool(o.reader, addr, nil)

	snap, err := pool.Data(ctx)
	if err != nil {
		log.Warn("pool data not found", zap.Error(err))
		return false, nil
	}
	lp, err := pool.JettonData(ctx)
	if err != nil {
		log.Warn("pool jetton data not found", zap.Error(err))
		return false, nil
	}
	w0, err := contract.NewJettonWallet(o.reader, snap.Token0Wallet).Data(ctx)
	if err != nil {
		log.Warn("jetton wallet data not found", zap.String("wallet", snap.Token0Wallet.String()), zap.Error(err))
		return false, nil
	}
	w1, err := contract.NewJettonWallet(o.reader, snap.Token1Wallet).Data(ctx)
	if err != nil {
		log.Warn("jetton wallet data not found", zap.String("wallet", snap.Token1Wallet.String()), zap.Error(err))
		return false, nil
	}

	j0, ok0 := catalog[boc.Key(w0.Minter)]
	j1, ok1 := catalog[boc.Key(w1.Minter)]
	if !ok0 || !ok1 {
		log.Info("pool jettons not registered",
			zap.String("minter0", w0.Minter.String()),
			zap.String("minter1", w1.Minter.String()),
		)
		return false, nil
	}

	for _, j := range []chain.JettonInfo{j0, j1} {
		asset := assetFromJetton(j)
		if _, done := updatedAssets[asset.Address]; done {
			continue
		}
		if err := upsertAsset(ctx, tx, asset); err != nil {
			return false, err
		}
		updatedAssets[asset.Address] = struct{}{}
	}

	record := model.Pool{
		Address:                    boc.Key(addr),
		Reserve0:                   snap.Reserve0,
		Reserve1:                   snap.Reserve1,
		Token0WalletAddress:        boc.Key(snap.Token0Wallet),
		Token1WalletAddress:        boc.Key(snap.Token1Wallet),
		Token0MinterAddress:        boc.Key(w0.Minter),
		Token1MinterAddress:        boc.Key(w1.Minter),
		LpFee:                      snap.LpFee,
		ProtocolFee:                snap.ProtocolFee,
		RefFee:                     snap.RefFee,
		ProtocolFeeAddress:         boc.Key(snap.ProtocolFeeAddress),
		CollectedToken0ProtocolFee: snap.CollectedToken0ProtocolFee,
		CollectedToken1ProtocolFee: snap.CollectedToken1ProtocolFee,
		TotalSupply:                lp.TotalSupply,
	}
	if err := upsertPool(ctx, tx, record); err != nil {
		return false, err
	}
	return true, nil
}

func upsertAsset(ctx context.Context, q storage.Queries, asset model.Asset) error {
	existing, ok, err := q.GetAsset(ctx, asset.Address)
	if err != nil {
		return err
	}
	if !ok {
		return q.CreateAsset(ctx, asset)
	}
	asset.IsDeprecated = existing.IsDeprecated
	return q.UpdateAsset(ctx, asset)
}

func upsertPool(ctx context.Context, q storage.Queries, pool model.Pool) error {
	_, ok, err := q.GetPool(ctx, pool.Address)
	if err != nil {
		return err
	}
	if !ok {
		return q.CreatePool(ctx, pool)
	}
	return q.UpdatePool(ctx, pool.Address, pool.Update())
}
