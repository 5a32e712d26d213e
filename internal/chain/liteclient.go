package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/jetton"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"go.uber.org/zap"

	"terminusdex/internal/boc"
)

// liteserver replies carry at most this many transactions per request.
const historyBatch = 16

// LiteClient implements Reader over a pool of liteserver connections.
type LiteClient struct {
	pool    *liteclient.ConnectionPool
	api     ton.APIClientWrapped
	catalog []JettonInfo
	logger  *zap.Logger
}

type LiteClientOptions struct {
	// ConfigURL points at a global network config, e.g. https://ton.org/global.config.json.
	ConfigURL string
	Retries   int
	// Catalog is served by GetAllJettons; liteservers have no jetton registry.
	Catalog []JettonInfo
	Logger  *zap.Logger
}

// NewLiteClient connects to the liteservers listed in the network config.
func NewLiteClient(ctx context.Context, opts LiteClientOptions) (*LiteClient, error) {
	if opts.ConfigURL == "" {
		return nil, fmt.Errorf("liteserver config url is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfigUrl(ctx, opts.ConfigURL); err != nil {
		return nil, fmt.Errorf("connect liteservers: %w", err)
	}

	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}

	return &LiteClient{
		pool:    pool,
		api:     ton.NewAPIClient(pool).WithRetry(retries),
		catalog: opts.Catalog,
		logger:  logger,
	}, nil
}

// Close stops all liteserver connections.
func (c *LiteClient) Close() {
	if c.pool != nil {
		c.pool.Stop()
	}
}

func (c *LiteClient) RunGetMethod(ctx context.Context, addr *address.Address, method string, args ...any) (*GetMethodResult, error) {
	ctx = c.pool.StickyContext(ctx)
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("masterchain info: %w", err)
	}

	params := make([]any, 0, len(args))
	for _, arg := range args {
		p, err := stackArg(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		params = append(params, p)
	}

	res, err := c.api.RunGetMethod(ctx, block, addr, method, params...)
	if err != nil {
		var execErr ton.ContractExecError
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%w: %s on %s exit code %d", ErrGetMethodNotFound, method, addr.String(), execErr.Code)
		}
		return nil, fmt.Errorf("run %s on %s: %w", method, addr.String(), err)
	}

	return &GetMethodResult{Method: method, Stack: res.AsTuple()}, nil
}

func stackArg(arg any) (any, error) {
	switch v := arg.(type) {
	case *address.Address:
		c, err := boc.BeginCell().StoreAddress(v).EndCell()
		if err != nil {
			return nil, err
		}
		return c.BeginParse(), nil
	case *big.Int, *cell.Cell, *cell.Slice:
		return v, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported get method argument %T", arg)
	}
}

// GetAccountTransactions walks the account history back from its last
// transaction and returns the page selected by query, newest first.
func (c *LiteClient) GetAccountTransactions(ctx context.Context, addr *address.Address, query TxQuery) ([]Transaction, error) {
	if query.Limit == 0 {
		return nil, fmt.Errorf("transaction page limit must be greater than zero")
	}
	ctx = c.pool.StickyContext(ctx)
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("masterchain info: %w", err)
	}
	account, err := c.api.GetAccount(ctx, block, addr)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", addr.String(), err)
	}
	if account.LastTxLT == 0 {
		return nil, nil
	}

	var (
		page         []Transaction
		lt           = account.LastTxLT
		hash         = account.LastTxHash
		reachedFloor bool
	)
	for !reachedFloor && lt != 0 {
		if query.AfterLT == 0 && uint32(len(page)) >= query.Limit {
			break
		}
		list, err := c.api.ListTransactions(ctx, addr, historyBatch, lt, hash)
		if err != nil {
			if errors.Is(err, ton.ErrNoTransactionsWereFound) {
				break
			}
			return nil, fmt.Errorf("list transactions of %s at lt %d: %w", addr.String(), lt, err)
		}
		if len(list) == 0 {
			break
		}

		// list is ordered oldest first
		for i := len(list) - 1; i >= 0; i-- {
			tx := list[i]
			if query.AfterLT != 0 && tx.LT <= query.AfterLT {
				reachedFloor = true
				break
			}
			if query.BeforeLT != 0 && tx.LT >= query.BeforeLT {
				continue
			}
			converted, err := buildTransaction(addr, tx)
			if err != nil {
				return nil, fmt.Errorf("decode transaction %d: %w", tx.LT, err)
			}
			page = append(page, converted)
		}

		oldest := list[0]
		lt, hash = oldest.PrevTxLT, oldest.PrevTxHash
	}

	if query.AfterLT != 0 && uint32(len(page)) > query.Limit {
		page = page[uint32(len(page))-query.Limit:]
	}
	if query.AfterLT == 0 && uint32(len(page)) > query.Limit {
		page = page[:query.Limit]
	}

	c.logger.Debug("transactions fetched",
		zap.String("account", addr.String()),
		zap.Int("count", len(page)),
		zap.Uint64("before_lt", query.BeforeLT),
		zap.Uint64("after_lt", query.AfterLT),
	)
	return page, nil
}

// GetAllJettons pages through the configured catalog ordered by raw address.
func (c *LiteClient) GetAllJettons(_ context.Context, limit, offset int) ([]JettonInfo, error) {
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("invalid catalog page limit=%d offset=%d", limit, offset)
	}
	sorted := make([]JettonInfo, len(c.catalog))
	copy(sorted, c.catalog)
	sort.Slice(sorted, func(i, j int) bool {
		return boc.Key(sorted[i].Address) < boc.Key(sorted[j].Address)
	})
	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], nil
}

func (c *LiteClient) GetJettonWalletAddress(ctx context.Context, minter, owner *address.Address) (*address.Address, error) {
	ctx = c.pool.StickyContext(ctx)
	wallet, err := jetton.NewJettonMasterClient(c.api, minter).GetJettonWallet(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("jetton wallet of %s for %s: %w", owner.String(), minter.String(), err)
	}
	return wallet.Address(), nil
}

func (c *LiteClient) GetPublicKey(ctx context.Context, addr *address.Address) ([]byte, error) {
	res, err := c.RunGetMethod(ctx, addr, "get_public_key")
	if err != nil {
		return nil, err
	}
	key, err := res.Int(0)
	if err != nil {
		return nil, err
	}
	if key.Sign() < 0 || key.BitLen() > 256 {
		return nil, &ResultValidationError{Method: "get_public_key", Reason: "key does not fit into 256 bits"}
	}
	return key.FillBytes(make([]byte, 32)), nil
}

// GetPublicKeyFromStateInit needs an emulator to run get_public_key against
// an undeployed state; liteservers cannot do that, so no key is returned.
func (c *LiteClient) GetPublicKeyFromStateInit(context.Context, *address.Address, *cell.Cell) ([]byte, error) {
	return nil, nil
}

// GetBalances reports the native balance and the balances of every catalog
// jetton the owner holds a deployed wallet for.
func (c *LiteClient) GetBalances(ctx context.Context, owner *address.Address) (Balances, error) {
	ctx = c.pool.StickyContext(ctx)
	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return Balances{}, fmt.Errorf("masterchain info: %w", err)
	}
	account, err := c.api.GetAccount(ctx, block, owner)
	if err != nil {
		return Balances{}, fmt.Errorf("get account %s: %w", owner.String(), err)
	}

	out := Balances{Native: new(big.Int), Jettons: make(map[string]*big.Int)}
	if account.IsActive && account.State != nil {
		out.Native = account.State.Balance.Nano()
	}

	for _, info := range c.catalog {
		wallet, err := jetton.NewJettonMasterClient(c.api, info.Address).GetJettonWallet(ctx, owner)
		if err != nil {
			return Balances{}, fmt.Errorf("jetton wallet for %s: %w", info.Address.String(), err)
		}
		balance, err := wallet.GetBalance(ctx)
		if err != nil {
			c.logger.Debug("jetton wallet not deployed", zap.String("jetton", info.Address.String()), zap.Error(err))
			continue
		}
		if balance.Sign() > 0 {
			out.Jettons[boc.Key(info.Address)] = balance
		}
	}
	return out, nil
}
