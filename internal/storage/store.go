package storage

import (
	"context"
	"errors"

	"terminusdex/internal/model"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrTxDone        = errors.New("transaction already committed or rolled back")
)

// Cell names of the pool discovery cursor.
const (
	CellMinLT = "min_lt"
	CellMaxLT = "max_lt"
)

// Queries is the record access shared by stores and transactions.
// Addresses are raw "wc:hex" strings. Get methods report a missing record
// with ok == false; Update methods fail with ErrNotFound.
type Queries interface {
	GetAsset(ctx context.Context, address string) (model.Asset, bool, error)
	CreateAsset(ctx context.Context, asset model.Asset) error
	UpdateAsset(ctx context.Context, asset model.Asset) error

	GetPool(ctx context.Context, address string) (model.Pool, bool, error)
	ListPools(ctx context.Context) ([]model.Pool, error)
	CreatePool(ctx context.Context, pool model.Pool) error
	UpdatePool(ctx context.Context, address string, update model.PoolUpdate) error

	GetStakingContract(ctx context.Context, address string) (model.StakingContract, bool, error)
	ListStakingContracts(ctx context.Context) ([]model.StakingContract, error)
	CreateStakingContract(ctx context.Context, contract model.StakingContract) error
	UpdateStakingContract(ctx context.Context, contract model.StakingContract) error

	GetCell(ctx context.Context, name string) (string, bool, error)
	SetCell(ctx context.Context, name, value string) error
}

// Tx groups writes that become visible together on Commit. Rollback after
// Commit is a no-op so it can be deferred.
type Tx interface {
	Queries
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the persistence port of the service.
type Store interface {
	Queries
	Begin(ctx context.Context) (Tx, error)
	Close()
}
