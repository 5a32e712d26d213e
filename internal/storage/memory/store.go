// Package memory is an in-process storage.Store, optionally persisted to a
// JSON file on every commit.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"terminusdex/internal/model"
	"terminusdex/internal/storage"
)

type state struct {
	Assets  map[string]model.Asset           `json:"assets"`
	Pools   map[string]model.Pool            `json:"pools"`
	Staking map[string]model.StakingContract `json:"staking"`
	Cells   map[string]string                `json:"cells"`
}

func newState() *state {
	return &state{
		Assets:  make(map[string]model.Asset),
		Pools:   make(map[string]model.Pool),
		Staking: make(map[string]model.StakingContract),
		Cells:   make(map[string]string),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.Assets {
		out.Assets[k] = v
	}
	for k, v := range s.Pools {
		out.Pools[k] = clonePool(v)
	}
	for k, v := range s.Staking {
		out.Staking[k] = v
	}
	for k, v := range s.Cells {
		out.Cells[k] = v
	}
	return out
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func clonePool(p model.Pool) model.Pool {
	p.Reserve0 = cloneInt(p.Reserve0)
	p.Reserve1 = cloneInt(p.Reserve1)
	p.CollectedToken0ProtocolFee = cloneInt(p.CollectedToken0ProtocolFee)
	p.CollectedToken1ProtocolFee = cloneInt(p.CollectedToken1ProtocolFee)
	p.TotalSupply = cloneInt(p.TotalSupply)
	return p
}

// Store keeps records in memory. Transactions work on a copy that replaces
// the committed state on Commit, so the last commit wins.
type Store struct {
	mu    sync.RWMutex
	state *state
	path  string
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store that is never persisted.
func New() *Store {
	return &Store{state: newState()}
}

// Open loads the store from path if it exists. Commits write it back.
func Open(path string) (*Store, error) {
	s := &Store{state: newState(), path: path}
	if path == "" {
		return s, nil
	}

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("stat store file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("store path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	loaded := newState()
	if err := json.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parse store file: %w", err)
	}
	s.state = loaded
	return s, nil
}

func (s *Store) Close() {}

func (s *Store) save(st *state) error {
	if s.path == "" {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write store tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename store: %w", err)
	}
	return nil
}

// mutate applies fn to a copy of the state and commits it.
func (s *Store) mutate(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) read() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Begin(context.Context) (storage.Tx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Tx{store: s, state: s.state.clone()}, nil
}

func (s *Store) GetAsset(ctx context.Context, addr string) (model.Asset, bool, error) {
	return getAsset(s.read(), addr)
}

func (s *Store) CreateAsset(ctx context.Context, a model.Asset) error {
	return s.mutate(func(st *state) error { return createAsset(st, a) })
}

func (s *Store) UpdateAsset(ctx context.Context, a model.Asset) error {
	return s.mutate(func(st *state) error { return updateAsset(st, a) })
}

func (s *Store) GetPool(ctx context.Context, addr string) (model.Pool, bool, error) {
	return getPool(s.read(), addr)
}

func (s *Store) ListPools(ctx context.Context) ([]model.Pool, error) {
	return listPools(s.read()), nil
}

func (s *Store) CreatePool(ctx context.Context, p model.Pool) error {
	return s.mutate(func(st *state) error { return createPool(st, p) })
}

func (s *Store) UpdatePool(ctx context.Context, addr string, u model.PoolUpdate) error {
	return s.mutate(func(st *state) error { return updatePool(st, addr, u) })
}

func (s *Store) GetStakingContract(ctx context.Context, addr string) (model.StakingContract, bool, error) {
	return getStaking(s.read(), addr)
}

func (s *Store) ListStakingContracts(ctx context.Context) ([]model.StakingContract, error) {
	return listStaking(s.read()), nil
}

func (s *Store) CreateStakingContract(ctx context.Context, c model.StakingContract) error {
	return s.mutate(func(st *state) error { return createStaking(st, c) })
}

func (s *Store) UpdateStakingContract(ctx context.Context, c model.StakingContract) error {
	return s.mutate(func(st *state) error { return updateStaking(st, c) })
}

func (s *Store) GetCell(ctx context.Context, name string) (string, bool, error) {
	v, ok := s.read().Cells[name]
	return v, ok, nil
}

func (s *Store) SetCell(ctx context.Context, name, value string) error {
	return s.mutate(func(st *state) error {
		st.Cells[name] = value
		return nil
	})
}

// Tx is a pending set of writes over a snapshot of the store.
type Tx struct {
	store *Store
	state *state
	done  bool
}

func (t *Tx) live() (*state, error) {
	if t.done {
		return nil, storage.ErrTxDone
	}
	return t.state, nil
}

func (t *Tx) Commit(context.Context) error {
	if t.done {
		return storage.ErrTxDone
	}
	t.done = true
	st := t.state
	return t.store.mutate(func(next *state) error {
		*next = *st
		return nil
	})
}

func (t *Tx) Rollback(context.Context) error {
	t.done = true
	return nil
}

func (t *Tx) GetAsset(ctx context.Context, addr string) (model.Asset, bool, error) {
	st, err := t.live()
	if err != nil {
		return model.Asset{}, false, err
	}
	return getAsset(st, addr)
}

func (t *Tx) CreateAsset(ctx context.Context, a model.Asset) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	return createAsset(st, a)
}

func (t *Tx) UpdateAsset(ctx context.Context, a model.Asset) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	return updateAsset(st, a)
}

func (t *Tx) GetPool(ctx context.Context, addr string) (model.Pool, bool, error) {
	st, err := t.live()
	if err != nil {
		return model.Pool{}, false, err
	}
	return getPool(st, addr)
}

func (t *Tx) ListPools(ctx context.Context) ([]model.Pool, error) {
	st, err := t.live()
	if err != nil {
		return nil, err
	}
	return listPools(st), nil
}

func (t *Tx) CreatePool(ctx context.Context, p model.Pool) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	return createPool(st, p)
}

func (t *Tx) UpdatePool(ctx context.Context, addr string, u model.PoolUpdate) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	return updatePool(st, addr, u)
}

func (t *Tx) GetStakingContract(ctx context.Context, addr string) (model.StakingContract, bool, error) {
	st, err := t.live()
	if err != nil {
		return model.StakingContract{}, false, err
	}
	return getStaking(st, addr)
}

func (t *Tx) ListStakingContracts(ctx context.Context) ([]model.StakingContract, error) {
	st, err := t.live()
	if err != nil {
		return nil, err
	}
	return listStaking(st), nil
}

func (t *Tx) CreateStakingContract(ctx context.Context, c model.StakingContract) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	return createStaking(st, c)
}

func (t *Tx) UpdateStakingContract(ctx context.Context, c model.StakingContract) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	return updateStaking(st, c)
}

func (t *Tx) GetCell(ctx context.Context, name string) (string, bool, error) {
	st, err := t.live()
	if err != nil {
		return "", false, err
	}
	v, ok := st.Cells[name]
	return v, ok, nil
}

func (t *Tx) SetCell(ctx context.Context, name, value string) error {
	st, err := t.live()
	if err != nil {
		return err
	}
	st.Cells[name] = value
	return nil
}

func getAsset(st *state, addr string) (model.Asset, bool, error) {
	a, ok := st.Assets[addr]
	return a, ok, nil
}

func createAsset(st *state, a model.Asset) error {
	if _, ok := st.Assets[a.Address]; ok {
		return fmt.Errorf("asset %s: %w", a.Address, storage.ErrAlreadyExists)
	}
	st.Assets[a.Address] = a
	return nil
}

func updateAsset(st *state, a model.Asset) error {
	if _, ok := st.Assets[a.Address]; !ok {
		return fmt.Errorf("asset %s: %w", a.Address, storage.ErrNotFound)
	}
	st.Assets[a.Address] = a
	return nil
}

func getPool(st *state, addr string) (model.Pool, bool, error) {
	p, ok := st.Pools[addr]
	if !ok {
		return model.Pool{}, false, nil
	}
	return clonePool(p), true, nil
}

func listPools(st *state) []model.Pool {
	out := make([]model.Pool, 0, len(st.Pools))
	for _, p := range st.Pools {
		out = append(out, clonePool(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func createPool(st *state, p model.Pool) error {
	if _, ok := st.Pools[p.Address]; ok {
		return fmt.Errorf("pool %s: %w", p.Address, storage.ErrAlreadyExists)
	}
	st.Pools[p.Address] = clonePool(p)
	return nil
}

func updatePool(st *state, addr string, u model.PoolUpdate) error {
	p, ok := st.Pools[addr]
	if !ok {
		return fmt.Errorf("pool %s: %w", addr, storage.ErrNotFound)
	}
	u.Apply(&p)
	st.Pools[addr] = clonePool(p)
	return nil
}

func getStaking(st *state, addr string) (model.StakingContract, bool, error) {
	c, ok := st.Staking[addr]
	return c, ok, nil
}

func listStaking(st *state) []model.StakingContract {
	out := make([]model.StakingContract, 0, len(st.Staking))
	for _, c := range st.Staking {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func createStaking(st *state, c model.StakingContract) error {
	if _, ok := st.Staking[c.Address]; ok {
		return fmt.Errorf("staking contract %s: %w", c.Address, storage.ErrAlreadyExists)
	}
	st.Staking[c.Address] = c
	return nil
}

func updateStaking(st *state, c model.StakingContract) error {
	if _, ok := st.Staking[c.Address]; !ok {
		return fmt.Errorf("staking contract %s: %w", c.Address, storage.ErrNotFound)
	}
	st.Staking[c.Address] = c
	return nil
}
