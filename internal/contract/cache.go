package contract

import (
	"context"
	"sync"

	"github.com/xssnick/tonutils-go/address"
	"golang.org/x/sync/singleflight"
)

// AddressCache memoizes address lookups. Entries are never evicted since the
// addresses derived on chain never change. Concurrent misses for one key
// share a single load.
type AddressCache struct {
	mu    sync.RWMutex
	data  map[string]*address.Address
	group singleflight.Group
}

func NewAddressCache() *AddressCache {
	return &AddressCache{data: make(map[string]*address.Address)}
}

func (c *AddressCache) Get(key string) (*address.Address, bool) {
	c.mu.RLock()
	addr, ok := c.data[key]
	c.mu.RUnlock()
	return addr, ok
}

func (c *AddressCache) Set(key string, addr *address.Address) {
	c.mu.Lock()
	c.data[key] = addr
	c.mu.Unlock()
}

func (c *AddressCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Load returns the cached address for key or fetches and stores it.
// Failed fetches are not cached.
func (c *AddressCache) Load(ctx context.Context, key string, fetch func(context.Context) (*address.Address, error)) (*address.Address, error) {
	if addr, ok := c.Get(key); ok {
		return addr, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if addr, ok := c.Get(key); ok {
			return addr, nil
		}
		addr, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, addr)
		return addr, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*address.Address), nil
}
