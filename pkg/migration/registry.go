package migration

import (
	"sort"
	"sync"
)

// StoreInfo describes an opened store. Tenant fields are empty for global
// stores.
type StoreInfo struct {
	StoreName        string
	TenantKey        *int64
	TenantUniqueName string
}

// StoreRegistry records the stores opened by one owner, usually a store
// manager, so that steps can look up the tenant of the store they migrate.
// It is safe for concurrent use.
type StoreRegistry struct {
	mu     sync.RWMutex
	stores map[string]StoreInfo
}

func NewStoreRegistry() *StoreRegistry {
	return &StoreRegistry{stores: make(map[string]StoreInfo)}
}

// Put records info, replacing any earlier record for the same store name.
func (r *StoreRegistry) Put(info StoreInfo) error {
	if info.StoreName == "" {
		return ErrInvalidStoreKey
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[info.StoreName] = info
	return nil
}

// Get returns the record for storeName.
func (r *StoreRegistry) Get(storeName string) (StoreInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.stores[storeName]
	return info, ok
}

// Delete forgets storeName.
func (r *StoreRegistry) Delete(storeName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, storeName)
}

// Names returns the recorded store names in sorted order.
func (r *StoreRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
