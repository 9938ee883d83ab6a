package migration_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/snapmig/pkg/migration"
)

func TestStoreRegistry(t *testing.T) {
	r := migration.NewStoreRegistry()
	tenant := int64(42)

	require.NoError(t, r.Put(migration.StoreInfo{StoreName: "global"}))
	require.NoError(t, r.Put(migration.StoreInfo{StoreName: "acme", TenantKey: &tenant, TenantUniqueName: "acme-corp"}))
	assert.ErrorIs(t, r.Put(migration.StoreInfo{}), migration.ErrInvalidStoreKey)

	info, ok := r.Get("acme")
	require.True(t, ok)
	require.NotNil(t, info.TenantKey)
	assert.Equal(t, int64(42), *info.TenantKey)
	assert.Equal(t, "acme-corp", info.TenantUniqueName)

	info, ok = r.Get("global")
	require.True(t, ok)
	assert.Nil(t, info.TenantKey)

	assert.Equal(t, []string{"acme", "global"}, r.Names())

	r.Delete("acme")
	_, ok = r.Get("acme")
	assert.False(t, ok)
	assert.Equal(t, []string{"global"}, r.Names())
}

func TestStoreRegistryReplaces(t *testing.T) {
	r := migration.NewStoreRegistry()
	require.NoError(t, r.Put(migration.StoreInfo{StoreName: "s", TenantUniqueName: "old"}))
	require.NoError(t, r.Put(migration.StoreInfo{StoreName: "s", TenantUniqueName: "new"}))

	info, ok := r.Get("s")
	require.True(t, ok)
	assert.Equal(t, "new", info.TenantUniqueName)
}

func TestStoreRegistryConcurrentUse(t *testing.T) {
	r := migration.NewStoreRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("store-%02d", i)
			assert.NoError(t, r.Put(migration.StoreInfo{StoreName: name}))
			_, ok := r.Get(name)
			assert.True(t, ok)
			_ = r.Names()
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.Names(), 20)
}
