package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/zm-storefront/internal/domain/cart"
)

func TestOpenCartStorage(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		cfg  CartConfig
	}{
		{name: "memory", cfg: CartConfig{Storage: StorageMemory}},
		{name: "file", cfg: CartConfig{Storage: StorageFile, Path: filepath.Join(t.TempDir(), "cart")}},
		{name: "sqlite", cfg: CartConfig{Storage: StorageSQLite, Path: filepath.Join(t.TempDir(), "nested", "cart.db")}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, closeFn, err := OpenCartStorage(ctx, tc.cfg)
			require.NoError(t, err)
			defer closeFn()

			_, err = s.Get(ctx, "zm-cart")
			require.ErrorIs(t, err, cart.ErrNoValue)

			require.NoError(t, s.Set(ctx, "zm-cart", []byte("[]")))
			got, err := s.Get(ctx, "zm-cart")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(got))
		})
	}
}

func TestOpenCartStorage_Unknown(t *testing.T) {
	_, _, err := OpenCartStorage(context.Background(), CartConfig{Storage: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown cart storage "redis"`)
}

func TestCartOpener_RehydratesAcrossRuns(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		Cart:    CartConfig{Storage: StorageFile, Path: t.TempDir(), Key: "test-cart"},
		Catalog: CatalogConfig{Source: SourceDatoCMS},
		Order:   OrderConfig{BaseURL: "https://wa.me", Destination: "1"},
	}
	open := CartOpener(cfg)

	env, err := open(ctx, zap.NewNop())
	require.NoError(t, err)
	env.Cart.AddItem(ctx, cart.Item{Key: "earbuds", Name: "Earbuds", UnitPrice: decimal.NewFromInt(4500)}, 2)
	env.Close()

	env, err = open(ctx, zap.NewNop())
	require.NoError(t, err)
	defer env.Close()

	items := env.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "earbuds", items[0].Key)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCartOpener_CatalogValidatedOnUse(t *testing.T) {
	t.Setenv("DATOCMS_READONLY_TOKEN", "")
	ctx := context.Background()
	cfg := &Config{
		Cart:    CartConfig{Storage: StorageMemory, Key: cart.DefaultKey},
		Catalog: CatalogConfig{Source: SourceDatoCMS},
	}

	env, err := CartOpener(cfg)(ctx, zap.NewNop())
	require.NoError(t, err, "local commands must not need catalog credentials")
	defer env.Close()

	_, err = env.Catalog(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datocms token is required")
}
