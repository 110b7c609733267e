package cart

import (
	"context"
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/zm-storefront/internal/domain/catalog"
	"github.com/xenking/zm-storefront/internal/domain/pricing"
)

// --- Mock implementations ---

type mockStorage struct {
	data   map[string][]byte
	getErr error
	setErr error
	writes int
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string][]byte)}
}

func (m *mockStorage) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNoValue
	}
	return v, nil
}

func (m *mockStorage) Set(_ context.Context, key string, value []byte) error {
	m.writes++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

// --- Helpers ---

func newTestItem(key string, price int64, discount decimal.NullDecimal) Item {
	return Item{
		Key:       key,
		CatalogID: "id-" + key,
		Name:      "Product " + key,
		UnitPrice: decimal.NewFromInt(price),
		Discount:  discount,
		ImageURL:  "https://cdn.example.com/" + key + ".jpg",
	}
}

func newTestStore(t *testing.T) (*Store, *mockStorage) {
	t.Helper()
	storage := newMockStorage()
	s := NewStore(storage)
	s.Initialize(context.Background())
	return s, storage
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// --- Tests ---

func TestAddItem_MergesQuantities(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a := newTestItem("a", 500, pricing.Percent(10))

	for _, q := range []int{1, 2, 3, 4} {
		s.AddItem(ctx, a, q)
	}

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Key)
	assert.Equal(t, 10, items[0].Quantity)
	assert.Equal(t, 10, s.Count())
}

func TestAddItem_PreservesExistingFieldsAndPosition(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 1)
	s.AddItem(ctx, newTestItem("b", 200, decimal.NullDecimal{}), 1)

	renamed := newTestItem("a", 999, pricing.Percent(50))
	renamed.Name = "Renamed"
	s.AddItem(ctx, renamed, 2)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Key)
	assert.Equal(t, "Product a", items[0].Name)
	assert.True(t, decimal.NewFromInt(100).Equal(items[0].UnitPrice))
	assert.False(t, items[0].Discount.Valid)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "b", items[1].Key)
}

func TestAddItem_AppendsNewKeysInOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, k := range []string{"c", "a", "b"} {
		s.AddItem(ctx, newTestItem(k, 10, decimal.NullDecimal{}), 1)
	}

	var keys []string
	for _, item := range s.Items() {
		keys = append(keys, item.Key)
	}
	assert.Equal(t, []string{"c", "a", "b"}, keys)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	s.AddItem(ctx, newTestItem("a", 500, pricing.Percent(10)), 2)
	s.AddItem(ctx, newTestItem("b", 1200, decimal.NullDecimal{}), 1)

	s.RemoveItem(ctx, "a")

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Key)
	assert.Equal(t, 1, s.Count())
}

func TestRemoveItem_AbsentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	s.AddItem(ctx, newTestItem("a", 500, decimal.NullDecimal{}), 2)
	before := s.Items()

	s.RemoveItem(ctx, "missing")

	assert.Empty(t, cmp.Diff(before, s.Items(), decimalEqual))
}

func TestSetQuantity_Clamps(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{in: 5, want: 5},
		{in: 1, want: 1},
		{in: 2.9, want: 2},
		{in: 0.5, want: 1},
		{in: 0, want: 1},
		{in: -3, want: 1},
		{in: math.NaN(), want: 1},
		{in: math.Inf(1), want: 1},
		{in: math.Inf(-1), want: 1},
		{in: 1e12, want: MaxQuantity},
	}

	ctx := context.Background()
	for _, tt := range tests {
		s, _ := newTestStore(t)
		s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 3)

		s.SetQuantity(ctx, "a", tt.in)

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, tt.want, items[0].Quantity, "input %v", tt.in)
	}
}

func TestSetQuantity_AbsentKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 3)

	s.SetQuantity(ctx, "missing", 7)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, storage := newTestStore(t)
	s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 3)

	s.Clear(ctx)

	assert.Empty(t, s.Items())
	assert.Equal(t, 0, s.Count())
	assert.JSONEq(t, `[]`, string(storage.data[DefaultKey]))
}

func TestTotals_Scenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a := newTestItem("a", 500, pricing.Percent(10))

	s.AddItem(ctx, a, 2)
	s.AddItem(ctx, a, 3)

	totals := s.Totals()
	assert.Equal(t, 5, totals.Quantity)
	assert.Equal(t, "2250", totals.Price.String())
}

func TestItems_ReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 1)

	items := s.Items()
	items[0].Quantity = 99

	assert.Len(t, s.Items(), 1)
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestPersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	s, storage := newTestStore(t)

	s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 1)
	s.SetQuantity(ctx, "a", 4)
	s.RemoveItem(ctx, "a")
	s.Clear(ctx)

	assert.Equal(t, 4, storage.writes)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	s := NewStore(storage)
	s.Initialize(ctx)

	s.AddItem(ctx, newTestItem("b", 1200, decimal.NullDecimal{}), 1)
	s.AddItem(ctx, newTestItem("a", 500, pricing.Percent(10)), 2)
	noImage := newTestItem("c", 75, decimal.NewNullDecimal(decimal.RequireFromString("12.5")))
	noImage.ImageURL = ""
	s.AddItem(ctx, noImage, 7)

	restored := NewStore(storage)
	restored.Initialize(ctx)

	assert.Empty(t, cmp.Diff(s.Items(), restored.Items(), decimalEqual))
	assert.Equal(t, s.Count(), restored.Count())
}

func TestInitialize_FailsSoft(t *testing.T) {
	ctx := context.Background()

	t.Run("read error", func(t *testing.T) {
		storage := newMockStorage()
		storage.getErr = errors.New("storage unavailable")
		s := NewStore(storage)

		s.Initialize(ctx)
		assert.Empty(t, s.Items())
	})

	t.Run("nothing stored", func(t *testing.T) {
		s := NewStore(newMockStorage())

		s.Initialize(ctx)
		assert.Empty(t, s.Items())
	})

	for name, raw := range map[string]string{
		"not json":        `{{{`,
		"not an array":    `{"slug":"a"}`,
		"wrong types":     `[{"slug":"a","quantity":"many"}]`,
		"truncated":       `[{"slug":"a","quantity":1}`,
		"price not a num": `[{"slug":"a","price":true,"quantity":1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			storage := newMockStorage()
			storage.data[DefaultKey] = []byte(raw)
			s := NewStore(storage)

			s.Initialize(ctx)
			assert.Empty(t, s.Items())
			assert.Equal(t, 0, s.Count())
		})
	}
}

func TestInitialize_ReadsBrowserStorageFormat(t *testing.T) {
	storage := newMockStorage()
	storage.data[DefaultKey] = []byte(`[
		{"id":"1","name":"Earbuds","slug":"earbuds","price":2500,"discount":20,"imageUrl":"https://x/e.jpg","quantity":2},
		{"id":"2","name":"Cable","slug":"cable","price":300,"discount":null,"imageUrl":null,"quantity":1}
	]`)
	s := NewStore(storage)
	s.Initialize(context.Background())

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "earbuds", items[0].Key)
	assert.Equal(t, "Earbuds", items[0].Name)
	assert.True(t, items[0].Discount.Valid)
	assert.Equal(t, "https://x/e.jpg", items[0].ImageURL)
	assert.False(t, items[1].Discount.Valid)
	assert.Empty(t, items[1].ImageURL)
	assert.Equal(t, "4300", s.Totals().Price.String())
}

func TestInitialize_Normalizes(t *testing.T) {
	storage := newMockStorage()
	storage.data[DefaultKey] = []byte(`[
		{"slug":"a","price":10,"quantity":2},
		{"slug":"","price":10,"quantity":5},
		{"slug":"b","price":10,"quantity":0},
		{"slug":"a","price":99,"quantity":3}
	]`)
	s := NewStore(storage)
	s.Initialize(context.Background())

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Key)
	assert.Equal(t, 5, items[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(items[0].UnitPrice))
	assert.Equal(t, "b", items[1].Key)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestWriteFailure_KeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	storage.setErr = errors.New("quota exceeded")

	var reported []error
	s := NewStore(storage, WithPersistErrorHandler(func(err error) {
		reported = append(reported, err)
	}))
	s.Initialize(ctx)

	s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 2)
	s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 1)

	assert.Equal(t, 3, s.Count())
	require.Len(t, reported, 2)
	assert.EqualError(t, reported[0], "quota exceeded")
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	s := NewStore(storage, WithKey("other"))
	s.Initialize(ctx)

	s.AddItem(ctx, newTestItem("a", 100, decimal.NullDecimal{}), 1)

	assert.Contains(t, storage.data, "other")
	assert.NotContains(t, storage.data, DefaultKey)
}

func TestItemFromProduct(t *testing.T) {
	p := catalog.Product{
		ID:       "42",
		Name:     "Power Bank",
		Slug:     "power-bank",
		Price:    decimal.NewFromInt(4500),
		Discount: pricing.Percent(15),
		Images:   []string{"front.jpg", "back.jpg"},
	}

	item := ItemFromProduct(p)
	assert.Equal(t, "power-bank", item.Key)
	assert.Equal(t, "42", item.CatalogID)
	assert.Equal(t, "Power Bank", item.Name)
	assert.Equal(t, "front.jpg", item.ImageURL)
	assert.Equal(t, "3825", item.Pricing().Discounted.String())
}
