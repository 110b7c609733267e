package cart

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// MaxQuantity bounds the quantity of a line item so totals cannot overflow
// int.
const MaxQuantity = math.MaxInt32

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key. Defaults to DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used to report swallowed storage failures.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithPersistErrorHandler registers a callback invoked after a failed write.
// The in-memory cart stays authoritative either way.
func WithPersistErrorHandler(fn func(error)) Option {
	return func(s *Store) { s.onPersistErr = fn }
}

// Store owns the cart state. It is the only component that mutates the line
// items; readers receive copies. Storage failures never reach the caller:
// reads fall back to an empty cart and writes are dropped after logging.
type Store struct {
	storage      Storage
	key          string
	lg           *zap.Logger
	onPersistErr func(error)

	mu    sync.Mutex
	items []LineItem
}

// NewStore creates an empty Store backed by storage. Call Initialize to
// rehydrate previously persisted contents.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		lg:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Initialize loads the persisted cart. Missing, unreadable or malformed data
// leaves the cart empty.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil

	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNoValue) {
			s.lg.Warn("Cart storage read failed, starting empty", zap.String("key", s.key), zap.Error(err))
		}
		return
	}

	items, err := Decode(data)
	if err != nil {
		s.lg.Warn("Persisted cart is malformed, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}
	s.items = items
}

// AddItem adds quantity units of item. An existing entry with the same key
// keeps its fields and position and only accumulates quantity; otherwise
// the item is appended. quantity is not validated.
func (s *Store) AddItem(ctx context.Context, item Item, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(item.Key); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, LineItem{Item: item, Quantity: quantity})
	}
	s.persist(ctx)
}

// RemoveItem deletes the entry with the given key. Absent keys are ignored.
func (s *Store) RemoveItem(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = slices.DeleteFunc(s.items, func(l LineItem) bool { return l.Key == key })
	s.persist(ctx)
}

// SetQuantity sets the quantity of the entry with the given key. The value
// is floored and anything below one (including NaN and infinities) becomes
// one. Absent keys are ignored.
func (s *Store) SetQuantity(ctx context.Context, key string, quantity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity = normalizeQuantity(quantity)
	}
	s.persist(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
}

// Items returns a snapshot of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.items)
}

// Count returns the total number of units in the cart.
func (s *Store) Count() int {
	return s.Totals().Quantity
}

// Totals returns the derived quantity and price totals.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summarize(s.items)
}

func (s *Store) indexOf(key string) int {
	return slices.IndexFunc(s.items, func(l LineItem) bool { return l.Key == key })
}

// persist writes the current state. Must be called with s.mu held.
func (s *Store) persist(ctx context.Context) {
	if err := s.storage.Set(ctx, s.key, Encode(s.items)); err != nil {
		s.lg.Warn("Cart storage write failed", zap.String("key", s.key), zap.Error(err))
		if s.onPersistErr != nil {
			s.onPersistErr(err)
		}
	}
}

func normalizeQuantity(q float64) int {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 1
	}
	q = math.Floor(q)
	if q < 1 {
		return 1
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return int(q)
}
