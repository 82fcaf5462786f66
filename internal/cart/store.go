// Package cart owns the visitor's shopping cart and its persisted record.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"finitefield.org/mitienda-web/internal/storage"
)

// StorageKey is the slot key holding the serialized cart.
const StorageKey = "mitienda_cart_v1"

var (
	errStorageRequired = errors.New("cart store: storage is required")

	// ErrInvalidQuantity indicates a non-positive quantity was supplied to Add.
	ErrInvalidQuantity = errors.New("cart store: quantity must be positive")
	// ErrInvalidProductID indicates a blank product id was supplied to Add.
	ErrInvalidProductID = errors.New("cart store: product id is required")
	// ErrQuantityOverflow indicates an Add would push the cart count past the int range.
	ErrQuantityOverflow = errors.New("cart store: quantity too large")
)

var tracer = otel.Tracer("finitefield.org/mitienda-web/internal/cart")

// StoreDeps wires the storage slot and optional logger for a Store.
type StoreDeps struct {
	Storage storage.Storage
	Logger  *zap.Logger
	// Key overrides StorageKey.
	Key string
}

// Store reads and writes the cart record. Every operation reads and writes the full record;
// concurrent writers to the same slot are last-write-wins.
type Store struct {
	storage storage.Storage
	key     string
	logger  *zap.Logger
}

// NewStore constructs a Store.
func NewStore(deps StoreDeps) (*Store, error) {
	if deps.Storage == nil {
		return nil, errStorageRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	key := strings.TrimSpace(deps.Key)
	if key == "" {
		key = StorageKey
	}
	return &Store{storage: deps.Storage, key: key, logger: logger}, nil
}

// Load returns the persisted cart. A missing or unreadable record yields an empty cart;
// only storage failures are returned as errors.
func (s *Store) Load(ctx context.Context) (State, error) {
	ctx, span := tracer.Start(ctx, "cart.Load")
	defer span.End()

	raw, ok, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		span.RecordError(err)
		return State{}, fmt.Errorf("cart store: load: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return State{}, nil
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.logger.Debug("discarding unreadable cart record", zap.String("key", s.key), zap.Error(err))
		return State{}, nil
	}
	return st, nil
}

// Save overwrites the persisted record with st.
func (s *Store) Save(ctx context.Context, st State) error {
	ctx, span := tracer.Start(ctx, "cart.Save")
	defer span.End()

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("cart store: encode: %w", err)
	}
	if err := s.storage.SetItem(ctx, s.key, string(raw)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("cart store: save: %w", err)
	}
	return nil
}

// Add increments productID's quantity by quantity, creating the line when absent.
// The id is not checked against the catalog.
func (s *Store) Add(ctx context.Context, productID string, quantity int) (State, error) {
	ctx, span := tracer.Start(ctx, "cart.Add")
	defer span.End()

	id := strings.TrimSpace(productID)
	if id == "" {
		return State{}, ErrInvalidProductID
	}
	if quantity < 1 {
		return State{}, ErrInvalidQuantity
	}
	span.SetAttributes(attribute.String("cart.product_id", id), attribute.Int("cart.quantity", quantity))

	current, err := s.Load(ctx)
	if err != nil {
		return State{}, err
	}
	if !current.canAdd(quantity) {
		return State{}, ErrQuantityOverflow
	}
	next := current.add(id, quantity)
	if err := s.Save(ctx, next); err != nil {
		return State{}, err
	}
	s.logger.Debug("cart item added",
		zap.String("productID", id),
		zap.Int("quantity", quantity),
		zap.Int("count", next.Count()),
	)
	return next, nil
}

// Clear replaces the cart with an empty one.
func (s *Store) Clear(ctx context.Context) (State, error) {
	ctx, span := tracer.Start(ctx, "cart.Clear")
	defer span.End()

	empty := State{}
	if err := s.Save(ctx, empty); err != nil {
		return State{}, err
	}
	s.logger.Debug("cart cleared")
	return empty, nil
}
