package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

// SnapshotKey is the store key the full cart snapshot is persisted under.
const SnapshotKey = "cart"

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	ErrOutOfStock      = errors.New("cart: requested quantity exceeds stock")
	ErrLineNotFound    = errors.New("cart: line not found")
)

// Ledger holds the in-memory cart state for one user and persists the full
// snapshot back to the store after every mutation. The store is the single
// source of truth: construct a fresh ledger via Load rather than caching one
// across requests.
type Ledger struct {
	store store.Store
	lines []Line
}

// Load reads the cart snapshot from the store. A missing key yields an empty
// cart, not an error.
func Load(ctx context.Context, st store.Store) (*Ledger, error) {
	value, err := st.Get(ctx, SnapshotKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return &Ledger{store: st}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: failed to load snapshot: %w", err)
	}

	var snapshot []snapshotLine
	if err := json.Unmarshal(value, &snapshot); err != nil {
		return nil, fmt.Errorf("cart: failed to decode snapshot: %w", err)
	}

	return &Ledger{store: st, lines: fromSnapshot(snapshot)}, nil
}

func (l *Ledger) persist(ctx context.Context) error {
	value, err := json.Marshal(toSnapshot(l.lines))
	if err != nil {
		return fmt.Errorf("cart: failed to encode snapshot: %w", err)
	}
	if err := l.store.Set(ctx, SnapshotKey, value); err != nil {
		return fmt.Errorf("cart: failed to persist snapshot: %w", err)
	}
	return nil
}

// Lines returns the cart lines in insertion order.
func (l *Ledger) Lines() []Line {
	lines := make([]Line, len(l.lines))
	copy(lines, l.lines)
	return lines
}

// SelectedLines returns the lines included in totals and checkout.
func (l *Ledger) SelectedLines() []Line {
	var selected []Line
	for _, line := range l.lines {
		if line.Selected {
			selected = append(selected, line)
		}
	}
	return selected
}

// AddInput carries the catalog snapshot captured at add time.
type AddInput struct {
	GoodsID   int64
	Name      string
	Image     string
	UnitPrice int64
	Stock     int
	Quantity  int
	Specs     map[string]string
}

// AddOrIncrement merges the given goods+specs combination into the cart: an
// existing line with structurally equal specs gets its quantity incremented,
// otherwise a new selected line is appended. Stock is not checked here; the
// caller validates availability before calling.
func (l *Ledger) AddOrIncrement(ctx context.Context, in AddInput) (Line, error) {
	if in.Quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}

	for i := range l.lines {
		if l.lines[i].matches(in.GoodsID, in.Specs) {
			l.lines[i].Quantity += in.Quantity
			if err := l.persist(ctx); err != nil {
				return Line{}, err
			}
			return l.lines[i], nil
		}
	}

	lineID, err := uuid.NewV4()
	if err != nil {
		return Line{}, fmt.Errorf("cart: failed to generate line id: %w", err)
	}

	line := Line{
		LineID:    lineID,
		GoodsID:   in.GoodsID,
		Name:      in.Name,
		Image:     in.Image,
		UnitPrice: in.UnitPrice,
		Stock:     in.Stock,
		Quantity:  in.Quantity,
		Specs:     in.Specs,
		Selected:  true,
	}
	l.lines = append(l.lines, line)

	if err := l.persist(ctx); err != nil {
		return Line{}, err
	}

	log.Debug().Int64("goods_id", in.GoodsID).Int("quantity", in.Quantity).Msg("cart: line added")
	return line, nil
}

func (l *Ledger) find(lineID uuid.UUID) (int, error) {
	for i := range l.lines {
		if l.lines[i].LineID == lineID {
			return i, nil
		}
	}
	return 0, ErrLineNotFound
}

// SetQuantity changes a line's quantity. Quantities below 1 are rejected with
// ErrInvalidQuantity (use Remove instead); quantities above the line's stored
// stock snapshot are rejected with ErrOutOfStock. On rejection the line is
// left unchanged and nothing is persisted.
func (l *Ledger) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	i, err := l.find(lineID)
	if err != nil {
		return err
	}

	if quantity > l.lines[i].Stock {
		return fmt.Errorf("%w: have %d, want %d", ErrOutOfStock, l.lines[i].Stock, quantity)
	}

	l.lines[i].Quantity = quantity
	return l.persist(ctx)
}

// Remove deletes the line from the cart.
func (l *Ledger) Remove(ctx context.Context, lineID uuid.UUID) error {
	i, err := l.find(lineID)
	if err != nil {
		return err
	}

	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	return l.persist(ctx)
}

// RemoveGoods drops every line whose goods id is in the given set, regardless
// of specs. Used after a successful order submission so unrelated lines survive.
func (l *Ledger) RemoveGoods(ctx context.Context, goodsIDs []int64) error {
	submitted := make(map[int64]bool, len(goodsIDs))
	for _, id := range goodsIDs {
		submitted[id] = true
	}

	kept := l.lines[:0]
	for _, line := range l.lines {
		if !submitted[line.GoodsID] {
			kept = append(kept, line)
		}
	}
	l.lines = kept

	return l.persist(ctx)
}

// ToggleSelect flips a line's selection and returns the new value.
func (l *Ledger) ToggleSelect(ctx context.Context, lineID uuid.UUID) (bool, error) {
	i, err := l.find(lineID)
	if err != nil {
		return false, err
	}

	l.lines[i].Selected = !l.lines[i].Selected
	if err := l.persist(ctx); err != nil {
		return false, err
	}
	return l.lines[i].Selected, nil
}

// SetAllSelected applies the same selection value to every line.
func (l *Ledger) SetAllSelected(ctx context.Context, selected bool) error {
	for i := range l.lines {
		l.lines[i].Selected = selected
	}
	return l.persist(ctx)
}

// Clear removes every line.
func (l *Ledger) Clear(ctx context.Context) error {
	l.lines = nil
	return l.persist(ctx)
}

// Totals recomputes price and quantity sums over selected lines from scratch.
func (l *Ledger) Totals() (totalPrice int64, totalQuantity int) {
	for _, line := range l.lines {
		if line.Selected {
			totalPrice += line.UnitPrice * int64(line.Quantity)
			totalQuantity += line.Quantity
		}
	}
	return totalPrice, totalQuantity
}

// IsFullySelected reports whether the cart is non-empty and every line is selected.
func (l *Ledger) IsFullySelected() bool {
	if len(l.lines) == 0 {
		return false
	}
	for _, line := range l.lines {
		if !line.Selected {
			return false
		}
	}
	return true
}
