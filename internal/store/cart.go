package store

import (
	"sync"

	"kart-storefront/internal/model"
	"kart-storefront/internal/storage"

	"github.com/rs/zerolog"
)

// cartRecord is the persisted shape of the cart. The drawer flag is
// deliberately excluded; only the lines survive a restart.
type cartRecord struct {
	Lines []model.CartLine `json:"lines"`
}

// Cart holds the shopping cart state. Mutators apply the change in memory,
// persist the lines, then notify subscribers. No two lines share an
// identity key and no line is ever retained with quantity below one.
type Cart struct {
	mu      sync.Mutex
	state   model.CartState
	storage *storage.Store
	logger  zerolog.Logger
	subs    subscribers
}

// NewCart creates a cart store, loading prior lines from durable storage.
// A missing or unparsable record initialises an empty cart.
func NewCart(st *storage.Store, logger zerolog.Logger) *Cart {
	c := &Cart{
		storage: st,
		logger:  logger.With().Str("store", "cart").Logger(),
	}

	var record cartRecord
	found, err := st.Get(storage.KeyCart, &record)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to load persisted cart, starting empty")
	} else if found {
		c.state.Lines = record.Lines
		c.logger.Debug().Int("lines", len(record.Lines)).Msg("loaded persisted cart")
	}

	return c
}

// Snapshot returns a copy of the current cart state.
func (c *Cart) Snapshot() model.CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// AddItem adds a line to the cart. If a line with the same identity key
// already exists its quantity is incremented by line.Quantity; otherwise
// the line is appended. Rejects negative prices and non-positive
// quantities without touching the state.
func (c *Cart) AddItem(line model.CartLine) error {
	if line.Price < 0 {
		return model.ErrInvalidPrice
	}
	if line.Quantity < 1 {
		return model.ErrInvalidQuantity
	}

	c.mu.Lock()
	key := line.Key()
	merged := false
	for i := range c.state.Lines {
		if c.state.Lines[i].Key() == key {
			c.state.Lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		c.state.Lines = append(c.state.Lines, line)
	}
	c.persistLocked()
	c.mu.Unlock()

	c.logger.Debug().
		Str("product_id", line.ProductID).
		Int("quantity", line.Quantity).
		Bool("merged", merged).
		Msg("item added to cart")

	c.subs.notify()
	return nil
}

// UpdateQuantity sets the matching line's quantity. A quantity of zero or
// less removes the line. A missing line is a no-op, not an error; removed
// lines are not resurrected without a new AddItem.
func (c *Cart) UpdateQuantity(key model.LineKey, quantity int) {
	c.mu.Lock()
	changed := false
	for i := range c.state.Lines {
		if c.state.Lines[i].Key() != key {
			continue
		}
		if quantity <= 0 {
			c.state.Lines = append(c.state.Lines[:i], c.state.Lines[i+1:]...)
		} else {
			c.state.Lines[i].Quantity = quantity
		}
		changed = true
		break
	}
	if changed {
		c.persistLocked()
	}
	c.mu.Unlock()

	if changed {
		c.subs.notify()
	}
}

// RemoveItem removes the matching line if present; no-op otherwise.
func (c *Cart) RemoveItem(key model.LineKey) {
	c.UpdateQuantity(key, 0)
}

// Clear empties all lines.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.state.Lines = nil
	c.persistLocked()
	c.mu.Unlock()

	c.logger.Debug().Msg("cart cleared")
	c.subs.notify()
}

// ItemCount returns the sum of quantities across lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.ItemCount()
}

// Total returns the sum of price*quantity across lines.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Total()
}

// Open marks the cart drawer visible. The flag is not persisted.
func (c *Cart) Open() {
	c.setOpen(true)
}

// Close marks the cart drawer hidden. The flag is not persisted.
func (c *Cart) Close() {
	c.setOpen(false)
}

// Subscribe registers a state-changed callback and returns an unsubscribe
// function. The callback fires after each mutation has been applied.
func (c *Cart) Subscribe(fn func()) func() {
	return c.subs.subscribe(fn)
}

func (c *Cart) setOpen(open bool) {
	c.mu.Lock()
	changed := c.state.IsOpen != open
	c.state.IsOpen = open
	c.mu.Unlock()

	if changed {
		c.subs.notify()
	}
}

// persistLocked writes the current lines to durable storage. Callers hold
// c.mu. Write failures are logged and swallowed: losing persistence is
// recoverable, failing the user's mutation is not.
func (c *Cart) persistLocked() {
	if err := c.storage.Put(storage.KeyCart, cartRecord{Lines: c.state.Lines}); err != nil {
		c.logger.Warn().Err(err).Msg("failed to persist cart, in-memory state remains authoritative")
	}
}

func (c *Cart) snapshotLocked() model.CartState {
	lines := make([]model.CartLine, len(c.state.Lines))
	copy(lines, c.state.Lines)
	return model.CartState{Lines: lines, IsOpen: c.state.IsOpen}
}
