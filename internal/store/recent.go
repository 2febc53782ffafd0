package store

import (
	"sync"
	"time"

	"kart-storefront/internal/model"
	"kart-storefront/internal/storage"

	"github.com/rs/zerolog"
)

// recentRecord is the persisted shape of the recently-viewed list.
type recentRecord struct {
	Entries []model.RecentlyViewedEntry `json:"entries"`
}

// RecentlyViewed holds a bounded, most-recent-first list of viewed
// products. Re-viewing a product moves its entry to the front rather than
// duplicating it; the list never exceeds its configured bound.
type RecentlyViewed struct {
	mu      sync.Mutex
	entries []model.RecentlyViewedEntry
	max     int
	storage *storage.Store
	logger  zerolog.Logger
	subs    subscribers

	now func() time.Time // swapped in tests
}

// NewRecentlyViewed creates a recently-viewed store bounded to max entries,
// loading prior entries from durable storage.
func NewRecentlyViewed(st *storage.Store, max int, logger zerolog.Logger) *RecentlyViewed {
	r := &RecentlyViewed{
		max:     max,
		storage: st,
		logger:  logger.With().Str("store", "recently_viewed").Logger(),
		now:     time.Now,
	}

	var record recentRecord
	found, err := st.Get(storage.KeyRecentlyViewed, &record)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to load persisted recently-viewed list, starting empty")
	} else if found {
		r.entries = record.Entries
		if len(r.entries) > max {
			r.entries = r.entries[:max]
		}
	}

	return r
}

// RecordView inserts the product at the front of the list. An existing
// entry for the same product is removed from its old position first, and
// the list is truncated to the configured bound.
func (r *RecentlyViewed) RecordView(product model.Product) {
	entry := model.RecentlyViewedEntry{
		ProductID: product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		Image:     product.Image,
		Price:     product.Price,
		ViewedAt:  r.now(),
	}

	r.mu.Lock()
	for i := range r.entries {
		if r.entries[i].ProductID == product.ID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	r.entries = append([]model.RecentlyViewedEntry{entry}, r.entries...)
	if len(r.entries) > r.max {
		r.entries = r.entries[:r.max]
	}
	r.persistLocked()
	r.mu.Unlock()

	r.logger.Debug().Str("product_id", product.ID).Msg("view recorded")
	r.subs.notify()
}

// Entries returns a copy of the list, most recent first.
func (r *RecentlyViewed) Entries() []model.RecentlyViewedEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]model.RecentlyViewedEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// ClearAll empties the list.
func (r *RecentlyViewed) ClearAll() {
	r.mu.Lock()
	r.entries = nil
	r.persistLocked()
	r.mu.Unlock()

	r.logger.Debug().Msg("recently-viewed list cleared")
	r.subs.notify()
}

// Subscribe registers a state-changed callback and returns an unsubscribe
// function.
func (r *RecentlyViewed) Subscribe(fn func()) func() {
	return r.subs.subscribe(fn)
}

func (r *RecentlyViewed) persistLocked() {
	if err := r.storage.Put(storage.KeyRecentlyViewed, recentRecord{Entries: r.entries}); err != nil {
		r.logger.Warn().Err(err).Msg("failed to persist recently-viewed list, in-memory state remains authoritative")
	}
}
