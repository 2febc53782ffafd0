// Package carousel implements the home-page banner slideshow: a timed
// auto-advance loop with manual override and resume-after-inactivity.
package carousel

import (
	"sync"
	"time"

	"kart-storefront/internal/model"

	"github.com/rs/zerolog"
)

// State is a point-in-time view of the carousel.
type State struct {
	Banners     []model.Banner
	Index       int
	Direction   int // +1 or -1, selects the slide-transition animation
	AutoPlaying bool
}

// Carousel advances through a banner set on a fixed interval. Manual
// navigation pauses autoplay; after a fixed inactivity delay with no
// further interaction, autoplay resumes. Timers are generation-guarded so
// a stale timer firing after Stop or SetBanners mutates nothing.
type Carousel struct {
	mu           sync.Mutex
	banners      []model.Banner
	index        int
	direction    int
	autoPlaying  bool
	gen          int
	stopped      bool
	advanceEvery time.Duration
	resumeAfter  time.Duration
	advanceTimer *time.Timer
	resumeTimer  *time.Timer
	logger       zerolog.Logger
}

// New creates a stopped carousel with no banners. SetBanners starts it.
func New(advanceEvery, resumeAfter time.Duration, logger zerolog.Logger) *Carousel {
	return &Carousel{
		direction:    1,
		advanceEvery: advanceEvery,
		resumeAfter:  resumeAfter,
		logger:       logger.With().Str("component", "carousel").Logger(),
	}
}

// Snapshot returns the current carousel state.
func (c *Carousel) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	banners := make([]model.Banner, len(c.banners))
	copy(banners, c.banners)
	return State{
		Banners:     banners,
		Index:       c.index,
		Direction:   c.direction,
		AutoPlaying: c.autoPlaying,
	}
}

// SetBanners replaces the banner set, resets to the first slide and
// restarts autoplay. With fewer than two banners autoplay stays off.
func (c *Carousel) SetBanners(banners []model.Banner) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	c.banners = make([]model.Banner, len(banners))
	copy(c.banners, banners)
	c.index = 0
	c.direction = 1
	c.autoPlaying = len(c.banners) > 1
	c.bumpGenLocked()
	c.scheduleAdvanceLocked()

	c.logger.Debug().Int("count", len(banners)).Msg("banner set replaced")
}

// Next advances one slide with wraparound and pauses autoplay.
func (c *Carousel) Next() {
	c.manual(func() {
		c.index = (c.index + 1) % len(c.banners)
		c.direction = 1
	})
}

// Prev retreats one slide with wraparound and pauses autoplay.
func (c *Carousel) Prev() {
	c.manual(func() {
		c.index = (c.index - 1 + len(c.banners)) % len(c.banners)
		c.direction = -1
	})
}

// GoTo jumps to slide i and pauses autoplay. Out-of-range indices are
// ignored. Direction follows the sign of the jump.
func (c *Carousel) GoTo(i int) {
	c.manual(func() {
		if i < 0 || i >= len(c.banners) || i == c.index {
			return
		}
		if i > c.index {
			c.direction = 1
		} else {
			c.direction = -1
		}
		c.index = i
	})
}

// Stop tears down the carousel. All outstanding timers become no-ops.
func (c *Carousel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	c.autoPlaying = false
	c.bumpGenLocked()
}

// manual applies a navigation action, pauses autoplay and schedules the
// inactivity-resume timer. Each interaction restarts the delay.
func (c *Carousel) manual(apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || len(c.banners) < 2 {
		return
	}

	apply()
	c.autoPlaying = false
	c.bumpGenLocked()
	c.scheduleResumeLocked()
}

// tick is the auto-advance timer callback. A generation mismatch means the
// timer was superseded or the carousel stopped; it must not mutate state.
func (c *Carousel) tick(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.stopped || !c.autoPlaying || len(c.banners) < 2 {
		return
	}

	c.index = (c.index + 1) % len(c.banners)
	c.direction = 1
	c.scheduleAdvanceLocked()
}

// resume is the inactivity timer callback: autoplay restarts unless the
// timer was superseded by a newer interaction.
func (c *Carousel) resume(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.stopped || len(c.banners) < 2 {
		return
	}

	c.autoPlaying = true
	c.scheduleAdvanceLocked()
	c.logger.Debug().Msg("autoplay resumed after inactivity")
}

func (c *Carousel) scheduleAdvanceLocked() {
	if !c.autoPlaying || len(c.banners) < 2 {
		return
	}
	gen := c.gen
	c.advanceTimer = time.AfterFunc(c.advanceEvery, func() { c.tick(gen) })
}

func (c *Carousel) scheduleResumeLocked() {
	gen := c.gen
	c.resumeTimer = time.AfterFunc(c.resumeAfter, func() { c.resume(gen) })
}

// bumpGenLocked invalidates all outstanding timers and stops the ones
// still held, so superseded timers never fire at all where possible.
func (c *Carousel) bumpGenLocked() {
	c.gen++
	if c.advanceTimer != nil {
		c.advanceTimer.Stop()
		c.advanceTimer = nil
	}
	if c.resumeTimer != nil {
		c.resumeTimer.Stop()
		c.resumeTimer = nil
	}
}
