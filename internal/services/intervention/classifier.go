package intervention

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TiltGuard/internal/domain/models"
	"TiltGuard/pkg/config"
)

// bandCopy is the fixed per-band title/message lookup. Identical bands
// always produce identical copy modulo the interpolated score.
type bandCopy struct {
	title   string
	message string // fmt template receiving the score
}

var copyByBand = map[models.Band]bandCopy{
	models.BandNone: {
		title:   "System OK",
		message: "No intervention needed. Tilt score %.1f/10.",
	},
	models.BandSoftNudge: {
		title:   "Behavioral notice",
		message: "Your recent activity pattern is drifting (tilt %.1f/10). Consider slowing down before the next order.",
	},
	models.BandCritical: {
		title:   "Tilt warning",
		message: "High-risk behavioral pattern detected (tilt %.1f/10). Step away from the order ticket and review your plan.",
	},
	models.BandHardLock: {
		title:   "Recovery mode detected",
		message: "Trading is paused (tilt %.1f/10). The lock lifts automatically; use the pause to reset.",
	},
}

// Classifier maps tilt scores to intervention bands with hysteresis and a
// hard-lock cool-down. It is a pure function of (score, previous state,
// now); the per-trader state itself lives in the engine's state store.
type Classifier struct {
	cfg config.EngineConfig
	now func() time.Time

	mu       sync.Mutex
	total    int64
	byBand   map[models.Band]int64
	lastSeen atomic.Value // time.Time of last non-NONE classification
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

func New(cfg config.EngineConfig, opts ...Option) *Classifier {
	c := &Classifier{
		cfg:    cfg,
		now:    time.Now,
		byBand: make(map[models.Band]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// bandFor maps a raw score to its threshold band.
func (c *Classifier) bandFor(score float64) models.Band {
	t := c.cfg.Thresholds
	switch {
	case score > t.HardLock:
		return models.BandHardLock
	case score > t.Critical:
		return models.BandCritical
	case score > t.SoftNudge:
		return models.BandSoftNudge
	default:
		return models.BandNone
	}
}

// Classify applies the transition rule to the previous state and the new
// score and returns the next state. Deterministic for identical
// (score, prev, now) triples.
//
// Rules, in order:
//   - An active hard lock wins unconditionally; new scores do not reset
//     the lock clock.
//   - On lock expiry the band is re-derived from the score alone.
//   - Escalation (or staying put) is immediate.
//   - De-escalation by more than one band requires the target band on two
//     consecutive assessments; otherwise the state steps down one band.
func (c *Classifier) Classify(prev models.InterventionState, score float64) models.InterventionState {
	now := c.now()

	if prev.Locked(now) {
		// Lock is terminal for its window. Keep EnteredAt so the clock
		// keeps running; drop any pending de-escalation since the score
		// stream during a lock is not trusted.
		st := prev
		st.PendingBand = models.BandNone
		st.PendingStreak = 0
		return c.record(st)
	}

	target := c.bandFor(score)
	lockExpired := prev.Band == models.BandHardLock // and not Locked(now)

	var next models.Band
	var pendingBand models.Band
	var pendingStreak int

	switch {
	case lockExpired:
		// Reset to the band implied by the most recent score.
		next = target
	case target >= prev.Band:
		next = target
	case prev.Band-target <= 1:
		next = target
	default:
		// Deep de-escalation needs persistence.
		if prev.PendingBand == target && prev.PendingStreak >= 1 {
			next = target
		} else {
			next = prev.Band - 1
			pendingBand = target
			pendingStreak = prev.PendingStreak + 1
			if prev.PendingBand != target {
				pendingStreak = 1
			}
		}
	}

	st := models.InterventionState{
		Band:          next,
		PendingBand:   pendingBand,
		PendingStreak: pendingStreak,
		EnteredAt:     prev.EnteredAt,
	}
	if next != prev.Band || prev.EnteredAt.IsZero() {
		st.EnteredAt = now
	}
	if lockExpired && next == models.BandHardLock {
		// re-lock after expiry restarts the lock clock
		st.EnteredAt = now
	}
	if next == models.BandHardLock {
		st.LockDuration = c.cfg.LockDuration
	}
	cp := copyByBand[next]
	st.Title = cp.title
	st.Message = fmt.Sprintf(cp.message, score)

	return c.record(st)
}

func (c *Classifier) record(st models.InterventionState) models.InterventionState {
	c.mu.Lock()
	c.total++
	c.byBand[st.Band]++
	c.mu.Unlock()
	if st.Band != models.BandNone {
		c.lastSeen.Store(c.now())
	}
	return st
}

// Stats reports classification totals since process start.
func (c *Classifier) Stats() models.InterventionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := models.InterventionStats{
		Total:            c.total,
		SoftNudges:       c.byBand[models.BandSoftNudge],
		CriticalWarnings: c.byBand[models.BandCritical],
		HardLocks:        c.byBand[models.BandHardLock],
	}
	if v := c.lastSeen.Load(); v != nil {
		t := v.(time.Time)
		stats.LastIntervention = &t
	}
	return stats
}
