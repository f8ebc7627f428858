package models

import (
	"encoding/json"
	"time"
)

// Band is one of the four intervention severity levels, ordered from
// least to most severe.
type Band int

const (
	BandNone Band = iota
	BandSoftNudge
	BandCritical
	BandHardLock
)

var bandNames = map[Band]string{
	BandNone:      "NONE",
	BandSoftNudge: "SOFT_NUDGE",
	BandCritical:  "CRITICAL",
	BandHardLock:  "HARD_LOCK",
}

func (b Band) String() string {
	if s, ok := bandNames[b]; ok {
		return s
	}
	return "NONE"
}

// MarshalJSON emits the band name, not the ordinal.
func (b Band) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

// UnmarshalJSON accepts the band name.
func (b *Band) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	for band, name := range bandNames {
		if name == s {
			*b = band
			return nil
		}
	}
	*b = BandNone
	return nil
}

// InterventionState is the classifier's per-trader memory: the current
// band, when it was entered, the active lock if any, and the hysteresis
// bookkeeping (the band the score has been asking for and for how many
// consecutive assessments).
type InterventionState struct {
	Band          Band          `json:"-"`
	Title         string        `json:"-"`
	Message       string        `json:"-"`
	LockDuration  time.Duration `json:"-"`
	EnteredAt     time.Time     `json:"-"`
	PendingBand   Band          `json:"-"`
	PendingStreak int           `json:"-"`
}

// interventionStateJSON is the wire form: the lock duration travels in
// whole seconds.
type interventionStateJSON struct {
	Band            Band      `json:"type"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	LockDurationSec int64     `json:"lock_duration_seconds,omitempty"`
	EnteredAt       time.Time `json:"entered_at"`
	PendingBand     Band      `json:"pending_band"`
	PendingStreak   int       `json:"pending_streak"`
}

func (s InterventionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(interventionStateJSON{
		Band:            s.Band,
		Title:           s.Title,
		Message:         s.Message,
		LockDurationSec: int64(s.LockDuration / time.Second),
		EnteredAt:       s.EnteredAt,
		PendingBand:     s.PendingBand,
		PendingStreak:   s.PendingStreak,
	})
}

func (s *InterventionState) UnmarshalJSON(data []byte) error {
	var w interventionStateJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Band = w.Band
	s.Title = w.Title
	s.Message = w.Message
	s.LockDuration = time.Duration(w.LockDurationSec) * time.Second
	s.EnteredAt = w.EnteredAt
	s.PendingBand = w.PendingBand
	s.PendingStreak = w.PendingStreak
	return nil
}

// Locked reports whether a hard lock is still active at now.
func (s InterventionState) Locked(now time.Time) bool {
	return s.Band == BandHardLock && now.Before(s.EnteredAt.Add(s.LockDuration))
}
