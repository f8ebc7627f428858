package intervention

import (
	"strings"
	"testing"
	"time"

	"TiltGuard/internal/domain/models"
	"TiltGuard/pkg/config"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestClassifier() (*Classifier, *fakeClock) {
	var cfg config.EngineConfig
	cfg.Defaults()
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(cfg, WithClock(clk.now)), clk
}

func TestBandThresholds(t *testing.T) {
	c, _ := newTestClassifier()
	cases := []struct {
		score float64
		want  models.Band
	}{
		{0, models.BandNone},
		{3, models.BandNone},
		{3.1, models.BandSoftNudge},
		{6, models.BandSoftNudge},
		{6.1, models.BandCritical},
		{8.5, models.BandCritical},
		{8.6, models.BandHardLock},
		{10, models.BandHardLock},
	}
	for _, tc := range cases {
		got := c.Classify(models.InterventionState{}, tc.score)
		if got.Band != tc.want {
			t.Fatalf("score %v: expected %v, got %v", tc.score, tc.want, got.Band)
		}
	}
}

func TestBandCopy(t *testing.T) {
	c, _ := newTestClassifier()
	st := c.Classify(models.InterventionState{}, 9.0)
	if st.Title != "Recovery mode detected" {
		t.Fatalf("unexpected hard lock title %q", st.Title)
	}
	if !strings.Contains(st.Message, "9.0") {
		t.Fatalf("message should interpolate the score: %q", st.Message)
	}
	ok := c.Classify(models.InterventionState{}, 1.0)
	if ok.Title != "System OK" {
		t.Fatalf("unexpected none title %q", ok.Title)
	}
}

func TestHardLockSetsDuration(t *testing.T) {
	c, clk := newTestClassifier()
	st := c.Classify(models.InterventionState{}, 9.5)
	if st.Band != models.BandHardLock {
		t.Fatalf("expected hard lock, got %v", st.Band)
	}
	if st.LockDuration != 300*time.Second {
		t.Fatalf("expected 300s lock, got %v", st.LockDuration)
	}
	if !st.EnteredAt.Equal(clk.t) {
		t.Fatalf("EnteredAt should be set on entry")
	}
}

func TestLockHoldsAgainstCalmScores(t *testing.T) {
	c, clk := newTestClassifier()
	st := c.Classify(models.InterventionState{}, 9.5)
	entered := st.EnteredAt

	clk.advance(100 * time.Second)
	st = c.Classify(st, 0.0)
	if st.Band != models.BandHardLock {
		t.Fatalf("lock should hold at +100s, got %v", st.Band)
	}
	if !st.EnteredAt.Equal(entered) {
		t.Fatalf("new scores must not reset the lock clock")
	}

	clk.advance(199 * time.Second) // 299s in, still locked
	st = c.Classify(st, 9.9)
	if st.Band != models.BandHardLock {
		t.Fatalf("lock should hold at +299s, got %v", st.Band)
	}
	if !st.EnteredAt.Equal(entered) {
		t.Fatalf("high scores during a lock must not extend it")
	}
}

func TestLockExpiryRederivesFromScore(t *testing.T) {
	c, clk := newTestClassifier()
	st := c.Classify(models.InterventionState{}, 9.5)

	clk.advance(301 * time.Second)
	st = c.Classify(st, 2.0)
	if st.Band != models.BandNone {
		t.Fatalf("expired lock with calm score should drop straight to NONE, got %v", st.Band)
	}

	// a still-hot score re-locks immediately
	st2 := c.Classify(models.InterventionState{}, 9.5)
	clk.advance(301 * time.Second)
	st2 = c.Classify(st2, 9.0)
	if st2.Band != models.BandHardLock {
		t.Fatalf("expired lock with hot score should re-lock, got %v", st2.Band)
	}
	if !st2.EnteredAt.Equal(clk.t) {
		t.Fatalf("re-lock should restart the clock")
	}
}

func TestEscalationIsImmediate(t *testing.T) {
	c, _ := newTestClassifier()
	st := c.Classify(models.InterventionState{}, 4.0)
	if st.Band != models.BandSoftNudge {
		t.Fatalf("expected soft nudge, got %v", st.Band)
	}
	st = c.Classify(st, 7.0)
	if st.Band != models.BandCritical {
		t.Fatalf("escalation should be immediate, got %v", st.Band)
	}
}

func TestDeepDeescalationStepsDown(t *testing.T) {
	c, _ := newTestClassifier()
	st := c.Classify(models.InterventionState{}, 7.0)
	if st.Band != models.BandCritical {
		t.Fatalf("setup: expected critical, got %v", st.Band)
	}

	// one calm reading is not enough to drop two bands
	st = c.Classify(st, 1.0)
	if st.Band != models.BandSoftNudge {
		t.Fatalf("deep de-escalation should step down one band, got %v", st.Band)
	}
	if st.PendingBand != models.BandNone || st.PendingStreak != 1 {
		t.Fatalf("expected pending NONE streak 1, got %v/%d", st.PendingBand, st.PendingStreak)
	}

	// the second calm reading completes the descent
	st = c.Classify(st, 1.0)
	if st.Band != models.BandNone {
		t.Fatalf("expected NONE after second calm reading, got %v", st.Band)
	}
}

func TestNoisyDowntickDoesNotClearWarning(t *testing.T) {
	c, _ := newTestClassifier()
	st := c.Classify(models.InterventionState{}, 7.0)
	st = c.Classify(st, 0.5) // single noisy dip
	if st.Band == models.BandNone {
		t.Fatalf("a single calm reading must not clear a critical warning")
	}
	st = c.Classify(st, 7.0) // back up
	if st.Band != models.BandCritical {
		t.Fatalf("expected critical again, got %v", st.Band)
	}
}

func TestEnteredAtOnlyMovesOnBandChange(t *testing.T) {
	c, clk := newTestClassifier()
	st := c.Classify(models.InterventionState{}, 4.0)
	entered := st.EnteredAt
	clk.advance(time.Minute)
	st = c.Classify(st, 4.5)
	if !st.EnteredAt.Equal(entered) {
		t.Fatalf("EnteredAt should be stable within a band")
	}
	clk.advance(time.Minute)
	st = c.Classify(st, 7.0)
	if !st.EnteredAt.Equal(clk.t) {
		t.Fatalf("EnteredAt should move on band change")
	}
}

func TestStatsCounts(t *testing.T) {
	c, _ := newTestClassifier()
	c.Classify(models.InterventionState{}, 1.0)
	c.Classify(models.InterventionState{}, 4.0)
	c.Classify(models.InterventionState{}, 7.0)
	c.Classify(models.InterventionState{}, 9.0)

	stats := c.Stats()
	if stats.Total != 4 {
		t.Fatalf("expected 4 classifications, got %d", stats.Total)
	}
	if stats.SoftNudges != 1 || stats.CriticalWarnings != 1 || stats.HardLocks != 1 {
		t.Fatalf("unexpected band counts: %+v", stats)
	}
	if stats.LastIntervention == nil {
		t.Fatalf("expected last intervention timestamp")
	}
}
