package statestore

import (
	"context"
	"testing"
	"time"

	"TiltGuard/internal/domain/models"
	"TiltGuard/pkg/cache"
)

func TestGetMissingTrader(t *testing.T) {
	s := New(cache.NewMemoryCache())
	_, found, err := s.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("miss should not be an error: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	s := New(cache.NewMemoryCache())
	ctx := context.Background()

	in := models.InterventionState{
		Band:          models.BandHardLock,
		Title:         "Recovery mode detected",
		Message:       "Trading is paused.",
		LockDuration:  300 * time.Second,
		EnteredAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PendingBand:   models.BandNone,
		PendingStreak: 0,
	}
	if err := s.Put(ctx, "t1", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	out, found, err := s.Get(ctx, "t1")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if out.Band != in.Band || out.Title != in.Title || out.LockDuration != in.LockDuration {
		t.Fatalf("state mangled in transit: %+v", out)
	}
	if !out.EnteredAt.Equal(in.EnteredAt) {
		t.Fatalf("EnteredAt mangled: %v", out.EnteredAt)
	}
}

func TestStatesArePerTrader(t *testing.T) {
	s := New(cache.NewMemoryCache())
	ctx := context.Background()

	if err := s.Put(ctx, "t1", models.InterventionState{Band: models.BandCritical}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, found, err := s.Get(ctx, "t2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatalf("t2 should have no state")
	}
}

func TestLockSerializesSameTrader(t *testing.T) {
	s := New(cache.NewMemoryCache())

	unlock := s.Lock("t1")
	acquired := make(chan struct{})
	go func() {
		u := s.Lock("t1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatalf("second lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second lock never acquired after release")
	}
}

func TestLockIndependentTraders(t *testing.T) {
	s := New(cache.NewMemoryCache())
	unlock := s.Lock("t1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := s.Lock("t2")
		u()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("different traders should not contend")
	}
}
