package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"TiltGuard/internal/domain/models"
	"TiltGuard/internal/service/statestore"
	"TiltGuard/internal/services/intervention"
	"TiltGuard/internal/services/profile"
	"TiltGuard/internal/services/tilt"
	pkgcache "TiltGuard/pkg/cache"
	"TiltGuard/pkg/config"
	applogger "TiltGuard/pkg/logger"
)

type fakeLedger struct {
	events []models.TradeEvent
	err    error
}

func (f *fakeLedger) Init(context.Context) error { return nil }
func (f *fakeLedger) Read(_ context.Context, _, _ string, lb models.Lookback) ([]models.TradeEvent, error) {
	if err := lb.Validate(); err != nil {
		return nil, err
	}
	return f.events, f.err
}
func (f *fakeLedger) Store(context.Context, *models.TradeEvent) error        { return nil }
func (f *fakeLedger) StoreBatch(context.Context, []*models.TradeEvent) error { return nil }
func (f *fakeLedger) Health(context.Context) error                           { return nil }
func (f *fakeLedger) Close() error                                           { return nil }

type fakeMarket struct {
	snap models.MarketSnapshot
	err  error
}

func (f *fakeMarket) Snapshot(context.Context, string) (models.MarketSnapshot, error) {
	return f.snap, f.err
}

type fakeAudit struct {
	mu          sync.Mutex
	transitions []models.Band
	published   chan struct{}
}

func newFakeAudit() *fakeAudit {
	return &fakeAudit{published: make(chan struct{}, 16)}
}

func (f *fakeAudit) PublishTransition(_ context.Context, _ string, _, to models.InterventionState, _ float64) error {
	f.mu.Lock()
	f.transitions = append(f.transitions, to.Band)
	f.mu.Unlock()
	f.published <- struct{}{}
	return nil
}
func (f *fakeAudit) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(string, float64)  {}
func (nopMetrics) RecordIntervention(string)       {}
func (nopMetrics) RecordEnrichmentFallback(string) {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

type fakeEnricher struct {
	text  string
	err   error
	delay time.Duration
}

func (f *fakeEnricher) Elaborate(ctx context.Context, _ []models.SignalContribution, _ float64) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func goodSnapshot() models.MarketSnapshot {
	return models.MarketSnapshot{
		Ticker:       "NVDA",
		CurrentPrice: 500,
		Trend:        models.TrendFlat,
		Volatility:   0.01,
		CapturedAt:   time.Now(),
	}
}

func testEvents() []models.TradeEvent {
	base := time.Now().Add(-time.Minute)
	loss := -150.0
	ev := func(i int, action models.ActionKind, pnl *float64) models.TradeEvent {
		return models.TradeEvent{
			Timestamp:   base.Add(time.Duration(i) * time.Second),
			TraderID:    "t1",
			Ticker:      "NVDA",
			Action:      action,
			Price:       500,
			Quantity:    10,
			RealizedPnL: pnl,
		}
	}
	return []models.TradeEvent{
		ev(0, models.ActionBuy, nil),
		ev(5, models.ActionCancel, nil),
		ev(10, models.ActionBuy, nil),
		ev(15, models.ActionSell, &loss),
	}
}

func newTestEngine(t *testing.T, ledger *fakeLedger, market *fakeMarket, audit *fakeAudit, opts ...EngineOption) *Engine {
	t.Helper()
	var ecfg config.EngineConfig
	ecfg.Defaults()

	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewEngine(
		ledger,
		market,
		tilt.NewScorer(ecfg),
		intervention.New(ecfg),
		profile.New(ecfg),
		statestore.New(pkgcache.NewMemoryCache()),
		audit,
		nopMetrics{},
		logger,
		opts...,
	)
}

func analyzeReq() models.AnalyzeRequest {
	return models.AnalyzeRequest{TraderID: "t1", Ticker: "NVDA", LookbackN: 50}
}

func TestAnalyzeHappyPath(t *testing.T) {
	eng := newTestEngine(t, &fakeLedger{events: testEvents()}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit())

	res, err := eng.Analyze(context.Background(), analyzeReq())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.TraderID != "t1" || res.Ticker != "NVDA" {
		t.Fatalf("identity fields wrong: %+v", res)
	}
	if res.Perception.WindowSize != 4 {
		t.Fatalf("expected window size 4, got %d", res.Perception.WindowSize)
	}
	if res.Tilt.Score < 0 || res.Tilt.Score > 10 {
		t.Fatalf("score out of range: %v", res.Tilt.Score)
	}
	if res.Tilt.Rationale == "" || res.CombinedInsight == "" {
		t.Fatalf("expected rationale and insight text")
	}
	if res.Intervention.Title == "" {
		t.Fatalf("intervention copy missing")
	}
}

func TestAnalyzeEmptyHistoryYieldsNeutral(t *testing.T) {
	eng := newTestEngine(t, &fakeLedger{}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit())

	res, err := eng.Analyze(context.Background(), analyzeReq())
	if err != nil {
		t.Fatalf("empty history must not fail: %v", err)
	}
	if res.Perception.WindowSize != 0 {
		t.Fatalf("expected empty window, got %d", res.Perception.WindowSize)
	}
	if res.Intervention.Band != models.BandNone {
		t.Fatalf("expected NONE for empty history, got %v", res.Intervention.Band)
	}
	if res.Tilt.Score > 1.0 {
		t.Fatalf("empty-history score should stay low, got %v", res.Tilt.Score)
	}
}

func TestAnalyzeRejectsBadLookback(t *testing.T) {
	eng := newTestEngine(t, &fakeLedger{}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit())

	req := analyzeReq()
	req.LookbackN = 0
	if _, err := eng.Analyze(context.Background(), req); !errors.Is(err, models.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	req = analyzeReq()
	req.LookbackWindow = "not-a-duration"
	if _, err := eng.Analyze(context.Background(), req); !errors.Is(err, models.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for bad window, got %v", err)
	}
}

func TestAnalyzeRejectsUnknownAction(t *testing.T) {
	eng := newTestEngine(t, &fakeLedger{}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit())

	req := analyzeReq()
	req.UserAction = "YOLO"
	if _, err := eng.Analyze(context.Background(), req); !errors.Is(err, models.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestAnalyzePropagatesMarketFailure(t *testing.T) {
	market := &fakeMarket{err: models.ErrUpstreamUnavailable}
	eng := newTestEngine(t, &fakeLedger{events: testEvents()}, market, newFakeAudit())

	if _, err := eng.Analyze(context.Background(), analyzeReq()); !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestEnrichmentTimeoutFallsBack(t *testing.T) {
	slow := &fakeEnricher{text: "never seen", delay: time.Second}
	eng := newTestEngine(t, &fakeLedger{events: testEvents()}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit(),
		WithEnrichment(slow, 30*time.Millisecond))

	res, err := eng.Analyze(context.Background(), analyzeReq())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if strings.Contains(res.Tilt.Rationale, "never seen") {
		t.Fatalf("timed-out enrichment must not be used")
	}
	if !strings.Contains(res.Tilt.Rationale, "Tilt score") {
		t.Fatalf("expected deterministic rationale, got %q", res.Tilt.Rationale)
	}
}

func TestEnrichmentErrorFallsBack(t *testing.T) {
	broken := &fakeEnricher{err: errors.New("service down")}
	eng := newTestEngine(t, &fakeLedger{events: testEvents()}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit(),
		WithEnrichment(broken, time.Second))

	res, err := eng.Analyze(context.Background(), analyzeReq())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(res.Tilt.Rationale, "Tilt score") {
		t.Fatalf("expected deterministic rationale, got %q", res.Tilt.Rationale)
	}
}

func TestEnrichmentSuccessReplacesRationale(t *testing.T) {
	enricher := &fakeEnricher{text: "You are churning orders after a string of losses."}
	eng := newTestEngine(t, &fakeLedger{events: testEvents()}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit(),
		WithEnrichment(enricher, time.Second))

	res, err := eng.Analyze(context.Background(), analyzeReq())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Tilt.Rationale != enricher.text {
		t.Fatalf("expected enriched rationale, got %q", res.Tilt.Rationale)
	}
}

func TestBandTransitionIsAudited(t *testing.T) {
	// enough churn to leave NONE on the very first analysis
	loss := -150.0
	events := testEvents()
	for i := 0; i < 6; i++ {
		events = append(events, models.TradeEvent{
			Timestamp:   time.Now(),
			TraderID:    "t1",
			Ticker:      "NVDA",
			Action:      models.ActionSell,
			Price:       500,
			Quantity:    10,
			RealizedPnL: &loss,
		})
	}
	audit := newFakeAudit()
	eng := newTestEngine(t, &fakeLedger{events: events}, &fakeMarket{snap: goodSnapshot()}, audit)

	res, err := eng.Analyze(context.Background(), analyzeReq())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Intervention.Band == models.BandNone {
		t.Fatalf("setup: expected an intervention, score %v", res.Tilt.Score)
	}

	select {
	case <-audit.published:
	case <-time.After(time.Second):
		t.Fatalf("band transition was never published")
	}
	audit.mu.Lock()
	defer audit.mu.Unlock()
	if len(audit.transitions) != 1 || audit.transitions[0] != res.Intervention.Band {
		t.Fatalf("unexpected audit trail: %v", audit.transitions)
	}
}

func TestStatsReflectClassifications(t *testing.T) {
	eng := newTestEngine(t, &fakeLedger{events: testEvents()}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit())

	if _, err := eng.Analyze(context.Background(), analyzeReq()); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got := eng.Stats().Total; got != 1 {
		t.Fatalf("expected 1 classification, got %d", got)
	}
}

func TestProfileDelegation(t *testing.T) {
	win := 100.0
	events := []models.TradeEvent{
		{Action: models.ActionSell, RealizedPnL: &win},
	}
	eng := newTestEngine(t, &fakeLedger{events: events}, &fakeMarket{snap: goodSnapshot()}, newFakeAudit())

	prof, err := eng.Profile(context.Background(), models.ProfileRequest{TraderID: "t1", Ticker: "NVDA", N: 100})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if prof.TotalTrades != 1 || prof.WinRate != 100 {
		t.Fatalf("unexpected profile %+v", prof)
	}
}
