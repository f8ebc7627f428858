package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TiltGuard/internal/domain/models"
	domrepo "TiltGuard/internal/domain/repository"
	domsvc "TiltGuard/internal/domain/service"
	"TiltGuard/internal/service/statestore"
	"TiltGuard/internal/services/insight"
	"TiltGuard/internal/services/intervention"
	"TiltGuard/internal/services/perception"
	"TiltGuard/internal/services/profile"
	applogger "TiltGuard/pkg/logger"
)

const defaultEnrichTimeout = 2 * time.Second

// Engine orchestrates one behavioral analysis: ledger read, market
// snapshot, perception, scoring, classification, synthesis. Everything is
// stateless per request except the classifier's per-trader state, which
// lives in the keyed state store.
type Engine struct {
	ledger        domrepo.TradeLedger
	market        domsvc.MarketData
	scorer        domsvc.TiltScorer
	classifier    *intervention.Classifier
	profiler      *profile.Profiler
	states        *statestore.Store
	audit         domrepo.AuditPublisher
	enricher      domsvc.TextEnrichment // nil when not configured
	enrichTimeout time.Duration
	metrics       domrepo.Metrics
	logger        *applogger.Logger
}

type EngineOption func(*Engine)

// WithEnrichment attaches the optional rationale enrichment pass.
func WithEnrichment(e domsvc.TextEnrichment, timeout time.Duration) EngineOption {
	return func(eng *Engine) {
		eng.enricher = e
		if timeout > 0 {
			eng.enrichTimeout = timeout
		}
	}
}

func NewEngine(
	ledger domrepo.TradeLedger,
	market domsvc.MarketData,
	scorer domsvc.TiltScorer,
	classifier *intervention.Classifier,
	profiler *profile.Profiler,
	states *statestore.Store,
	audit domrepo.AuditPublisher,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		ledger:        ledger,
		market:        market,
		scorer:        scorer,
		classifier:    classifier,
		profiler:      profiler,
		states:        states,
		audit:         audit,
		enrichTimeout: defaultEnrichTimeout,
		metrics:       metrics,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Analyze runs the full pipeline for one request. Idempotent given
// identical inputs and classifier memory; time-dependent once a hard lock
// is active, by design.
func (e *Engine) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	start := time.Now()

	lb, err := parseLookback(req)
	if err != nil {
		return nil, err
	}

	var pending models.ActionKind
	if req.UserAction != "" {
		pending, err = models.ParseActionKind(req.UserAction)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidRange, err)
		}
	}

	events, err := e.ledger.Read(ctx, req.TraderID, req.Ticker, lb)
	if err != nil {
		e.metrics.RecordError("ledger_read")
		return nil, err
	}

	snapshot, err := e.market.Snapshot(ctx, req.Ticker)
	if err != nil {
		e.metrics.RecordError("market_snapshot")
		return nil, err
	}

	frame, err := perception.Assemble(snapshot, events, pending)
	if err != nil {
		if !errors.Is(err, models.ErrInsufficientData) {
			return nil, err
		}
		// empty history is not zero risk, but it must still yield a
		// usable low-confidence assessment instead of blocking
		frame = perception.NeutralFrame(snapshot, pending)
	}

	prof := e.profiler.Profile(events)
	tilt := e.scorer.Score(frame)
	tilt.Rationale = e.enrich(ctx, tilt)

	state := e.classify(ctx, req.TraderID, tilt.Score)

	result := &models.AnalysisResult{
		TraderID:        req.TraderID,
		Ticker:          req.Ticker,
		Timestamp:       time.Now().UTC(),
		Perception:      frame.View(),
		Tilt:            tilt,
		Intervention:    state,
		Profile:         prof,
		CombinedInsight: insight.Synthesize(frame, tilt, state, prof),
	}

	e.metrics.RecordAnalysis(req.Ticker, tilt.Score)
	e.metrics.RecordIntervention(state.Band.String())
	e.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	return result, nil
}

// classify runs the classify-and-persist critical section under the
// trader's lock. State store failures degrade to a fresh NONE state: a
// broken store must not turn a risk read into a request failure.
func (e *Engine) classify(ctx context.Context, traderID string, score float64) models.InterventionState {
	unlock := e.states.Lock(traderID)
	defer unlock()

	prev, _, err := e.states.Get(ctx, traderID)
	if err != nil {
		e.metrics.RecordError("state_get")
		e.logger.Warn("state store read failed, classifying from scratch",
			applogger.String("trader", traderID), applogger.Error(err))
		prev = models.InterventionState{}
	}

	next := e.classifier.Classify(prev, score)

	if err := e.states.Put(ctx, traderID, next); err != nil {
		e.metrics.RecordError("state_put")
		e.logger.Error("state store write failed", applogger.String("trader", traderID), applogger.Error(err))
	}

	if next.Band != prev.Band {
		go e.publishTransition(traderID, prev, next, score)
	}
	return next
}

func (e *Engine) publishTransition(traderID string, from, to models.InterventionState, score float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.audit.PublishTransition(ctx, traderID, from, to, score); err != nil {
		e.metrics.RecordError("audit_publish")
		e.logger.Warn("audit publish failed", applogger.String("trader", traderID), applogger.Error(err))
	}
}

// enrich runs the optional enrichment pass with a hard deadline and falls
// back silently to the deterministic rationale. The enrichment task is
// cancelable independently of the main request and its result is
// discarded once the deadline passes.
func (e *Engine) enrich(ctx context.Context, tilt models.TiltAssessment) string {
	if e.enricher == nil {
		return tilt.Rationale
	}

	ectx, cancel := context.WithTimeout(ctx, e.enrichTimeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		text, err := e.enricher.Elaborate(ectx, tilt.Contributions, tilt.Score)
		ch <- outcome{text: text, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil || out.text == "" {
			e.metrics.RecordEnrichmentFallback("error")
			return tilt.Rationale
		}
		return out.text
	case <-ectx.Done():
		e.metrics.RecordEnrichmentFallback("timeout")
		return tilt.Rationale
	}
}

// Stats exposes the classifier's running totals.
func (e *Engine) Stats() models.InterventionStats {
	return e.classifier.Stats()
}

// Profile reads the window and computes the trader profile.
func (e *Engine) Profile(ctx context.Context, req models.ProfileRequest) (models.TraderProfile, error) {
	events, err := e.ledger.Read(ctx, req.TraderID, req.Ticker, models.Lookback{Count: req.N})
	if err != nil {
		e.metrics.RecordError("ledger_read")
		return models.TraderProfile{}, err
	}
	return e.profiler.Profile(events), nil
}

func parseLookback(req models.AnalyzeRequest) (models.Lookback, error) {
	if req.LookbackWindow != "" {
		d, err := time.ParseDuration(req.LookbackWindow)
		if err != nil || d <= 0 {
			return models.Lookback{}, fmt.Errorf("%w: bad lookback window %q", models.ErrInvalidRange, req.LookbackWindow)
		}
		return models.Lookback{Window: d}, nil
	}
	lb := models.Lookback{Count: req.LookbackN}
	if err := lb.Validate(); err != nil {
		return models.Lookback{}, err
	}
	return lb, nil
}
