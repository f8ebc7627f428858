package marketdata

import (
	"context"

	"TiltGuard/internal/domain/models"
	"TiltGuard/internal/domain/repository"
	domsvc "TiltGuard/internal/domain/service"
	"TiltGuard/internal/service/ratelimit"
	applogger "TiltGuard/pkg/logger"
)

// Provider serves snapshots from the live stream tracker when it has data
// for the ticker, falling back to the HTTP client otherwise.
type Provider struct {
	tracker *Tracker
	client  *HTTPClient
}

func NewProvider(tracker *Tracker, client *HTTPClient) *Provider {
	return &Provider{tracker: tracker, client: client}
}

func (p *Provider) Snapshot(ctx context.Context, ticker string) (models.MarketSnapshot, error) {
	if p.tracker != nil {
		if snap, ok := p.tracker.Snapshot(ticker); ok {
			return snap, nil
		}
	}
	return p.client.Snapshot(ctx, ticker)
}

var _ domsvc.MarketData = (*Provider)(nil)

// Collector pumps stream ticks into the tracker, reconnecting on stream
// failure. Tick ingestion is throttled per ticker so a bursty feed cannot
// starve the process.
type Collector struct {
	stream  *Stream
	tracker *Tracker
	metrics repository.Metrics
	logger  *applogger.Logger
	limiter *ratelimit.Limiter
}

func NewCollector(stream *Stream, tracker *Tracker, metrics repository.Metrics, logger *applogger.Logger) *Collector {
	return &Collector{
		stream:  stream,
		tracker: tracker,
		metrics: metrics,
		logger:  logger,
		limiter: ratelimit.New(),
	}
}

// Start runs the collect loop until ctx is done.
func (c *Collector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}

	for {
		ticks, errs := c.stream.Read(ctx)
	consume:
		for {
			select {
			case <-ctx.Done():
				_ = c.stream.Close()
				return ctx.Err()
			case tick, ok := <-ticks:
				if !ok {
					break consume
				}
				// cap per-ticker updates at 50/s with a burst of 100
				if !c.limiter.Allow(tick.Ticker, 100, 50) {
					continue
				}
				c.tracker.Update(tick)
				c.metrics.RecordLastPrice(tick.Ticker, tick.Price)
			case err, ok := <-errs:
				if ok && err != nil {
					c.metrics.RecordError("market_stream")
					c.logger.Warn("market stream error", applogger.Error(err))
				}
				break consume
			}
		}

		select {
		case <-ctx.Done():
			_ = c.stream.Close()
			return ctx.Err()
		default:
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("market_stream_reconnect")
			c.logger.Error("market stream reconnect failed", applogger.Error(err))
		}
	}
}
