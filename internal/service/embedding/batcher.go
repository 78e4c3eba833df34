package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/substratehq/substrate/internal/telemetry"
)

// Batcher wraps a Provider with a bounded request queue and coalesces
// individual Embed calls into batch requests to the underlying provider.
// When the queue is full, Embed applies backpressure by returning an error
// rather than blocking indefinitely.
type Batcher struct {
	provider      Provider
	logger        *slog.Logger
	batchSize     int
	flushInterval time.Duration

	queue chan embedRequest

	rejected atomic.Int64 // requests rejected because the queue was full

	cancelLoop context.CancelFunc
	done       chan struct{}
}

type embedRequest struct {
	text   string
	result chan embedResult
}

type embedResult struct {
	vec []float32
	err error
}

// NewBatcher creates a batching wrapper around provider. queueSize bounds
// the number of in-flight requests; batchSize caps texts per provider call.
func NewBatcher(provider Provider, logger *slog.Logger, queueSize, batchSize int, flushInterval time.Duration) *Batcher {
	return &Batcher{
		provider:      provider,
		logger:        logger,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		queue:         make(chan embedRequest, queueSize),
		done:          make(chan struct{}),
	}
}

// Start launches the background batching loop and registers OTEL metrics.
// Call Stop to shut down.
func (b *Batcher) Start(ctx context.Context) {
	b.registerMetrics()
	loopCtx, cancel := context.WithCancel(ctx)
	b.cancelLoop = cancel
	go b.loop(loopCtx)
}

// Dimensions returns the underlying provider's vector size.
func (b *Batcher) Dimensions() int {
	return b.provider.Dimensions()
}

// Embed enqueues a single text and waits for its batched result.
func (b *Batcher) Embed(ctx context.Context, text string) ([]float32, error) {
	req := embedRequest{text: text, result: make(chan embedResult, 1)}

	select {
	case b.queue <- req:
	default:
		b.rejected.Add(1)
		return nil, fmt.Errorf("embedding: queue full (%d pending), try again later", len(b.queue))
	}

	select {
	case res := <-req.result:
		return res.vec, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// EmbedBatch bypasses the queue: callers with a batch in hand already
// amortize the provider round trip.
func (b *Batcher) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return b.provider.EmbedBatch(ctx, texts)
}

func (b *Batcher) loop(ctx context.Context) {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	pending := make([]embedRequest, 0, b.batchSize)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = make([]embedRequest, 0, b.batchSize)
		b.dispatch(ctx, batch)
	}

	for {
		select {
		case <-ctx.Done():
			// Fail pending requests instead of leaving callers hanging.
			for _, req := range pending {
				req.result <- embedResult{err: ctx.Err()}
			}
			close(b.done)
			return
		case req := <-b.queue:
			pending = append(pending, req)
			if len(pending) >= b.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (b *Batcher) dispatch(ctx context.Context, batch []embedRequest) {
	texts := make([]string, len(batch))
	for i, req := range batch {
		texts[i] = req.text
	}

	start := time.Now()
	vecs, err := b.provider.EmbedBatch(ctx, texts)
	duration := time.Since(start)

	if err != nil {
		b.logger.Error("embedding: batch failed", "error", err, "batch_size", len(batch))
		for _, req := range batch {
			req.result <- embedResult{err: err}
		}
		return
	}
	if len(vecs) != len(batch) {
		err := fmt.Errorf("embedding: provider returned %d vectors for %d texts", len(vecs), len(batch))
		for _, req := range batch {
			req.result <- embedResult{err: err}
		}
		return
	}

	for i, req := range batch {
		req.result <- embedResult{vec: vecs[i]}
	}

	b.logger.Debug("embedding: batch dispatched",
		"batch_size", len(batch),
		"duration_ms", duration.Milliseconds(),
	)
}

// Stop shuts down the batching loop and waits for it to drain, bounded by ctx.
func (b *Batcher) Stop(ctx context.Context) {
	if b.cancelLoop != nil {
		b.cancelLoop()
	}
	select {
	case <-b.done:
	case <-ctx.Done():
		b.logger.Warn("embedding: stop timed out waiting for batch loop")
	}
}

// Rejected returns the total number of requests rejected due to a full queue.
func (b *Batcher) Rejected() int64 {
	return b.rejected.Load()
}

func (b *Batcher) registerMetrics() {
	meter := telemetry.Meter("substrate/embedding")

	_, _ = meter.Int64ObservableGauge("substrate.embedding.queue_depth",
		metric.WithDescription("Current number of pending embedding requests"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(len(b.queue)))
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("substrate.embedding.rejected_total",
		metric.WithDescription("Total embedding requests rejected due to queue capacity"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(b.Rejected())
			return nil
		}),
	)
}
