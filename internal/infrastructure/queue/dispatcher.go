package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	insertTimeout  = 5 * time.Second
)

// Dispatcher persists security events off the request path. Events are
// sharded to a fixed set of workers by user id, so the audit trail for one
// user stays in order.
type Dispatcher struct {
	workers []chan domain.SecurityEvent
	repo    ports.SecurityEventRepository
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.SecurityEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SecurityEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SecurityEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. On ctx cancellation each worker
// drains the events already buffered on its channel before stopping, so a
// graceful shutdown does not lose accepted audit records.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues an event for its user's worker. When the buffer is full the
// event is dropped with a log line; auditing must never block or fail a
// request.
func (d *Dispatcher) Record(event domain.SecurityEvent) {
	select {
	case d.workers[d.shardIndex(event.UserID)] <- event:
	default:
		d.log.Warn().
			Str("type", event.Type).
			Str("user_id", event.UserID).
			Msg("security event dropped: worker queue full")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SecurityEvent) {
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.insert(ctx, id, event)
		}
	}
}

// drain flushes events still buffered at shutdown. The parent context is
// already cancelled here, so each insert gets a fresh timeout context.
func (d *Dispatcher) drain(id int, ch <-chan domain.SecurityEvent) {
	for {
		select {
		case event := <-ch:
			d.insert(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) insert(ctx context.Context, id int, event domain.SecurityEvent) {
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()
	if err := d.repo.Insert(insertCtx, &event); err != nil {
		d.log.Error().Err(err).
			Str("type", event.Type).
			Int("worker_id", id).
			Msg("security event insert failed")
	}
}
