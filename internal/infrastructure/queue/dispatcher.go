package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes completion events to a fixed set of workers using
// consistent hashing on cartorio:user, guaranteeing per-viewer event ordering
// (a complete followed by an uncomplete cannot be applied out of order).
type Dispatcher struct {
	workers []chan ports.CompletionEvent
	service ports.ProgressService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ProgressService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.CompletionEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CompletionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an event to the worker responsible for its viewer.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(event ports.CompletionEvent) {
	d.workers[d.shardIndex(event.CartorioID+":"+event.UserID)] <- event
}

// shardIndex maps a viewer key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CompletionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("cartorio_id", event.CartorioID).
					Str("user_id", event.UserID).
					Str("lesson", event.VideoLessonID).
					Int("worker_id", id).
					Msg("completion event processing failed")
			}
		}
	}
}
