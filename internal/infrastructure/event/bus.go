package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/investorcrm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// defaultQueueSize is the buffer of the asynchronous dispatch queue
const defaultQueueSize = 1024

type asyncDelivery struct {
	ctx     context.Context
	handler shared.EventHandler
	event   shared.DomainEvent
}

// InMemoryEventBus dispatches domain events in-process.
// Synchronous handlers run inside Publish (audit must commit with the request).
// Handlers registered with SubscribeAsync run on a worker so slow consumers such as
// the search indexer and realtime hub never block a request.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	async    map[shared.EventHandler]struct{}
	asyncMu  sync.RWMutex
	queue    chan asyncDelivery
	logger   *zap.Logger
	running  atomic.Bool
	dropped  atomic.Int64
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		async:    make(map[shared.EventHandler]struct{}),
		queue:    make(chan asyncDelivery, defaultQueueSize),
		logger:   logger,
	}
}

// Publish delivers events to every matching handler. Handler errors are logged, never returned.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if b.isAsync(handler) && b.running.Load() {
				b.enqueue(ctx, handler, event)
				continue
			}
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a synchronous handler. Without explicit types the handler's own EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// SubscribeAsync registers a handler that is dispatched on the background worker once the bus is started.
// Before Start the handler runs synchronously.
func (b *InMemoryEventBus) SubscribeAsync(handler shared.EventHandler, eventTypes ...string) {
	b.asyncMu.Lock()
	b.async[handler] = struct{}{}
	b.asyncMu.Unlock()
	b.Subscribe(handler, eventTypes...)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.asyncMu.Lock()
	delete(b.async, handler)
	b.asyncMu.Unlock()
}

// Start launches the async worker
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	b.wg.Add(1)
	go b.worker()
	b.logger.Info("event bus started", zap.Int("handlers", b.registry.Count()))
	return nil
}

// Stop drains queued deliveries and waits for the worker, bounded by ctx
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}
	b.stopOnce.Do(func() { close(b.queue) })

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event bus stopped", zap.Int64("dropped", b.dropped.Load()))
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("event bus stop timed out"), ctx.Err())
	}
}

// Dropped returns how many async deliveries were discarded because the queue was full
func (b *InMemoryEventBus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *InMemoryEventBus) isAsync(handler shared.EventHandler) bool {
	b.asyncMu.RLock()
	defer b.asyncMu.RUnlock()
	_, ok := b.async[handler]
	return ok
}

func (b *InMemoryEventBus) enqueue(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) {
	defer func() {
		// Stop may close the queue between the running check and the send
		if recover() != nil {
			b.dropped.Add(1)
		}
	}()
	select {
	case b.queue <- asyncDelivery{ctx: context.WithoutCancel(ctx), handler: handler, event: event}:
	default:
		b.dropped.Add(1)
		b.logger.Warn("event queue full, dropping delivery",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
	}
}

func (b *InMemoryEventBus) worker() {
	defer b.wg.Done()
	for d := range b.queue {
		if err := b.dispatch(d.ctx, d.handler, d.event); err != nil {
			b.logger.Error("async handler failed to process event",
				zap.String("event_type", d.event.EventType()),
				zap.String("event_id", d.event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// dispatch runs the handler and turns a panic into an error
func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
			err = errors.New("handler panicked")
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
