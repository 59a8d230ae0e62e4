package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/observability"
)

// Detector is one pluggable heuristic evaluated per event. Detectors are
// pure over (event, window, registry) apart from the bot registry's
// idempotency gate; the dispatcher runs them sequentially so they always
// observe a consistent snapshot.
type Detector interface {
	Kind() domain.DetectorKind
	Evaluate(event *domain.TransactionEvent, window *Window, registry *BotRegistry) (*domain.Signal, error)
}

// SignalSink is the output boundary accepting emitted signals. Delivery
// is at-most-once from the engine's perspective: a publish failure is
// logged and dropped, never retried here.
type SignalSink interface {
	Publish(ctx context.Context, signal *domain.Signal) error
}

// EventSource delivers transaction events in approximately block order.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan *domain.TransactionEvent, error)
}

// DefaultOutboundBuffer is the default capacity of the outbound signal
// queue that decouples detection from a slow downstream bus.
const DefaultOutboundBuffer = 256

// Dispatcher owns the window and the bot registry and drives the per-event
// loop: append to window, run the detectors in fixed order, hand every
// produced signal to the sink. Events must be serialized into the
// dispatcher; Run consumes from a single channel, and Process must not be
// called concurrently.
type Dispatcher struct {
	window    *Window
	registry  *BotRegistry
	detectors []Detector
	sink      SignalSink
	source    EventSource
	logger    *log.Logger
	metrics   *observability.Metrics

	// outbound decouples emission from publishing. Signals are dropped
	// with a counter bump when it is full.
	outbound chan *domain.Signal
	pubWG    sync.WaitGroup
}

// DispatcherOptions contains configuration for creating a Dispatcher.
type DispatcherOptions struct {
	WindowSize     int
	Detectors      []Detector // evaluated in slice order
	Sink           SignalSink
	Source         EventSource
	OutboundBuffer int // default DefaultOutboundBuffer
	Logger         *log.Logger
	Metrics        *observability.Metrics // optional
}

// NewDispatcher creates a dispatcher owning a fresh window and registry.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	buffer := opts.OutboundBuffer
	if buffer <= 0 {
		buffer = DefaultOutboundBuffer
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Dispatcher{
		window:    NewWindow(opts.WindowSize),
		registry:  NewBotRegistry(),
		detectors: opts.Detectors,
		sink:      opts.Sink,
		source:    opts.Source,
		logger:    logger,
		metrics:   opts.Metrics,
		outbound:  make(chan *domain.Signal, buffer),
	}
}

// Window returns the dispatcher-owned window. Callers other than the
// dispatcher itself must treat it as read-only.
func (d *Dispatcher) Window() *Window {
	return d.window
}

// Registry returns the dispatcher-owned bot registry.
func (d *Dispatcher) Registry() *BotRegistry {
	return d.registry
}

// Run subscribes to the event source and processes events until the
// context is cancelled or the source channel closes. The publisher
// goroutine drains the outbound queue; it is stopped, fully drained,
// before Run returns, so no accepted signal is lost on graceful stop.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Println("Starting dispatcher...")

	events, err := d.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	d.pubWG.Add(1)
	go d.publishLoop()

	defer func() {
		close(d.outbound)
		d.pubWG.Wait()
		d.logger.Println("Dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				d.logger.Println("Event channel closed")
				return nil
			}
			d.Process(ctx, event)
		}
	}
}

// Process evaluates a single event: window append, the four detectors in
// fixed order, then fire-and-forget emission. One detector's failure
// never prevents the others from running.
func (d *Dispatcher) Process(ctx context.Context, event *domain.TransactionEvent) {
	if event == nil {
		return
	}
	start := time.Now()

	event.Normalize()
	d.window.Append(event)
	d.checkWindowInvariant()

	for _, detector := range d.detectors {
		signal, err := detector.Evaluate(event, d.window, d.registry)
		if err != nil {
			d.logger.Printf("Detector %s error on %s: %v", detector.Kind(), event.TransactionHash, err)
			if d.metrics != nil {
				d.metrics.DetectorErrors.WithLabelValues(detector.Kind().String()).Inc()
				d.metrics.EventsMalformed.Inc()
			}
			continue
		}
		if signal != nil {
			d.emit(signal)
		}
	}

	if d.metrics != nil {
		d.metrics.EventsProcessed.Inc()
		d.metrics.ProcessingLatency.Observe(time.Since(start).Seconds())
		d.metrics.RetainedBlocks.Set(float64(d.window.BlockCount()))
		if max, ok := d.window.MaxBlock(); ok {
			d.metrics.HighestBlock.Set(float64(max))
		}
		d.metrics.FlaggedBots.Set(float64(d.registry.Size()))
	}
}

// emit hands a signal to the outbound queue without blocking. A full
// queue drops the signal: retrying is the bus collaborator's job, not the
// dispatcher's, and window maintenance must never stall on a slow sink.
func (d *Dispatcher) emit(signal *domain.Signal) {
	select {
	case d.outbound <- signal:
		if d.metrics != nil {
			d.metrics.SignalsEmitted.WithLabelValues(signal.Kind.String()).Inc()
			d.metrics.OutboundBacklog.Set(float64(len(d.outbound)))
		}
	default:
		d.logger.Printf("Outbound queue full, dropping %s signal %s", signal.Kind, signal.SignalID)
		if d.metrics != nil {
			d.metrics.SignalsDropped.Inc()
		}
	}
}

// publishLoop drains the outbound queue into the sink until the queue is
// closed. Publish failures are logged and dropped.
func (d *Dispatcher) publishLoop() {
	defer d.pubWG.Done()

	for signal := range d.outbound {
		if d.metrics != nil {
			d.metrics.OutboundBacklog.Set(float64(len(d.outbound)))
		}
		if d.sink == nil {
			continue
		}
		if err := d.sink.Publish(context.Background(), signal); err != nil {
			d.logger.Printf("Error publishing signal %s: %v", signal.SignalID, err)
			if d.metrics != nil {
				d.metrics.PublishErrors.Inc()
			}
		}
	}
}

// checkWindowInvariant verifies the retained-block bound after every
// append. A violation is a programming defect, not a runtime condition.
func (d *Dispatcher) checkWindowInvariant() {
	if count := d.window.BlockCount(); count > d.window.size {
		d.logger.Panicf("window invariant violated: %d retained blocks, limit %d", count, d.window.size)
	}
}
