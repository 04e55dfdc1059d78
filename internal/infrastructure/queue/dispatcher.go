package queue

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 30 * time.Second
	drainTimeout   = 20 * time.Second
)

// Sender delivers a single message synchronously.
type Sender interface {
	Deliver(ctx context.Context, msg domain.MailMessage) error
}

// Dispatcher routes outbound mail to a fixed set of workers using consistent
// hashing on the recipient, so messages to one address keep their order.
// It implements ports.Mailer.
type Dispatcher struct {
	workers []chan domain.MailMessage
	sender  Sender
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.MailMessage, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.MailMessage, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// delivers what is still buffered, bounded by drainTimeout, and exits; Wait
// blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) Wait() { d.wg.Wait() }

// Send queues msg for delivery. It blocks only while the target worker's
// buffer is full, and gives up when ctx is done.
func (d *Dispatcher) Send(ctx context.Context, msg domain.MailMessage) error {
	idx := d.shardIndex(msg.To)
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx))
	depth.Inc()
	select {
	case d.workers[idx] <- msg:
		return nil
	case <-ctx.Done():
		depth.Dec()
		return fmt.Errorf("enqueue mail: %w", ctx.Err())
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(recipient)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.MailMessage) {
	defer d.wg.Done()
	depth := metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id))
	// Deliveries in flight are bounded by sendTimeout, not by shutdown.
	sendCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			d.drain(sendCtx, id, ch, depth)
			return
		case msg := <-ch:
			depth.Dec()
			d.deliver(sendCtx, id, msg)
		}
	}
}

// drain empties ch after shutdown. Messages still queued when drainTimeout
// expires are dropped and logged.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.MailMessage, depth prometheus.Gauge) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	delivered, dropped := 0, 0
	for {
		select {
		case msg := <-ch:
			depth.Dec()
			if ctx.Err() != nil {
				dropped++
				continue
			}
			d.deliver(ctx, id, msg)
			delivered++
		default:
			if dropped > 0 {
				d.log.Warn().Int("worker_id", id).Int("dropped", dropped).Msg("mail dropped on shutdown")
			} else if delivered > 0 {
				d.log.Info().Int("worker_id", id).Int("delivered", delivered).Msg("mail queue drained")
			}
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, msg domain.MailMessage) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.sender.Deliver(ctx, msg)
	metrics.MailSendDuration.Observe(time.Since(start).Seconds())
	metrics.MailSentTotal.WithLabelValues(metrics.Result(err)).Inc()

	if err != nil {
		d.log.Error().Err(err).
			Str("subject", msg.Subject).
			Int("worker_id", id).
			Msg("mail delivery failed")
		return
	}
	d.log.Debug().Str("subject", msg.Subject).Int("worker_id", id).Msg("mail delivered")
}
