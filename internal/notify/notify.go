// Package notify delivers notifications on background workers, decoupled
// from the request that caused them.
package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/qa-forum/backend/internal/observability"
)

// Message is one notification for one recipient. Senders pick the
// address they understand and skip messages without one.
type Message struct {
	To      string
	Phone   string
	Subject string
	Body    string
}

type Sender interface {
	Channel() string
	Accepts(msg Message) bool
	Send(ctx context.Context, msg Message) error
}

type Options struct {
	Delay       time.Duration
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

type job struct {
	msg       Message
	notBefore time.Time
}

// Dispatcher is a bounded queue drained by a fixed set of workers.
// Enqueue never blocks; a full or stopped queue drops the message.
type Dispatcher struct {
	opts    Options
	senders []Sender
	queue   chan job
	log     *log.Entry

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(opts Options, logger *log.Logger, senders ...Sender) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		opts:    opts,
		senders: senders,
		queue:   make(chan job, opts.QueueSize),
		log:     logger.WithField("component", "notify"),
	}
}

// Start launches the workers. They exit when ctx is done or after Stop
// once the queue is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
	d.log.WithField("workers", d.opts.Workers).Info("Notification workers started")
}

// Stop refuses new messages and waits for queued ones to be handled.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
	d.log.Info("Notification workers stopped")
}

// Enqueue schedules msg for delivery after the configured delay.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		observability.NotificationsTotal.WithLabelValues("queue", "dropped").Inc()
		return false
	}
	select {
	case d.queue <- job{msg: msg, notBefore: time.Now().Add(d.opts.Delay)}:
		return true
	default:
		observability.NotificationsTotal.WithLabelValues("queue", "dropped").Inc()
		d.log.WithField("subject", msg.Subject).Warn("Notification queue full, message dropped")
		return false
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-d.queue:
			if !ok {
				return
			}
			if wait := time.Until(j.notBefore); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			d.deliver(ctx, j.msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	for _, s := range d.senders {
		if !s.Accepts(msg) {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
		err := s.Send(sendCtx, msg)
		cancel()
		if err != nil {
			observability.NotificationsTotal.WithLabelValues(s.Channel(), "failed").Inc()
			d.log.WithError(err).WithFields(log.Fields{
				"channel": s.Channel(),
				"subject": msg.Subject,
			}).Error("Notification delivery failed")
			continue
		}
		observability.NotificationsTotal.WithLabelValues(s.Channel(), "sent").Inc()
	}
}
