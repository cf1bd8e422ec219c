package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultInterval    = time.Second
	DefaultBaseDelay   = 5 * time.Second
	DefaultMaxRetries  = 3
	DefaultCapacity    = 10000
	DefaultSendTimeout = 30 * time.Second
)

type Options struct {
	Interval    time.Duration // delivery tick
	BaseDelay   time.Duration // retry n waits n*BaseDelay
	MaxRetries  int
	Capacity    int // 0 means unbounded
	SendTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	return o
}

// Queue delivers messages one at a time in FIFO order, off the request path.
// Enqueue is safe for concurrent use; delivery is single-worker, so Run and
// Flush must not overlap. Nothing is persisted: tasks still queued when the
// process exits are lost.
type Queue struct {
	mailer Mailer
	log    *zap.Logger
	opts   Options

	mu        sync.Mutex
	tasks     []*Task
	scheduled int // retries waiting on a timer

	ready     chan struct{}
	afterFunc func(d time.Duration, f func())
}

func NewQueue(m Mailer, log *zap.Logger, opts Options) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		mailer: m,
		log:    log,
		opts:   opts.withDefaults(),
		ready:  make(chan struct{}, 1),
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Enqueue never fails from the caller's point of view. When the queue is at
// capacity the message is logged and dropped.
func (q *Queue) Enqueue(msg Message) {
	t := &Task{ID: uuid.NewString(), Message: msg}

	q.mu.Lock()
	if q.opts.Capacity > 0 && len(q.tasks)+q.scheduled >= q.opts.Capacity {
		q.mu.Unlock()
		q.log.Error("notification queue full, dropping message",
			zap.String("task_id", t.ID),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
		removeAttachments(q.log, t.ID, msg.Attachments)
		return
	}
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()

	q.signal()
}

// Len counts queued tasks plus those waiting to be retried.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks) + q.scheduled
}

// Run delivers one task per tick until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	ticker := time.NewTicker(q.opts.Interval)
	defer ticker.Stop()

	q.log.Info("notification queue started", zap.Duration("interval", q.opts.Interval))
	for {
		select {
		case <-ctx.Done():
			q.log.Info("notification queue stopped", zap.Int("pending", q.Len()))
			return ctx.Err()
		case <-ticker.C:
			q.processNext(ctx)
		}
	}
}

// Flush delivers until nothing is queued or waiting for a retry, or ctx ends.
func (q *Queue) Flush(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if q.processNext(ctx) {
			continue
		}
		if q.Len() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.ready:
		}
	}
}

// processNext pops the head task and attempts delivery. It reports false when
// the queue was empty.
func (q *Queue) processNext(ctx context.Context) bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(ctx, q.opts.SendTimeout)
	err := q.mailer.Send(sendCtx, t.Message)
	cancel()

	if err == nil {
		q.log.Debug("notification sent", zap.String("task_id", t.ID), zap.Int("retry", t.RetryCount))
		removeAttachments(q.log, t.ID, t.Message.Attachments)
		return true
	}

	if t.RetryCount >= q.opts.MaxRetries {
		q.log.Error("notification discarded after retries",
			zap.String("task_id", t.ID),
			zap.String("to", t.Message.To),
			zap.Int("retry", t.RetryCount),
			zap.Error(err))
		removeAttachments(q.log, t.ID, t.Message.Attachments)
		return true
	}

	t.RetryCount++
	delay := time.Duration(t.RetryCount) * q.opts.BaseDelay
	q.log.Warn("notification failed, retrying",
		zap.String("task_id", t.ID),
		zap.Int("retry", t.RetryCount),
		zap.Duration("delay", delay),
		zap.Error(err))

	q.mu.Lock()
	q.scheduled++
	q.mu.Unlock()
	q.afterFunc(delay, func() { q.requeue(t) })
	return true
}

func (q *Queue) requeue(t *Task) {
	q.mu.Lock()
	q.scheduled--
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
