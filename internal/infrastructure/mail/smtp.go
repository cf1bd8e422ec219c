package mail

import (
	"context"
	"fmt"
	"time"

	"loanflow/internal/notification"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type Options struct {
	Host           string
	Port           int
	User           string
	Pass           string
	From           string
	MaxConns       int64
	RatePerSec     float64
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
}

// SMTPMailer sends each message on its own connection. At most MaxConns
// connections are open at once and at most RatePerSec messages leave per
// second; callers block on both inside Send.
type SMTPMailer struct {
	opts    Options
	log     *zap.Logger
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	deliver func(ctx context.Context, msg *gomail.Msg) error
}

var _ notification.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(opts Options, log *zap.Logger) *SMTPMailer {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = 1
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 1
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}
	m := &SMTPMailer{
		opts:    opts,
		log:     log,
		sem:     semaphore.NewWeighted(opts.MaxConns),
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
	m.deliver = m.dialAndSend
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg notification.Message) error {
	gm, err := m.build(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.opts.SendTimeout)
	defer cancel()

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("smtp rate limit: %w", err)
	}
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("smtp pool: %w", err)
	}
	defer m.sem.Release(1)

	if err := m.deliver(ctx, gm); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg notification.Message) (*gomail.Msg, error) {
	gm := gomail.NewMsg()
	if err := gm.From(m.opts.From); err != nil {
		return nil, fmt.Errorf("smtp from %q: %w", m.opts.From, err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("smtp to %q: %w", msg.To, err)
	}
	gm.Subject(msg.Subject)
	gm.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	for _, a := range msg.Attachments {
		gm.AttachFile(a.Path, gomail.WithFileName(a.Name))
	}
	return gm, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(m.opts.Port),
		gomail.WithTimeout(m.opts.ConnectTimeout),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if m.opts.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.opts.User),
			gomail.WithPassword(m.opts.Pass),
		)
	}
	client, err := gomail.NewClient(m.opts.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
