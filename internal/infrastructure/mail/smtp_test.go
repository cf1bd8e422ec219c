package mail

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"loanflow/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func testMailer(opts Options) *SMTPMailer {
	if opts.From == "" {
		opts.From = "no-reply@loanflow.local"
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 1000
	}
	return NewSMTPMailer(opts, nil)
}

func TestSend_BuildsMessage(t *testing.T) {
	m := testMailer(Options{MaxConns: 1})

	att := filepath.Join(t.TempDir(), "contract.pdf")
	require.NoError(t, os.WriteFile(att, []byte("%PDF"), 0o600))

	var got *gomail.Msg
	m.deliver = func(_ context.Context, msg *gomail.Msg) error {
		got = msg
		return nil
	}

	err := m.Send(context.Background(), notification.Message{
		To:          "ana@example.com",
		Subject:     "Your loan was approved",
		HTML:        "<p>hi</p>",
		Attachments: []notification.Attachment{{Name: "contract.pdf", Path: att}},
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	rcpts, err := got.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, rcpts)
	assert.Equal(t, []string{"Your loan was approved"}, got.GetGenHeader(gomail.HeaderSubject))
	assert.Len(t, got.GetAttachments(), 1)
}

func TestSend_InvalidRecipient(t *testing.T) {
	m := testMailer(Options{})
	m.deliver = func(context.Context, *gomail.Msg) error {
		t.Fatal("must not deliver")
		return nil
	}
	assert.Error(t, m.Send(context.Background(), notification.Message{To: "not an address"}))
}

func TestSend_WrapsTransportError(t *testing.T) {
	m := testMailer(Options{})
	boom := errors.New("421 try again later")
	m.deliver = func(context.Context, *gomail.Msg) error { return boom }

	err := m.Send(context.Background(), notification.Message{To: "ana@example.com"})
	assert.ErrorIs(t, err, boom)
}

func TestSend_BoundsConcurrentConnections(t *testing.T) {
	m := testMailer(Options{MaxConns: 2})

	var inFlight, peak int32
	m.deliver = func(context.Context, *gomail.Msg) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Send(context.Background(), notification.Message{To: "ana@example.com"}))
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestSend_TimesOutWaitingForPool(t *testing.T) {
	m := testMailer(Options{MaxConns: 1, SendTimeout: 20 * time.Millisecond})
	require.True(t, m.sem.TryAcquire(1)) // pool exhausted
	defer m.sem.Release(1)

	m.deliver = func(context.Context, *gomail.Msg) error {
		t.Fatal("must not deliver without a connection slot")
		return nil
	}
	err := m.Send(context.Background(), notification.Message{To: "ana@example.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
