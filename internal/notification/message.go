package notification

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
)

// Attachment is a file sent along with a message. Temporary attachments are
// removed from disk once the task carrying them reaches a terminal state.
type Attachment struct {
	Name      string
	Path      string
	Temporary bool
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers one message. Every error is treated as retryable.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Task is a message in flight. It lives only in process memory.
type Task struct {
	ID         string
	Message    Message
	RetryCount int
}

func removeAttachments(log *zap.Logger, taskID string, atts []Attachment) {
	for _, a := range atts {
		if !a.Temporary || a.Path == "" {
			continue
		}
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("remove attachment",
				zap.String("task_id", taskID),
				zap.String("path", a.Path),
				zap.Error(err))
		}
	}
}
