package notifications

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitedrift/internal/config"
	"sitedrift/internal/fileutil"
	"sitedrift/internal/tasks"
	"sitedrift/internal/textutil"
)

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunSummary(ctx context.Context, summary Summary) error
	TestNotification(ctx context.Context) error
}

// Outbox accepts messages for the queue sink.
type Outbox interface {
	EnqueueMessage(ctx context.Context, destination, body string) (*tasks.Message, error)
}

// NewService builds the service for the configured sink. outbox is only used
// by the queue sink and may be nil otherwise.
func NewService(cfg *config.Config, outbox Outbox) Service {
	switch cfg.Notifications.Sink {
	case config.SinkFile:
		return &fileService{
			dir:         cfg.Notifications.OutboxDir,
			destination: cfg.Notifications.Destination,
			now:         time.Now,
		}
	case config.SinkQueue:
		return &queueService{
			outbox:      outbox,
			destination: cfg.Notifications.Destination,
		}
	default:
		return noopService{}
	}
}

const testMessage = "sitedrift test notification"

type fileService struct {
	dir         string
	destination string
	now         func() time.Time
}

func (f *fileService) NotifyRunSummary(_ context.Context, summary Summary) error {
	return f.drop(FormatSummary(summary))
}

func (f *fileService) TestNotification(context.Context) error {
	return f.drop(testMessage + "\n")
}

// drop writes <dir>/<timestamp>-<destination>-<id>.txt: a "to:" header line,
// a blank line, then the body.
func (f *fileService) drop(body string) error {
	if strings.TrimSpace(f.dir) == "" {
		return errors.New("notifications.outbox_dir is not set")
	}
	name := fmt.Sprintf("%s-%s-%s.txt",
		f.now().UTC().Format("20060102T150405Z"), textutil.SanitizeToken(f.destination), uuid.NewString())
	content := "to: " + f.destination + "\n\n" + body
	if err := fileutil.WriteFileAtomic(filepath.Join(f.dir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write outbox file: %w", err)
	}
	return nil
}

type queueService struct {
	outbox      Outbox
	destination string
}

func (q *queueService) NotifyRunSummary(ctx context.Context, summary Summary) error {
	return q.enqueue(ctx, FormatSummary(summary))
}

func (q *queueService) TestNotification(ctx context.Context) error {
	return q.enqueue(ctx, testMessage+"\n")
}

func (q *queueService) enqueue(ctx context.Context, body string) error {
	if q.outbox == nil {
		return errors.New("queue sink requires the state store")
	}
	if _, err := q.outbox.EnqueueMessage(ctx, q.destination, body); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyRunSummary(context.Context, Summary) error { return nil }
func (noopService) TestNotification(context.Context) error          { return nil }
