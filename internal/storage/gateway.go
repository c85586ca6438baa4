package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"racenotes/internal/logging"
	"racenotes/internal/services"
	"racenotes/internal/textutil"
)

// ObjectStore is the narrow surface the gateway needs from the client.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// retryDelays is the fixed backoff schedule between attempts. The last
// attempt is not followed by a delay.
var retryDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// DefaultMaxAttempts is how many upload attempts the gateway makes before
// giving up.
const DefaultMaxAttempts = 5

// Gateway retries object uploads against the store. Every attempt mints a
// fresh key, so a half-written object from a failed attempt can never
// collide with a later success.
type Gateway struct {
	store       ObjectStore
	maxAttempts int
	logger      *slog.Logger
}

// NewGateway wires a gateway over the given store. maxAttempts values
// outside 1..len(retryDelays)+1 are clamped to the default.
func NewGateway(store ObjectStore, maxAttempts int, logger *slog.Logger) *Gateway {
	if maxAttempts < 1 || maxAttempts > len(retryDelays)+1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Gateway{
		store:       store,
		maxAttempts: maxAttempts,
		logger:      logging.NewComponentLogger(logger, "gateway"),
	}
}

// Upload stores the payload and returns its public URL. Attempts are spaced
// by the fixed schedule; context cancellation aborts between attempts.
func (g *Gateway) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	contentType := ContentTypeFor(filename)
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		key := objectKey(nowFn(), newObjectID(), filename)
		err := g.store.Put(ctx, key, data, contentType)
		if err == nil {
			if attempt > 1 {
				g.logger.Info("upload succeeded after retry",
					logging.String(logging.FieldFilename, filename),
					logging.Int("attempt", attempt),
				)
			}
			return g.store.PublicURL(key), nil
		}
		lastErr = err
		logging.WarnWithContext(g.logger, "upload attempt failed", "upload_attempt_failed",
			logging.String(logging.FieldFilename, filename),
			logging.String("key", key),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", g.maxAttempts),
			logging.Error(err),
		)
		if attempt == g.maxAttempts {
			break
		}
		if err := g.wait(ctx, retryDelays[attempt-1]); err != nil {
			return "", services.Wrap(services.ErrUpload, "gateway", "upload", "canceled between attempts", err)
		}
	}
	return "", services.Wrap(services.ErrUpload, "gateway", "upload",
		fmt.Sprintf("giving up after %d attempts", g.maxAttempts), lastErr)
}

func (g *Gateway) wait(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sleepFn(ctx, delay)
	return ctx.Err()
}

// objectKey builds the bucket-relative key for one attempt. Keys are
// partitioned by upload year and month; the filename is sanitized so it can
// never introduce extra key segments.
func objectKey(now time.Time, id, filename string) string {
	name := textutil.SanitizeFileName(filename)
	if name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%s/%s_%s", now.UTC().Format("2006/01"), id, name)
}

var (
	nowFn       = time.Now
	newObjectID = uuid.NewString
	sleepFn     = sleepContext
)

func sleepContext(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// SetClockForTests overrides key timestamping and returns a restore func.
func SetClockForTests(fn func() time.Time) func() {
	previous := nowFn
	nowFn = fn
	return func() { nowFn = previous }
}

// SetObjectIDForTests overrides key ID minting and returns a restore func.
func SetObjectIDForTests(fn func() string) func() {
	previous := newObjectID
	newObjectID = fn
	return func() { newObjectID = previous }
}

// SetSleepForTests overrides the inter-attempt delay and returns a restore func.
func SetSleepForTests(fn func(ctx context.Context, delay time.Duration)) func() {
	previous := sleepFn
	sleepFn = fn
	return func() { sleepFn = previous }
}
