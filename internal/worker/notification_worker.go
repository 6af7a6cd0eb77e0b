package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/service"
	"github.com/spec-kit/inventory-console/internal/store"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// ChangeBus relays change notifications from other instances.
type ChangeBus interface {
	Run(ctx context.Context, target store.Notifier) error
}

const (
	minBusBackoff = 500 * time.Millisecond
	maxBusBackoff = 30 * time.Second
)

// RunChangeBus keeps bus subscribed until ctx is cancelled, reconnecting with
// exponential backoff. Every reconnect notifies the tree root so listeners
// catch up on changes missed while disconnected.
func RunChangeBus(ctx context.Context, bus ChangeBus, target store.Notifier, logger *zap.Logger) {
	if bus == nil || target == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	backoff := minBusBackoff
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			target.Notify("")
		}
		started := time.Now()
		err := bus.Run(ctx, target)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > maxBusBackoff {
			backoff = minBusBackoff
		}
		logger.Warn("change bus disconnected", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBusBackoff {
			backoff = maxBusBackoff
		}
	}
}
