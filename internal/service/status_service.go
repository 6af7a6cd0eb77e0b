package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/events"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// StatusWriter writes one field of the requests tree.
type StatusWriter interface {
	Set(ctx context.Context, path string, value any) error
}

// StatusRecorder counts status writes.
type StatusRecorder interface {
	RecordStatusWrite(requestKind string, err error)
}

// StatusService updates the status of a request history entry.
type StatusService struct {
	store      StatusWriter
	dispatcher events.Dispatcher
	recorder   StatusRecorder
	logger     *zap.Logger
}

// StatusDependencies bundles collaborators for the status service.
type StatusDependencies struct {
	Store      StatusWriter
	Dispatcher events.Dispatcher
	Recorder   StatusRecorder
	Logger     *zap.Logger
}

// NewStatusService builds the service.
func NewStatusService(deps StatusDependencies) *StatusService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		logger:     logger,
	}
}

// SetStatus overwrites the status field at the located entry and returns the
// confirmation shown to the operator. There is no version check; the last
// write wins.
func (s *StatusService) SetStatus(ctx context.Context, actor string, loc domain.Locator, status domain.Status) (string, error) {
	if !status.Valid() {
		return "", apperrors.NewValidationError("invalid status", map[string]any{"status": status, "allowed": domain.Statuses})
	}
	if err := loc.Validate(); err != nil {
		return "", apperrors.NewValidationError(err.Error(), nil)
	}

	err := s.store.Set(ctx, loc.StatusPath(), string(status))
	if s.recorder != nil {
		s.recorder.RecordStatusWrite(requestKind(loc), err)
	}
	if err != nil {
		s.logger.Error("status update failed",
			zap.String("path", loc.StatusPath()),
			zap.String("status", string(status)),
			zap.Error(err))
		return "", apperrors.NewWriteFailure("status update failed", err)
	}

	s.logger.Info("status updated",
		zap.String("actor", actor),
		zap.String("path", loc.StatusPath()),
		zap.String("status", string(status)))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventRequestStatusChanged,
		Subject: loc.User,
		Actor:   actor,
		Payload: events.RequestStatusChangedPayload{
			Owner:     loc.User,
			RequestID: loc.RequestID,
			Timestamp: loc.Timestamp,
			NewStatus: status,
		},
	})
	return confirmation(loc, status), nil
}

func confirmation(loc domain.Locator, status domain.Status) string {
	if loc.RequestID == domain.PrintRequestID {
		return fmt.Sprintf("3D Print status updated to %q for %s", status, loc.User)
	}
	return fmt.Sprintf("Status updated to %q for %s (%s)", status, loc.RequestID, loc.User)
}

func requestKind(loc domain.Locator) string {
	if loc.RequestID == domain.PrintRequestID {
		return "print"
	}
	return "component"
}

func (s *StatusService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("status event handlers failed", zap.Error(err))
	}
}
