package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/events"
	"github.com/spec-kit/inventory-console/internal/store"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

type recorder struct {
	kinds []string
	errs  []error
}

func (r *recorder) RecordStatusWrite(kind string, err error) {
	r.kinds = append(r.kinds, kind)
	r.errs = append(r.errs, err)
}

func TestSetStatusWritesSingleField(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend(), nil)
	require.NoError(t, s.Set(ctx, "requests/a@x.in/7/history/1700000000000", map[string]any{
		"requestedQty": "2",
		"status":       "raised",
	}))
	dispatcher := events.NewInMemoryDispatcher()
	var got []events.Event
	dispatcher.Subscribe(events.EventRequestStatusChanged, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})
	rec := &recorder{}
	svc := NewStatusService(StatusDependencies{Store: s, Dispatcher: dispatcher, Recorder: rec})

	msg, err := svc.SetStatus(ctx, "ops@x.in", domain.Locator{User: "a@x.in", RequestID: "7", Timestamp: "1700000000000"}, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, `Status updated to "approved" for 7 (a@x.in)`, msg)

	entry, err := s.Get(ctx, "requests/a@x.in/7/history/1700000000000")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"requestedQty": "2", "status": "approved"}, entry)

	require.Len(t, got, 1)
	assert.Equal(t, "ops@x.in", got[0].Actor)
	assert.Equal(t, domain.StatusApproved, got[0].Payload.(events.RequestStatusChangedPayload).NewStatus)
	assert.Equal(t, []string{"component"}, rec.kinds)
}

func TestSetStatusLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend(), nil)
	svc := NewStatusService(StatusDependencies{Store: s})
	loc := domain.Locator{User: "a@x.in", RequestID: domain.PrintRequestID, Timestamp: "1"}

	msg, err := svc.SetStatus(ctx, "one@x.in", loc, domain.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, `3D Print status updated to "rejected" for a@x.in`, msg)
	_, err = svc.SetStatus(ctx, "two@x.in", loc, domain.StatusReturned)
	require.NoError(t, err)

	status, err := s.Get(ctx, loc.StatusPath())
	require.NoError(t, err)
	assert.Equal(t, "returned", status)
}

func TestSetStatusValidation(t *testing.T) {
	svc := NewStatusService(StatusDependencies{Store: store.New(store.NewMemoryBackend(), nil)})
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, "", domain.Locator{User: "a@x.in", RequestID: "7", Timestamp: "1"}, "lost")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.SetStatus(ctx, "", domain.Locator{User: "a@x.in/../b", RequestID: "7", Timestamp: "1"}, domain.StatusRaised)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

type failingWriter struct{}

func (failingWriter) Set(context.Context, string, any) error { return errors.New("permission denied") }

func TestSetStatusWriteFailure(t *testing.T) {
	rec := &recorder{}
	svc := NewStatusService(StatusDependencies{Store: failingWriter{}, Recorder: rec})

	_, err := svc.SetStatus(context.Background(), "", domain.Locator{User: "a@x.in", RequestID: "7", Timestamp: "1"}, domain.StatusRaised)
	assert.True(t, apperrors.IsCode(err, "WRITE_FAILED"))
	require.Len(t, rec.errs, 1)
	assert.Error(t, rec.errs[0])
}
