package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var order []string

	d.Subscribe(EventSessionChanged, func(_ context.Context, e Event) error {
		order = append(order, "first:"+e.Subject)
		return errors.New("first failed")
	})
	d.Subscribe(EventSessionChanged, func(_ context.Context, e Event) error {
		order = append(order, "second:"+e.Subject)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		return nil
	})
	d.Subscribe(EventChatDeleted, func(context.Context, Event) error {
		order = append(order, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventSessionChanged, Subject: "s1"})
	assert.EqualError(t, err, "first failed")
	assert.Equal(t, []string{"first:s1", "second:s1"}, order)
}
