package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Publisher forwards local changes to other instances.
type Publisher interface {
	Publish(ctx context.Context, path string) error
}

// Store is the path-addressed request store with push subscriptions.
type Store struct {
	backend   Backend
	hub       *Hub
	publisher Publisher
	logger    *zap.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithPublisher forwards every local change to pub.
func WithPublisher(pub Publisher) Option {
	return func(s *Store) { s.publisher = pub }
}

// WithObserver reports listener activity to obs.
func WithObserver(obs Observer) Option {
	return func(s *Store) { s.hub.observer = obs }
}

// New builds a Store over backend.
func New(backend Backend, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{backend: backend, logger: logger}
	s.hub = newHub(backend.Read, logger, nil)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub exposes the change notifier so remote changes can be injected.
func (s *Store) Hub() *Hub {
	return s.hub
}

// Get reads the snapshot at path.
func (s *Store) Get(ctx context.Context, path string) (any, error) {
	return s.backend.Read(ctx, path)
}

// Set overwrites the value at path. A nil value removes it.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	normalized, err := Normalize(value)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, path, normalized); err != nil {
		return fmt.Errorf("write %s: %w", Clean(path), err)
	}
	s.changed(ctx, path)
	return nil
}

// Update merges fields into the node at path, leaving other children untouched.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	normalized := make(map[string]any, len(fields))
	for key, value := range fields {
		v, err := Normalize(value)
		if err != nil {
			return err
		}
		normalized[key] = v
	}
	if err := s.backend.Merge(ctx, path, normalized); err != nil {
		return fmt.Errorf("update %s: %w", Clean(path), err)
	}
	s.changed(ctx, path)
	return nil
}

// Remove deletes the node at path.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := s.backend.Write(ctx, path, nil); err != nil {
		return fmt.Errorf("remove %s: %w", Clean(path), err)
	}
	s.changed(ctx, path)
	return nil
}

// Subscribe attaches handler to path. The current snapshot is delivered first,
// then one full snapshot per related change.
func (s *Store) Subscribe(path string, handler Handler) *Listener {
	return s.hub.subscribe(path, handler)
}

func (s *Store) changed(ctx context.Context, path string) {
	s.hub.Notify(path)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, Clean(path)); err != nil {
		s.logger.Warn("change fan-out failed", zap.String("path", Clean(path)), zap.Error(err))
	}
}
