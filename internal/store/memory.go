package store

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu   sync.RWMutex
	root map[string]any
}

// NewMemoryBackend returns a process-local backend, used in development and tests.
func NewMemoryBackend() Backend {
	return &memoryBackend{root: map[string]any{}}
}

func (m *memoryBackend) Read(_ context.Context, path string) (any, error) {
	keys, err := Segments(path)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var node any = m.root
	for _, key := range keys {
		children, ok := node.(map[string]any)
		if !ok {
			return nil, nil
		}
		if node, ok = children[key]; !ok {
			return nil, nil
		}
	}
	if children, ok := node.(map[string]any); ok && len(children) == 0 {
		return nil, nil
	}
	return Clone(node), nil
}

func (m *memoryBackend) Write(_ context.Context, path string, value any) error {
	keys, err := Segments(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(keys, Clone(value))
	return nil
}

func (m *memoryBackend) Merge(_ context.Context, path string, fields map[string]any) error {
	base, err := Segments(path)
	if err != nil {
		return err
	}
	targets := make(map[string][]string, len(fields))
	for field := range fields {
		rel, err := Segments(field)
		if err != nil || len(rel) == 0 {
			return ErrInvalidPath
		}
		targets[field] = append(append([]string{}, base...), rel...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for field, keys := range targets {
		m.write(keys, Clone(fields[field]))
	}
	return nil
}

func (m *memoryBackend) write(keys []string, value any) {
	if len(keys) == 0 {
		root, ok := value.(map[string]any)
		if !ok {
			root = map[string]any{}
		}
		m.root = root
		return
	}

	lineage := []map[string]any{m.root}
	node := m.root
	for _, key := range keys[:len(keys)-1] {
		next, ok := node[key].(map[string]any)
		if !ok {
			if value == nil {
				return
			}
			next = map[string]any{}
			node[key] = next
		}
		node = next
		lineage = append(lineage, node)
	}

	last := keys[len(keys)-1]
	if value != nil {
		node[last] = value
		return
	}
	delete(node, last)
	for i := len(lineage) - 1; i > 0; i-- {
		if len(lineage[i]) > 0 {
			break
		}
		delete(lineage[i-1], keys[i-1])
	}
}
