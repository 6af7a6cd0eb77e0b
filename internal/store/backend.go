package store

import "context"

// Backend persists the tree. Values handed to a backend are already normalized;
// a nil value removes the node. Implementations must prune empty parents.
type Backend interface {
	Read(ctx context.Context, path string) (any, error)
	Write(ctx context.Context, path string, value any) error
	Merge(ctx context.Context, path string, fields map[string]any) error
}
