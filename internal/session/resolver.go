package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/store"
)

// Reader reads one snapshot from the request store.
type Reader interface {
	Get(ctx context.Context, path string) (any, error)
}

// RoleDirectory maps a normalized email to its role.
type RoleDirectory interface {
	Lookup(ctx context.Context, email string) (domain.RoleKey, error)
}

// StoreDirectory reads role buckets from the request store.
type StoreDirectory struct {
	reader Reader
}

// NewStoreDirectory builds a directory over reader.
func NewStoreDirectory(reader Reader) *StoreDirectory {
	return &StoreDirectory{reader: reader}
}

// Lookup scans every bucket in collection order and returns the first role
// listing email. A bucket is a single address or a keyed collection of them,
// possibly nested.
func (d *StoreDirectory) Lookup(ctx context.Context, email string) (domain.RoleKey, error) {
	snapshot, err := d.reader.Get(ctx, domain.RoleDirectoryPath)
	if err != nil {
		return domain.RoleNone, err
	}
	buckets := store.AsMap(snapshot)
	email = NormalizeEmail(email)
	for _, name := range store.Keys(buckets) {
		role, ok := domain.ParseRoleKey(name)
		if !ok {
			continue
		}
		if bucketHas(buckets[name], email) {
			return role, nil
		}
	}
	return domain.RoleNone, nil
}

func bucketHas(bucket any, email string) bool {
	switch v := bucket.(type) {
	case string:
		return NormalizeEmail(v) == email
	case map[string]any:
		for _, key := range store.Keys(v) {
			if bucketHas(v[key], email) {
				return true
			}
		}
	}
	return false
}

// Resolver turns session identities into user contexts.
type Resolver struct {
	directory RoleDirectory
	logger    *zap.Logger
}

// NewResolver builds a resolver.
func NewResolver(directory RoleDirectory, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{directory: directory, logger: logger}
}

// Resolve returns nil for a signed-out session. A directory failure degrades
// to RoleNone, which the page guard treats as no access.
func (r *Resolver) Resolve(ctx context.Context, identity *domain.Identity) *domain.UserContext {
	if identity == nil || identity.Email == "" {
		return nil
	}
	email := NormalizeEmail(identity.Email)
	role, err := r.directory.Lookup(ctx, email)
	if err != nil {
		r.logger.Error("role directory unavailable", zap.String("email", email), zap.Error(err))
		role = domain.RoleNone
	}
	return &domain.UserContext{
		Email:       email,
		RoleKey:     role,
		DisplayName: DisplayName(email),
		RoleLabel:   role.Label(),
	}
}
