package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inventory-console/internal/persistence"
	"github.com/spec-kit/inventory-console/internal/store"
)

// NodeRepository persists the request tree as one row per leaf.
type NodeRepository struct {
	pool *pgxpool.Pool
}

// NewNodeRepository returns a Postgres-backed store backend.
func NewNodeRepository(pool *pgxpool.Pool) *NodeRepository {
	return &NodeRepository{pool: pool}
}

var _ store.Backend = (*NodeRepository)(nil)

func (r *NodeRepository) Read(ctx context.Context, path string) (any, error) {
	if _, err := store.Segments(path); err != nil {
		return nil, err
	}
	path = store.Clean(path)

	var (
		rows pgx.Rows
		err  error
	)
	if path == "" {
		rows, err = r.pool.Query(ctx, `SELECT path, value FROM tree_nodes`)
	} else {
		rows, err = r.pool.Query(ctx, `
        SELECT path, value FROM tree_nodes
        WHERE path = $1 OR starts_with(path, $2)`, path, path+"/")
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaves := map[string]any{}
	for rows.Next() {
		var (
			leafPath string
			raw      []byte
		)
		if err := rows.Scan(&leafPath, &raw); err != nil {
			return nil, err
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("decode %s: %w", leafPath, err)
		}
		leaves[leafPath] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, nil
	}
	return store.Assemble(path, leaves)
}

func (r *NodeRepository) Write(ctx context.Context, path string, value any) error {
	if _, err := store.Segments(path); err != nil {
		return err
	}
	return persistence.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return writeNode(ctx, tx, store.Clean(path), value)
	})
}

func (r *NodeRepository) Merge(ctx context.Context, path string, fields map[string]any) error {
	if _, err := store.Segments(path); err != nil {
		return err
	}
	base := store.Clean(path)
	return persistence.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		for field, value := range fields {
			if _, err := store.Segments(field); err != nil {
				return err
			}
			if err := writeNode(ctx, tx, store.Join(base, field), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeNode(ctx context.Context, tx pgx.Tx, path string, value any) error {
	if path == "" {
		if _, err := tx.Exec(ctx, `DELETE FROM tree_nodes`); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `
        DELETE FROM tree_nodes WHERE path = $1 OR starts_with(path, $2)`, path, path+"/"); err != nil {
			return err
		}
		// A leaf above path would shadow the new subtree.
		if _, err := tx.Exec(ctx, `DELETE FROM tree_nodes WHERE path = ANY($1)`, ancestors(path)); err != nil {
			return err
		}
	}

	leaves := store.Flatten(path, value)
	if len(leaves) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for leafPath, leaf := range leaves {
		raw, err := json.Marshal(leaf)
		if err != nil {
			return err
		}
		batch.Queue(`
        INSERT INTO tree_nodes (path, value, updated_at) VALUES ($1, $2, NOW())
        ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, leafPath, raw)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func ancestors(path string) []string {
	keys, _ := store.Segments(path)
	out := make([]string, 0, len(keys))
	for i := 1; i < len(keys); i++ {
		out = append(out, store.Join(keys[:i]...))
	}
	return out
}
