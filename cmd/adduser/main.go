// Command adduser provisions a console account and files it under a role.
package main

import (
	"context"
	"flag"
	"log"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/config"
	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/identity"
	"github.com/spec-kit/inventory-console/internal/observability"
	"github.com/spec-kit/inventory-console/internal/persistence"
	"github.com/spec-kit/inventory-console/internal/repository"
	"github.com/spec-kit/inventory-console/internal/store"
)

func main() {
	email := flag.String("email", "", "Account email")
	password := flag.String("password", "", "Account password")
	role := flag.String("role", "", "Role bucket: primary, secondary or volunteer (empty for none)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		logger.Fatal("POSTGRES_DSN is required to provision accounts")
	}
	var bucket domain.RoleKey
	if *role != "" {
		var ok bool
		if bucket, ok = domain.ParseRoleKey(*role); !ok {
			logger.Fatal("unknown role", zap.String("role", *role))
		}
	}

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	provider := identity.NewProvider(identity.Dependencies{
		Accounts:   repository.NewAccountRepository(pg.PoolHandle()),
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	account, err := provider.Register(ctx, *email, *password)
	if err != nil {
		logger.Fatal("failed to register account", zap.Error(err))
	}
	logger.Info("account saved", zap.String("email", account.Email))

	if bucket == "" {
		return
	}
	tree := store.New(repository.NewNodeRepository(pg.PoolHandle()), logger)
	added, err := addToBucket(ctx, tree, bucket, account.Email)
	if err != nil {
		logger.Fatal("failed to update role directory", zap.Error(err))
	}
	logger.Info("role directory updated", zap.String("role", string(bucket)), zap.Bool("added", added))
}

// addToBucket appends email under the next integer key of the bucket unless
// the bucket already lists it.
func addToBucket(ctx context.Context, tree *store.Store, bucket domain.RoleKey, email string) (bool, error) {
	path := store.Join(domain.RoleDirectoryPath, string(bucket))
	current, err := tree.Get(ctx, path)
	if err != nil {
		return false, err
	}
	members := store.AsMap(current)
	next := 0
	for _, key := range store.Keys(members) {
		if strings.EqualFold(domain.Text(members[key]), email) {
			return false, nil
		}
		if n, err := strconv.Atoi(key); err == nil && n >= next {
			next = n + 1
		}
	}
	if current != nil && members == nil {
		// a single address stored directly on the bucket
		if strings.EqualFold(domain.Text(current), email) {
			return false, nil
		}
		if err := tree.Set(ctx, path, map[string]any{"0": domain.Text(current)}); err != nil {
			return false, err
		}
		next = 1
	}
	return true, tree.Set(ctx, store.Join(path, strconv.Itoa(next)), email)
}
