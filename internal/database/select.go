package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iliyamo/spiderhome/internal/config"
	"github.com/iliyamo/spiderhome/internal/model"
	"github.com/iliyamo/spiderhome/internal/repository"
	"github.com/iliyamo/spiderhome/internal/repository/memory"
	"github.com/iliyamo/spiderhome/internal/utils"
)

// Select makes the one storage decision of the process.  It tries MySQL
// once within cfg.DBConnectTimeout; when the connection or the schema
// bootstrap fails it logs the cause and returns the seeded in-memory store
// instead.  The chosen store is never switched afterwards.  Either way the
// configured admin account exists when Select returns without error.
func Select(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	store, err := openSQL(ctx, cfg)
	if err != nil {
		logger.Warn("mysql unavailable, using in-memory store",
			slog.String("addr", cfg.DSNAddr()), slog.Any("error", err))
		if store, err = memory.NewSeeded(ctx); err != nil {
			return nil, fmt.Errorf("seeding memory store: %w", err)
		}
	}

	if err := seedAdmin(ctx, cfg, store); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("storage ready", slog.String("backend", store.Backend()))
	return store, nil
}

func openSQL(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repository.NewSQLStore(db), nil
}

// seedAdmin inserts the configured admin when the username is absent.  An
// existing row keeps its password even when ADMIN_PASSWORD changed.
func seedAdmin(ctx context.Context, cfg *config.Config, store repository.Store) error {
	hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	if _, err := store.Users().EnsureAdmin(ctx, cfg.AdminUsername, hash, model.RoleAdmin); err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}
	return nil
}
