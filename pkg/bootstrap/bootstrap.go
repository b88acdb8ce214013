// Package bootstrap wires the storage facade from the configuration, shared by every binary.
package bootstrap

import (
	"errors"
	"fmt"

	"agendasmart/pkg/config"
	"agendasmart/pkg/database"
	"agendasmart/pkg/messages"
	"agendasmart/pkg/redis"
	"agendasmart/pkg/storage"
	"agendasmart/pkg/storage/localstore"
	"agendasmart/pkg/storage/remotestore"
)

// Stack is an open facade with the stores behind it.
type Stack struct {
	Facade *storage.Facade
	Local  *localstore.Store
	Remote storage.RemoteTable

	closers []func() error
}

// Open creates the local store, the configured remote table and the facade over them.
func Open(cfg *config.Config, logger storage.Logger) (*Stack, error) {
	if cfg == nil {
		return nil, errors.New(messages.StorageNotConfigured)
	}
	if logger == nil {
		logger = storage.NopLogger()
	}

	localCfg := localstore.DefaultConfig(cfg.Storage.LocalPath)
	if cfg.Storage.InMemory {
		localCfg = localstore.InMemoryConfig()
	}
	localCfg.Logger = logger

	local, err := localstore.Open(localCfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the local store: %w", err)
	}

	table, closeRemote, err := OpenRemote(cfg)
	if err != nil {
		local.Close()
		return nil, err
	}

	facade := storage.New(local, table, storage.Options{
		Prefix:        cfg.Storage.Prefix,
		BackupTTL:     cfg.Storage.BackupTTL,
		Retry:         storage.RetryPolicy{MaxRetries: 1, Delay: cfg.Storage.RetryDelay},
		RemoteTimeout: cfg.Remote.Timeout,
		Logger:        logger,
	})

	logger.Infof("storage ready, local store %s, remote backend %s", describeLocal(cfg), cfg.Remote.Backend)

	return &Stack{
		Facade:  facade,
		Local:   local,
		Remote:  table,
		closers: []func() error{local.Close, closeRemote},
	}, nil
}

func describeLocal(cfg *config.Config) string {
	if cfg.Storage.InMemory {
		return "in memory"
	}
	return cfg.Storage.LocalPath
}

// OpenRemote connects the remote table of the configured backend.
// The "none" backend returns a nil table, which disables the remote side of the facade.
func OpenRemote(cfg *config.Config) (storage.RemoteTable, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Remote.Backend {
	case "postgres":
		db, err := database.NewConnection(cfg.Database.DSN)
		if err != nil {
			return nil, noop, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noop, fmt.Errorf("couldn't get raw db connection: %w", err)
		}
		if err := database.RunMigrations(cfg, sqlDB); err != nil {
			sqlDB.Close()
			return nil, noop, err
		}
		return remotestore.NewGormTable(db), sqlDB.Close, nil

	case "redis":
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return remotestore.NewRedisTable(client, "kv"), client.Close, nil

	case "sqlite":
		table, err := remotestore.OpenSQLite(cfg.Remote.SqlitePath)
		if err != nil {
			return nil, noop, err
		}
		return table, table.Close, nil

	case "none", "":
		return nil, noop, nil
	}

	return nil, noop, fmt.Errorf("unknown remote backend %q", cfg.Remote.Backend)
}

// Close stops the facade and closes the stores.
func (s *Stack) Close() error {
	s.Facade.Close()

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
