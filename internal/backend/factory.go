package backend

import (
	"context"
	"fmt"
	"log/slog"

	"moneytracker/internal/amqp"
	"moneytracker/internal/config"
	"moneytracker/internal/records/memory"
	"moneytracker/internal/services"
	"moneytracker/internal/storage"
	"moneytracker/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		MySQLDSN:     appConfig.MySQLDSN,
		PostgresURL:  appConfig.PostgresURL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		StoreTimeout: appConfig.StoreTimeout,
	}, nil
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	// The broker is optional: without it entries are still stored, only
	// the sheets mirror misses them.
	var events services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without entry events", "error", err)
		} else {
			events = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	entries := services.NewEntryService(store, events, config.StoreTimeout)

	f.logger.Info("Initialized backend",
		"backend", config.Type,
		"amqp_enabled", events != nil)

	return &BackendResult{
		Store:   store,
		Entries: entries,
		Cleanup: entries.Close,
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (Store, error) {
	switch config.Type {
	case MemoryBackend:
		f.logger.Warn("Using in-memory backend, entries are lost on restart")
		return memory.New(), nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite database", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MySQLBackend:
		repo, err := storage.NewMySQLRepository(config.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MySQL repository: %w", err)
		}
		return repo, nil
	case PostgresBackend:
		store, err := postgres.New(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("invalid backend type: %s", config.Type)
}
