package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
	"fintrack/internal/storage/mongodb"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// seams for tests
	connectMongo  func(ctx context.Context, uri, database string) (storage.Store, error)
	runMigrations func(uri, database string) error
	dialAMQP      func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		connectMongo: func(ctx context.Context, uri, database string) (storage.Store, error) {
			return mongodb.Connect(ctx, uri, database)
		},
		runMigrations: mongodb.RunMigrations,
		dialAMQP:      amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Store
		err   error
	)
	switch config.Type {
	case MongoBackend:
		store, err = f.createMongoBackend(ctx, config)
	case MemoryBackend:
		store = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store}
	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notification events", log.FieldError, err)
			client = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
		}
	}

	result.Cleanup = func(ctx context.Context) error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, store.Close(ctx))
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (storage.Store, error) {
	if config.Migrate {
		if err := f.runMigrations(config.MongoURI, config.DBName); err != nil {
			return nil, fmt.Errorf("failed to migrate MongoDB: %w", err)
		}
		f.logger.Info("Applied MongoDB migrations", "database", config.DBName)
	}

	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}
	store, err := f.connectMongo(ctx, config.MongoURI, config.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend", "database", config.DBName)
	return store, nil
}

var _ services.Publisher = (*amqp.Client)(nil)
