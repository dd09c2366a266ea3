package cmd

import (
	"context"
	"fmt"
	"time"

	"raffle/api"
	"raffle/application"
	"raffle/config"
	"raffle/database"
	"raffle/domain/interfaces"
	"raffle/domain/services"
	"raffle/infrastructure"
	"raffle/infrastructure/observability"
	"raffle/repository"
	"raffle/repository/memory"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the raffle service
func Run(ctx context.Context) error {
	log.Info("Starting raffle service...")

	// Load configuration
	cfg := config.Get()

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	seedProvider, err := services.NewSeedProvider(cfg.SeedSource)
	if err != nil {
		return fmt.Errorf("failed to create seed provider: %w", err)
	}

	// Initialize storage
	txFactory, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize event publisher
	var eventPublisher interfaces.EventPublisher = infrastructure.NewNoopEventPublisher()
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := natsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			closeStorage()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}

		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		if err := natsPublisher.EnsureRaffleEventStream(natsClient); err != nil {
			natsClient.Close()
			closeStorage()
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		eventPublisher = natsPublisher
		log.Info("NATS event publisher initialized successfully")
	} else {
		log.Info("NATS_SERVERS not set, domain events will not leave the process")
	}

	// Initialize unit of work factory
	uowFactory := infrastructure.NewUnitOfWorkFactory(txFactory, eventPublisher)

	// Initialize raffle handler
	handler := application.NewRaffleHandler(uowFactory, seedProvider)

	genesis, err := handler.EnsureGenesis(ctx)
	if err != nil {
		if natsClient != nil {
			natsClient.Close()
		}
		closeStorage()
		return fmt.Errorf("failed to initialize chain: %w", err)
	}
	log.WithFields(log.Fields{
		"genesis":    genesis.Hash,
		"seedSource": cfg.SeedSource,
	}).Info("Raffle ledger ready")

	// Serve the API until the context ends
	server := api.NewServer(cfg.APIAddr, handler, cfg.EnableFaucet)
	if natsClient != nil {
		server.SetNATS(natsClient)
	}
	serveErr := server.ListenAndServe(ctx)

	// Cleanup resources
	log.Info("Shutting down raffle service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS client")
		}
	}

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	closeStorage()
	log.Info("Shutdown completed")

	return serveErr
}

// openStorage returns the transaction factory for the configured backend
// and a function releasing its resources
func openStorage(ctx context.Context, cfg *config.Config) (application.TransactionFactory, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageBackendMemory:
		log.Warn("Using in-memory storage, state is lost on exit")
		return memory.NewUnitOfWorkFactory(memory.NewStore()), func() {}, nil

	case config.StorageBackendPostgres:
		databaseURL := cfg.GetDatabaseURL()

		log.Info("Running database migrations...")
		if err := database.RunMigrationsWithURL(databaseURL); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Database connection established successfully")

		return repository.NewUnitOfWorkFactory(db), func() {
			log.Info("Closing database connection...")
			db.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
