package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/roosmar/backoffice/internal/api"
	"github.com/roosmar/backoffice/internal/catalog"
	"github.com/roosmar/backoffice/internal/events"
	"github.com/roosmar/backoffice/internal/mirror"
	"github.com/roosmar/backoffice/internal/orders"
	"github.com/roosmar/backoffice/internal/storage"
	"github.com/roosmar/backoffice/internal/websocket"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(parseLogLevel(getEnv("LOG_LEVEL", "info")))

	dataDir := getEnv("DATA_DIR", "./data")
	port := getEnv("PORT", "8080")
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")

	store, err := storage.NewStore(dataDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open data directory")
	}

	catalogSvc := catalog.NewService(store.LoadProducts(), store.LoadClients(), store, logger)

	managerCfg := orders.Config{
		Orders:        store.LoadOrders(),
		DeliveryRules: store.LoadDeliveryRules(catalog.DefaultDeliveryRules()),
		VAT:           store.LoadVATSettings(catalog.DefaultVATSettings()),
		Store:         store,
	}

	var producer *events.KafkaProducer
	if kafkaBrokers != "" {
		producer, err = events.NewKafkaProducer(kafkaBrokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		managerCfg.Producer = producer
	} else {
		logger.Info("KAFKA_BROKERS not set, order events disabled")
	}

	hub := websocket.NewHub(logger)
	go hub.Run()
	managerCfg.Hub = hub

	manager := orders.NewManager(managerCfg, logger)

	handler := api.NewHandler(catalogSvc, manager, logger)
	handler.SetHub(hub)

	if dsn := mirrorDSN(); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to mirror database")
		}
		defer db.Close()

		mirrorStore, err := mirror.NewStore(db, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize mirror store")
		}
		handler.SetMirror(mirrorStore)
		logger.Info("Mirror backend enabled")
	} else {
		logger.Info("Mirror database not configured, mirror endpoints disabled")
	}

	router := mux.NewRouter()
	router.Use(api.LoggingMiddleware(logger))
	handler.Routes(router)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("Starting back office server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

// mirrorDSN builds the optional Postgres connection string. MIRROR_DATABASE_URL
// wins; otherwise the individual MIRROR_DB_* variables are assembled, with
// MIRROR_DB_HOST acting as the on/off switch.
func mirrorDSN() string {
	if url := os.Getenv("MIRROR_DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("MIRROR_DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		getEnv("MIRROR_DB_PORT", "5432"),
		getEnv("MIRROR_DB_USER", "backoffice"),
		getEnv("MIRROR_DB_PASSWORD", "backoffice"),
		getEnv("MIRROR_DB_NAME", "backoffice"),
		getEnv("MIRROR_DB_SSLMODE", "disable"),
	)
}

func parseLogLevel(raw string) logrus.Level {
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
