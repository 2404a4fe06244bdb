package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "relay_hub/docs"
	"relay_hub/internal/handlers"
	"relay_hub/internal/logger"
	"relay_hub/internal/models"
	"relay_hub/internal/notify"
	"relay_hub/internal/repository"
	"relay_hub/internal/repository/db"
	"relay_hub/internal/server"
	"relay_hub/internal/service"

	"github.com/spf13/viper"
)

// Document store drivers selectable with store.driver.
const (
	driverSQLite = "sqlite"
	driverBolt   = "bolt"
	driverFile   = "file"
)

func main() {
	// load config.yml; the logger depends on it
	cfgErr := loadConfig()

	// init logger
	log := logger.GetWithFormat(viper.GetString("log.level"), viper.GetString("log.format"))
	if cfgErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(cfgErr, &notFound) {
			log.Fatalw("error reading config", "err", cfgErr)
		}
		log.Infow("config file not found; using defaults and environment")
	}

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	docs, err := openDocumentStore(viper.GetString("store.driver"), sqlDB)
	if err != nil {
		log.Fatalw("failed to open document store", "err", err, "driver", viper.GetString("store.driver"))
	}
	defer func() {
		if cerr := docs.Close(); cerr != nil {
			log.Errorw("failed to close document store", "err", cerr)
		}
	}()

	pub, closePub := openPublisher(log)
	defer closePub()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(sqlDB, docs)
	services, err := service.NewService(ctx, repos, pub, log, hubConfig())
	if err != nil {
		log.Fatalw("failed to load relay state", "err", err)
	}
	apiHandler := handlers.NewHandler(services, log)

	// start connectivity watcher (via composed service)
	go services.Watcher.Run(ctx, viper.GetDuration("device.watch_interval"))

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("log.format", logger.FormatConsole)
	viper.SetDefault("db.path", "relay_hub.db")
	viper.SetDefault("store.driver", driverSQLite)
	viper.SetDefault("store.bolt_path", "relay_hub.bolt")
	viper.SetDefault("store.dir", "data")
	viper.SetDefault("store.timeout", service.DefaultStoreTimeout)
	viper.SetDefault("relays", []string{"relay1", "relay2", "relay3"})
	viper.SetDefault("device.online_timeout", service.DefaultOnlineTimeout)
	viper.SetDefault("device.watch_interval", service.DefaultWatchInterval)
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.client_id", "relay-hub")
	viper.SetDefault("mqtt.topic_prefix", "relay_hub")

	viper.SetEnvPrefix("RELAYHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func hubConfig() service.HubConfig {
	var relays []models.RelayID
	for _, id := range viper.GetStringSlice("relays") {
		if id = strings.TrimSpace(id); id != "" {
			relays = append(relays, models.RelayID(id))
		}
	}
	return service.HubConfig{
		Relays:        relays,
		OnlineTimeout: viper.GetDuration("device.online_timeout"),
		StoreTimeout:  viper.GetDuration("store.timeout"),
	}
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "relay_hub.db")
		dbPath = "relay_hub.db"
	}
	return db.InitDB(dbPath)
}

// openDocumentStore picks the backend holding the modes, snapshot, refresh and
// thresholds documents. The event log always stays in SQLite.
func openDocumentStore(driver string, sqlDB *sql.DB) (repository.DocumentStore, error) {
	switch strings.ToLower(driver) {
	case "", driverSQLite:
		return repository.NewDocumentSQLite(sqlDB), nil
	case driverBolt:
		return repository.NewDocumentBolt(viper.GetString("store.bolt_path"))
	case driverFile:
		return repository.NewDocumentFile(viper.GetString("store.dir"))
	default:
		return nil, fmt.Errorf("unknown store.driver %q (want %s, %s or %s)", driver, driverSQLite, driverBolt, driverFile)
	}
}

// openPublisher connects the MQTT publisher when enabled. A broker that
// refuses the connection does not stop the hub; changes are just not mirrored.
func openPublisher(log *logger.Logger) (service.Publisher, func()) {
	if !viper.GetBool("mqtt.enabled") {
		return service.NopPublisher{}, func() {}
	}
	pub, err := notify.NewPublisher(notify.Config{
		Broker:      viper.GetString("mqtt.broker"),
		ClientID:    viper.GetString("mqtt.client_id"),
		Username:    viper.GetString("mqtt.username"),
		Password:    viper.GetString("mqtt.password"),
		TopicPrefix: viper.GetString("mqtt.topic_prefix"),
	}, log)
	if err != nil {
		log.Errorw("mqtt disabled", "err", err, "broker", viper.GetString("mqtt.broker"))
		return service.NopPublisher{}, func() {}
	}
	return pub, pub.Close
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
