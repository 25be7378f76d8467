// Warden - Telemetry Ingest and Alerting Service
//
// Warden subscribes to an MQTT broker, decodes sensor payloads on
// subscribed topics, persists per-topic sample history, evaluates a
// multi-level threshold ladder with hysteresis and cooldown, and
// dispatches retrying email alerts to the recipients configured for
// each topic.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/wardenmq/warden-core/migrations"

	"github.com/wardenmq/warden-core/internal/coordinator"
	"github.com/wardenmq/warden-core/internal/directory"
	"github.com/wardenmq/warden-core/internal/infrastructure/config"
	"github.com/wardenmq/warden-core/internal/infrastructure/database"
	"github.com/wardenmq/warden-core/internal/infrastructure/logging"
	"github.com/wardenmq/warden-core/internal/infrastructure/mqtt"
	"github.com/wardenmq/warden-core/internal/infrastructure/smtp"
	"github.com/wardenmq/warden-core/internal/infrastructure/timeseries"
	"github.com/wardenmq/warden-core/internal/mailqueue"
	"github.com/wardenmq/warden-core/internal/persistence"
	"github.com/wardenmq/warden-core/internal/threshold"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error lets main handle exit codes
// consistently.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting warden", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	dir := directory.New(directory.NewSQLiteRepository(db.DB))
	dir.SetLogger(log)
	defer dir.Close()

	registry := threshold.NewRegistry(threshold.NewSQLiteRepository(db.DB))
	registry.SetLogger(log)
	registry.Start()
	defer registry.Stop()

	var archiver *timeseries.Client
	if cfg.InfluxDB.Enabled {
		archiver, err = timeseries.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := archiver.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		archiver.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	batcher := persistence.NewBatcher(persistence.NewSQLiteRepository(db.DB), archiverOrNil(archiver))
	batcher.SetLogger(log)
	batcher.Start()
	defer batcher.Stop()

	gateway := smtp.New(cfg.SMTP)
	mailQueue := mailqueue.New(mailqueue.GatewaySender{Gateway: gateway})
	mailQueue.SetLogger(log)
	mailQueue.Start()
	defer mailQueue.Stop()

	evaluator := threshold.NewEvaluator(registry, dir, mailSink{queue: mailQueue})
	evaluator.SetLogger(log)
	evaluator.SetArchiver(alertArchiverOrNil(archiver))

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	coord := coordinator.New(mqttClient, batcher, evaluator, registry, byte(cfg.MQTT.QoS))
	coord.SetLogger(log)

	if err := healthCheck(ctx, db, mqttClient, archiver); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("warden stopped")
	return nil
}

// mailSink adapts *mailqueue.Queue to the threshold.EmailSink interface
// the evaluator expects.
type mailSink struct {
	queue *mailqueue.Queue
}

func (s mailSink) Enqueue(alert threshold.Alert) {
	s.queue.Enqueue(alert.Recipients, alert.Subject, alert.Body)
}

// archiverOrNil returns a nil persistence.Archiver interface value when
// client is nil, since a nil *timeseries.Client wrapped in a non-nil
// interface would not compare equal to nil.
func archiverOrNil(client *timeseries.Client) persistence.Archiver {
	if client == nil {
		return nil
	}
	return client
}

// alertArchiverOrNil returns a nil threshold.AlertArchiver interface value
// when client is nil, for the same reason as archiverOrNil above.
func alertArchiverOrNil(client *timeseries.Client) threshold.AlertArchiver {
	if client == nil {
		return nil
	}
	return client
}

func getConfigPath() string {
	if path := os.Getenv("WARDEN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, archiver *timeseries.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if archiver != nil {
		if err := archiver.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
