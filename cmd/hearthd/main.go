// Hearth Core - home automation hub.
//
// hearthd wires the hub together: SQLite-backed registries for areas,
// floors, labels and devices, an MQTT ingestion path for bridge state,
// optional InfluxDB telemetry, and the WebSocket command socket clients
// drive everything through.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	_ "github.com/hearthlabs/hearth-core/migrations"

	"github.com/hearthlabs/hearth-core/internal/api"
	"github.com/hearthlabs/hearth-core/internal/auth"
	"github.com/hearthlabs/hearth-core/internal/commands"
	"github.com/hearthlabs/hearth-core/internal/device"
	"github.com/hearthlabs/hearth-core/internal/events"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/database"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/mqtt"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/telemetry"
	"github.com/hearthlabs/hearth-core/internal/integration"
	"github.com/hearthlabs/hearth-core/internal/integration/demobridge"
	"github.com/hearthlabs/hearth-core/internal/registry"
	"github.com/hearthlabs/hearth-core/internal/socket"
)

// Version information - set at build time via ldflags.
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

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Hearth Core", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath)

	db, err := database.Open(ctx, database.Config{
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

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	bus := events.NewBus()

	// Config registries share one persistence layer and the bus.
	regDeps := registry.Deps{
		Bus:         bus,
		Persistence: registry.NewSQLitePersistence(db.DB),
		Logger:      log.Logger,
	}
	areas := registry.NewAreaRegistry(regDeps)
	floors := registry.NewFloorRegistry(regDeps)
	labels := registry.NewLabelRegistry(regDeps)
	for name, load := range map[string]func() error{
		"area": areas.Load, "floor": floors.Load, "label": labels.Load,
	} {
		if err := load(); err != nil {
			return fmt.Errorf("loading %s registry: %w", name, err)
		}
	}
	defer func() {
		areas.Close()
		floors.Close()
		labels.Close()
	}()

	deviceRegistry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	deviceRegistry.SetLogger(log)
	deviceRegistry.SetBus(bus)
	if err := deviceRegistry.RefreshCache(ctx); err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}

	// Deleting a floor or label clears references, never entities.
	floors.OnRemove(areas.ClearFloor)
	labels.OnRemove(areas.RemoveLabel)
	labels.OnRemove(func(labelID string) { deviceRegistry.RemoveLabel(ctx, labelID) })
	areas.OnRemove(func(areaID string) { deviceRegistry.ClearArea(ctx, areaID) })
	log.Info("registries initialised",
		"areas", len(areas.List()), "floors", len(floors.List()), "labels", len(labels.List()))

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
	mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port))

	var telemetryClient *telemetry.Client
	if cfg.Telemetry.Enabled {
		telemetryClient, err = telemetry.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting telemetry: %w", err)
		}
		defer func() {
			log.Info("closing telemetry")
			if closeErr := telemetryClient.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		telemetryClient.SetOnError(func(err error) { log.Error("telemetry write error", "error", err) })
		deviceRegistry.SetRecorder(telemetryClient)
		log.Info("telemetry connected", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	} else {
		log.Info("telemetry disabled")
	}

	if err := subscribeStateUpdates(ctx, mqttClient, deviceRegistry, log); err != nil {
		return fmt.Errorf("subscribing to bridge state: %w", err)
	}

	userRepo := auth.NewUserRepository(db.DB)
	if _, err := auth.SeedOwner(ctx, userRepo, log.Logger); err != nil {
		return fmt.Errorf("seeding owner account: %w", err)
	}
	authAPI := api.NewAuthHandler(userRepo, cfg.Security, log)

	commandRegistry := socket.NewRegistry()
	if err := commands.RegisterAll(commandRegistry, commands.Deps{
		Bus:     bus,
		Areas:   areas,
		Floors:  floors,
		Labels:  labels,
		Devices: deviceRegistry,
	}); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}

	ictx := integration.NewContext(integration.ContextDeps{
		Logger:   log,
		Bus:      bus,
		Areas:    areas,
		Floors:   floors,
		Labels:   labels,
		Devices:  deviceRegistry,
		Commands: commandRegistry,
		MQTT:     mqttClient,
	})
	manager, err := integration.NewManager(ictx)
	if err != nil {
		return fmt.Errorf("creating integration manager: %w", err)
	}
	manager.Add(demobridge.New(demobridge.NewSimulatedModem(), demobridge.ModemConfig{
		Host: "modem.local",
		Port: 9761,
	}))
	if err := manager.SetupAll(ctx); err != nil {
		return fmt.Errorf("setting up integrations: %w", err)
	}
	defer manager.CloseAll(context.Background())

	socketServer := socket.NewServer(cfg.Socket, cfg.Security.JWT.Secret, version, commandRegistry, log)
	socketServer.SetErrorTranslator(commands.Translate)
	if telemetryClient != nil {
		socketServer.SetStats(telemetryClient)
	}
	log.Info("command socket ready", "path", cfg.Socket.Path, "commands", len(commandRegistry.Types()))

	if err := healthCheck(ctx, db, mqttClient, telemetryClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	return serveHTTP(ctx, cfg, socketServer, authAPI, log)
}

// subscribeStateUpdates feeds bridge state publications into the device
// registry. Topic shape: hearth/state/{protocol}/{device_address}. The
// registry publishes the resulting state_changed event on the bus, which
// relays to subscribed socket connections.
func subscribeStateUpdates(ctx context.Context, client *mqtt.Client, devices *device.Registry, log *logging.Logger) error {
	topic := mqtt.Topics{}.AllBridgeStates()
	log.Info("subscribing to bridge state", "topic", topic)

	return client.Subscribe(topic, 1, func(t string, payload []byte) error {
		parts := strings.Split(t, "/")
		if len(parts) != 4 {
			return nil
		}
		protocol, address := parts[2], parts[3]

		var msg struct {
			DeviceID string       `json:"device_id"`
			State    device.State `json:"state"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil || len(msg.State) == 0 {
			log.Warn("discarding malformed state message", "topic", t, "error", err)
			return nil
		}

		deviceID := msg.DeviceID
		if deviceID == "" {
			d, ok := devices.FindByAddress(device.Protocol(protocol), address)
			if !ok {
				log.Debug("state for unknown device", "topic", t)
				return nil
			}
			deviceID = d.ID
		}

		if err := devices.SetState(ctx, deviceID, msg.State); err != nil {
			log.Warn("state update failed", "device_id", deviceID, "error", err)
		}
		return nil
	})
}

// serveHTTP runs the HTTP listener hosting the command socket and the
// login endpoint until the context is cancelled.
func serveHTTP(ctx context.Context, cfg *config.Config, socketServer *socket.Server, authAPI *api.AuthHandler, log *logging.Logger) error {
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	socketServer.Routes(router)
	authAPI.Routes(router)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
		IdleTimeout:  cfg.GetIdleTimeout(),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("listening", "addr", httpServer.Addr)
		if cfg.API.TLS.Enabled {
			if err := httpServer.ListenAndServeTLS(cfg.API.TLS.CertFile, cfg.API.TLS.KeyFile); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received")
		socketServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetWriteTimeout())
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("Hearth Core stopped")
	return nil
}

// getConfigPath returns the configuration file path. HEARTH_CONFIG
// overrides the default.
func getConfigPath() string {
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections before serving.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, telemetryClient *telemetry.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if telemetryClient != nil {
		if err := telemetryClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	return nil
}
