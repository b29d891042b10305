package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mistctl"
	"mistctl/internal/chip"
	"mistctl/internal/config"
	"mistctl/internal/controls"
	"mistctl/internal/gpio"
	"mistctl/internal/handlers"
	"mistctl/internal/logger"
	"mistctl/internal/mister"
	"mistctl/internal/nvram"
	"mistctl/internal/repository"
	"mistctl/internal/repository/db"
	"mistctl/internal/sensor"
	"mistctl/internal/server"
	"mistctl/internal/service"

	"github.com/spf13/viper"
)

const defaultNVRAMSize = 4096

func main() {
	// load config.yml before the logger so the level is configurable
	cfgErr := loadConfig()

	// init logger
	log := logger.Get(viper.GetString("log.level"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open the NV region holding mode byte and config record
	nv, err := openNVRAM(log)
	if err != nil {
		log.Fatalw("failed to open nvram region", "err", err)
	}
	defer func() {
		if cerr := nv.Close(); cerr != nil {
			log.Errorw("failed to close nvram region", "err", cerr)
		}
	}()

	// open the event-log DB
	database, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(nv, database)
	buses := mistctl.NewBuses()
	st := mistctl.NewState()

	cfgStore := config.NewStore(repos.ConfigRec, buses.Chip, repos.Events, log)
	if err := cfgStore.Load(ctx); err != nil {
		log.Fatalw("failed to load configuration", "err", err)
	}

	hw, err := buildHardware(log)
	if err != nil {
		log.Fatalw("failed to set up hardware", "err", err)
	}

	services := service.NewService(cfgStore, st, buses, repos)
	apiHandler := handlers.NewHandler(services, log)

	// start control tasks
	go chip.NewCoordinator(buses.Chip, cfgStore, repos.Events, log).Run(ctx)
	go sensor.NewTask(cfgStore, st, buses.Sensor, hw.sensors, log).Run(ctx)
	go mister.NewEngine(cfgStore, st, buses, repos.Mode, repos.Events, hw.mister, log).Run(ctx)
	go mister.NewStepper(cfgStore, st, buses, log).Run(ctx)
	go mister.NewStatusLED(st, buses, hw.led, log).Run(ctx)
	if hw.button != nil {
		go controls.NewButtons(cfgStore, hw.button, buses.ChangeMode, log).Run(ctx)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openNVRAM opens (or creates) the file backing the flat NV byte region.
func openNVRAM(log *logger.Logger) (*nvram.Device, error) {
	path := viper.GetString("nvram.path")
	if path == "" {
		log.Infow("nvram.path not set in config; using default file", "default", "mister.nv")
		path = "mister.nv"
	}
	size := viper.GetInt64("nvram.size")
	if size <= 0 {
		size = defaultNVRAMSize
	}
	return nvram.Open(path, size)
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "mister.db")
		dbPath = "mister.db"
	}
	return db.InitDB(dbPath)
}

// hardware bundles the pins and the sensor factory the control tasks run
// against. button is nil when no button line is configured.
type hardware struct {
	mister  gpio.OutputPin
	led     gpio.OutputPin
	button  gpio.InputPin
	sensors sensor.Factory
}

// buildHardware selects between real sysfs-backed lines and the in-memory
// simulation used for development.
func buildHardware(log *logger.Logger) (*hardware, error) {
	if viper.GetBool("hardware.simulated") {
		log.Infow("running with simulated hardware")
		return &hardware{
			mister:  gpio.NewMemPin(),
			led:     gpio.NewMemPin(),
			button:  gpio.NewMemPin(),
			sensors: sensor.SimFactory(sensor.NewSim()),
		}, nil
	}

	misterPin, err := gpio.NewSysfsOutput(viper.GetString("gpio.mister_dir"))
	if err != nil {
		return nil, fmt.Errorf("mister power pin: %w", err)
	}
	ledPin, err := gpio.NewSysfsOutput(viper.GetString("gpio.led_dir"))
	if err != nil {
		return nil, fmt.Errorf("status led pin: %w", err)
	}

	hw := &hardware{
		mister: misterPin,
		led:    ledPin,
		sensors: sensor.SysfsFactory(
			viper.GetString("sensor.hdc1080_dir"),
			viper.GetString("sensor.sht4x_dir"),
		),
	}
	if dir := viper.GetString("gpio.button_dir"); dir != "" {
		hw.button = gpio.NewSysfsInput(dir)
	}
	return hw, nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
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
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
