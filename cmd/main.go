package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"electrometer_acquisition/internal/handlers"
	"electrometer_acquisition/internal/instrument"
	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/repository"
	"electrometer_acquisition/internal/repository/db"
	"electrometer_acquisition/internal/server"
	"electrometer_acquisition/internal/service"

	"github.com/spf13/viper"
)

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	sqldb, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqldb.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqldb)
	session := instrument.NewSession(instrumentDialer(log), log)
	services := service.NewService(repos, session, instrumentOptions(), log)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the event-queue consumer (session buffer recorder)
	go services.Recorder.Run(ctx, recorderTick())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, session, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// instrumentDialer selects the bus transport: a real TCP link, or the
// built-in simulator when instrument.simulated is set.
func instrumentDialer(log *logger.Logger) instrument.Dialer {
	if viper.GetBool("instrument.simulated") {
		log.Infow("using simulated instrument")
		return instrument.DialSim
	}
	return instrument.DialTCP
}

func instrumentOptions() service.Options {
	timeoutMs := viper.GetInt("instrument.timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 10_000
	}
	return service.Options{
		DefaultAddress: viper.GetString("instrument.address"),
		ConnectTimeout: time.Duration(timeoutMs) * time.Millisecond,
	}
}

func recorderTick() time.Duration {
	if ms := viper.GetInt("recorder.poll_ms"); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return service.DefaultPollInterval
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
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, session *instrument.Session, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// release the instrument before exiting
	session.Close()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
