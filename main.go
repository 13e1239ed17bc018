package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/danielhkuo/surveystore/cliparse"
	"github.com/danielhkuo/surveystore/db"
	"github.com/danielhkuo/surveystore/middleware"
	"github.com/danielhkuo/surveystore/router"
	"github.com/danielhkuo/surveystore/store"
	"github.com/danielhkuo/surveystore/store/badgerstore"
	"github.com/danielhkuo/surveystore/store/memstore"
	"github.com/danielhkuo/surveystore/store/redisstore"
	"github.com/danielhkuo/surveystore/surveys"
)

func main() {
	var err error

	if loaded := cliparse.LoadDotEnv(); len(loaded) > 0 {
		slog.Info("Loaded environment files", "files", loaded)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Open the backing store
	backend, err := openStore(context.Background(), cfg)
	if err != nil {
		slog.Error("store open failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer backend.Close()
	slog.Info("Survey store ready", "type", cfg.DatabaseType)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo := surveys.NewRepository(store.Instrument(backend, reg))

	// Create router
	mux := router.NewRouter(repo, cfg, reg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

func openStore(ctx context.Context, cfg cliparse.Config) (store.Store, error) {
	switch cfg.DatabaseType {
	case cliparse.DatabaseMemory:
		return memstore.New(), nil

	case cliparse.DatabaseSQLite, cliparse.DatabasePostgres:
		dialect := db.Dialect(cfg.DatabaseType)
		conn, err := db.Open(dialect, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return db.NewStore(conn, dialect), nil

	case cliparse.DatabaseBadger:
		bcfg := badgerstore.DefaultConfig(cfg.DatabaseURL)
		bcfg.Logger = slog.Default()
		st, err := badgerstore.Open(bcfg)
		if err != nil {
			return nil, err
		}
		return st, nil

	case cliparse.DatabaseRedis:
		client, err := redisstore.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return redisstore.New(client, redisstore.DefaultNamespace), nil
	}

	return nil, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
}
