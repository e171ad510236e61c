// Command bullpen runs the trading-game server: a websocket hub of
// per-room simulators plus the REST surface in internal/api.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bullpen/server/internal/api"
	"github.com/bullpen/server/internal/config"
	"github.com/bullpen/server/internal/history"
	"github.com/bullpen/server/internal/registry"
	"github.com/bullpen/server/internal/transport"
)

func main() {
	cfg := config.Load()

	log := logrus.StandardLogger()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("unrecognized log level, defaulting to info")
	}
	log.Info("bullpen server starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("received signal, shutting down")
		cancel()
	}()

	reg := registry.New(log)

	store, err := history.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Warn("history sink unavailable, continuing without game recording")
	} else {
		if err := store.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("failed to ensure history indexes")
		}
		reg.SetRecorder(store)
		defer store.Close(context.Background())
	}

	hub := transport.NewHub(reg, log)
	apiServer := api.NewServer(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handler())
	apiServer.Register(mux)

	addr := ":" + strconv.Itoa(cfg.Port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		reg.Shutdown()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server error")
	}

	log.Info("bullpen server stopped")
}
