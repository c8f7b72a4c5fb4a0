package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"chatty/config"
	"chatty/database"
	"chatty/gateway"
	"chatty/handlers"
	"chatty/presence"
	"chatty/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	if !foundEnv {
		logger.Info("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := database.Open(openCtx, database.Options{
		Driver:     cfg.Store,
		MongoURL:   cfg.MongoURL,
		MongoDB:    cfg.MongoDB,
		SQLitePath: cfg.SQLitePath,
	})
	cancel()
	if err != nil {
		return err
	}
	logger.Info("store connected", slog.String("driver", cfg.Store))

	directory := presence.NewDirectory()
	relay := presence.NewRelay(directory, logger)

	opts := service.DefaultOptions()
	opts.StoreTimeout = cfg.StoreTimeout
	users := service.NewUserService(store, directory, opts, logger)
	messages := service.NewMessageService(store, opts, logger)

	gql, err := gateway.New(users, messages, logger)
	if err != nil {
		return err
	}

	socket := handlers.NewSocketHandler(directory, relay, handlers.SocketOptions{
		AllowedOrigin:     cfg.ClientOrigin,
		PurgeOnDisconnect: cfg.PurgeOnDisconnect,
		Rate:              cfg.SocketRate,
		Burst:             cfg.SocketBurst,
		SendBuffer:        cfg.SocketSendBuffer,
	}, logger)
	router := handlers.NewRouter(handlers.NewHandler(users, messages, logger), socket, gql, cfg.ClientOrigin, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		socket.Shutdown()
		err := srv.Shutdown(shutdownCtx)
		if cerr := store.Close(shutdownCtx); cerr != nil {
			logger.Error("store close failed", slog.String("error", cerr.Error()))
		}
		return err
	})

	return g.Wait()
}
