package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/seller-gateway/internal/config"
	"github.com/jrsteele09/seller-gateway/internal/logging"
	"github.com/jrsteele09/seller-gateway/selection"
	"github.com/jrsteele09/seller-gateway/server"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	// A missing .env is normal outside local development
	_ = godotenv.Load()

	c, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(logging.Options{Level: c.GetLogLevel(), Env: c.GetEnv(), File: c.GetLogFile()})
	displayAppname(c.GetAppName())

	selections, closeStore, err := newSelectionRepo(c)
	if err != nil {
		return err
	}
	defer closeStore()

	handler, err := server.New(c, selections)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(srv)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// newSelectionRepo uses Redis when REDIS_URL is set, otherwise process memory.
func newSelectionRepo(c config.Config) (selection.Repo, func(), error) {
	if c.GetRedisURL() == "" {
		log.Info().Msg("Selection store: in-memory")
		return selection.NewInMemoryRepo(c.GetSessionMaxAge()), func() {}, nil
	}

	opts, err := redis.ParseURL(c.GetRedisURL())
	if err != nil {
		return nil, nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Msg("Selection store: redis")
	return selection.NewRedisRepo(client, c.GetSessionMaxAge()), func() { _ = client.Close() }, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
