package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/techappsUT/social-publisher/internal/config"
)

// App wires the HTTP server to its dependency container.
type App struct {
	Container *Container
	Server    *http.Server
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using process environment")
	}

	app, err := NewApp()
	if err != nil {
		fmt.Println("failed to initialize application:", err)
		os.Exit(1)
	}

	app.Start()
}

// NewApp loads configuration, builds the dependency container, and wraps
// it in an HTTP server ready to serve.
func NewApp() (*App, error) {
	cfg := config.Load()

	container, err := NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("container initialization: %w", err)
	}

	router := setupRouter(container)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &App{Container: container, Server: server}, nil
}

// Start serves on the configured address until SIGINT/SIGTERM, then drains
// in-flight requests before returning.
func (app *App) Start() {
	go func() {
		app.Container.Logger.Info("server starting", "addr", app.Server.Addr)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Container.Logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Container.Logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Container.Logger.Error("server forced to shutdown", "error", err.Error())
		os.Exit(1)
	}

	app.Container.Logger.Info("server stopped cleanly")
}
