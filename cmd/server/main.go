// Command server runs the gridlink bridge: an HTTP server whose websocket
// endpoint drives browser-rendered grids from server-side proxies.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiftmatic/gridlink/internal/infrastructure/config"
	"github.com/shiftmatic/gridlink/internal/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	demo := flag.Bool("demo", false, "Mount a preset grid on every connection")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}

	srv, err := server.New(cfg, server.Options{Demo: *demo})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	if *demo {
		if err := srv.RunHeadlessDemo(context.Background()); err != nil {
			log.Printf("Headless demo failed: %v", err)
		}
	}

	select {
	case <-sigChan:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
