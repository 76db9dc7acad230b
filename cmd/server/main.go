package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/conduitedeprojet/testrunner/internal/infrastructure/config"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/server"
)

func main() {
	// Flags override the environment
	envFile := flag.String("env", ".env", "Optional dotenv file")
	port := flag.String("port", "", "Server port")
	natsEnabled := flag.Bool("nats", false, "Serve run requests over NATS")
	flag.Parse()

	cfg, err := config.LoadWithDotenv(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *natsEnabled {
		cfg.NATS.Enabled = true
	}

	srv, err := server.NewServer(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Server error: %v", runErr)
	}
}
