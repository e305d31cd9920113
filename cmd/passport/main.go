package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/passport/internal/idp/app"
)

func main() {
	// A .env file is a convenience for local development; absence is fine.
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
