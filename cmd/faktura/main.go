// Command faktura runs the faktura HTTP API and its maintenance jobs.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/xraph/faktura/cmd/faktura/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("faktura: no .env file loaded: %v", err)
	}

	if err := logger.Setup(logger.DefaultConfig()); err != nil {
		log.Fatalf("faktura: init logger: %v", err)
	}

	Execute()
}
