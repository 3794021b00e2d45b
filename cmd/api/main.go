package main

import (
	"log"

	"ReelMarket/config"
	"ReelMarket/internal/api"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}
	if err := api.Run(cfg); err != nil {
		log.Fatalf("API error: %s", err)
	}
}
