package main

import (
	"log"
	"strconv"

	"course-payments/internal/shared/utils"
)

// Config holds the worker process settings not shared with the API.
type Config struct {
	Concurrency int
	HealthAddr  string
}

func loadConfig() *Config {
	concurrency, err := strconv.Atoi(utils.GetEnvVariable("WORKER_CONCURRENCY", "10"))
	if err != nil || concurrency <= 0 {
		concurrency = 10
	}

	cfg := &Config{
		Concurrency: concurrency,
		HealthAddr:  utils.GetEnvVariable("WORKER_HEALTH_ADDR", ":9999"),
	}

	log.Printf("[Config] Concurrency: %d, Health: %s", cfg.Concurrency, cfg.HealthAddr)

	return cfg
}
