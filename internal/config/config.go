// Package config reads server settings from the environment, with an
// optional .env file for development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string // listen address, default ":8080"
	Env         string // "dev" enables the development logger
	RedisAddr   string // non-empty selects the Redis-backed store
	RedisPass   string
	DatabaseURL string // non-empty enables the finished-game archive
}

func Load() Config {
	_ = godotenv.Load() // absent .env is fine

	return Config{
		Addr:        getenv("ADDR", ":8080"),
		Env:         getenv("APP_ENV", "prod"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
