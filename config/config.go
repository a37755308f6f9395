package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config reads a value from the environment, loading .env on first use.
func Config(key string) string {
	godotenv.Load(".env")
	return os.Getenv(key)
}
