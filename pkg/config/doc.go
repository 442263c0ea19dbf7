// Package config loads typed configuration from environment variables using
// github.com/caarlos0/env, with optional dotenv files via github.com/joho/godotenv.
package config
