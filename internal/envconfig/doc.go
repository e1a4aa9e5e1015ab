// Package envconfig builds the authd process configuration from environment
// variables, optionally seeded from .env files via godotenv. Variables already
// present in the environment win over .env values.
package envconfig
