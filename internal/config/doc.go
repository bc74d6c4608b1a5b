// Package config loads process configuration from defaults, a .env file, an
// optional YAML file and TILBOT_* environment variables, in that order.
package config
