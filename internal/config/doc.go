// Package config loads application configuration from environment
// variables (FLOWPULSE_ prefix) merged over an optional YAML file, with
// env taking precedence. Defaults cover local development out of the box.
package config
