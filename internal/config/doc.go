// Package config provides YAML configuration loading for the F1 gateway
// with environment variable expansion and duration parsing.
package config
