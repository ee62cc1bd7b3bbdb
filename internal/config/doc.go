// Package config loads application settings from config.yaml and YOMU_*
// environment variables using viper, and validates them with validator.
package config
