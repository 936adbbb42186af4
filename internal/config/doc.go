// Package config loads the viewer's YAML configuration.
package config
