// Package config loads PowerBrief settings from an optional YAML file and the
// environment, and validates each settings group before the server starts.
package config
