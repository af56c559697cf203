// Package config handles configuration loading for quill.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from QUILL_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/quill/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${QUILL_JWT_SECRET}"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/quill/quill.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${QUILL_JWT_SECRET}"  # Required, at least 32 characters
//	  token_ttl: "24h"                   # Go duration syntax
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
