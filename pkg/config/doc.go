// Package config provides configuration management for the login service.
//
// This package handles loading and validating server configuration from
// environment variables and an optional configuration file.
//
// # Configuration Sources
//
// Configuration is loaded from:
//
//   - Environment variables (primary)
//   - Configuration files (optional)
//
// # Key Configuration Options
//
//   - KEY_ENC_SECRET: Passphrase protecting signing keys at rest
//   - DATABASE_URL: Database connection
//   - PORT: Server listen port
//   - SECURELOGIN_LOG_LEVEL: Logging verbosity
//   - SMTP_HOST / SMTP_PORT / SMTP_FROM: Verification mail delivery
package config
