// Package main provides securectl, the controller for the two-factor login
// service.
//
// # Architecture
//
// The service is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/vault: passphrase-derived envelope encryption for keys at rest
//   - pkg/signer: RSA signing service and login attestations
//   - pkg/authn: password verification and the lockout state machine
//   - pkg/otp: one-time code issuance and verification
//   - pkg/session: opaque session tokens
//   - pkg/model: database models
//   - pkg/store: storage seams and their GORM implementations
//   - pkg/audit: audit logging
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Generate a key encryption secret
//	export KEY_ENC_SECRET="$(securectl secret generate)"
//
//	# Run database migrations
//	securectl db migrate
//
//	# Start the server
//	securectl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - KEY_ENC_SECRET: Passphrase (>= 16 chars) protecting signing keys
//   - PORT: Server port (default: 3000)
//   - SECURELOGIN_LOG_LEVEL: Log level (info, debug)
//   - SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM: Mail delivery
package main
