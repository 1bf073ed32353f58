// Package server provides the HTTP server for the login service API.
//
// This package implements the HTTP server that fronts the two-factor
// authentication flows. It uses gorilla/mux for routing and middleware for
// session-token validation.
//
// # Server Setup
//
//	srv := server.NewServer(users, sessions, keys, blobs, vault, mailer, db, host, port)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Components
//
// The Server struct holds the stores (users, sessions, signing keys,
// signed blobs) and the services built over them:
//
//   - Vault: passphrase-derived envelope encryption for keys at rest
//   - Signer: the service RSA keypair for signing released data
//   - Checker: password verification and the lockout state machine
//   - OTP: one-time code issuance and verification
//   - Issuer: opaque session tokens
//   - Mailer: one-time code delivery
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//	endpoints.RegisterAll(srv)
//
// This registers the full surface, including:
//
//   - /auth/register, /auth/verify-registration - account creation
//   - /auth/login, /auth/verify-otp - two-factor login
//   - /auth/secure-message, /auth/secure-access - protected resources
//   - /auth/user-data, /auth/system-config - signed encrypted aggregates
//   - /auth/verify-signature, /auth/decrypt-data - verification utilities
//   - /auth/qr-code/{username} - QR rendering of a pending code
package server
