// Package model holds the database models shared across the service:
// users with their embedded one-time-code state, bearer sessions, the
// encrypted signing keypair slots, and the append-only signed blob audit
// records.
package model
