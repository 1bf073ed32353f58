// Package gorm implements the store interfaces on PostgreSQL via GORM.
// Raw SQL is used where atomicity matters (the failure counter, the joint
// OTP mutations) so the state machine's read-modify-write cycles are
// serialized by the database rather than by application code.
package gorm
