package store

import "errors"

// ErrNotFound is returned when a record does not exist. Implementations
// translate their driver's sentinel (e.g. gorm.ErrRecordNotFound) into it.
var ErrNotFound = errors.New("record not found")
