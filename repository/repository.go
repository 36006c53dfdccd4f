// Package repository holds the GORM-backed persistence layer of the catalog.
package repository

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")
