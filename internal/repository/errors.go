// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different storage outcomes without
// inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would break an exclusivity rule,
// such as approving a booking whose dates overlap an approved booking on
// the same static billboard.
var ErrConflict = errors.New("conflict")

// ErrNotFound replaces sql.ErrNoRows at the repository boundary.
var ErrNotFound = errors.New("not found")

// ErrStatusChanged is returned by conditional updates when the row is no
// longer in the expected state, typically because a concurrent request
// processed it first. Nothing is written in that case.
var ErrStatusChanged = errors.New("status changed")
