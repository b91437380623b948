// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested prompt, branch, or version does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent commit advanced the branch head first.
// Safe to retry.
var ErrConflict = errors.New("conflict: branch head was advanced by another commit")

// ErrInvalidContent indicates content that fails canonicalization: empty,
// malformed section keys, or non-text values.
var ErrInvalidContent = errors.New("invalid content")

// ErrRolePolicyUnknown indicates a role with no entry in the profile table.
var ErrRolePolicyUnknown = errors.New("unknown role policy")

// ErrStorageUnavailable indicates the backing row store failed a durable
// write. The operation did not take effect.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrValidation indicates a malformed request rejected before reaching storage.
var ErrValidation = errors.New("validation failed")
