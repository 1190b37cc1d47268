// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package attach

import (
	"github.com/samber/oops"
)

// Error codes for attachment failures.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeTemplateLoadFailed = "TEMPLATE_LOAD_FAILED"
	CodeStaleCache         = "STALE_CACHE"
	CodeInvalidSpec        = "INVALID_SPEC"
)

// ErrNotFound creates an error for a path or leaf that does not resolve.
func ErrNotFound(path, leaf string) error {
	return oops.Code(CodeNotFound).
		With("path", path).
		With("leaf", leaf).
		Errorf("attach point not found: %s", path)
}

// ErrAlreadyExists creates an error for a duplicate registration.
func ErrAlreadyExists(path, leaf string) error {
	return oops.Code(CodeAlreadyExists).
		With("path", path).
		With("leaf", leaf).
		Errorf("attachment already exists: %s|%s", path, leaf)
}

// ErrTemplateLoadFailed creates an error for a model that could not be loaded.
// oops reports the deepest code in a chain, so a coded cause is flattened
// into context instead of wrapped.
func ErrTemplateLoadFailed(model string, cause error) error {
	builder := oops.Code(CodeTemplateLoadFailed).With("model", model)
	if cause == nil {
		return builder.Errorf("load %s", model)
	}
	if oopsErr, ok := oops.AsOops(cause); ok && oopsErr.Code() != nil && oopsErr.Code() != "" {
		return builder.
			With("cause_code", oopsErr.Code()).
			Errorf("load %s: %s", model, cause.Error())
	}
	return builder.Wrapf(cause, "load %s", model)
}

// ErrStaleCache creates an error describing a cached path that no longer
// resolves at its recorded depth. It is logged, never returned to callers.
func ErrStaleCache(cached string, depth int) error {
	return oops.Code(CodeStaleCache).
		With("cached", cached).
		With("depth", depth).
		Errorf("cached path is stale")
}

// ErrInvalidSpec creates an error for malformed formatted text or a request
// the tree cannot satisfy structurally.
func ErrInvalidSpec(text, reason string) error {
	return oops.Code(CodeInvalidSpec).
		With("text", text).
		Errorf("invalid attachment %q: %s", text, reason)
}

// HasCode reports whether err is an oops error carrying code.
func HasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == code
}
