package engine

import (
	"errors"
	"fmt"
)

// Code categorizes an engine error for callers. Handlers map codes onto
// HTTP statuses; conflict codes are surfaced distinctly from validation
// failures so clients may treat them as idempotent no-ops if they choose.
type Code string

const (
	// CodeValidation marks malformed input, the caller's fault.
	CodeValidation Code = "VALIDATION"

	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict marks a state-machine violation: the entity is already
	// in the state the mutation would move it into, or not in the state
	// the mutation requires (already following, not liked, duplicate join
	// request).
	CodeConflict Code = "CONFLICT"

	// CodeNotOwner marks a mutation restricted to the resource owner
	// attempted by someone else.
	CodeNotOwner Code = "NOT_OWNER"

	// CodeInternal marks an unexpected store failure.
	CodeInternal Code = "INTERNAL"
)

// Error is the engine's caller-facing error type.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// CodeOf returns the Code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsConflict reports whether err is a state-machine conflict.
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }

// IsNotFound reports whether err refers to a missing entity.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

func validationErr(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func notFoundErr(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func conflictErr(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

func notOwnerErr(msg string) *Error {
	return &Error{Code: CodeNotOwner, Message: msg}
}

func internalErr(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: cause}
}

// Fixed conflict and validation errors the operations below return. Each
// names the exact state-machine transition that was refused.
var (
	ErrSelfFollow       = validationErr("cannot follow yourself")
	ErrAlreadyFollowing = conflictErr("already following this user")
	ErrNotFollowing     = conflictErr("not following this user")
	ErrAlreadyLiked     = conflictErr("post already liked")
	ErrNotLiked         = conflictErr("post not liked")
	ErrDuplicateRequest = conflictErr("join request already pending")
	ErrAlreadyMember    = conflictErr("already a member of this group")
	ErrNotMember        = conflictErr("not a member of this group")
	ErrOwnerCannotLeave = conflictErr("group owner cannot leave the group")
	ErrEmptyContent     = validationErr("content is required")
	ErrContentTooLong   = validationErr("content exceeds the maximum length")
	ErrMalformedID      = validationErr("malformed id")
	ErrUserNotFound     = notFoundErr("user not found")
	ErrPostNotFound     = notFoundErr("post not found")
	ErrGroupNotFound    = notFoundErr("group not found")
	ErrRequestNotFound  = notFoundErr("join request not found")
	ErrNotOwner         = notOwnerErr("not the resource owner")
	ErrNotGroupAdmin    = notOwnerErr("requires group owner or admin")
)
