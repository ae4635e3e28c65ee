// Package common defines the closed set of sentinel errors shared by all
// components, plus a few random-material helpers. Callers must branch with
// errors.Is, never by inspecting messages.
package common

import "errors"

var (
	// ErrValidation covers missing or malformed request fields.
	ErrValidation = errors.New("validation error")

	// ErrNotFound means the user, bundle, file or share does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuthentication is the single signal for any cryptographic mismatch:
	// bad signature, failed AEAD open, wrong credential. It deliberately
	// carries no detail about why the check failed.
	ErrAuthentication = errors.New("authentication failure")

	// ErrConflict means the entity already exists (duplicate registration).
	ErrConflict = errors.New("already exists")

	// ErrUnavailable wraps vault or network failures.
	ErrUnavailable = errors.New("service unavailable")

	// ErrOPKExhausted means no one-time prekey remains for the target user.
	ErrOPKExhausted = errors.New("one-time prekeys exhausted")

	// ErrRateLimited means the attempt window for the identity is spent.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidTransition means the share state machine forbids the move.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPINExpired means the reset PIN matched but its validity has lapsed.
	ErrPINExpired = errors.New("pin expired")

	// ErrInternal is the generic internal failure.
	ErrInternal = errors.New("internal error")
)
