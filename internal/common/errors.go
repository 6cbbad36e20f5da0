// Package common defines the sentinel errors and small helpers shared by the
// authentication core, its stores and the CLI. Callers should use errors.Is
// to match these values; most of them are returned wrapped.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrValidation is returned when a passcode fails local format rules.
	// It never reaches the hasher and never counts as a failed attempt.
	ErrValidation = errors.New("validation error")

	// Credential state.
	ErrCredentialNotFound = errors.New("credential not found: passcode must be set")
	ErrSaltUnavailable    = errors.New("salt unavailable: passcode reset required")
	ErrPasscodeAlreadySet = errors.New("passcode already set")
	ErrNoPendingPasscode  = errors.New("no pending passcode")

	// ErrHashingFailure means the KDF primitive itself failed. It is not
	// expected in normal operation and must not be retried silently.
	ErrHashingFailure = errors.New("hashing failure")

	// Verification outcomes.
	ErrIncorrectPasscode = errors.New("incorrect passcode")
	ErrPasscodeMismatch  = errors.New("passcodes do not match")
	ErrLockedOut         = errors.New("locked out: too many failed attempts")
	ErrUnauthorized      = errors.New("unauthorized")

	// Biometric outcomes, distinct from passcode rejection.
	ErrBiometricUnavailable = errors.New("biometric authentication unavailable")
	ErrBiometricDenied      = errors.New("biometric authentication denied")

	// ErrPersistFailure marks a failed write to the secure or preference store.
	ErrPersistFailure = errors.New("persist failure")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
