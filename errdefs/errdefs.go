// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package errdefs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the classes callers are expected to branch on.
// Wrap them with the constructor functions below so messages carry
// context while errors.Is still matches the class.
var (
	// ErrInvalidArgument indicates malformed or missing required
	// input, like an empty sandbox id.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates an unknown sandbox, container, or process
	// id. Stop, delete, and shutdown paths tolerate it.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate id on create.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnimplemented indicates an operation the backing
	// implementation does not support.
	ErrUnimplemented = errors.New("unimplemented")

	// ErrResourceExhausted indicates the backing implementation ran
	// out of a capacity it manages.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrUnavailable indicates the sandbox exists but cannot service
	// the request in its current state.
	ErrUnavailable = errors.New("unavailable")
)

// InvalidArgument returns an error classified as ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound returns an error classified as ErrNotFound.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// AlreadyExists returns an error classified as ErrAlreadyExists.
func AlreadyExists(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAlreadyExists, fmt.Sprintf(format, args...))
}

// Unimplemented returns an error classified as ErrUnimplemented.
func Unimplemented(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnimplemented, fmt.Sprintf(format, args...))
}

// ResourceExhausted returns an error classified as ErrResourceExhausted.
func ResourceExhausted(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrResourceExhausted, fmt.Sprintf(format, args...))
}

// Unavailable returns an error classified as ErrUnavailable.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// IsInvalidArgument reports whether err is classified ErrInvalidArgument.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

// IsNotFound reports whether err is classified ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err is classified ErrAlreadyExists.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsUnavailable reports whether err is classified ErrUnavailable.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// Code is the wire representation of an error class, carried in the
// "code" field of the socket response envelope.
type Code string

// Wire codes. CodeOK appears only in successful envelopes.
const (
	CodeOK                Code = "ok"
	CodeInvalidArgument   Code = "invalid_argument"
	CodeNotFound          Code = "not_found"
	CodeAlreadyExists     Code = "already_exists"
	CodeUnimplemented     Code = "unimplemented"
	CodeResourceExhausted Code = "resource_exhausted"
	CodeUnavailable       Code = "unavailable"
	CodeInternal          Code = "internal"
)

// Classify maps an error to its wire code. Unclassified errors
// (including IO failures and backing-implementation errors wrapped
// without a sentinel) map to CodeInternal.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrUnimplemented):
		return CodeUnimplemented
	case errors.Is(err, ErrResourceExhausted):
		return CodeResourceExhausted
	case errors.Is(err, ErrUnavailable):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// FromCode reconstructs a classified error from a wire code and
// message. Clients use this so errors.Is works on errors that crossed
// the socket. CodeInternal and unknown codes produce a plain error.
func FromCode(code Code, message string) error {
	switch code {
	case CodeInvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, message)
	case CodeNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	case CodeAlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, message)
	case CodeUnimplemented:
		return fmt.Errorf("%w: %s", ErrUnimplemented, message)
	case CodeResourceExhausted:
		return fmt.Errorf("%w: %s", ErrResourceExhausted, message)
	case CodeUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, message)
	default:
		return errors.New(message)
	}
}
