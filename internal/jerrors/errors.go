// Package jerrors defines the typed failure taxonomy shared by every
// component of the core: a failure always maps to exactly one Kind, so
// callers can switch on it instead of matching error strings.
package jerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the failure categories from the error design.
type Kind uint8

const (
	// KindUnknown is the zero value; should never be returned deliberately.
	KindUnknown Kind = iota
	// KindManifestMissing indicates the manifest file does not exist.
	KindManifestMissing
	// KindManifestMalformed indicates the manifest exists but failed to parse.
	KindManifestMalformed
	// KindLockfileStale indicates a lockfile disagrees with the manifest.
	KindLockfileStale
	// KindPackageNotFound indicates a registry lookup found no such package.
	KindPackageNotFound
	// KindVersionNotFound indicates no version of a package satisfies a range.
	KindVersionNotFound
	// KindUnsatisfiableRange indicates the resolver found no intersection.
	KindUnsatisfiableRange
	// KindRegistryError indicates a transport or server-side registry failure.
	KindRegistryError
	// KindArchiveError indicates a malformed archive, traversal attempt, or disk-full condition.
	KindArchiveError
	// KindIOError indicates any other filesystem failure.
	KindIOError
	// KindConflict indicates a non-fatal set of resolver conflicts.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindManifestMissing:
		return "ManifestMissing"
	case KindManifestMalformed:
		return "ManifestMalformed"
	case KindLockfileStale:
		return "LockfileStale"
	case KindPackageNotFound:
		return "PackageNotFound"
	case KindVersionNotFound:
		return "VersionNotFound"
	case KindUnsatisfiableRange:
		return "UnsatisfiableRange"
	case KindRegistryError:
		return "RegistryError"
	case KindArchiveError:
		return "ArchiveError"
	case KindIOError:
		return "IoError"
	case KindConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// Error is the single concrete error type used across the core. Op
// describes what was being attempted ("resolve a/x", "extract roblox/roact")
// and ID is the package id involved, if any.
type Error struct {
	Kind  Kind
	Op    string
	ID    string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.ID != "" {
		msg += fmt.Sprintf(" (%s)", e.ID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap lets errors.Is/errors.As see through to Cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an *Error, wrapping cause with errors.Wrap when a non-empty
// Op is given so any %+v formatting still carries a stack trace.
func New(kind Kind, op, id string, cause error) *Error {
	if cause != nil && op != "" {
		cause = errors.Wrap(cause, op)
	}
	return &Error{Kind: kind, Op: op, ID: id, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
