// Package resolver implements the version-resolution algorithm: mapping
// (package, range) requests to concrete versions and walking the
// transitive production+server dependency graph to a flat, single-version
// resolution with detected conflicts.
package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var idPartRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// PackageID identifies a package by its registry scope and name. Both
// halves are case-sensitive and must match [A-Za-z0-9_-]+.
type PackageID struct {
	Scope string
	Name  string
}

// String returns the canonical "scope/name" form.
func (id PackageID) String() string {
	return id.Scope + "/" + id.Name
}

// ParsePackageID parses a canonical "scope/name" string.
func ParsePackageID(s string) (PackageID, error) {
	i := strings.IndexByte(s, '/')
	if i < 0 {
		return PackageID{}, errors.Errorf("package id %q is missing a '/' separating scope from name", s)
	}
	scope, name := s[:i], s[i+1:]
	if !idPartRe.MatchString(scope) {
		return PackageID{}, errors.Errorf("package id %q has an invalid scope", s)
	}
	if !idPartRe.MatchString(name) {
		return PackageID{}, errors.Errorf("package id %q has an invalid name", s)
	}
	return PackageID{Scope: scope, Name: name}, nil
}

// MustParsePackageID is ParsePackageID, panicking on error; intended for
// literals in tests and constants, not for untrusted input.
func MustParsePackageID(s string) PackageID {
	id, err := ParsePackageID(s)
	if err != nil {
		panic(fmt.Sprintf("resolver: %v", err))
	}
	return id
}
