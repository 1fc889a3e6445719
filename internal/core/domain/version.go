package domain

import (
	"regexp"

	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

var versionPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)$`)

// ValidateVersion checks that v has the major.minor.patch shape, without
// leading zeros.
func ValidateVersion(v string) error {
	if !versionPattern.MatchString(v) {
		return zerr.With(ErrInvalidVersion, "version", v)
	}
	return nil
}

// CompareVersions returns -1, 0 or +1 as a is older, equal or newer than b.
// Both versions must pass ValidateVersion.
func CompareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}
