// Package semver compares dotted operating system release numbers such as
// "24.5.0", "10.0.22631" or "6.8.0-45-generic".
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a MAJOR[.MINOR[.PATCH]] release. Missing components are zero.
type Version struct {
	major int
	minor int
	patch int
}

// NewVersion parses a release string. A leading "v" and anything after the
// first "-" or "+" (distribution suffixes, build metadata) are ignored.
func NewVersion(version string) (*Version, error) {
	raw := version
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	if i := strings.IndexAny(version, "-+"); i >= 0 {
		version = version[:i]
	}

	parts := strings.Split(version, ".")
	if version == "" || len(parts) > 3 {
		return nil, fmt.Errorf("invalid version format: expected MAJOR[.MINOR[.PATCH]], got %q", raw)
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid version component %q in %q: %w", part, raw, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("version components must be non-negative: %q", raw)
		}
		nums[i] = n
	}

	return &Version{major: nums[0], minor: nums[1], patch: nums[2]}, nil
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than other.
func (v *Version) Compare(other *Version) int {
	for _, pair := range [][2]int{{v.major, other.major}, {v.minor, other.minor}, {v.patch, other.patch}} {
		switch {
		case pair[0] < pair[1]:
			return -1
		case pair[0] > pair[1]:
			return 1
		}
	}
	return 0
}

func (v *Version) GreaterThan(other *Version) bool {
	return v.Compare(other) > 0
}

func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}

func (v *Version) Equal(other *Version) bool {
	return v.Compare(other) == 0
}

// AtLeast reports whether v is other or newer.
func (v *Version) AtLeast(other *Version) bool {
	return v.Compare(other) >= 0
}

func (v *Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}
