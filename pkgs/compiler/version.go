package compiler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Version is a dotted numeric compiler version such as "9.10.1" or
// "8.0.1.20161022".
type Version string

// ParseVersion validates s as a dotted numeric version.
func ParseVersion(s string) (Version, error) {
	if _, err := parseVersion(s); err != nil {
		return "", err
	}
	return Version(s), nil
}

// MustParseVersion is like ParseVersion but panics on malformed input.
// It is meant for version constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseVersion(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("invalid version: empty")
	}
	parts := strings.Split(s, ".")
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || part[0] == '+' {
			return nil, fmt.Errorf("invalid version %q", s)
		}
		nums[i] = n
	}
	return nums, nil
}

// Components returns the numeric components of v.
// A malformed version has no components.
func (v Version) Components() []int {
	nums, _ := parseVersion(string(v))
	return nums
}

// Compare returns -1, 0 or +1 as v sorts before, equal to, or after w.
// Components are compared numerically; a version that is a strict prefix
// of another sorts first (9.10 < 9.10.1).
func (v Version) Compare(w Version) int {
	return slices.Compare(v.Components(), w.Components())
}

// AtLeast reports whether v >= w.
func (v Version) AtLeast(w Version) bool {
	return v.Compare(w) >= 0
}

// Below reports whether v < w.
func (v Version) Below(w Version) bool {
	return v.Compare(w) < 0
}

func (v Version) String() string {
	return string(v)
}
