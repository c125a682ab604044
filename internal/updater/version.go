package updater

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a release version as tagged on GitHub: "v1.4.0", "1.4", or
// "2.0.0-rc.1". Missing minor/patch parts parse as zero, and a prerelease
// tag sorts before the release it precedes.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// ParseVersion parses a release tag. Build metadata after "+" is ignored.
func ParseVersion(tag string) (Version, error) {
	s := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if s == "" {
		return Version{}, fmt.Errorf("empty version tag %q", tag)
	}

	core := s
	pre := ""
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core = s[:i]
		if s[i] == '-' {
			pre = s[i+1:]
			if j := strings.IndexByte(pre, '+'); j >= 0 {
				pre = pre[:j]
			}
		}
	}

	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("malformed version tag %q", tag)
	}
	nums := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("malformed version tag %q", tag)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Prerelease: pre}, nil
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare returns -1, 0, or 1. Prereleases compare by plain string order
// within the same core version, which is enough for the rc/beta tags this
// project publishes.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	switch {
	case v.Prerelease == other.Prerelease:
		return 0
	case v.Prerelease == "":
		return 1 // release > its prereleases
	case other.Prerelease == "":
		return -1
	}
	return strings.Compare(v.Prerelease, other.Prerelease)
}

// Older reports whether v precedes other.
func (v Version) Older(other Version) bool {
	return v.Compare(other) < 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
