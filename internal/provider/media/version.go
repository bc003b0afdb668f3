package media

import (
	"strconv"
	"strings"
)

// versionAtLeast reports whether release (e.g. "6.8.0-45-generic") is at
// least minimum (e.g. "4.5"). Unparseable releases never qualify.
func versionAtLeast(release, minimum string) bool {
	got, ok := parseVersion(release)
	if !ok {
		return false
	}
	want, ok := parseVersion(minimum)
	if !ok {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return got[i] > want[i]
		}
	}
	return true
}

// parseVersion extracts up to three leading numeric components.
func parseVersion(s string) ([3]int, bool) {
	var v [3]int
	s = strings.TrimSpace(s)
	if s == "" {
		return v, false
	}
	for i, part := range strings.SplitN(s, ".", 3) {
		end := 0
		for end < len(part) && part[end] >= '0' && part[end] <= '9' {
			end++
		}
		if end == 0 {
			if i == 0 {
				return v, false
			}
			break
		}
		n, err := strconv.Atoi(part[:end])
		if err != nil {
			return v, false
		}
		v[i] = n
		if end < len(part) {
			break
		}
	}
	return v, true
}
