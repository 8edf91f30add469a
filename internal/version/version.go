// Package version compares Linglong package version strings.
//
// Linglong versions are not strict semver: segments are split on '.', '_'
// and '-', numeric segments compare numerically, and anything else falls
// back to a lexical comparison. Missing segments compare as zero.
package version

import (
	"strconv"
	"strings"
)

func splitSegments(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
}

// Compare returns 1 when a > b, -1 when a < b and 0 when equal.
func Compare(a, b string) int {
	as := splitSegments(strings.TrimSpace(a))
	bs := splitSegments(strings.TrimSpace(b))

	length := len(as)
	if len(bs) > length {
		length = len(bs)
	}

	for i := 0; i < length; i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}

		na, aNumeric := parseSegment(sa)
		nb, bNumeric := parseSegment(sb)

		if aNumeric && bNumeric {
			if na != nb {
				if na > nb {
					return 1
				}
				return -1
			}
			continue
		}

		if sa != sb {
			if sa > sb {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Newer reports whether candidate is strictly newer than current.
func Newer(candidate, current string) bool {
	return Compare(candidate, current) > 0
}

func parseSegment(segment string) (int64, bool) {
	if segment == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
