// Package version compares dotted version strings and extracts versions from
// the free-form output of `<tool> --version`.
//
// Versions with a different number of segments are compared after padding the
// shorter one with zero segments, so "3.10" and "3.10.0" are equal. Padding
// only ever extends a version; it never truncates one.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedVersion is returned when a version string contains a segment
// that is not a non-negative integer.
var ErrMalformedVersion = errors.New("malformed version")

// MalformedVersionError names the input that failed to parse.
type MalformedVersionError struct {
	Input   string
	Segment string
}

func (e *MalformedVersionError) Error() string {
	return fmt.Sprintf("malformed version %q: segment %q is not a non-negative integer", e.Input, e.Segment)
}

// Unwrap lets errors.Is match ErrMalformedVersion.
func (e *MalformedVersionError) Unwrap() error {
	return ErrMalformedVersion
}

// Ordering is the result of comparing two versions.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// String returns the string representation of the ordering
func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return "unknown"
	}
}

// Version is an ordered sequence of non-negative integer segments.
type Version []int

// Parse splits s on "." and parses every segment.
func Parse(s string) (Version, error) {
	if s == "" {
		return nil, &MalformedVersionError{Input: s, Segment: ""}
	}

	segments := strings.Split(s, ".")
	v := make(Version, 0, len(segments))
	for _, seg := range segments {
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 || seg == "" || seg[0] == '+' || seg[0] == '-' {
			return nil, &MalformedVersionError{Input: s, Segment: seg}
		}
		v = append(v, n)
	}
	return v, nil
}

// Pad returns a copy of v extended with zero segments up to length n.
// If v already has n or more segments it is returned unchanged.
func (v Version) Pad(n int) Version {
	if len(v) >= n {
		return v
	}
	padded := make(Version, n)
	copy(padded, v)
	return padded
}

// String joins the segments with ".".
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// CompareTo compares v with other after padding both to the same length.
func (v Version) CompareTo(other Version) Ordering {
	n := max(len(v), len(other))
	a, b := v.Pad(n), other.Pad(n)
	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return Less
		case a[i] > b[i]:
			return Greater
		}
	}
	return Equal
}

// Compare parses and compares two dotted version strings.
func Compare(a, b string) (Ordering, error) {
	va, err := Parse(a)
	if err != nil {
		return Equal, err
	}
	vb, err := Parse(b)
	if err != nil {
		return Equal, err
	}
	return va.CompareTo(vb), nil
}

// AtLeast reports whether v compares equal to or greater than minimum.
func AtLeast(v, minimum string) (bool, error) {
	ord, err := Compare(v, minimum)
	if err != nil {
		return false, err
	}
	return ord != Less, nil
}
