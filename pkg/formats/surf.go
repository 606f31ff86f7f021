package formats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Comment starts a comment that runs to the end of the line.
const Comment = '#'

// Section keywords.
const (
	SectionPoints    = "Points"
	SectionLines     = "Lines"
	SectionTriangles = "Triangles"
)

// Column counts of each data section, including the leading id.
const (
	PointColumns2D  = 3
	PointColumns3D  = 4
	LineColumns     = 3
	TriangleColumns = 4
)

// ErrBadCount is returned when a header count cannot be parsed.
var ErrBadCount = errors.New("invalid header count")

// HeaderKeyword identifies which count a header line declares.
type HeaderKeyword int

// Header keywords.
const (
	HeaderNone HeaderKeyword = iota // Not a header line; ends the header
	HeaderPoints
	HeaderLines
	HeaderTriangles
)

// String returns the keyword as it appears in a file.
func (k HeaderKeyword) String() string {
	switch k {
	case HeaderPoints:
		return "points"
	case HeaderLines:
		return "lines"
	case HeaderTriangles:
		return "triangles"
	default:
		return "none"
	}
}

// StripComment returns line truncated at the first comment character.
func StripComment(line string) string {
	if i := strings.IndexByte(line, Comment); i >= 0 {
		return line[:i]
	}
	return line
}

// IsBlank reports whether line is empty or whitespace once comments are removed.
func IsBlank(line string) bool {
	return strings.TrimSpace(StripComment(line)) == ""
}

// Fields splits a line into whitespace-separated tokens, ignoring comments.
func Fields(line string) []string {
	return strings.Fields(StripComment(line))
}

// CountWords returns the number of tokens on a line, ignoring comments.
func CountWords(line string) int {
	return len(Fields(line))
}

// ClassifyHeader returns the keyword a header line declares. Matching is by
// substring and checked in the order points, lines, triangles.
func ClassifyHeader(line string) HeaderKeyword {
	switch {
	case strings.Contains(line, "points"):
		return HeaderPoints
	case strings.Contains(line, "lines"):
		return HeaderLines
	case strings.Contains(line, "triangles"):
		return HeaderTriangles
	default:
		return HeaderNone
	}
}

// ParseCount returns the leading integer of a header line.
func ParseCount(line string) (int, error) {
	fields := Fields(line)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty line", ErrBadCount)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadCount, fields[0])
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %d", ErrBadCount, n)
	}
	return n, nil
}

// PointColumns returns the column count of a points row for a dimension.
func PointColumns(dimension int) int {
	if dimension == 2 {
		return PointColumns2D
	}
	return PointColumns3D
}

// FaceSection returns the keyword of the face section for a dimension.
func FaceSection(dimension int) string {
	if dimension == 2 {
		return SectionLines
	}
	return SectionTriangles
}
