package domain

import (
	"chunk-relay/errors"
	"fmt"
	"strings"
)

const PathSeparator = "/"

// LogicalPath is the catalog side location of a file, one element per directory level.
type LogicalPath []string

// ParseLogicalPath splits "a/b/c" into its segments.
// Leading and trailing separators are ignored, empty inner segments are rejected.
func ParseLogicalPath(s string) (LogicalPath, error) {
	trimmed := strings.Trim(s, PathSeparator)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", errors.ErrInvalidLogicalPath)
	}
	p := LogicalPath(strings.Split(trimmed, PathSeparator))
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p LogicalPath) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty path", errors.ErrInvalidLogicalPath)
	}
	for i, segment := range p {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("%w: segment %d is %q", errors.ErrInvalidLogicalPath, i, segment)
		}
		if strings.ContainsAny(segment, "\x00"+PathSeparator) {
			return fmt.Errorf("%w: segment %d contains a reserved character", errors.ErrInvalidLogicalPath, i)
		}
	}
	return nil
}

func (p LogicalPath) String() string {
	return strings.Join(p, PathSeparator)
}

// Name is the last segment, used as the local file name on download.
func (p LogicalPath) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Compare orders paths segment by segment, a prefix sorting first.
func (p LogicalPath) Compare(other LogicalPath) int {
	for i := 0; i < len(p) && i < len(other); i++ {
		if c := strings.Compare(p[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	default:
		return 0
	}
}

func (p LogicalPath) Equal(other LogicalPath) bool {
	return p.Compare(other) == 0
}
