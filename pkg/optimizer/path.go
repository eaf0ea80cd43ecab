package optimizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Segment is one step of a parsed field path: either a mapping key or a
// sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

var indexedPartRe = regexp.MustCompile(`^(.+?)\[(\d+)\]$`)

// ParseFieldPath tokenizes a dot path with optional bracket indices into
// alternating key/index segments.
//
//	"a.b[2].c" -> [key a, key b, index 2, key c]
func ParseFieldPath(path string) ([]Segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty field path")
	}
	var segments []Segment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("empty segment in field path %q", path)
		}
		if m := indexedPartRe.FindStringSubmatch(part); m != nil {
			index, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("invalid index in field path %q: %w", path, err)
			}
			segments = append(segments,
				Segment{Key: m[1]},
				Segment{Index: index, IsIndex: true})
			continue
		}
		segments = append(segments, Segment{Key: part})
	}
	return segments, nil
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}
