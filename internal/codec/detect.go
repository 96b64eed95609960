package codec

import (
	"strconv"
	"strings"

	"github.com/markershare/markershare/pkg/core"
)

// Detect classifies a pasted string. Elms wins whenever at least one
// /zone//x,y,z,key/ segment is present; otherwise a <...> envelope is M0R.
func Detect(input string) core.Dialect {
	if IsElmsMarkersFormat(input) {
		return core.DialectElms
	}
	s := strings.TrimSpace(input)
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		return core.DialectMor
	}
	return core.DialectUnknown
}

// IsElmsMarkersFormat reports whether s contains an Elms marker segment.
func IsElmsMarkersFormat(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '/' {
			continue
		}
		if _, _, ok := matchElmsSegment(s, i); ok {
			return true
		}
	}
	return false
}

// elmsSegment is one /zone//x,y,z,key/ match
type elmsSegment struct {
	zone    int
	x, y, z int
	iconKey int
}

// scanElmsSegments returns all non-overlapping segments, left to right.
func scanElmsSegments(s string) []elmsSegment {
	var out []elmsSegment
	for i := 0; i < len(s); {
		if s[i] != '/' {
			i++
			continue
		}
		seg, end, ok := matchElmsSegment(s, i)
		if !ok {
			i++
			continue
		}
		out = append(out, seg)
		i = end
	}
	return out
}

// matchElmsSegment tries to read a segment starting at the '/' at index i
// and returns the index just past its closing '/'.
func matchElmsSegment(s string, i int) (elmsSegment, int, bool) {
	t := elmsTokenizer{s: s, pos: i}
	var seg elmsSegment
	ok := t.expect('/') &&
		t.number(&seg.zone) &&
		t.expect('/') && t.expect('/') &&
		t.number(&seg.x) && t.expect(',') &&
		t.number(&seg.y) && t.expect(',') &&
		t.number(&seg.z) && t.expect(',') &&
		t.number(&seg.iconKey) &&
		t.expect('/')
	if !ok {
		return elmsSegment{}, 0, false
	}
	return seg, t.pos, true
}

type elmsTokenizer struct {
	s   string
	pos int
}

func (t *elmsTokenizer) expect(c byte) bool {
	if t.pos < len(t.s) && t.s[t.pos] == c {
		t.pos++
		return true
	}
	return false
}

// number reads one or more ASCII digits.
func (t *elmsTokenizer) number(dst *int) bool {
	start := t.pos
	for t.pos < len(t.s) && t.s[t.pos] >= '0' && t.s[t.pos] <= '9' {
		t.pos++
	}
	if t.pos == start {
		return false
	}
	v, err := strconv.Atoi(t.s[start:t.pos])
	if err != nil {
		return false
	}
	*dst = v
	return true
}
