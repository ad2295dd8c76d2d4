package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// segment is either literal text or a capture group reference (group >= 0).
type segment struct {
	text  string
	group int
}

type template struct {
	segments []segment
}

// parseTemplate splits raw on %N placeholders. %0 is the whole match.
// A '%' not followed by a digit is literal text.
func parseTemplate(raw string, groups int) (template, error) {
	var (
		t       template
		lit     strings.Builder
		literal bool
	)
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String(), group: -1})
			lit.Reset()
		}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '%' || i+1 >= len(raw) || !isDigit(raw[i+1]) {
			lit.WriteByte(c)
			if c >= 0x80 || !unicode.IsSpace(rune(c)) {
				literal = true
			}
			continue
		}
		j := i + 1
		for j < len(raw) && isDigit(raw[j]) {
			j++
		}
		n, err := strconv.Atoi(raw[i+1 : j])
		if err != nil || n > groups {
			return template{}, fmt.Errorf("%w: %s (pattern has %d)", ErrBadPlaceholder, raw[i:j], groups)
		}
		flush()
		t.segments = append(t.segments, segment{group: n})
		i = j - 1
	}
	flush()
	if !literal {
		return template{}, ErrEmptyTemplate
	}
	return t, nil
}

// render fills placeholders from submatch indexes m over s.
// Groups that did not participate in the match render as empty.
func (t template) render(s string, m []int, r *reflector) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.group < 0 {
			b.WriteString(seg.text)
			continue
		}
		lo, hi := m[2*seg.group], m[2*seg.group+1]
		if lo < 0 {
			continue
		}
		b.WriteString(r.apply(strings.TrimSpace(s[lo:hi])))
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
