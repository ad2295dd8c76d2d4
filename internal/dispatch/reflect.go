package dispatch

import (
	"regexp"
	"sort"
	"strings"
)

type reflector struct {
	table map[string]string
	re    *regexp.Regexp
}

func newReflector(refl Reflections) (*reflector, error) {
	if len(refl) == 0 {
		return &reflector{}, nil
	}
	table := make(map[string]string, len(refl))
	keys := make([]string, 0, len(refl))
	for k, v := range refl {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return nil, ErrEmptyReflection
		}
		if _, dup := table[k]; !dup {
			keys = append(keys, k)
		}
		table[k] = v
	}
	// Longest keys first so "i am" wins over "i".
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, err
	}
	return &reflector{table: table, re: re}, nil
}

// apply swaps person tokens in a single pass, so "you" -> "me" never
// feeds back into "me" -> "you". Words without an entry keep their casing.
func (r *reflector) apply(fragment string) string {
	if r == nil || r.re == nil || fragment == "" {
		return fragment
	}
	return r.re.ReplaceAllStringFunc(fragment, func(tok string) string {
		if v, ok := r.table[strings.ToLower(tok)]; ok {
			return v
		}
		return tok
	})
}
