package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"medi-plus/internal/dispatch"
)

// RuleSet is the on-disk form of a custom rule set.
//
//	reflections:
//	  i am: you are
//	rules:
//	  - id: burn
//	    pattern: burn|scald
//	    responses:
//	      - Cool the burn under running water.
//	  - id: fallback
//	    pattern: (.*)
//	    responses: [Please describe the symptom.]
//
// When reflections is omitted the default table is used.
type RuleSet struct {
	Reflections map[string]string `yaml:"reflections,omitempty"`
	Rules       []dispatch.Rule   `yaml:"rules"`
}

// Load reads and decodes a rule set. It does not validate the rules;
// dispatch.New does that.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

func Decode(r io.Reader) (*RuleSet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var rs RuleSet
	if err := dec.Decode(&rs); err != nil {
		if errors.Is(err, io.EOF) {
			return &RuleSet{}, nil
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return &rs, nil
}

// Encode writes rs as YAML, the same shape Load accepts.
func Encode(w io.Writer, rs *RuleSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rs); err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	return enc.Close()
}

// Builtin returns the built-in set in RuleSet form.
func Builtin(style Style) *RuleSet {
	return &RuleSet{Reflections: DefaultReflections(), Rules: Rules(style)}
}

// NewEngine builds a validated engine from the rules file at path, or from
// the built-in set decorated for style when path is empty.
func NewEngine(style Style, path string, opts ...dispatch.Option) (*dispatch.Engine, error) {
	rs := Builtin(style)
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		rs = loaded
	}
	refl := dispatch.Reflections(rs.Reflections)
	if refl == nil {
		refl = DefaultReflections()
	}
	return dispatch.New(rs.Rules, refl, opts...)
}
