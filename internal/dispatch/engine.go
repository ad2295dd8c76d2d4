// Package dispatch matches an utterance against an ordered rule list and
// renders the response of the first rule that matches.
//
// An Engine is immutable once built. Respond and Dispatch are pure functions
// of the utterance and the configuration and may be called from any number
// of goroutines.
package dispatch

import (
	"fmt"
	"regexp"
	"regexp/syntax"
)

type compiledRule struct {
	id        string
	re        *regexp.Regexp
	templates []template
	catchAll  bool
}

type Engine struct {
	rules    []compiledRule
	reflect  *reflector
	selector Selector
}

type Option func(*Engine)

// WithSelector replaces the default uniform random template selection.
func WithSelector(s Selector) Option {
	return func(e *Engine) {
		if s != nil {
			e.selector = s
		}
	}
}

// New compiles and validates rules. Any problem is reported as *ConfigError.
func New(rules []Rule, reflections Reflections, opts ...Option) (*Engine, error) {
	if len(rules) == 0 {
		return nil, configErr(-1, "", ErrNoRules, "")
	}
	refl, err := newReflector(reflections)
	if err != nil {
		return nil, configErr(-1, "", err, "")
	}

	e := &Engine{reflect: refl, selector: RandomSelector()}
	for _, opt := range opts {
		opt(e)
	}

	seen := make(map[string]bool, len(rules))
	e.rules = make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		id := r.ID
		if id == "" {
			id = fmt.Sprintf("rule-%d", i+1)
		}
		if seen[id] {
			return nil, configErr(i, id, ErrDuplicateRuleID, "")
		}
		seen[id] = true

		cr, err := compileRule(i, id, r)
		if err != nil {
			return nil, err
		}
		if cr.catchAll && i != len(rules)-1 {
			return nil, configErr(i, id, ErrShadowedRules, fmt.Sprintf("%d rule(s) after it can never match", len(rules)-1-i))
		}
		e.rules = append(e.rules, cr)
	}
	if last := e.rules[len(e.rules)-1]; !last.catchAll {
		return nil, configErr(len(rules)-1, last.id, ErrNoCatchAll, fmt.Sprintf("pattern %q does not match every input", rules[len(rules)-1].Pattern))
	}
	return e, nil
}

func compileRule(i int, id string, r Rule) (compiledRule, error) {
	expr := "(?i)" + r.Pattern
	re, err := regexp.Compile(expr)
	if err != nil {
		return compiledRule{}, configErr(i, id, ErrBadPattern, err.Error())
	}
	if len(r.Responses) == 0 {
		return compiledRule{}, configErr(i, id, ErrNoResponses, "")
	}
	cr := compiledRule{
		id:        id,
		re:        re,
		templates: make([]template, 0, len(r.Responses)),
		catchAll:  matchesEverything(re, expr),
	}
	for j, raw := range r.Responses {
		t, err := parseTemplate(raw, re.NumSubexp())
		if err != nil {
			return compiledRule{}, configErr(i, id, err, fmt.Sprintf("response #%d", j+1))
		}
		cr.templates = append(cr.templates, t)
	}
	return cr, nil
}

// matchesEverything reports whether re matches any input under search
// semantics: it accepts the empty string and has no empty-width assertions,
// so the empty match at offset 0 is always available.
func matchesEverything(re *regexp.Regexp, expr string) bool {
	if !re.MatchString("") {
		return false
	}
	parsed, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return false
	}
	prog, err := syntax.Compile(parsed.Simplify())
	if err != nil {
		return false
	}
	for _, inst := range prog.Inst {
		if inst.Op == syntax.InstEmptyWidth {
			return false
		}
	}
	return true
}

// Respond returns the rendered response for utterance. Never empty.
func (e *Engine) Respond(utterance string) string {
	return e.Dispatch(utterance).Text
}

// Dispatch is Respond plus the id of the rule that produced the text.
func (e *Engine) Dispatch(utterance string) Reply {
	for i := range e.rules {
		r := &e.rules[i]
		m := r.re.FindStringSubmatchIndex(utterance)
		if m == nil {
			continue
		}
		t := r.templates[e.pick(len(r.templates))]
		return Reply{RuleID: r.id, Text: t.render(utterance, m, e.reflect), Fallback: r.catchAll}
	}
	// New guarantees the last rule matches everything.
	last := &e.rules[len(e.rules)-1]
	return Reply{RuleID: last.id, Text: last.templates[0].render("", make([]int, 2*(last.re.NumSubexp()+1)), e.reflect), Fallback: true}
}

// Rules lists rule ids in priority order.
func (e *Engine) Rules() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.id
	}
	return ids
}

func (e *Engine) pick(n int) int {
	if n == 1 {
		return 0
	}
	i := e.selector.Pick(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}
