package dispatch

import (
	"errors"
	"fmt"
)

var (
	ErrNoRules         = errors.New("rule set is empty")
	ErrBadPattern      = errors.New("pattern does not compile")
	ErrNoResponses     = errors.New("rule has no responses")
	ErrEmptyTemplate   = errors.New("response template has no literal text")
	ErrBadPlaceholder  = errors.New("template references a missing capture group")
	ErrNoCatchAll      = errors.New("last rule is not a catch-all")
	ErrShadowedRules   = errors.New("catch-all rule is not last")
	ErrDuplicateRuleID = errors.New("duplicate rule id")
	ErrEmptyReflection = errors.New("reflection table has an empty key")
)

// ConfigError is returned by New when the rule set cannot be served.
// The engine never starts with a ConfigError.
type ConfigError struct {
	RuleID string
	Index  int
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	var where string
	if e.RuleID != "" {
		where = fmt.Sprintf("rule %q (#%d): ", e.RuleID, e.Index)
	} else if e.Index >= 0 {
		where = fmt.Sprintf("rule #%d: ", e.Index)
	}
	if e.Detail == "" {
		return "dispatch config: " + where + e.Err.Error()
	}
	return "dispatch config: " + where + e.Err.Error() + ": " + e.Detail
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(idx int, id string, err error, detail string) *ConfigError {
	return &ConfigError{RuleID: id, Index: idx, Err: err, Detail: detail}
}
