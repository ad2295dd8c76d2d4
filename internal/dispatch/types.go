package dispatch

// Rule pairs a pattern with the responses it may produce.
// Rules are evaluated in declaration order and the first match wins.
type Rule struct {
	ID        string   `json:"id" yaml:"id"`
	Pattern   string   `json:"pattern" yaml:"pattern"`
	Responses []string `json:"responses" yaml:"responses"`
}

// Reflections maps first-person tokens to second-person ones and back.
// Keys may span several words ("i am").
type Reflections map[string]string

// Reply is the outcome of one dispatched utterance.
type Reply struct {
	RuleID   string `json:"rule_id"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Responder is what presentation layers depend on.
type Responder interface {
	Respond(utterance string) string
	Dispatch(utterance string) Reply
}
