// Package knowledge holds the first-aid rule set served by the dispatch
// engine and loads custom rule sets from disk.
package knowledge

import (
	"fmt"
	"strings"

	"medi-plus/internal/dispatch"
)

// Style selects how protocol headers are decorated.
type Style string

const (
	StylePlain Style = "plain"
	StyleEmoji Style = "emoji"
)

func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StylePlain:
		return StylePlain, nil
	case StyleEmoji, "":
		return StyleEmoji, nil
	default:
		return "", fmt.Errorf("unknown chat style %q (want plain or emoji)", s)
	}
}

// entry is one protocol of the built-in set. badge is only shown in emoji style.
type entry struct {
	id      string
	pattern string
	badge   string
	header  string
	steps   []string
}

const (
	RuleCPR      = "cpr"
	RuleChoking  = "choking"
	RuleBleeding = "bleeding"
	RuleBurn     = "burn"
	RuleCardiac  = "cardiac"
	RuleFainting = "fainting"
	RulePanic    = "panic"
	RuleWorry    = "worry"
	RuleName     = "name"
	RuleGreeting = "greeting"
	RuleFallback = "fallback"
)

var protocols = []entry{
	{
		id:      RuleCPR,
		pattern: `unconscious|not breathing|\bcpr\b|no pulse`,
		badge:   "🚨",
		header:  "[CRITICAL RESPONSE REQUIRED]",
		steps: []string{
			"1. Call Ambulance IMMEDIATELY.",
			"2. Check for pulse/breathing.",
			"3. If NO pulse: Begin CPR.",
			"   -> Push HARD & FAST on center of chest (100-120 bpm).",
			"   -> Continue until help arrives.",
		},
	},
	{
		id:      RuleChoking,
		pattern: `chok|cant breathe|can't breathe|cannot breathe`,
		badge:   "⚠️",
		header:  "[AIRWAY OBSTRUCTION DETECTED]",
		steps: []string{
			"ACTION: Perform Heimlich Maneuver:",
			"1. Stand behind the person.",
			"2. Wrap arms around waist.",
			"3. Make a fist above the navel.",
			"4. Thrust UPWARD hard until object is expelled.",
		},
	},
	{
		id:      RuleBleeding,
		pattern: `bleed|\bcut(?:s|ting)?\b|blood`,
		badge:   "🩸",
		header:  "[HEMORRHAGE CONTROL PROTOCOL]",
		steps: []string{
			"1. Apply DIRECT PRESSURE with a clean cloth.",
			"2. Elevate the injury above heart level.",
			"3. Do NOT remove soaked cloths; add more layers on top.",
			"4. If arterial (spurting) blood: Consider a tourniquet.",
		},
	},
	{
		id:      RuleBurn,
		pattern: `burn|scald`,
		badge:   "🔥",
		header:  "[BURN TREATMENT PROTOCOL]",
		steps: []string{
			"1. Hold area under COOL running water (10-15 mins).",
			"2. Remove jewelry/tight items immediately.",
			"3. Do NOT pop blisters.",
			"4. Cover loosely with sterile gauze or cling wrap.",
		},
	},
	{
		id:      RuleCardiac,
		pattern: `chest pain|heart attack`,
		badge:   "💔",
		header:  "[CARDIAC ALERT]",
		steps: []string{
			"1. Call Emergency Services NOW.",
			"2. Have patient SIT DOWN and stay calm.",
			"3. Loosen tight clothing.",
			"4. If not allergic, chew 300mg Aspirin.",
		},
	},
	{
		id:      RuleFainting,
		pattern: `faint|passed out|dizzy`,
		badge:   "💫",
		header:  "[FAINTING PROTOCOL]",
		steps: []string{
			"1. Lay the person flat on their back.",
			"2. Raise their legs about 30 cm above heart level.",
			"3. Loosen belts, collars and tight clothing.",
			"4. If they do not wake within 1 minute: call an Ambulance.",
		},
	},
	{
		id:      RulePanic,
		pattern: `panic|anxiety|scared`,
		badge:   "🧘",
		header:  "[CALM DOWN SEQUENCE ACTIVATED]",
		steps: []string{
			"You are safe. Focus on my instructions:",
			"1. Inhale deeply ... (4 seconds)",
			"2. Hold breath ... (7 seconds)",
			"3. Exhale slowly ... (8 seconds)",
			"Repeat this cycle 3 times.",
		},
	},
}

// Rules returns the built-in first-aid rule set decorated for style.
// Medical protocols come first, then conversational rules, then the fallback.
func Rules(style Style) []dispatch.Rule {
	rules := make([]dispatch.Rule, 0, len(protocols)+4)
	for _, p := range protocols {
		header := p.header
		if style == StyleEmoji {
			header = p.badge + " " + header
		}
		rules = append(rules, dispatch.Rule{
			ID:        p.id,
			Pattern:   p.pattern,
			Responses: []string{header + "\n" + strings.Join(p.steps, "\n")},
		})
	}

	fallbackBadge := ""
	if style == StyleEmoji {
		fallbackBadge = "❌ "
	}
	rules = append(rules,
		dispatch.Rule{
			ID:      RuleWorry,
			Pattern: `i(?: am|'m) (?:worried|concerned) (.+)`,
			Responses: []string{
				"Stay calm. You are worried %1.\nTell me the symptom you can see (e.g., 'bleeding', 'burn', 'fainted').",
				"I understand you are concerned %1.\nDescribe what is happening right now, in one or two words.",
			},
		},
		dispatch.Rule{
			ID:        RuleName,
			Pattern:   `my name is (\S+)`,
			Responses: []string{"Hello %1. I am Medi-Plus Pro. Please state the emergency."},
		},
		dispatch.Rule{
			ID:      RuleGreeting,
			Pattern: `\b(?:hi|hello|hey|help)\b`,
			Responses: []string{
				"Hello. I am Medi-Plus Pro. I am listening.\n" +
					"Please state the emergency (e.g., 'Severe Burn', 'Choking', 'Chest Pain').",
			},
		},
		dispatch.Rule{
			ID:      RuleFallback,
			Pattern: `(.*)`,
			Responses: []string{
				fallbackBadge + "I did not understand that medical term.\n" +
					"Please describe the symptom simply (e.g., 'Cut', 'Burn', 'Faint').\n" +
					"If this is an emergency, call an Ambulance.",
			},
		},
	)
	return rules
}

// DefaultReflections is the usual first/second person swap table.
func DefaultReflections() dispatch.Reflections {
	return dispatch.Reflections{
		"i am":     "you are",
		"i was":    "you were",
		"i":        "you",
		"i'm":      "you are",
		"i'd":      "you would",
		"i've":     "you have",
		"i'll":     "you will",
		"my":       "your",
		"mine":     "yours",
		"myself":   "yourself",
		"you are":  "I am",
		"you were": "I was",
		"you've":   "I have",
		"you'll":   "I will",
		"your":     "my",
		"yours":    "mine",
		"you":      "me",
		"me":       "you",
	}
}
