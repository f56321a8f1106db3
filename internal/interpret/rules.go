package interpret

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"samvartha/internal/logging"
)

// Rule is one grammar entry. Keyword matching is case-insensitive;
// extracted numeric arguments are taken verbatim from the capture group.
type Rule struct {
	Name    string `yaml:"name"`
	Action  Action `yaml:"action"`
	Pattern string `yaml:"pattern"`
	// NumberGroup is the 1-based capture group holding a numeric
	// argument; 0 means the rule carries no argument.
	NumberGroup int `yaml:"number_group,omitempty"`
}

// Grammar is the YAML document shape for a rules file.
type Grammar struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultGrammar returns the built-in command grammar.
func DefaultGrammar() Grammar {
	return Grammar{Rules: []Rule{
		{
			Name:        "play-song",
			Action:      ActionPlay,
			Pattern:     `\bplay\s+song\s+(\d+)\b`,
			NumberGroup: 1,
		},
		{
			Name:    "pause",
			Action:  ActionPause,
			Pattern: `pause`,
		},
	}}
}

// LoadGrammar reads a grammar from a YAML file.
func LoadGrammar(path string) (Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Grammar{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	var g Grammar
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Grammar{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if len(g.Rules) == 0 {
		return Grammar{}, fmt.Errorf("rules file %s defines no rules", path)
	}
	return g, nil
}

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp
}

// Matcher matches commands against a compiled grammar. It is safe for
// concurrent use; SetGrammar swaps the rule set atomically, which is
// how hot reload works.
type Matcher struct {
	mu    sync.RWMutex
	rules []compiledRule
}

// NewMatcher compiles a grammar. A pattern that fails to compile is an
// error up front, not a silent dead rule.
func NewMatcher(g Grammar) (*Matcher, error) {
	m := &Matcher{}
	if err := m.SetGrammar(g); err != nil {
		return nil, err
	}
	return m, nil
}

// MustDefaultMatcher returns a matcher over the built-in grammar.
func MustDefaultMatcher() *Matcher {
	m, err := NewMatcher(DefaultGrammar())
	if err != nil {
		panic(err)
	}
	return m
}

// SetGrammar replaces the active rule set. On error the previous rules
// stay in effect.
func (m *Matcher) SetGrammar(g Grammar) error {
	compiled := make([]compiledRule, 0, len(g.Rules))
	for _, r := range g.Rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{rule: r, re: re})
	}

	m.mu.Lock()
	m.rules = compiled
	m.mu.Unlock()
	return nil
}

// Len returns the number of active rules.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// Match tries each rule in order and returns the intent of the first
// hit. A rule whose numeric capture group is empty or non-numeric is
// skipped, not faulted.
func (m *Matcher) Match(command string) (Intent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cr := range m.rules {
		groups := cr.re.FindStringSubmatch(command)
		if groups == nil {
			continue
		}

		intent := Intent{Action: cr.rule.Action, Raw: command}
		if cr.rule.NumberGroup > 0 {
			if cr.rule.NumberGroup >= len(groups) {
				logging.InterpretDebug("rule %q matched but capture group %d is missing", cr.rule.Name, cr.rule.NumberGroup)
				continue
			}
			n, err := strconv.Atoi(groups[cr.rule.NumberGroup])
			if err != nil {
				logging.InterpretDebug("rule %q matched but argument %q is not numeric", cr.rule.Name, groups[cr.rule.NumberGroup])
				continue
			}
			intent.SongNumber = n
		}

		logging.InterpretDebug("rule %q matched command %q -> %s", cr.rule.Name, command, intent)
		return intent, true
	}
	return Unrecognized(command), false
}
