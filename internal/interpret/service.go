package interpret

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"samvartha/internal/config"
	"samvartha/internal/llm"
	"samvartha/internal/logging"
	"samvartha/internal/resolve"
)

// Backend names within the interpretation chain.
const (
	RuleBackendName       = "rule-match"
	GenerativeBackendName = "generative-extraction"
)

// chainName labels the interpretation chain in logs and audit events.
const chainName = "command-interpret"

// Interpreter is the command interpretation service. Each strategy is
// an independently callable probe; Interpret composes rules and
// generative extraction into a fallback chain, with tagging kept
// observational.
type Interpreter struct {
	matcher *Matcher
	tagger  *Tagger
	gen     *Generative
	chain   *resolve.Chain
}

// InterpreterConfig holds construction options. Zero values fall back
// to the built-in grammar, the built-in lexicon, and an absent
// generative strategy.
type InterpreterConfig struct {
	Matcher            *Matcher
	Tagger             *Tagger
	Client             llm.Client
	MaxParaphraseWords int
	BackendTimeout     time.Duration
}

// NewInterpreter creates the service.
func NewInterpreter(cfg InterpreterConfig) *Interpreter {
	matcher := cfg.Matcher
	if matcher == nil {
		matcher = MustDefaultMatcher()
	}
	tagger := cfg.Tagger
	if tagger == nil {
		tagger = NewTagger()
	}

	i := &Interpreter{
		matcher: matcher,
		tagger:  tagger,
		gen:     NewGenerative(cfg.Client, cfg.MaxParaphraseWords),
	}

	backends := []resolve.Backend{
		resolve.BackendFn(RuleBackendName, i.ruleBackend),
		resolve.BackendFn(GenerativeBackendName, i.generativeBackend),
	}
	i.chain = resolve.NewChain(resolve.NewCache(), backends, resolve.ChainConfig{
		Name:           chainName,
		BackendTimeout: cfg.BackendTimeout,
		LogCategory:    logging.CategoryInterpret,
	})

	logging.Interpret("interpreter created with %d rules", matcher.Len())
	return i
}

// NewInterpreterFromConfig assembles the service from user config:
// grammar from the configured rules file (hot-reloaded when enabled),
// generative stage on summarizer profile A's provider. Returns a closer
// that stops the rules watcher.
func NewInterpreterFromConfig(cfg *config.UserConfig) (*Interpreter, func() error, error) {
	icfg := cfg.GetInterpret()

	matcher := MustDefaultMatcher()
	closer := func() error { return nil }
	if icfg.RulesPath != "" {
		g, err := LoadGrammar(icfg.RulesPath)
		if err != nil {
			return nil, nil, err
		}
		if err := matcher.SetGrammar(g); err != nil {
			return nil, nil, err
		}
		if icfg.WatchRules {
			watcher, err := WatchRules(icfg.RulesPath, matcher)
			if err != nil {
				return nil, nil, err
			}
			closer = watcher.Close
		}
	}

	client, err := llm.FromProfile(cfg, cfg.GetSummarizerA())
	if err != nil {
		logging.Get(logging.CategoryInterpret).Warn("generative strategy disabled: %v", err)
		client = nil
	}

	interp := NewInterpreter(InterpreterConfig{
		Matcher:            matcher,
		Client:             client,
		MaxParaphraseWords: icfg.MaxParaphraseWords,
		BackendTimeout:     cfg.BackendTimeout(),
	})
	return interp, closer, nil
}

func (i *Interpreter) ruleBackend(ctx context.Context, command string) (string, bool, error) {
	intent, ok := i.matcher.Match(command)
	if !ok {
		return "", false, nil
	}
	payload, err := intent.encode()
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

func (i *Interpreter) generativeBackend(ctx context.Context, command string) (string, bool, error) {
	label, ok := i.gen.ExtractTask(ctx, command)
	if !ok {
		return "", false, nil
	}
	payload, err := Intent{Action: ActionTask, Task: label, Raw: command}.encode()
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

// Interpret runs the fallback chain: rules first, generative extraction
// second. Exhaustion yields the unrecognized sentinel, not an error;
// only a malformed (empty) command is an error.
func (i *Interpreter) Interpret(ctx context.Context, command string) (Intent, error) {
	v, err := i.chain.Resolve(ctx, command)
	if err != nil {
		return Intent{}, err
	}
	if !v.IsResolved() {
		return Unrecognized(command), nil
	}
	return decodeIntent(v.Payload)
}

// MatchRules is the rule strategy as a standalone probe.
func (i *Interpreter) MatchRules(command string) (Intent, bool) {
	return i.matcher.Match(command)
}

// Tag is the syntactic strategy as a standalone probe.
func (i *Interpreter) Tag(command string) []TokenTag {
	return i.tagger.Tag(command)
}

// ExtractTask is the generative strategy as a standalone probe.
func (i *Interpreter) ExtractTask(ctx context.Context, command string) (string, bool) {
	return i.gen.ExtractTask(ctx, command)
}

// Inspection is the result of running every probe against one command.
type Inspection struct {
	Command string     `json:"command"`
	Rule    Intent     `json:"rule"`
	RuleHit bool       `json:"rule_hit"`
	Tags    []TokenTag `json:"tags"`
	Task    string     `json:"task,omitempty"`
	TaskHit bool       `json:"task_hit"`
}

// Inspect runs all probes concurrently and reports what each saw. The
// probes are independent, so a miss in one never hides the others.
func (i *Interpreter) Inspect(ctx context.Context, command string) Inspection {
	result := Inspection{Command: command}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Rule, result.RuleHit = i.matcher.Match(command)
		return nil
	})
	g.Go(func() error {
		result.Tags = i.tagger.Tag(command)
		return nil
	})
	g.Go(func() error {
		result.Task, result.TaskHit = i.gen.ExtractTask(ctx, command)
		return nil
	})
	_ = g.Wait()

	logging.InterpretDebug("inspect %q: rule_hit=%v task_hit=%v tags=%d",
		command, result.RuleHit, result.TaskHit, len(result.Tags))
	return result
}
