package interpret

import (
	"context"
	"fmt"
	"strings"

	"samvartha/internal/llm"
	"samvartha/internal/logging"
)

const paraphraseSystemPrompt = "You compress voice commands. Restate the user's command in plain imperative form, as briefly as possible. Respond with the restatement only."

const extractSystemPrompt = "You label commands. Given a compressed command, answer with the single short task label it asks for (for example: play music, check weather). Respond with the label only, or NONE if there is no actionable task."

// Generative is the two-stage generative strategy: paraphrase the raw
// command, then extract a task label from the paraphrase. Either stage
// failing makes the whole strategy absent; faults are logged here and
// never surface to the caller.
type Generative struct {
	client   llm.Client
	maxWords int
}

// NewGenerative builds the strategy. A nil client is allowed and makes
// the strategy permanently absent.
func NewGenerative(client llm.Client, maxParaphraseWords int) *Generative {
	if maxParaphraseWords <= 0 {
		maxParaphraseWords = 30
	}
	return &Generative{client: client, maxWords: maxParaphraseWords}
}

// ExtractTask runs both stages and returns the extracted task label.
func (g *Generative) ExtractTask(ctx context.Context, command string) (string, bool) {
	if g.client == nil {
		logging.InterpretDebug("generative strategy unavailable (no client), skipping %q", command)
		return "", false
	}

	paraphrase, ok := g.paraphrase(ctx, command)
	if !ok {
		return "", false
	}

	prompt := fmt.Sprintf("Command: %q", paraphrase)
	label, err := g.client.CompleteWithSystem(ctx, extractSystemPrompt, prompt)
	if err != nil {
		logging.Get(logging.CategoryInterpret).Error("task extraction failed for %q: %v", command, err)
		return "", false
	}

	label = strings.TrimSpace(strings.Trim(strings.TrimSpace(label), `"'.`))
	if label == "" || strings.EqualFold(label, "NONE") {
		logging.InterpretDebug("no task label extracted from %q", command)
		return "", false
	}

	logging.Interpret("generative extraction: %q -> paraphrase %q -> task %q", command, paraphrase, label)
	return label, true
}

func (g *Generative) paraphrase(ctx context.Context, command string) (string, bool) {
	prompt := fmt.Sprintf("Restate in at most %d words: %q", g.maxWords, command)
	out, err := g.client.CompleteWithSystem(ctx, paraphraseSystemPrompt, prompt)
	if err != nil {
		logging.Get(logging.CategoryInterpret).Error("paraphrase failed for %q: %v", command, err)
		return "", false
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", false
	}

	words := strings.Fields(out)
	if len(words) > g.maxWords {
		out = strings.Join(words[:g.maxWords], " ")
	}
	return out, true
}
