// Package interpret implements the command interpretation service:
// a small fixed command grammar, a lexicon tagger for diagnostics, and
// a two-stage generative extractor, each callable as an independent
// probe and composable into a fallback chain. Strategies return values,
// never raise; faults are logged where they occur.
package interpret

import (
	"encoding/json"
	"fmt"
)

// Action classifies a recognized command.
type Action string

const (
	// ActionPlay plays a numbered song.
	ActionPlay Action = "play"
	// ActionPause pauses playback.
	ActionPause Action = "pause"
	// ActionTask carries a free-form task label extracted generatively.
	ActionTask Action = "task"
	// ActionUnknown marks a command no strategy could interpret.
	ActionUnknown Action = "unrecognized"
)

// Intent is a structured interpretation of a raw command.
type Intent struct {
	Action     Action `json:"action"`
	SongNumber int    `json:"song_number,omitempty"`
	Task       string `json:"task,omitempty"`
	Raw        string `json:"raw"`
}

// Unrecognized returns the sentinel intent for a command no strategy
// could interpret.
func Unrecognized(raw string) Intent {
	return Intent{Action: ActionUnknown, Raw: raw}
}

// Recognized reports whether any strategy produced this intent.
func (i Intent) Recognized() bool {
	return i.Action != ActionUnknown && i.Action != ""
}

// String renders the intent for logs and CLI output.
func (i Intent) String() string {
	switch i.Action {
	case ActionPlay:
		return fmt.Sprintf("play(song=%d)", i.SongNumber)
	case ActionPause:
		return "pause()"
	case ActionTask:
		return fmt.Sprintf("task(%q)", i.Task)
	default:
		return fmt.Sprintf("unrecognized(%q)", i.Raw)
	}
}

// encode serializes an intent for storage as a chain payload.
func (i Intent) encode() (string, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("failed to encode intent: %w", err)
	}
	return string(data), nil
}

// decodeIntent is the inverse of encode.
func decodeIntent(payload string) (Intent, error) {
	var i Intent
	if err := json.Unmarshal([]byte(payload), &i); err != nil {
		return Intent{}, fmt.Errorf("failed to decode intent payload: %w", err)
	}
	return i, nil
}
