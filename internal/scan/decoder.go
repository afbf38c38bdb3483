package scan

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultKeyGap is the inactivity window after which buffered keystrokes are
// considered abandoned.
const DefaultKeyGap = 1000 * time.Millisecond

// numLockArtifact is emitted by some scanners ahead of the payload when they
// toggle the keypad state.
const numLockArtifact = "NumLock"

// KeyEvent is a single raw keystroke as delivered by the input surface.
//
// Scanner hardware differs in which of the three identifiers it populates, so
// terminator detection inspects all of them.
type KeyEvent struct {
	Key     string
	Code    string
	KeyCode int
	At      time.Time
}

// Token is a completed scan.
type Token struct {
	Text       string
	CapturedAt time.Time
}

// DecoderState is the complete mutable state of the decoder.
type DecoderState struct {
	Buffer  string
	LastKey time.Time
}

// Step applies one key event to the decoder state and returns the next state
// together with a token when the event completed one.
func Step(state DecoderState, ev KeyEvent, gap time.Duration) (DecoderState, *Token) {
	if gap <= 0 {
		gap = DefaultKeyGap
	}
	if !state.LastKey.IsZero() && ev.At.Sub(state.LastKey) > gap {
		state.Buffer = ""
	}
	state.LastKey = ev.At

	if IsTerminator(ev) {
		text := normalizeToken(state.Buffer)
		state.Buffer = ""
		if text == "" {
			return state, nil
		}
		return state, &Token{Text: text, CapturedAt: ev.At}
	}

	state.Buffer += printable(ev.Key)
	return state, nil
}

// IsTerminator reports whether the key event ends a token.
func IsTerminator(ev KeyEvent) bool {
	switch ev.Key {
	case "Enter", "NumpadEnter":
		return true
	}
	switch ev.Code {
	case "Enter", "NumpadEnter":
		return true
	}
	return ev.KeyCode == 13
}

func normalizeToken(buffer string) string {
	text := strings.TrimSpace(buffer)
	for strings.HasPrefix(text, numLockArtifact) {
		text = strings.TrimSpace(strings.TrimPrefix(text, numLockArtifact))
	}
	return text
}

// printable returns the text a key contributes to the buffer. Named keys such
// as "Shift" or "ArrowLeft" contribute nothing; "NumLock" is kept so that
// normalizeToken can strip it as a leading artifact.
func printable(key string) string {
	if key == numLockArtifact {
		return key
	}
	if utf8.RuneCountInString(key) == 1 {
		return key
	}
	return ""
}

// Decoder wraps DecoderState for callers that prefer an owned object with a
// callback instead of threading the state through Step.
//
// A Decoder is not safe for concurrent use; keystrokes must be fed in arrival
// order from a single goroutine.
type Decoder struct {
	state   DecoderState
	gap     time.Duration
	onToken func(Token)
}

// NewDecoder constructs a decoder that invokes onToken for each completed scan.
func NewDecoder(gap time.Duration, onToken func(Token)) *Decoder {
	if gap <= 0 {
		gap = DefaultKeyGap
	}
	return &Decoder{gap: gap, onToken: onToken}
}

// Feed processes a key event.
func (d *Decoder) Feed(ev KeyEvent) {
	next, token := Step(d.state, ev, d.gap)
	d.state = next
	if token != nil && d.onToken != nil {
		d.onToken(*token)
	}
}

// State returns a copy of the current decoder state.
func (d *Decoder) State() DecoderState {
	return d.state
}

// Reset discards any buffered input.
func (d *Decoder) Reset() {
	d.state = DecoderState{}
}
