// Package session keeps the ephemeral per-conversation quiz state.
package session

import (
	"strconv"
	"time"
)

// Step tags what the conversation is waiting for
type Step string

const (
	StepIdle       Step = "idle"
	StepPresenting Step = "presenting"
	StepExhausted  Step = "exhausted"
	// Vocabulary editor steps
	StepAwaitSource Step = "await_source"
	StepAwaitTarget Step = "await_target"
	StepAwaitDelete Step = "await_delete"
)

// InitialAttempts is the attempts budget after the first wrong answer is
// counted, giving three submissions per word.
const InitialAttempts = 2

// Key addresses one conversation of one user
type Key struct {
	UserID int64
	ChatID int64
}

func (k Key) String() string {
	return strconv.FormatInt(k.UserID, 10) + ":" + strconv.FormatInt(k.ChatID, 10)
}

// State is the record of the currently presented word and attempt budget
type State struct {
	UserID int64 `json:"user_id"`
	ChatID int64 `json:"chat_id"`
	Step   Step  `json:"step"`

	WordID       int64    `json:"word_id,omitempty"`
	SourceTerm   string   `json:"source_term,omitempty"`
	Answer       string   `json:"answer,omitempty"`
	Example      string   `json:"example,omitempty"`
	Options      []string `json:"options,omitempty"`
	AttemptsLeft int      `json:"attempts_left"`

	// PendingSource holds the source term while the add flow waits for the
	// translation
	PendingSource string `json:"pending_source,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns an idle state for key
func NewState(key Key) *State {
	return &State{
		UserID:       key.UserID,
		ChatID:       key.ChatID,
		Step:         StepIdle,
		AttemptsLeft: InitialAttempts,
	}
}

// Key returns the address of the state
func (s *State) Key() Key {
	return Key{UserID: s.UserID, ChatID: s.ChatID}
}

// HasWord reports whether a word is currently presented
func (s *State) HasWord() bool {
	return s.WordID != 0 && s.Answer != ""
}

// Clone returns a deep copy so callers can build the next state without
// touching the stored one
func (s *State) Clone() *State {
	c := *s
	if s.Options != nil {
		c.Options = append([]string(nil), s.Options...)
	}
	return &c
}
