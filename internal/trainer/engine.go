// Package trainer drives the flashcard conversation: presenting words,
// judging answers, and editing a user's vocabulary.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/wordcards/internal/database"
	"github.com/example/wordcards/internal/session"
	"github.com/example/wordcards/pkg/models"
	"github.com/rs/zerolog"
)

// DefaultStoreTimeout bounds the store work done for one incoming message
const DefaultStoreTimeout = 5 * time.Second

// Channel delivers text to a chat. Options, when present, are shown as a
// reply keyboard in the given order; nil sends a plain message that keeps
// the current keyboard.
type Channel interface {
	SendPrompt(ctx context.Context, chatID int64, text string, options []string) error
}

// Catalog is the part of the word store used by the vocabulary editor
type Catalog interface {
	AddOwnedWord(ctx context.Context, userID int64, source, target string) (models.Word, error)
	DeleteLearnedWord(ctx context.Context, userID int64, target string) (models.Word, error)
}

// Progress is the part of the word store that tracks what a user has seen
type Progress interface {
	NextCandidate(ctx context.Context, userID int64) (models.Word, bool, error)
	MarkAssigned(ctx context.Context, userID, wordID int64) error
	MarkGuessed(ctx context.Context, userID, wordID int64) error
	ResetProgress(ctx context.Context, userID int64) error
	CountAssigned(ctx context.Context, userID int64) (int, error)
}

// AnswerSource builds the shuffled options for a presented word
type AnswerSource interface {
	AnswerSet(ctx context.Context, word models.Word) ([]string, error)
}

// Conversation identifies who sent an update and where to reply
type Conversation struct {
	UserID    int64
	ChatID    int64
	FirstName string
}

func (c Conversation) key() session.Key {
	return session.Key{UserID: c.UserID, ChatID: c.ChatID}
}

// Config holds the engine collaborators
type Config struct {
	Catalog      Catalog
	Progress     Progress
	Answers      AnswerSource
	Sessions     session.Store
	Channel      Channel
	StoreTimeout time.Duration
	Logger       zerolog.Logger
}

// Engine is the per-conversation state machine. Messages of one
// conversation are handled one at a time; different conversations run in
// parallel.
type Engine struct {
	catalog  Catalog
	progress Progress
	answers  AnswerSource
	sessions session.Store
	channel  Channel
	locker   *session.Locker
	timeout  time.Duration
	log      zerolog.Logger
}

// New creates an engine
func New(cfg Config) *Engine {
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}

	return &Engine{
		catalog:  cfg.Catalog,
		progress: cfg.Progress,
		answers:  cfg.Answers,
		sessions: cfg.Sessions,
		channel:  cfg.Channel,
		locker:   session.NewLocker(),
		timeout:  timeout,
		log:      cfg.Logger.With().Str("component", "trainer").Logger(),
	}
}

// HandleStart begins a fresh round for the conversation
func (e *Engine) HandleStart(ctx context.Context, conv Conversation) error {
	return e.handle(ctx, conv, func(ctx context.Context, st *session.State) error {
		return e.start(ctx, conv, st)
	})
}

// HandleMessage routes one text reply. Reserved control labels and slash
// commands are handled as commands in every step. Answers are compared
// verbatim, so case and surrounding spaces matter.
func (e *Engine) HandleMessage(ctx context.Context, conv Conversation, text string) error {
	return e.handle(ctx, conv, func(ctx context.Context, st *session.State) error {
		switch parseCommand(text) {
		case cmdStart:
			return e.start(ctx, conv, st)
		case cmdNext:
			return e.present(ctx, conv, st)
		case cmdAddWord:
			return e.beginAdd(ctx, conv, st)
		case cmdDeleteWord:
			return e.beginDelete(ctx, conv, st)
		}

		switch st.Step {
		case session.StepPresenting:
			return e.answer(ctx, conv, st, text)
		case session.StepExhausted:
			return e.exhausted(ctx, conv, st)
		case session.StepAwaitSource:
			return e.receiveSource(ctx, conv, st, text)
		case session.StepAwaitTarget:
			return e.receiveTarget(ctx, conv, st, text)
		case session.StepAwaitDelete:
			return e.receiveDelete(ctx, conv, st, text)
		default:
			return e.start(ctx, conv, st)
		}
	})
}

type transition func(ctx context.Context, st *session.State) error

// handle runs fn on a copy of the conversation state under the
// conversation lock. The copy is saved by fn itself once its store work has
// succeeded, so a failed transition leaves the stored state untouched.
func (e *Engine) handle(parent context.Context, conv Conversation, fn transition) error {
	unlock := e.locker.Lock(conv.key())
	defer unlock()

	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	st, err := e.sessions.Get(ctx, conv.key())
	if err != nil {
		return e.fail(parent, conv, fmt.Errorf("%w: load session: %w", database.ErrStoreUnavailable, err))
	}
	if st == nil {
		st = session.NewState(conv.key())
	}

	if err := fn(ctx, st.Clone()); err != nil {
		return e.fail(parent, conv, err)
	}
	return nil
}

// fail logs err and tells the user the service is unavailable. Delivery
// failures are only logged since the chat cannot be reached anyway.
func (e *Engine) fail(ctx context.Context, conv Conversation, err error) error {
	var sendErr *sendError
	if errors.As(err, &sendErr) {
		e.log.Warn().Err(err).Int64("chat_id", conv.ChatID).Msg("Failed to deliver message")
		return err
	}

	e.log.Error().Err(err).
		Int64("user_id", conv.UserID).
		Int64("chat_id", conv.ChatID).
		Msg("Failed to handle message")

	if deliverErr := e.channel.SendPrompt(ctx, conv.ChatID, msgStoreUnavailable, nil); deliverErr != nil {
		e.log.Warn().Err(deliverErr).Int64("chat_id", conv.ChatID).Msg("Failed to deliver message")
	}
	return err
}

type sendError struct {
	err error
}

func (e *sendError) Error() string { return "send message: " + e.err.Error() }
func (e *sendError) Unwrap() error { return e.err }

func (e *Engine) send(ctx context.Context, chatID int64, text string, options []string) error {
	if err := e.channel.SendPrompt(ctx, chatID, text, options); err != nil {
		return &sendError{err: err}
	}
	return nil
}

func (e *Engine) save(ctx context.Context, st *session.State) error {
	if err := e.sessions.Save(ctx, st); err != nil {
		return fmt.Errorf("%w: save session: %w", database.ErrStoreUnavailable, err)
	}
	return nil
}

// start erases the user's progress, greets them and presents the first word
func (e *Engine) start(ctx context.Context, conv Conversation, st *session.State) error {
	if err := e.progress.ResetProgress(ctx, conv.UserID); err != nil {
		return err
	}

	e.log.Debug().Int64("user_id", conv.UserID).Msg("Round started")

	if err := e.send(ctx, conv.ChatID, welcomeText(conv.FirstName), nil); err != nil {
		return err
	}
	return e.present(ctx, conv, st)
}

// present picks the next word, assigns it and shows the answer keyboard.
// With nothing left the conversation moves to the exhausted step.
func (e *Engine) present(ctx context.Context, conv Conversation, st *session.State) error {
	word, ok, err := e.progress.NextCandidate(ctx, conv.UserID)
	if err != nil {
		return err
	}

	if !ok {
		clearWord(st)
		st.Step = session.StepExhausted
		if err := e.save(ctx, st); err != nil {
			return err
		}
		return e.exhausted(ctx, conv, st)
	}

	if err := e.progress.MarkAssigned(ctx, conv.UserID, word.ID); err != nil {
		return err
	}

	options, err := e.answers.AnswerSet(ctx, word)
	if err != nil {
		return err
	}

	st.Step = session.StepPresenting
	st.WordID = word.ID
	st.SourceTerm = word.SourceTerm
	st.Answer = word.TargetTerm
	st.Example = word.ExampleText()
	st.Options = options
	st.AttemptsLeft = session.InitialAttempts
	st.PendingSource = ""
	if err := e.save(ctx, st); err != nil {
		return err
	}

	keyboard := append(append([]string(nil), options...), controlOptions()...)
	return e.send(ctx, conv.ChatID, promptText(word.SourceTerm), keyboard)
}

func (e *Engine) exhausted(ctx context.Context, conv Conversation, _ *session.State) error {
	return e.send(ctx, conv.ChatID, msgExhausted, []string{CommandStartOver})
}

// answer judges a reply against the presented word. Two wrong answers are
// forgiven; the third reveals the word and moves on.
func (e *Engine) answer(ctx context.Context, conv Conversation, st *session.State, text string) error {
	if !st.HasWord() {
		return e.present(ctx, conv, st)
	}

	if text == st.Answer {
		if err := e.progress.MarkGuessed(ctx, conv.UserID, st.WordID); err != nil {
			return err
		}
		if err := e.send(ctx, conv.ChatID, correctText(st.Example), nil); err != nil {
			return err
		}
		return e.present(ctx, conv, st)
	}

	if st.AttemptsLeft > 0 {
		st.AttemptsLeft--
		if err := e.save(ctx, st); err != nil {
			return err
		}
		return e.send(ctx, conv.ChatID, retryText(st.AttemptsLeft+1), nil)
	}

	if err := e.send(ctx, conv.ChatID, revealText(st.Answer), nil); err != nil {
		return err
	}
	return e.present(ctx, conv, st)
}

func clearWord(st *session.State) {
	st.WordID = 0
	st.SourceTerm = ""
	st.Answer = ""
	st.Example = ""
	st.Options = nil
	st.AttemptsLeft = session.InitialAttempts
}
