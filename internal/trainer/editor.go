package trainer

import (
	"context"
	"errors"
	"strings"

	"github.com/example/wordcards/internal/database"
	"github.com/example/wordcards/internal/session"
)

// beginAdd asks for the source term of a new word
func (e *Engine) beginAdd(ctx context.Context, conv Conversation, st *session.State) error {
	st.Step = session.StepAwaitSource
	st.PendingSource = ""
	if err := e.save(ctx, st); err != nil {
		return err
	}
	return e.send(ctx, conv.ChatID, msgAskSource, nil)
}

func (e *Engine) receiveSource(ctx context.Context, conv Conversation, st *session.State, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return e.send(ctx, conv.ChatID, msgEmptyTerm, nil)
	}

	st.Step = session.StepAwaitTarget
	st.PendingSource = text
	if err := e.save(ctx, st); err != nil {
		return err
	}

	if err := e.send(ctx, conv.ChatID, echoSourceText(text), nil); err != nil {
		return err
	}
	return e.send(ctx, conv.ChatID, msgAskTarget, nil)
}

// receiveTarget stores the new pair as the user's own word. A duplicate is
// reported and nothing is written. Either way the quiz resumes.
func (e *Engine) receiveTarget(ctx context.Context, conv Conversation, st *session.State, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return e.send(ctx, conv.ChatID, msgEmptyTerm, nil)
	}

	word, err := e.catalog.AddOwnedWord(ctx, conv.UserID, st.PendingSource, text)
	switch {
	case errors.Is(err, database.ErrDuplicateWord):
		if err := e.send(ctx, conv.ChatID, msgDuplicate, nil); err != nil {
			return err
		}
	case errors.Is(err, database.ErrEmptyTerm):
		// Pending source was lost; ask for the whole pair again
		return e.beginAdd(ctx, conv, st)
	case err != nil:
		return err
	default:
		total, err := e.progress.CountAssigned(ctx, conv.UserID)
		if err != nil {
			return err
		}
		e.log.Info().Int64("user_id", conv.UserID).Int64("word_id", word.ID).Msg("Word added")
		if err := e.send(ctx, conv.ChatID, addedText(total), nil); err != nil {
			return err
		}
	}

	st.PendingSource = ""
	return e.present(ctx, conv, st)
}

// beginDelete asks for the target term of the word to remove
func (e *Engine) beginDelete(ctx context.Context, conv Conversation, st *session.State) error {
	st.Step = session.StepAwaitDelete
	st.PendingSource = ""
	if err := e.save(ctx, st); err != nil {
		return err
	}
	return e.send(ctx, conv.ChatID, msgAskDelete, nil)
}

// receiveDelete removes the named word. An owned word leaves the catalog; a
// shared one is only detached and may be presented again.
func (e *Engine) receiveDelete(ctx context.Context, conv Conversation, st *session.State, text string) error {
	text = strings.TrimSpace(text)
	word, err := e.catalog.DeleteLearnedWord(ctx, conv.UserID, text)
	switch {
	case errors.Is(err, database.ErrWordNotFound):
		if err := e.send(ctx, conv.ChatID, notFoundText(text), nil); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		total, err := e.progress.CountAssigned(ctx, conv.UserID)
		if err != nil {
			return err
		}
		owned := word.OwnedBy(conv.UserID)
		reply := deletedText(word.TargetTerm, total)
		if !owned {
			reply = detachedText(word.TargetTerm, total)
		}
		e.log.Info().Int64("user_id", conv.UserID).Int64("word_id", word.ID).Bool("owned", owned).Msg("Word deleted")
		if err := e.send(ctx, conv.ChatID, reply, nil); err != nil {
			return err
		}
	}

	return e.present(ctx, conv, st)
}
