package bot

import (
	"context"

	"github.com/example/wordcards/internal/trainer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleUpdate routes one Telegram update to h. Only text messages from a
// known sender take part in the quiz.
func (b *Bot) handleUpdate(ctx context.Context, h Handler, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.From == nil || message.Chat == nil {
		return
	}

	conv := trainer.Conversation{
		UserID:    message.From.ID,
		ChatID:    message.Chat.ID,
		FirstName: message.From.FirstName,
	}
	logger := b.log.With().Int64("user_id", conv.UserID).Int64("chat_id", conv.ChatID).Logger()

	if message.Text == "" {
		logger.Debug().Msg("Ignoring non-text message")
		return
	}

	var err error
	if message.IsCommand() {
		switch message.Command() {
		case "start", "cards":
			err = h.HandleStart(ctx, conv)
		default:
			err = h.HandleMessage(ctx, conv, message.Text)
		}
	} else {
		err = h.HandleMessage(ctx, conv, message.Text)
	}

	// The handler has already told the user what went wrong
	if err != nil {
		logger.Debug().Err(err).Msg("Update handled with error")
	}
}
