package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/wordcards/internal/trainer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// keyboardColumns is the width of the reply keyboard
const keyboardColumns = 2

// API is the subset of the Telegram client the adapter uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler receives user input, normally a *trainer.Engine
type Handler interface {
	HandleStart(ctx context.Context, conv trainer.Conversation) error
	HandleMessage(ctx context.Context, conv trainer.Conversation, text string) error
}

// Bot represents the Telegram bot application
type Bot struct {
	api    API
	config Config
	log    zerolog.Logger

	// wg counts handler goroutines; only the Start loop adds to it
	wg       sync.WaitGroup
	stopOnce sync.Once
	quit     chan struct{}

	mu       sync.Mutex
	stopped  bool
	loopDone chan struct{}
}

// NewAPI authorizes token against Telegram
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	api.Debug = debug
	return api, nil
}

// New creates a new bot instance
func New(api API, cfg Config, logger zerolog.Logger) *Bot {
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = DefaultConfig().UpdateTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	return &Bot{
		api:    api,
		config: cfg,
		log:    logger.With().Str("component", "bot").Logger(),
		quit:   make(chan struct{}),
	}
}

// Start polls for updates and hands each one to h on its own goroutine
// until ctx is cancelled or Stop is called. Updates already received are
// finished even after cancellation; Stop waits for them.
func (b *Bot) Start(ctx context.Context, h Handler) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	if b.loopDone != nil {
		b.mu.Unlock()
		return fmt.Errorf("bot already started")
	}
	loopDone := make(chan struct{})
	b.loopDone = loopDone
	b.mu.Unlock()
	defer close(loopDone)

	handlerCtx := context.WithoutCancel(ctx)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	b.log.Info().Msg("Bot started, polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.stopReceiving()
			return nil
		case <-b.quit:
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(handlerCtx, h, update)
			}(update)
		}
	}
}

// Stop gracefully stops the bot. It waits for the polling loop to exit and
// then for in-flight updates, until ctx or the shutdown timeout expires.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	loopDone := b.loopDone
	b.mu.Unlock()

	b.stopReceiving()

	ctx, cancel := context.WithTimeout(ctx, b.config.ShutdownTimeout)
	defer cancel()

	// No wg.Add can happen once the loop has returned
	if loopDone != nil {
		select {
		case <-loopDone:
		case <-ctx.Done():
			return fmt.Errorf("waiting for update loop: %w", ctx.Err())
		}
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info().Msg("Bot stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight updates: %w", ctx.Err())
	}
}

func (b *Bot) stopReceiving() {
	b.stopOnce.Do(func() {
		close(b.quit)
		b.api.StopReceivingUpdates()
	})
}

// SendPrompt implements trainer.Channel. Options are laid out two per row
// in the given order.
func (b *Bot) SendPrompt(_ context.Context, chatID int64, text string, options []string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if options != nil {
		msg.ReplyMarkup = buildKeyboard(options)
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// buildKeyboard creates a reply keyboard from options
func buildKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(options); i += keyboardColumns {
		end := i + keyboardColumns
		if end > len(options) {
			end = len(options)
		}

		var row []tgbotapi.KeyboardButton
		for _, option := range options[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(option))
		}
		rows = append(rows, row)
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}
