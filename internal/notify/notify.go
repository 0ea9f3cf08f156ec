package notify

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"booksapi/internal/models"
)

// Notifier announces catalog changes to an external channel
type Notifier interface {
	Notify(ctx context.Context, text string)
	Close() error
}

// Nop discards notifications
type Nop struct{}

func (Nop) Notify(context.Context, string) {}
func (Nop) Close() error                    { return nil }

// Telegram sends notifications to a single Telegram chat
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewTelegram creates a notifier using the public Telegram Bot API
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, chatID, logger)
}

// NewTelegramWithEndpoint creates a notifier against a custom Bot API endpoint
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Telegram notifier created",
		zap.String("bot_username", api.Self.UserName),
		zap.Int64("chat_id", chatID),
	)

	return &Telegram{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

// Notify sends text in the background so the caller never waits on Telegram
func (t *Telegram) Notify(ctx context.Context, text string) {
	if t.api == nil {
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		msg := tgbotapi.NewMessage(t.chatID, text)
		if _, err := t.api.Send(msg); err != nil {
			t.logger.Warn("Failed to send notification",
				zap.Error(err),
				zap.Int64("chat_id", t.chatID),
			)
		}
	}()
}

// Close waits for in-flight notifications
func (t *Telegram) Close() error {
	t.wg.Wait()
	return nil
}

// FormatEvent renders an activity event as a notification message
func FormatEvent(e models.Event) string {
	switch e.Action {
	case models.ActionCreated:
		return fmt.Sprintf("New book added!\n\nID: %d\nTitle: %s", e.BookID, e.Title)
	case models.ActionUpdated:
		return fmt.Sprintf("Book updated\n\nID: %d\nTitle: %s", e.BookID, e.Title)
	case models.ActionDeleted:
		return fmt.Sprintf("Book removed\n\nID: %d", e.BookID)
	default:
		return fmt.Sprintf("Book %d: %s", e.BookID, e.Action)
	}
}
