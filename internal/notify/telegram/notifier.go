// Package telegram sends notifications to a Telegram chat through a bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/JakeFAU/webclipper/internal/clip"
)

// Config identifies the bot and chat.
type Config struct {
	Token  string
	ChatID int64
	// APIEndpoint overrides the Bot API URL format (token, method).
	APIEndpoint string
	HTTPClient  *http.Client
}

// Notifier implements clip.Notifier.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New authenticates the bot with getMe.
func New(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: cfg.ChatID}, nil
}

// Notify sends the message as plain text. The bot client has no context
// support, so a done context abandons the request.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	errCh := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, message))
		errCh <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return classify(err)
		}
		return nil
	}
}

func classify(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: telegram %d: %w", clip.ErrTransient, apiErr.Code, err)
		}
		return fmt.Errorf("telegram %d: %w", apiErr.Code, err)
	}
	return fmt.Errorf("%w: telegram: %w", clip.ErrTransient, err)
}
