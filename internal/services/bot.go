package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"
)

// Bot sends admin notices over Telegram.
type Bot struct {
	token   string
	chatIDs []int64
	bot     *tele.Bot
}

// NewBot builds a send-only bot for the given admin chats. It does not start polling.
func NewBot(token string, chatIDs ...int64) (*Bot, error) {
	if token == "" {
		return nil, errors.New("bot token is empty")
	}

	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Poller:  &tele.LongPoller{Timeout: 10 * time.Second},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}

	return &Bot{token, chatIDs, b}, nil
}

func ParseChatIDs(values ...string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (bot *Bot) SendMsg(chatID int64, text string) error {
	_, err := bot.bot.Send(&tele.User{ID: chatID}, text, &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	return err
}

// NotifyAdmins sends text to every admin chat and returns the joined errors.
func (bot *Bot) NotifyAdmins(ctx context.Context, text string) error {
	var errs []error
	for _, chatID := range bot.chatIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := bot.SendMsg(chatID, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
