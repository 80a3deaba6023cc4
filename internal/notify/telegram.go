// Package notify delivers finished reports to external channels.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram caps messages at 4096 characters; stay under it.
const maxMessageLen = 4000

// Telegram sends research reports to a configured chat.
type Telegram struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &Telegram{Bot: bot, ChatID: chatID}, nil
}

// SendReport delivers the report, chunked to the message size limit.
func (t *Telegram) SendReport(query, report string) error {
	text := fmt.Sprintf("Research report for: %s\n\n%s", query, report)
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxMessageLen {
			chunk = chunk[:maxMessageLen]
		}
		msg := tgbotapi.NewMessage(t.ChatID, chunk)
		if _, err := t.Bot.Send(msg); err != nil {
			return err
		}
		text = text[len(chunk):]
	}
	return nil
}
