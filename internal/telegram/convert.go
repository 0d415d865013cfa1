package telegram

import (
	"strings"

	"github.com/AlexanderMakarov/tgjournals/internal/bot"
)

// Target is where the reply to an update goes.
type Target struct {
	ChatID     int64
	MessageID  int64
	CallbackID string
}

// IsCallback reports whether the update was a button press.
func (t Target) IsCallback() bool {
	return t.CallbackID != ""
}

// EventFromUpdate converts text messages and callback queries. Everything
// else (joins, stickers, edits, ...) is ignored.
func EventFromUpdate(u Update) (bot.Event, Target, bool) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.Message == nil || !bot.IsToken(cq.Data) {
			return bot.Event{}, Target{}, false
		}
		ev := eventFrom(cq.From)
		ev.Token = cq.Data
		return ev, Target{
			ChatID:     cq.Message.Chat.ID,
			MessageID:  cq.Message.MessageID,
			CallbackID: cq.ID,
		}, true

	case u.Message != nil:
		msg := u.Message
		if msg.From == nil || msg.From.IsBot || strings.TrimSpace(msg.Text) == "" {
			return bot.Event{}, Target{}, false
		}
		ev := eventFrom(*msg.From)
		ev.Text = msg.Text
		return ev, Target{ChatID: msg.Chat.ID}, true
	}
	return bot.Event{}, Target{}, false
}

func eventFrom(u User) bot.Event {
	return bot.Event{
		TelegramID:   u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
	}
}

// MethodFromReply edits the pressed message in place for callbacks and
// sends a new message otherwise.
func MethodFromReply(target Target, reply bot.Reply) *MethodResponse {
	m := &MethodResponse{
		Method:    MethodSendMessage,
		ChatID:    target.ChatID,
		Text:      reply.Text,
		ParseMode: ParseModeHTML,
	}
	if target.IsCallback() {
		m.Method = MethodEditMessageText
		m.MessageID = target.MessageID
	}
	if reply.Keyboard != nil {
		m.ReplyMarkup = keyboardMarkup(reply.Keyboard)
	}
	return m
}

func keyboardMarkup(kb *bot.Keyboard) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, InlineKeyboardButton{Text: b.Text, CallbackData: b.Token})
		}
		rows = append(rows, buttons)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
