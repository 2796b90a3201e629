package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

const updateTimeout = 2 * time.Minute

// TelegramMessenger sends messages through the Bot API.
type TelegramMessenger struct {
	bot *gotgbot.Bot
}

// NewTelegramMessenger wraps an authenticated bot.
func NewTelegramMessenger(b *gotgbot.Bot) *TelegramMessenger {
	return &TelegramMessenger{bot: b}
}

// SendText sends a plain text message, optionally as a reply and with an
// inline keyboard.
func (m *TelegramMessenger) SendText(ctx context.Context, chatID int64, text string, opts SendOptions) error {
	sendOpts := &gotgbot.SendMessageOpts{}
	if opts.ReplyTo != 0 {
		sendOpts.ReplyParameters = &gotgbot.ReplyParameters{
			MessageId:                opts.ReplyTo,
			AllowSendingWithoutReply: true,
		}
	}
	if len(opts.Keyboard) > 0 {
		sendOpts.ReplyMarkup = inlineKeyboard(opts.Keyboard)
	}
	if _, err := m.bot.SendMessageWithContext(ctx, chatID, text, sendOpts); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// SendPhoto sends an image by URL; Telegram fetches it.
func (m *TelegramMessenger) SendPhoto(ctx context.Context, chatID int64, url string) error {
	if _, err := m.bot.SendPhotoWithContext(ctx, chatID, gotgbot.InputFileByURL(url), nil); err != nil {
		return fmt.Errorf("send photo to chat %d: %w", chatID, err)
	}
	return nil
}

func inlineKeyboard(rows [][]Button) gotgbot.InlineKeyboardMarkup {
	keyboard := make([][]gotgbot.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]gotgbot.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, gotgbot.InlineKeyboardButton{
				Text:         b.Text,
				Url:          b.URL,
				CallbackData: b.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}
	return gotgbot.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

// Register adds the command, callback and free-text handlers to d. All
// handlers share one group so exactly one runs per update; commands are
// added before the catch-all text handler.
func Register(ctx context.Context, d *ext.Dispatcher, h *Handler) {
	t := &telegramRoutes{base: ctx, handler: h}
	for _, cmd := range []string{CommandStart, CommandHelp, CommandStats, CommandHistory} {
		d.AddHandler(handlers.NewCommand(cmd, t.command(cmd)))
	}
	for _, cmd := range []string{CommandHelp, CommandStats, CommandHistory} {
		d.AddHandler(handlers.NewCallback(callbackquery.Equal("/"+cmd), t.callback(cmd)))
	}
	d.AddHandler(handlers.NewMessage(message.Text, t.text))
}

type telegramRoutes struct {
	base    context.Context
	handler *Handler
}

func (t *telegramRoutes) command(cmd string) handlers.Response {
	return func(b *gotgbot.Bot, ectx *ext.Context) error {
		return t.dispatch(ectx, cmd, false)
	}
}

func (t *telegramRoutes) callback(cmd string) handlers.Response {
	return func(b *gotgbot.Bot, ectx *ext.Context) error {
		err := t.dispatch(ectx, cmd, false)
		if _, ackErr := ectx.CallbackQuery.Answer(b, nil); ackErr != nil {
			slog.Warn("Failed to answer callback query", "data", ectx.CallbackQuery.Data, "error", ackErr)
		}
		return err
	}
}

func (t *telegramRoutes) text(_ *gotgbot.Bot, ectx *ext.Context) error {
	return t.dispatch(ectx, "", true)
}

func (t *telegramRoutes) dispatch(ectx *ext.Context, cmd string, withText bool) error {
	ev, ok := eventFromContext(ectx, cmd, withText)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(t.base, updateTimeout)
	defer cancel()
	return t.handler.Handle(ctx, ev)
}

func eventFromContext(ectx *ext.Context, cmd string, withText bool) (Event, bool) {
	chat, user := ectx.EffectiveChat, ectx.EffectiveUser
	if chat == nil || user == nil {
		return Event{}, false
	}
	ev := Event{
		ChatID:   chat.Id,
		UserID:   user.Id,
		UserName: fullName(user),
		Command:  cmd,
	}
	if msg := ectx.EffectiveMessage; msg != nil {
		ev.MessageID = msg.MessageId
		if withText {
			ev.Text = msg.Text
		}
	}
	return ev, true
}

func fullName(u *gotgbot.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
