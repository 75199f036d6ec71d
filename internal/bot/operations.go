package bot

import (
	"context"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
)

// Operations wraps the Telegram calls the operator handler needs.
type Operations struct {
	bot *api.BotAPI
}

func NewOperations(bot *api.BotAPI) *Operations {
	return &Operations{bot: bot}
}

// SendText sends a plain text message and returns it for later edits.
func (o *Operations) SendText(ctx context.Context, chatID int64, text string) (api.Message, error) {
	select {
	case <-ctx.Done():
		return api.Message{}, ctx.Err()
	default:
	}
	msg, err := o.bot.Send(api.NewMessage(chatID, text))
	if err != nil {
		return api.Message{}, errors.Wrap(err, "cant send message")
	}
	return msg, nil
}

// SendMenu sends a text message with an inline keyboard attached.
func (o *Operations) SendMenu(ctx context.Context, chatID int64, text string, markup api.InlineKeyboardMarkup) (api.Message, error) {
	select {
	case <-ctx.Done():
		return api.Message{}, ctx.Err()
	default:
	}
	msg := api.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	sent, err := o.bot.Send(msg)
	if err != nil {
		return api.Message{}, errors.Wrap(err, "cant send menu")
	}
	return sent, nil
}

// EditText replaces a message's text. The inline keyboard, if any, goes
// away with the edit.
func (o *Operations) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	edit := api.NewEditMessageText(chatID, messageID, text)
	if _, err := o.bot.Send(edit); err != nil && !isMessageNotModifiedError(err) {
		return errors.Wrap(err, "cant edit message")
	}
	return nil
}

// EditTextAndMarkup updates a menu message in place. Telegram rejects
// edits that change nothing; those are not errors here.
func (o *Operations) EditTextAndMarkup(ctx context.Context, chatID int64, messageID int, text string, markup api.InlineKeyboardMarkup) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	edit := api.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &markup
	if _, err := o.bot.Send(edit); err != nil && !isMessageNotModifiedError(err) {
		return errors.Wrap(err, "cant edit message")
	}
	return nil
}

// AnswerCallback acknowledges a callback query, best effort.
func (o *Operations) AnswerCallback(ctx context.Context, callbackID string, text string) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	_ = tool.Err(o.bot.Request(api.NewCallback(callbackID, text)))
}

// SendVideoFile uploads a local video file with a caption.
func (o *Operations) SendVideoFile(ctx context.Context, chatID int64, path string, caption string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	video := api.NewVideo(chatID, api.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true
	if _, err := o.bot.Send(video); err != nil {
		return errors.Wrap(err, "cant send video")
	}
	return nil
}

func isMessageNotModifiedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}
