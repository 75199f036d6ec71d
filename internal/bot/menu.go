package bot

import (
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/tubetool/internal/i18n"
	"github.com/iamwavecut/tubetool/internal/pipeline"
)

// Callback data understood by the options menu.
const (
	callbackToggle  = "toggle:"
	callbackConfirm = "confirmar"
	callbackCancel  = "cancelar"
)

func optionLabel(key, lang string) string {
	switch key {
	case pipeline.OptTranscript:
		return i18n.Get("Transcript", lang)
	case pipeline.OptDownload720:
		return i18n.Get("Download 720p", lang)
	case pipeline.OptDownload1080:
		return i18n.Get("Download 1080p", lang)
	case pipeline.OptEnhance:
		return i18n.Get("Audio enhancement", lang)
	case pipeline.OptDub:
		return i18n.Get("PT-BR dubbing (male voice)", lang)
	}
	return key
}

func menuText(url string, opts pipeline.Options, lang string) string {
	return fmt.Sprintf(
		i18n.Get("Link received.\n\nURL: %s\nOptions on: %d/%d\n\nPick what you want and tap Confirm.", lang),
		url, opts.StepCount(), len(pipeline.ToggleOrder),
	)
}

func menuKeyboard(opts pipeline.Options, lang string) api.InlineKeyboardMarkup {
	rows := make([][]api.InlineKeyboardButton, 0, len(pipeline.ToggleOrder)+1)
	for _, key := range pipeline.ToggleOrder {
		mark := "⬜"
		if opts.Enabled(key) {
			mark = "✅"
		}
		rows = append(rows, api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(mark+" "+optionLabel(key, lang), callbackToggle+key),
		))
	}
	rows = append(rows, api.NewInlineKeyboardRow(
		api.NewInlineKeyboardButtonData(i18n.Get("Confirm", lang), callbackConfirm),
		api.NewInlineKeyboardButtonData(i18n.Get("Cancel", lang), callbackCancel),
	))
	return api.NewInlineKeyboardMarkup(rows...)
}

// parseToggle extracts the option key from toggle callback data.
func parseToggle(data string) (string, bool) {
	if !strings.HasPrefix(data, callbackToggle) {
		return "", false
	}
	key := strings.TrimPrefix(data, callbackToggle)
	if key == "" {
		return "", false
	}
	return key, true
}
