package bot

import (
	"context"
	"fmt"
	"os"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tubetool/internal/i18n"
	"github.com/iamwavecut/tubetool/internal/observability"
	"github.com/iamwavecut/tubetool/internal/pipeline"
	"github.com/iamwavecut/tubetool/internal/store"
	"github.com/iamwavecut/tubetool/internal/youtube"
)

// Compressor shrinks a video under the Telegram upload limit.
// *ffmpeg.Client satisfies it.
type Compressor interface {
	CompressForTelegram(ctx context.Context, videoPath string) (string, error)
}

// Operator drives the whole chat flow: link intake, the options menu and
// job delivery. One running job per user.
type Operator struct {
	s        Service
	ops      *Operations
	sessions *Sessions
	comp     Compressor
}

func NewOperator(s Service, comp Compressor) *Operator {
	return &Operator{
		s:        s,
		ops:      NewOperations(s.GetBot()),
		sessions: NewSessions(),
		comp:     comp,
	}
}

func (o *Operator) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	if user == nil || user.IsBot {
		return true, nil
	}
	if u.CallbackQuery != nil {
		return o.handleCallback(ctx, u.CallbackQuery, user)
	}
	if u.Message != nil && chat != nil {
		return o.handleMessage(ctx, u.Message, chat, user)
	}
	return true, nil
}

func (o *Operator) handleMessage(ctx context.Context, msg *api.Message, chat *api.Chat, user *api.User) (bool, error) {
	lang := o.s.Language()

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			_, err := o.ops.SendText(ctx, chat.ID, i18n.Get("Send a YouTube link.\nI will open a menu for you to pick options and confirm.", lang))
			return false, err
		case "help":
			_, err := o.ops.SendText(ctx, chat.ID, i18n.Get("Usage:\n1) Send a YouTube link\n2) Toggle options\n3) Tap Confirm", lang))
			return false, err
		}
		return true, nil
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	if text == "" {
		return true, nil
	}

	if o.sessions.Busy(user.ID) {
		_, err := o.ops.SendText(ctx, chat.ID, i18n.Get("You already have a job running. Wait for it to finish.", lang))
		return false, err
	}

	url, videoID := findLink(text)
	if url == "" {
		_, err := o.ops.SendText(ctx, chat.ID, i18n.Get("Could not find a valid YouTube link.", lang))
		return false, err
	}

	session := Session{URL: url, VideoID: videoID, Options: pipeline.DefaultOptions()}
	o.sessions.Put(user.ID, session)

	if _, err := o.ops.SendMenu(ctx, chat.ID, menuText(url, session.Options, lang), menuKeyboard(session.Options, lang)); err != nil {
		o.sessions.Delete(user.ID)
		return false, err
	}
	log.WithFields(log.Fields{
		"user":  GetUN(user),
		"video": videoID,
	}).Info("menu opened")
	return false, nil
}

// findLink pulls the first YouTube link out of free-form text and
// resolves its video id. It returns empty strings when there is none.
func findLink(text string) (url, videoID string) {
	url, ok := youtube.FindURL(text)
	if !ok {
		return "", ""
	}
	id, err := youtube.ExtractID(url)
	if err != nil {
		return "", ""
	}
	return url, id
}

func (o *Operator) handleCallback(ctx context.Context, cq *api.CallbackQuery, user *api.User) (bool, error) {
	if cq.Message == nil {
		o.ops.AnswerCallback(ctx, cq.ID, "")
		return false, nil
	}
	lang := o.s.Language()
	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID

	switch {
	case cq.Data == callbackCancel:
		o.sessions.Delete(user.ID)
		o.ops.AnswerCallback(ctx, cq.ID, "")
		return false, o.ops.EditText(ctx, chatID, messageID, i18n.Get("Job canceled.", lang))

	case cq.Data == callbackConfirm:
		session, ok := o.sessions.Get(user.ID)
		if !ok {
			o.ops.AnswerCallback(ctx, cq.ID, i18n.Get("Session expired. Send the link again.", lang))
			return false, o.ops.EditText(ctx, chatID, messageID, i18n.Get("Session expired. Send the link again.", lang))
		}
		if !o.sessions.TryStart(user.ID) {
			o.ops.AnswerCallback(ctx, cq.ID, i18n.Get("A job is already running for you.", lang))
			return false, nil
		}
		o.sessions.Delete(user.ID)
		o.ops.AnswerCallback(ctx, cq.ID, i18n.Get("Options confirmed. Starting...", lang))
		if err := o.ops.EditText(ctx, chatID, messageID, i18n.Get("Options confirmed. Starting...", lang)); err != nil {
			log.WithError(err).Warn("cant edit menu message")
		}
		go o.runJob(ctx, chatID, user.ID, session)
		return false, nil

	default:
		key, ok := parseToggle(cq.Data)
		if !ok {
			o.ops.AnswerCallback(ctx, cq.ID, "")
			return false, nil
		}
		session, found := o.sessions.Get(user.ID)
		if !found {
			o.ops.AnswerCallback(ctx, cq.ID, i18n.Get("Session expired. Send the link again.", lang))
			return false, o.ops.EditText(ctx, chatID, messageID, i18n.Get("Session expired. Send the link again.", lang))
		}
		session.Options.Toggle(key)
		o.sessions.Put(user.ID, session)
		o.ops.AnswerCallback(ctx, cq.ID, "")
		return false, o.ops.EditTextAndMarkup(ctx, chatID, messageID,
			menuText(session.URL, session.Options, lang), menuKeyboard(session.Options, lang))
	}
}

// runJob processes one confirmed link, narrating each step into the
// chat and delivering the best video at the end.
func (o *Operator) runJob(ctx context.Context, chatID, userID int64, session Session) {
	defer o.sessions.Finish(userID)
	lang := o.s.Language()
	tasks := o.s.GetTracker()

	id := tasks.Create(ctx, session.URL, session.VideoID, store.OriginTelegram)
	stop := observability.StartTaskTimer("telegram")
	defer stop()

	entry := log.WithFields(log.Fields{"task": id, "video": session.VideoID})
	entry.Info("telegram job started")
	if _, err := o.ops.SendText(ctx, chatID, i18n.Get("Job started. This can take a few minutes.", lang)); err != nil {
		entry.WithError(err).Warn("cant reach chat")
	}

	res, err := o.s.GetRunner().Run(ctx, session.URL, session.Options, func(up pipeline.Update) {
		if up.Note != "" {
			observability.RecordStepError()
			tasks.AddError(id, up.Note)
			_, _ = o.ops.SendText(ctx, chatID, up.Note)
			return
		}
		tasks.SetProgress(ctx, id, up.Stage, up.Percent)
		if up.Percent < 100 {
			_, _ = o.ops.SendText(ctx, chatID, up.Stage)
		}
	})
	tasks.Finish(ctx, id, res, err)

	if err != nil {
		observability.RecordTask("telegram", store.StatusError)
		entry.WithError(err).Error("telegram job failed")
		_, _ = o.ops.SendText(ctx, chatID, fmt.Sprintf(i18n.Get("Error while processing: %s", lang), err))
		return
	}
	observability.RecordTask("telegram", store.StatusDone)
	entry.Info("telegram job done")

	_, _ = o.ops.SendText(ctx, chatID, fmt.Sprintf(i18n.Get("Done.\nTitle: %s\nFolder: %s", lang), res.Title, res.Folder))
	o.deliverVideo(ctx, chatID, res)
}

// deliverVideo uploads the best produced file, compressing first when it
// is over the Telegram limit.
func (o *Operator) deliverVideo(ctx context.Context, chatID int64, res pipeline.Result) {
	lang := o.s.Language()
	path := res.BestVideo()
	if path == "" {
		_, _ = o.ops.SendText(ctx, chatID, i18n.Get("Job finished, but no video file was produced for sending.", lang))
		return
	}
	caption := fmt.Sprintf(i18n.Get("Ready: %s", lang), res.Title)
	limit := o.s.GetConfig().Telegram.UploadLimitMB * 1024 * 1024

	if fileSize(path) > limit {
		_, _ = o.ops.SendText(ctx, chatID, i18n.Get("File above the Telegram limit (50 MB). Trying a compressed version...", lang))
		compressed, err := o.comp.CompressForTelegram(ctx, path)
		if err == nil && fileSize(compressed) <= limit {
			if err := o.ops.SendVideoFile(ctx, chatID, compressed, caption); err == nil {
				return
			}
		}
		if err != nil {
			log.WithError(err).Warn("compression failed")
		}
		_, _ = o.ops.SendText(ctx, chatID, fmt.Sprintf(i18n.Get("Could not compress below 50 MB.\nLocal file: %s", lang), path))
		return
	}

	if err := o.ops.SendVideoFile(ctx, chatID, path, caption); err != nil {
		log.WithError(err).Warn("cant send video")
		_, _ = o.ops.SendText(ctx, chatID, fmt.Sprintf(i18n.Get("Error while processing: %s", lang), err))
	}
}

// fileSize is 0 for files that cannot be inspected, which lets the send
// attempt surface the real problem.
func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
