package bot

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/kbmedia/soundsbot/core/telegram/callbacks"
	tghelpers "github.com/kbmedia/soundsbot/core/telegram/helpers"
	"github.com/kbmedia/soundsbot/internal/flow"
	"github.com/kbmedia/soundsbot/internal/ui"
)

var linkRe = regexp.MustCompile(`^https?://(www\.)?(youtube\.com|youtu\.be)/.+`)

// IsLink reports whether the text is a supported media link.
func IsLink(text string) bool {
	return linkRe.MatchString(strings.TrimSpace(text))
}

func senderUser(c tele.Context) flow.User {
	s := c.Sender()
	if s == nil {
		return flow.User{}
	}
	return flow.User{ID: s.ID, Username: s.Username, FirstName: s.FirstName}
}

func (a *App) handleStart(c tele.Context) error {
	return a.ctrl.Start(tghelpers.BuildContext(c), senderUser(c), newReplier(c))
}

func (a *App) handleStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	users, err := a.repo.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("stats: count users: %w", err)
	}
	downloads, err := a.repo.CountDownloads(ctx)
	if err != nil {
		return fmt.Errorf("stats: count downloads: %w", err)
	}
	return tghelpers.SendMD(c, ui.Stats(users, downloads))
}

func (a *App) handleLink(c tele.Context) error {
	return a.ctrl.HandleLink(tghelpers.BuildContext(c), senderUser(c), strings.TrimSpace(c.Text()), newReplier(c))
}

// handleTextInput feeds free text into the title/artist stages.
func (a *App) handleTextInput(c tele.Context) error {
	return a.ctrl.HandleText(tghelpers.BuildContext(c), senderUser(c), c.Text(), newReplier(c))
}

// uploadFile picks the transferable file out of an upload message.
// Audio messages are accepted as-is; documents must look like mp3.
func uploadFile(msg *tele.Message) (tele.File, string, bool) {
	if msg == nil {
		return tele.File{}, "", false
	}
	switch {
	case msg.Audio != nil:
		return msg.Audio.File, msg.Audio.FileName, true
	case msg.Document != nil:
		name := msg.Document.FileName
		if msg.Document.MIME == "audio/mpeg" || strings.HasSuffix(strings.ToLower(name), ".mp3") {
			return msg.Document.File, name, true
		}
	}
	return tele.File{}, "", false
}

// handleAudio receives uploaded audio (or audio documents), pulls the
// file into the download dir under a user-prefixed name and opens the
// edit dialog.
func (a *App) handleAudio(c tele.Context) error {
	user := senderUser(c)

	file, name, ok := uploadFile(c.Message())
	if !ok {
		return tghelpers.SendText(c, ui.TextNotAudio)
	}
	if name == "" {
		name = fmt.Sprintf("%s.mp3", file.FileID)
	}

	if err := tghelpers.SendText(c, ui.TextUploadPending); err != nil {
		return err
	}

	dst := filepath.Join(a.cfg.Media.DownloadDir, fmt.Sprintf("%d_%s", user.ID, filepath.Base(name)))
	if err := c.Bot().Download(&file, dst); err != nil {
		return fmt.Errorf("upload: download: %w", err)
	}

	return a.ctrl.HandleUpload(tghelpers.BuildContext(c), user, dst, name, newReplier(c))
}

func (a *App) handleUnknownDocument(c tele.Context) error {
	return tghelpers.SendText(c, ui.TextNotAudio)
}

// Static menu callbacks edit the menu message in place.

func (a *App) cbAbout(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, ui.TextAbout, ui.MainMenu())
}

func (a *App) cbHowTo(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, ui.TextHowTo, ui.MainMenu())
}

// Dialog callbacks delegate transitions to the controller.

func (a *App) cbChooseMP3(c tele.Context) error {
	return a.ctrl.ChooseMP3(tghelpers.BuildContext(c), senderUser(c), newReplier(c))
}

func (a *App) cbChooseVideo(c tele.Context) error {
	return a.ctrl.ChooseVideo(tghelpers.BuildContext(c), senderUser(c), newReplier(c))
}

func (a *App) cbBackToFormat(c tele.Context) error {
	return a.ctrl.BackToFormat(tghelpers.BuildContext(c), senderUser(c), newReplier(c))
}

func (a *App) cbQuality(c tele.Context) error {
	label := callbacks.CallbackPayload(c)
	return a.ctrl.ChooseQuality(tghelpers.BuildContext(c), senderUser(c), label, newReplier(c))
}

func (a *App) cbMetadataYes(c tele.Context) error {
	return a.ctrl.AcceptMetadata(tghelpers.BuildContext(c), senderUser(c), newReplier(c))
}

func (a *App) cbMetadataNo(c tele.Context) error {
	return a.ctrl.DeclineMetadata(tghelpers.BuildContext(c), senderUser(c), newReplier(c))
}

func (a *App) cbEditUploaded(c tele.Context) error {
	return a.ctrl.EditUploaded(tghelpers.BuildContext(c), senderUser(c), newReplier(c))
}

func (a *App) cbCancel(c tele.Context) error {
	return a.ctrl.Cancel(tghelpers.BuildContext(c), senderUser(c), newReplier(c))
}
