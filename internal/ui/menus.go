// Package ui builds the bot's inline menus and message texts.
package ui

import (
	tele "gopkg.in/telebot.v4"

	"github.com/kbmedia/soundsbot/core/telegram/keyboard"
)

// Callback uniques routed through the registry.
const (
	CBAbout        = "about"
	CBHowTo        = "how_to_use"
	CBFormatMP3    = "choose_mp3"
	CBFormatVideo  = "choose_video"
	CBBackToFormat = "back_to_format"
	CBQuality      = "quality"
	CBMetadataYes  = "yes_metadata"
	CBMetadataNo   = "no_metadata"
	CBEditUploaded = "edit_metadata"
	CBCancel       = "cancel"
)

// MainMenu is the /start menu.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "ℹ️ О боте", Unique: CBAbout},
		{Text: "📥 Как использовать", Unique: CBHowTo},
	})
}

// FormatMenu offers mp3 vs video for a resolved link.
func FormatMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🎵 MP3", Unique: CBFormatMP3},
		{Text: "🎬 Видео", Unique: CBFormatVideo},
	})
}

// QualityMenu lists the configured video tiers, one per row, plus back.
// Labels must come pre-sorted (media.Config.QualityLabels).
func QualityMenu(labels []string) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(labels)+1)
	for _, label := range labels {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "📺 " + label, Unique: CBQuality, Data: label},
		})
	}
	rows = append(rows, []keyboard.InlineBtn{
		{Text: "⬅️ Назад", Unique: CBBackToFormat},
	})
	return keyboard.InlineButtonsRows(rows...)
}

// MetadataMenu asks whether tags should be edited before delivery.
func MetadataMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "Да", Unique: CBMetadataYes},
			{Text: "Нет", Unique: CBMetadataNo},
		},
	)
}

// UploadMenu offers tag editing for an uploaded audio file.
func UploadMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	edit := markup.Data("✏️ Изменить метаданные", CBEditUploaded)
	cancel := keyboard.CancelButton(markup, CBCancel, "", "❌ Отмена")
	markup.InlineKeyboard = [][]tele.InlineButton{
		{*edit.Inline()},
		{*cancel.Inline()},
	}
	return markup
}
