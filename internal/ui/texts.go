package ui

import (
	"fmt"
	"time"

	"github.com/kbmedia/soundsbot/core/telegram/format"
)

// Texts shown by the dialog. Kept in one place so the tone stays uniform.
const (
	TextAbout = "ℹ️ О боте\n\n" +
		"Этот бот позволяет:\n" +
		"1. Скачивать видео и аудио с YouTube\n" +
		"2. Изменять метаданные MP3 файлов\n" +
		"3. Поддерживает различные качества видео\n\n" +
		"Создано @SoundsBot_KB"
	TextHowTo = "📥 Как использовать бота\n\n" +
		"Для YouTube:\n" +
		"1. Отправьте ссылку на видео\n" +
		"2. Выберите формат (MP3 или Видео)\n" +
		"3. Для видео выберите качество\n" +
		"4. Для MP3 можно изменить метаданные\n\n" +
		"Для MP3 файлов:\n" +
		"1. Отправьте MP3 файл\n" +
		"2. Выберите 'Изменить метаданные'\n" +
		"3. Введите новое название и исполнителя\n\n" +
		"Создано @SoundsBot_KB"

	TextProbing        = "🔍 Получаю информацию о видео..."
	TextChooseFormat   = "Выберите формат загрузки:"
	TextChooseQuality  = "📺 Выберите качество видео:"
	TextStartingMP3    = "🎵 Начинаю загрузку MP3..."
	TextAskMetadata    = "✅ MP3 загружен!\n\nХотите изменить метаданные (название/автор)?"
	TextAskTitle       = "📝 Введите новое название трека:"
	TextAskArtist      = "👤 Теперь введите имя исполнителя:"
	TextSending        = "✅ Отправляю файл..."
	TextSendingVideo   = "📤 Отправляю видео..."
	TextUploadPending  = "⏳ Загружаю файл..."
	TextUploadReceived = "🎵 Файл загружен!\nХотите изменить метаданные (название/исполнитель)?"
	TextCancelled      = "❌ Отменено. Отправьте новую ссылку или файл."
	TextSessionExpired = "❌ Сессия истекла. Отправьте ссылку заново."
	TextNotAudio       = "❌ Пожалуйста, отправьте MP3 файл."

	// Caption attached to every delivered file.
	TextCaption = "Скачано с помощью @SoundsBot_KB"
)

// Greeting renders the /start reply.
func Greeting(firstName string) string {
	return fmt.Sprintf("👋 Привет, %s!\n\n"+
		"Я помогу скачать медиа с YouTube в нужном формате или изменить метаданные MP3 файлов.\n"+
		"Отправь мне ссылку на YouTube видео или MP3 файл!\n\n"+
		"Нажми на кнопки ниже, чтобы узнать больше.", firstName)
}

// TooLong formats the duration-ceiling rejection.
func TooLong(title string, d, limit time.Duration) string {
	return fmt.Sprintf("❌ Видео **%s** слишком длинное (%d минут). Максимальная длина — %d минут.",
		mdEscape(title), int(d.Minutes()), int(limit.Minutes()))
}

// LinkSummary renders probed metadata above the format menu.
func LinkSummary(title, uploader string, d time.Duration) string {
	sec := int(d / time.Second)
	return fmt.Sprintf("🎥 **%s**\n👤 %s\n⏱ Длительность: %d:%02d\n\n%s",
		mdEscape(title), mdEscape(uploader), sec/60, sec%60, TextChooseFormat)
}

// DownloadingVideo renders the per-quality progress message.
func DownloadingVideo(quality string) string {
	return fmt.Sprintf("🎬 Загружаю видео в %s...", quality)
}

// VideoCaption renders the caption of a delivered video.
func VideoCaption(title, quality string) string {
	return fmt.Sprintf("🎬 **%s**\n📺 Качество: %s\n\n%s", mdEscape(title), quality, TextCaption)
}

// mdEscape makes user-controlled strings safe for Markdown rendering.
func mdEscape(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1)
	if err != nil {
		return s
	}
	return out
}

// DownloadError renders a failed download notice.
func DownloadError(err error) string {
	return "❌ Ошибка при загрузке: " + mdEscape(err.Error())
}

// ProbeError renders a failed probe notice.
func ProbeError(err error) string {
	return "❌ Ошибка при получении информации: " + mdEscape(err.Error())
}

// Stats renders the admin counters.
func Stats(users, downloads int64) string {
	return fmt.Sprintf("👥 Пользователей: *%d*\n📥 Загрузок: *%d*", users, downloads)
}
