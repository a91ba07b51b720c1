package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	app "area-meter/internal/application"
	"area-meter/internal/container"
	"area-meter/internal/domain/entity"
	"area-meter/internal/logger"
)

const (
	// maxDocumentSize предел Bot API для скачивания файлов
	maxDocumentSize = 20 << 20
	maxCaptionRunes = 1024
)

const (
	msgStart = `👋 Привет! Я считаю площади аннотаций в датасетах.

📄 Пришлите датасет (JSON или YAML), и я добавлю к каждой рамке и полилинии относительную и абсолютную площадь.

📋 Команды:
/area — загрузить датасет
/overwrite — пересчитывать уже посчитанные площади (вкл/выкл)
/space relative|absolute — в каких координатах хранится геометрия
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте /area
2️⃣ Пришлите файл .json, .yaml или .yml
3️⃣ Получите тот же датасет с атрибутами relative_bbox_area, absolute_bbox_area, relative_surface_area, absolute_surface_area

💡 Рекомендации:
• У каждого сэмпла должны быть metadata.width и metadata.height
• Рамки задаются как [x, y, w, h]
• Без /overwrite уже посчитанные площади не трогаются

📋 Команды:
/area — загрузить датасет
/overwrite — переключить пересчёт
/space relative|absolute — координаты геометрии
/cancel — отменить`

	msgAwaitingDataset = "📄 Пришлите файл датасета (.json, .yaml или .yml)."
	msgCancelled       = "❌ Операция отменена. Отправьте /area для нового расчёта."
	msgSendDataset     = "📄 Сначала отправьте /area, затем файл датасета."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Считаю площади..."
	msgProcessingError = "⚠️ Не удалось обработать датасет: %v"
	msgTooLarge        = "⚠️ Файл слишком большой, максимум 20 МБ."
	msgSpaceUsage      = "Использование: /space relative или /space absolute"
	msgSpaceSet        = "📐 Координаты геометрии: %s"
	msgOverwriteOn     = "♻️ Пересчёт включён: существующие площади будут перезаписаны."
	msgOverwriteOff    = "🔒 Пересчёт выключен: существующие площади сохраняются."
)

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	sessions *app.SessionService
	areas    *app.AreaService
	log      zerolog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log = logger.Component(log, "telegram")
	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	return &Bot{
		api:      api,
		sessions: c.SessionService,
		areas:    c.AreaService,
		log:      log,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	sess, err := b.sessions.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error().Err(err).Int64("user", msg.From.ID).Msg("get session")
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, sess)
		return
	}

	// Обработка файла датасета
	if msg.Document != nil && sess.State == entity.StateAwaitingDataset {
		b.handleDocument(ctx, msg, sess)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendDataset)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, sess *entity.Session) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	var err error

	switch msg.Command() {
	case "start":
		_, err = b.sessions.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "area":
		_, err = b.sessions.BeginUpload(ctx, userID, chatID)
		b.sendMessage(chatID, msgAwaitingDataset)

	case "overwrite":
		if sess, err = b.sessions.ToggleOverwrite(ctx, userID, chatID); err == nil {
			if sess.OverwriteOr(false) {
				b.sendMessage(chatID, msgOverwriteOn)
			} else {
				b.sendMessage(chatID, msgOverwriteOff)
			}
		}

	case "space":
		space, perr := entity.ParseCoordinateSpace(msg.CommandArguments())
		if perr != nil {
			b.sendMessage(chatID, msgSpaceUsage)
			return
		}
		if _, err = b.sessions.SetSpace(ctx, userID, chatID, space); err == nil {
			b.sendMessage(chatID, fmt.Sprintf(msgSpaceSet, space))
		}

	case "cancel":
		_, err = b.sessions.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}

	if err != nil {
		b.log.Error().Err(err).Int64("user", userID).Str("command", msg.Command()).Msg("update session")
	}
}

// handleDocument обрабатывает присланный датасет
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message, sess *entity.Session) {
	chatID := msg.Chat.ID
	doc := msg.Document

	if doc.FileSize > maxDocumentSize {
		b.sendMessage(chatID, msgTooLarge)
		return
	}

	if _, err := b.sessions.SetState(ctx, msg.From.ID, chatID, entity.StateProcessing); err != nil {
		b.log.Error().Err(err).Int64("user", msg.From.ID).Msg("update session")
	}
	defer func() {
		if _, err := b.sessions.Cancel(ctx, msg.From.ID, chatID); err != nil {
			b.log.Error().Err(err).Int64("user", msg.From.ID).Msg("update session")
		}
	}()

	b.sendMessage(chatID, msgProcessing)

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		b.log.Error().Err(err).Str("file", doc.FileName).Msg("download document")
		b.sendMessage(chatID, fmt.Sprintf(msgProcessingError, err))
		return
	}

	out, summary, err := b.processDocument(ctx, sess, doc.FileName, data)
	if err != nil {
		b.log.Warn().Err(err).Str("file", doc.FileName).Msg("process document")
		b.sendMessage(chatID, fmt.Sprintf(msgProcessingError, err))
		return
	}

	reply := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.FileName, Bytes: out})
	reply.Caption = truncate(summary, maxCaptionRunes)
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error().Err(err).Msg("send document")
	}
}

// processDocument считает площади с настройками сессии и возвращает
// обновлённый файл и текст отчёта. Датасет пришёл от пользователя, поэтому
// пути в нём (filepath, mask_path) на сервере не открываются.
func (b *Bot) processDocument(ctx context.Context, sess *entity.Session, name string, data []byte) ([]byte, string, error) {
	if name == "" {
		return nil, "", errors.New("document has no file name")
	}
	opts := b.sessions.Options(sess)
	opts.ComputeMetadata = false
	opts.NoFiles = true

	out, report, err := b.areas.ProcessDocument(ctx, name, data, opts)
	if err != nil {
		return nil, "", err
	}
	return out, formatReport(report), nil
}

func formatReport(r *app.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Готово.\nСэмплов: %d\nПосчитано: %d\nПропущено (уже было): %d", r.Samples, r.Updated, r.Skipped)
	if r.Converted > 0 {
		fmt.Fprintf(&sb, "\nМасок в полилинии: %d", r.Converted)
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(&sb, "\nОшибок: %d", len(r.Failures))
		const shown = 5
		for i, f := range r.Failures {
			if i == shown {
				fmt.Fprintf(&sb, "\n… и ещё %d", len(r.Failures)-shown)
				break
			}
			fmt.Fprintf(&sb, "\n• %v", f)
		}
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, errors.New("file is too large")
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat", chatID).Msg("send message")
	}
}
