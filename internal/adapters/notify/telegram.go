package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"eksi-quake-watch/internal/domain"
	"eksi-quake-watch/internal/infra/metrics"
)

// Telegram отправляет алерт о новом событии в указанный чат.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	site   string
}

var _ domain.AlertNotifier = (*Telegram)(nil)

// NewTelegram создаёт нотификатор. site — базовый адрес сайта для
// построения абсолютной ссылки из относительного URL заголовка.
func NewTelegram(bot *tgbotapi.BotAPI, chatID int64, site string) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, site: strings.TrimRight(site, "/")}
}

// Notify отправляет сообщение с данными события.
func (t *Telegram) Notify(ctx context.Context, event domain.AlertEvent) error {
	msg := tgbotapi.NewMessage(t.chatID, t.format(event.Record))
	msg.DisableWebPagePreview = true
	start := time.Now()
	_, err := t.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(t.chatID, 10), start, err)
	if err != nil {
		return fmt.Errorf("отправка алерта в Telegram: %w", err)
	}
	return nil
}

func (t *Telegram) format(rec domain.DetectionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 Землетрясение: %d %s %d — %s\n",
		rec.Info.Day, rec.Info.MonthName, rec.Info.Year, strings.ToUpper(rec.Info.Province))
	fmt.Fprintf(&b, "Заголовок: %s\n", rec.Baslik.Title)
	fmt.Fprintf(&b, "Ссылка: %s%s\n", t.site, rec.Baslik.URL)
	fmt.Fprintf(&b, "Записей: %s\n", rec.Baslik.EntryCount)
	fmt.Fprintf(&b, "Уверенность: %s", rec.Info.Confidence)
	return b.String()
}
