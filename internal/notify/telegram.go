package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"price-tracker-bot/internal/chart"
	"price-tracker-bot/lib/helpers"
	"price-tracker-bot/lib/translation"
)

// TelegramNotifier posts alerts to a single chat, attaching a price-history
// chart when enough history has accumulated.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64, debug bool) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}
	bot.Debug = debug

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Notify(_ context.Context, alert Alert) error {
	text := fmt.Sprintf(
		"🚨 *%s*\n\n*%s* %s *$%s*\n%s: *$%s*\n[%s](%s)",
		helpers.EscapeMarkdownV2(translation.Translate("Price Drop Alert")),
		helpers.EscapeMarkdownV2(alert.Product.Name),
		helpers.EscapeMarkdownV2(translation.Translate("dropped to")),
		helpers.FormatPrice(alert.Price, true),
		helpers.EscapeMarkdownV2(translation.Translate("Target")),
		helpers.FormatPrice(alert.Product.TargetPrice, true),
		helpers.EscapeMarkdownV2(translation.Translate("View product")),
		alert.Product.URL,
	)

	if len(alert.History) >= chart.MinPoints {
		chartData, err := chart.RenderHistory(alert.Product.Name, alert.History)
		if err != nil {
			log.Errorf("could not render chart for product %d: %v", alert.Product.ID, err)
		} else {
			photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileBytes{
				Name:  "chart.png",
				Bytes: chartData,
			})
			photo.Caption = text
			photo.ParseMode = "MarkdownV2"
			_, err = t.bot.Send(photo)
			return errors.Wrap(err, "could not send telegram chart alert")
		}
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return errors.Wrap(err, "could not send telegram alert")
}
