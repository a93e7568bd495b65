package notify

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"price-tracker-bot/lib/translation"
)

type EmailConfig struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Receivers []string
}

// EmailNotifier delivers alerts over SMTP.
type EmailNotifier struct {
	cfg    EmailConfig
	dialer *gomail.Dialer
}

func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	receivers := make([]string, 0, len(cfg.Receivers))
	for _, r := range cfg.Receivers {
		if r = strings.TrimSpace(r); r != "" {
			receivers = append(receivers, r)
		}
	}
	cfg.Receivers = receivers

	if cfg.Sender == "" || cfg.Password == "" || len(cfg.Receivers) == 0 {
		return nil, errors.New("missing email configuration: sender, password and receivers are required")
	}

	return &EmailNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Sender, cfg.Password),
	}, nil
}

func (e *EmailNotifier) Notify(_ context.Context, alert Alert) error {
	price := humanize.CommafWithDigits(alert.Price, 2)
	target := humanize.CommafWithDigits(alert.Product.TargetPrice, 2)

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(e.cfg.Sender, "Price Tracker Bot"))
	m.SetHeader("To", e.cfg.Receivers...)
	m.SetHeader("Subject", translation.Translate("Price Drop: %s now at %s", alert.Product.Name, price))
	m.SetBody("text/html", translation.Translate(
		"<p>The price of %s dropped to <strong>%s</strong>, below your target of %s.</p><p><a href=\"%s\">View Product</a></p>",
		alert.Product.Name, price, target, alert.Product.URL))

	if err := e.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "could not send email alert")
	}
	return nil
}
