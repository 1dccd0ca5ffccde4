package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"swagportal/entity"
	"swagportal/internal/config"
	"swagportal/lib/sl"

	"github.com/wneessen/go-mail"
)

// Sender is satisfied by *mail.Client
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends the customer confirmation and, when configured, a copy for the fulfilment admin
type Mailer struct {
	sender  Sender
	from    string
	admin   string
	product string
	log     *slog.Logger
}

func New(conf *config.Config, log *slog.Logger) (*Mailer, error) {
	client, err := mail.NewClient(conf.SMTP.Host,
		mail.WithPort(conf.SMTP.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(conf.SMTP.User),
		mail.WithPassword(conf.SMTP.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	m := NewWithSender(client, conf.SMTP.From, conf.SMTP.AdminEmail, conf.Product.Name, log)
	m.log.With(
		slog.String("host", conf.SMTP.Host),
		slog.Int("port", conf.SMTP.Port),
		sl.Secret("password", conf.SMTP.Password),
	).Debug("smtp mailer configured")
	return m, nil
}

func NewWithSender(sender Sender, from, admin, product string, log *slog.Logger) *Mailer {
	return &Mailer{
		sender:  sender,
		from:    from,
		admin:   admin,
		product: product,
		log:     log.With(sl.Module("mailer")),
	}
}

func (m *Mailer) Name() string {
	return "email"
}

// Send delivers the confirmation and the admin copy in one SMTP session
func (m *Mailer) Send(ctx context.Context, order *entity.Order, _ int) error {
	data := letter{
		To:       order.Email,
		FullName: order.FullName(),
		OrderId:  order.Id,
		Product:  m.product,
		Size:     string(order.Size),
		Address:  order.Address.String(),
	}
	customer, err := m.message(data, "Order Confirmation - "+m.product)
	if err != nil {
		return err
	}
	messages := []*mail.Msg{customer}

	if m.admin != "" {
		data.Admin = true
		data.To = m.admin
		admin, err := m.message(data, "New Order Notification - "+m.product)
		if err != nil {
			return err
		}
		messages = append(messages, admin)
	}

	if err = m.sender.DialAndSendWithContext(ctx, messages...); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.With(
		slog.String("order_id", order.Id),
		sl.Email(order.Email),
	).Debug("confirmation sent")
	return nil
}

func (m *Mailer) message(data letter, subject string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(data.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)

	var text, html bytes.Buffer
	if err := textTemplate.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("text template: %w", err)
	}
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("html template: %w", err)
	}
	msg.SetBodyString(mail.TypeTextPlain, text.String())
	msg.AddAlternativeString(mail.TypeTextHTML, html.String())
	return msg, nil
}
