package notify

import (
	"context"
	"fmt"
	"net/smtp"

	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// EmailChannel delivers through a plain SMTP relay. The stdlib client is
// enough here: it is one outbound message to one relay, no API surface.
type EmailChannel struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailChannel(cfg Config) *EmailChannel {
	return &EmailChannel{cfg: cfg, send: smtp.SendMail}
}

func (c *EmailChannel) Kind() model.ChannelKind { return model.ChannelEmail }

func (c *EmailChannel) Send(ctx context.Context, n Notification) error {
	if c.cfg.SMTPHost == "" || c.cfg.EmailTo == "" {
		return fmt.Errorf("email channel not configured")
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)
	var auth smtp.Auth
	if c.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", c.cfg.SMTPUsername, c.cfg.SMTPPassword, c.cfg.SMTPHost)
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		c.cfg.EmailFrom, c.cfg.EmailTo, n.Title, n.Body))

	// smtp.SendMail has no ctx hook; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.send(addr, auth, c.cfg.EmailFrom, []string{c.cfg.EmailTo}, msg); err != nil {
		return fmt.Errorf("error sending alert email: %w", err)
	}

	logger.WithFields(logger.Fields{
		"alert_id": n.AlertID,
		"to":       c.cfg.EmailTo,
	}).Info("alert email sent")
	return nil
}
