package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

const (
	twilioAPIBase    = "https://api.twilio.com/2010-04-01"
	twilioStudioBase = "https://studio.twilio.com/v2"
)

func newTwilioClient(cfg Config) *resty.Client {
	return resty.New().
		SetTimeout(cfg.HTTPTimeout).
		SetRetryCount(cfg.HTTPRetries).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetBasicAuth(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
}

// SMSChannel sends a text through the Twilio Messages API.
type SMSChannel struct {
	cfg     cfgPhone
	client  *resty.Client
	baseURL string
}

type cfgPhone struct {
	accountSID string
	from       string
	to         string
	flowSID    string
}

func NewSMSChannel(cfg Config) *SMSChannel {
	return &SMSChannel{
		cfg: cfgPhone{
			accountSID: cfg.TwilioAccountSID,
			from:       cfg.TwilioFromPhone,
			to:         cfg.TwilioToPhone,
		},
		client:  newTwilioClient(cfg),
		baseURL: twilioAPIBase,
	}
}

func (c *SMSChannel) Kind() model.ChannelKind { return model.ChannelSMS }

func (c *SMSChannel) Send(ctx context.Context, n Notification) error {
	if c.cfg.accountSID == "" || c.cfg.to == "" {
		return fmt.Errorf("sms channel not configured")
	}

	url := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.cfg.accountSID)
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"From": c.cfg.from,
			"To":   c.cfg.to,
			"Body": n.Title + "\n" + n.Body,
		}).
		Post(url)
	if err != nil {
		return fmt.Errorf("error sending sms: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twilio messages returned status %d: %s", resp.StatusCode(), resp.String())
	}

	logger.WithFields(logger.Fields{
		"alert_id": n.AlertID,
		"to":       c.cfg.to,
	}).Info("alert sms sent")
	return nil
}

// VoiceChannel triggers a Twilio Studio flow execution, which places the
// actual phone call and reads the alert body out.
type VoiceChannel struct {
	cfg     cfgPhone
	client  *resty.Client
	baseURL string
}

func NewVoiceChannel(cfg Config) *VoiceChannel {
	return &VoiceChannel{
		cfg: cfgPhone{
			accountSID: cfg.TwilioAccountSID,
			from:       cfg.TwilioFromPhone,
			to:         cfg.TwilioToPhone,
			flowSID:    cfg.TwilioFlowSID,
		},
		client:  newTwilioClient(cfg),
		baseURL: twilioStudioBase,
	}
}

func (c *VoiceChannel) Kind() model.ChannelKind { return model.ChannelVoice }

func (c *VoiceChannel) Send(ctx context.Context, n Notification) error {
	if c.cfg.flowSID == "" || c.cfg.to == "" {
		return fmt.Errorf("voice channel not configured")
	}

	url := fmt.Sprintf("%s/Flows/%s/Executions", c.baseURL, c.cfg.flowSID)
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"From":       c.cfg.from,
			"To":         c.cfg.to,
			"Parameters": fmt.Sprintf(`{"message":%q}`, n.Title+". "+n.Body),
		}).
		Post(url)
	if err != nil {
		return fmt.Errorf("error starting voice flow: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twilio studio returned status %d: %s", resp.StatusCode(), resp.String())
	}

	logger.WithFields(logger.Fields{
		"alert_id": n.AlertID,
		"to":       c.cfg.to,
	}).Info("alert voice call placed")
	return nil
}
