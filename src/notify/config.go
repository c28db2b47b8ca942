package notify

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Cooldown is the minimum delay between emits per alert id.
	Cooldown time.Duration `envconfig:"ALERT_COOLDOWN" default:"900s"`
	// CallRefractory bounds voice calls system-wide: one call per window,
	// across all alerts.
	CallRefractory time.Duration `envconfig:"CALL_REFRACTORY_PERIOD" default:"3600s"`
	// SMSRefractory bounds SMS channel-wide; zero means "same as cooldown".
	SMSRefractory time.Duration `envconfig:"SMS_REFRACTORY_PERIOD" default:"0s"`

	// Twilio credentials, env-only by design.
	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFlowSID    string `envconfig:"TWILIO_FLOW_SID"`
	TwilioFromPhone  string `envconfig:"TWILIO_FROM_PHONE"`
	TwilioToPhone    string `envconfig:"TWILIO_TO_PHONE"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	EmailFrom    string `envconfig:"ALERT_EMAIL_FROM"`
	EmailTo      string `envconfig:"ALERT_EMAIL_TO"`

	SoundPlayer string `envconfig:"SOUND_PLAYER" default:"aplay"`
	SoundFile   string `envconfig:"SOUND_FILE" default:"assets/alert.wav"`

	HTTPTimeout time.Duration `envconfig:"NOTIFY_HTTP_TIMEOUT" default:"30s"`
	HTTPRetries int           `envconfig:"NOTIFY_HTTP_RETRIES" default:"3"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	if config.SMSRefractory <= 0 {
		config.SMSRefractory = config.Cooldown
	}
	return config
}
