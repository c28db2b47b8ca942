package notify

import (
	"context"
	"fmt"

	"riskwatch/src/model"
)

// Notification is the channel-agnostic payload the dispatcher hands to a
// transport. Channels know their own recipients from config; the dispatcher
// knows nothing about HTTP, SMTP, or audio devices.
type Notification struct {
	AlertID string
	Level   model.Level
	Title   string
	Body    string
}

// Channel is one notification transport. Send returns nil only on confirmed
// hand-off; the dispatcher treats any error as "not delivered" and leaves the
// alert eligible for the next cycle.
type Channel interface {
	Kind() model.ChannelKind
	Send(ctx context.Context, n Notification) error
}

// BuildNotification renders an alert into a transport payload.
func BuildNotification(a model.Alert) Notification {
	value := 0.0
	if a.EvaluatedValue != nil {
		value = *a.EvaluatedValue
	}

	return Notification{
		AlertID: a.ID,
		Level:   a.Level,
		Title:   fmt.Sprintf("[%s] %s %s", a.Level, a.Asset, a.AlertType),
		Body: fmt.Sprintf("%s: %s is at %.4f (trigger %.4f, condition %s)",
			a.Level, a.Description, value, a.TriggerValue, a.Condition),
	}
}
