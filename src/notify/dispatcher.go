package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// AlertRecorder persists the dispatch outcome back onto the alert row.
type AlertRecorder interface {
	IncrementCounter(ctx context.Context, id string) error
	MarkTriggered(ctx context.Context, id string, at time.Time) error
}

// Dispatcher fans a graded alert out to its channels while enforcing the
// suppression rules: per-alert cooldown, channel-wide refractory windows for
// the expensive transports, and a global snooze. Voice gets one call per
// refractory window across ALL alerts; a storm of Highs becomes one call.
type Dispatcher struct {
	recorder AlertRecorder
	channels map[model.ChannelKind]Channel
	cfg      Config

	mu          sync.Mutex
	lastEmit    map[model.ChannelKind]time.Time
	snoozeUntil time.Time

	now func() time.Time
}

func NewDispatcher(recorder AlertRecorder, cfg Config, channels ...Channel) *Dispatcher {
	byKind := make(map[model.ChannelKind]Channel, len(channels))
	for _, c := range channels {
		byKind[c.Kind()] = c
	}
	return &Dispatcher{
		recorder: recorder,
		channels: byKind,
		cfg:      cfg,
		lastEmit: make(map[model.ChannelKind]time.Time),
		now:      time.Now,
	}
}

// Snooze silences all channels for the given window. A zero or negative
// duration lifts an active snooze.
func (d *Dispatcher) Snooze(duration time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if duration <= 0 {
		d.snoozeUntil = time.Time{}
		return
	}
	d.snoozeUntil = d.now().Add(duration)
	logger.WithFields(logger.Fields{"until": d.snoozeUntil}).Info("alert notifications snoozed")
}

// SnoozeRemaining returns how long the active snooze still runs, zero when
// none is active.
func (d *Dispatcher) SnoozeRemaining() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	remaining := d.snoozeUntil.Sub(d.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Dispatch emits notifications for one graded alert and returns how many
// channels confirmed delivery. Suppressed emits bump the alert counter but
// leave last_triggered alone; so does total transport failure, which keeps
// the alert eligible on the next cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, alert model.Alert, threshold *model.AlertThreshold) (int, error) {
	if alert.Level == model.LevelNormal {
		return 0, nil
	}
	now := d.now()

	if remaining := d.SnoozeRemaining(); remaining > 0 {
		logger.WithFields(logger.Fields{
			"alert_id":  alert.ID,
			"remaining": remaining.Round(time.Second),
		}).Info("notification suppressed by snooze")
		return 0, nil
	}

	if alert.LastTriggered != nil && now.Sub(*alert.LastTriggered) < d.cfg.Cooldown {
		if err := d.recorder.IncrementCounter(ctx, alert.ID); err != nil {
			return 0, err
		}
		logger.WithFields(logger.Fields{
			"alert_id": alert.ID,
			"level":    alert.Level,
		}).Info("notification suppressed by cooldown")
		return 0, nil
	}

	notification := BuildNotification(alert)

	sent := 0
	var failures []error
	for _, kind := range d.channelsFor(alert, threshold) {
		channel, ok := d.channels[kind]
		if !ok {
			logger.WithFields(logger.Fields{"channel": kind}).Warn("no transport registered for channel")
			continue
		}
		if suppressed, window := d.refractorySuppressed(kind, now); suppressed {
			logger.WithFields(logger.Fields{
				"alert_id": alert.ID,
				"channel":  kind,
				"window":   window,
			}).Info("notification suppressed by channel refractory")
			continue
		}

		if err := channel.Send(ctx, notification); err != nil {
			logger.WithFields(logger.Fields{"alert_id": alert.ID, "channel": kind}).
				WithError(err).Error("error sending notification")
			failures = append(failures, err)
			continue
		}
		d.recordEmit(kind, now)
		sent++
	}

	if sent == 0 {
		if len(failures) > 0 {
			return 0, errors.Join(failures...)
		}
		return 0, nil
	}

	if err := d.recorder.MarkTriggered(ctx, alert.ID, now); err != nil {
		return sent, err
	}
	return sent, nil
}

// channelsFor picks the channel set: the grading threshold's per-level
// configuration when one drove the evaluation, otherwise level defaults.
func (d *Dispatcher) channelsFor(alert model.Alert, threshold *model.AlertThreshold) []model.ChannelKind {
	var set model.ChannelSet
	if threshold != nil {
		set = threshold.ChannelsForLevel(alert.Level)
	}
	if len(set) == 0 {
		set = defaultChannels(alert.Level)
	}

	// At most one emit per channel per alert per cycle.
	seen := make(map[model.ChannelKind]bool, len(set))
	out := make([]model.ChannelKind, 0, len(set))
	for _, kind := range set {
		if seen[kind] {
			continue
		}
		seen[kind] = true
		out = append(out, kind)
	}
	return out
}

func defaultChannels(level model.Level) model.ChannelSet {
	switch level {
	case model.LevelHigh:
		return model.ChannelSet{model.ChannelSMS, model.ChannelVoice, model.ChannelSound}
	case model.LevelMedium:
		return model.ChannelSet{model.ChannelSMS}
	case model.LevelLow:
		return model.ChannelSet{model.ChannelEmail}
	default:
		return nil
	}
}

func (d *Dispatcher) refractorySuppressed(kind model.ChannelKind, now time.Time) (bool, time.Duration) {
	window := d.refractoryWindow(kind)
	if window <= 0 {
		return false, 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.lastEmit[kind]
	if !ok {
		return false, 0
	}
	return now.Sub(last) < window, window
}

func (d *Dispatcher) refractoryWindow(kind model.ChannelKind) time.Duration {
	switch kind {
	case model.ChannelVoice:
		return d.cfg.CallRefractory
	case model.ChannelSMS:
		return d.cfg.SMSRefractory
	default:
		return 0
	}
}

func (d *Dispatcher) recordEmit(kind model.ChannelKind, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastEmit[kind] = at
}
