package notify

import (
	"context"
	"fmt"
	"os/exec"

	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// SoundChannel plays a local audio file through an external player binary.
// No network hop involved, so os/exec is the whole transport.
type SoundChannel struct {
	player string
	file   string
	run    func(ctx context.Context, player, file string) error
}

func NewSoundChannel(cfg Config) *SoundChannel {
	return &SoundChannel{
		player: cfg.SoundPlayer,
		file:   cfg.SoundFile,
		run: func(ctx context.Context, player, file string) error {
			return exec.CommandContext(ctx, player, file).Run()
		},
	}
}

func (c *SoundChannel) Kind() model.ChannelKind { return model.ChannelSound }

func (c *SoundChannel) Send(ctx context.Context, n Notification) error {
	if err := c.run(ctx, c.player, c.file); err != nil {
		return fmt.Errorf("error playing alert sound: %w", err)
	}
	logger.WithFields(logger.Fields{
		"alert_id": n.AlertID,
		"file":     c.file,
	}).Info("alert sound played")
	return nil
}
