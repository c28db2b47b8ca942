package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ChannelKind identifies one notification transport.
type ChannelKind string

const (
	ChannelEmail ChannelKind = "EMAIL"
	ChannelSMS   ChannelKind = "SMS"
	ChannelVoice ChannelKind = "VOICE"
	ChannelSound ChannelKind = "SOUND"
)

// ChannelSet is an ordered, comma-persisted set of notification channels.
// It is stored as a plain TEXT column so threshold rows stay human-editable.
type ChannelSet []ChannelKind

func (cs ChannelSet) Value() (driver.Value, error) {
	if len(cs) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ","), nil
}

func (cs *ChannelSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*cs = nil
		return nil
	case string:
		*cs = parseChannelSet(v)
		return nil
	case []byte:
		*cs = parseChannelSet(string(v))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ChannelSet", value)
	}
}

func parseChannelSet(s string) ChannelSet {
	var out ChannelSet
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch ChannelKind(part) {
		case ChannelEmail, ChannelSMS, ChannelVoice, ChannelSound:
			out = append(out, ChannelKind(part))
		}
	}
	return out
}

// Contains reports whether the set includes the given channel.
func (cs ChannelSet) Contains(kind ChannelKind) bool {
	for _, c := range cs {
		if c == kind {
			return true
		}
	}
	return false
}
