package broadcast

import (
	"time"
)

// Channel names observers can subscribe to. Unknown names in subscribe
// requests are silently ignored.
const (
	ChannelOrders        = "orders"
	ChannelKitchen       = "kitchen"
	ChannelTables        = "tables"
	ChannelNotifications = "notifications"
	ChannelMenu          = "menu"
	ChannelAnalytics     = "analytics"
)

// DefaultChannels are assigned to every observer on connect.
var DefaultChannels = []string{ChannelNotifications, ChannelKitchen, ChannelOrders}

var knownChannels = map[string]bool{
	ChannelOrders:        true,
	ChannelKitchen:       true,
	ChannelTables:        true,
	ChannelNotifications: true,
	ChannelMenu:          true,
	ChannelAnalytics:     true,
}

func KnownChannel(name string) bool {
	return knownChannels[name]
}

// Envelope is the wire format delivered to observers.
type Envelope struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

func newMessage(channel string, data interface{}) Envelope {
	now := time.Now()
	return Envelope{
		Type:      "message",
		Channel:   channel,
		Data:      data,
		Timestamp: &now,
	}
}

// Publisher fans a committed mutation out to every observer of a channel.
// Delivery is at-most-once and must never fail the triggering request.
type Publisher interface {
	Publish(channel string, data interface{})
}
