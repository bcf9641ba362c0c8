package broadcast

import (
	"log"
	"sync"
)

const clientBuffer = 32

// Client is one connected observer. Envelopes queued past the buffer
// are dropped rather than blocking the publisher.
type Client struct {
	send chan Envelope
}

// Out returns the stream the connection's write loop drains.
func (c *Client) Out() <-chan Envelope {
	return c.send
}

// Send queues a control envelope (subscribed/unsubscribed/pong) so it
// shares the write path with broadcast messages.
func (c *Client) Send(env Envelope) {
	select {
	case c.send <- env:
	default:
		log.Printf("broadcast: dropping control message for slow observer")
	}
}

// Hub is the in-process fanout: a subscriber set per named channel.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]bool
}

func NewHub() *Hub {
	channels := make(map[string]map[*Client]bool, len(knownChannels))
	for name := range knownChannels {
		channels[name] = make(map[*Client]bool)
	}
	return &Hub{channels: channels}
}

// Register creates a client subscribed to the default channels.
func (h *Hub) Register() *Client {
	client := &Client{send: make(chan Envelope, clientBuffer)}
	h.mu.Lock()
	for _, name := range DefaultChannels {
		h.channels[name][client] = true
	}
	h.mu.Unlock()
	return client
}

// Unregister removes the client from every channel and closes its stream.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	for _, subscribers := range h.channels {
		delete(subscribers, client)
	}
	h.mu.Unlock()
	close(client.send)
}

// Subscribe adds the client to a channel. Unknown channels are ignored
// and reported as false.
func (h *Hub) Subscribe(client *Client, channel string) bool {
	if !KnownChannel(channel) {
		return false
	}
	h.mu.Lock()
	h.channels[channel][client] = true
	h.mu.Unlock()
	return true
}

func (h *Hub) Unsubscribe(client *Client, channel string) bool {
	if !KnownChannel(channel) {
		return false
	}
	h.mu.Lock()
	delete(h.channels[channel], client)
	h.mu.Unlock()
	return true
}

// SubscriberCount reports how many observers a channel currently has.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Publish delivers data to every observer of the channel, best-effort.
func (h *Hub) Publish(channel string, data interface{}) {
	if !KnownChannel(channel) {
		return
	}
	h.deliver(newMessage(channel, data))
}

func (h *Hub) deliver(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.channels[env.Channel] {
		select {
		case client.send <- env:
		default:
			// Slow observer: drop for this client, keep going for the rest.
			log.Printf("broadcast: dropping %s message for slow observer", env.Channel)
		}
	}
}
