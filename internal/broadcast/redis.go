package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/go-redis/redis/v8"
)

const redisChannelPrefix = "broadcast:"

// RedisPublisher routes envelopes through Redis pub/sub so multiple
// server instances share one observer population. Each instance runs a
// bridge that feeds its local hub from the Redis subscription.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(channel string, data interface{}) {
	if !KnownChannel(channel) {
		return
	}
	payload, err := json.Marshal(newMessage(channel, data))
	if err != nil {
		log.Printf("broadcast: failed to marshal envelope for %s: %v", channel, err)
		return
	}
	if err := p.rdb.Publish(context.Background(), redisChannelPrefix+channel, payload).Err(); err != nil {
		log.Printf("broadcast: redis publish to %s failed: %v", channel, err)
	}
}

// RunBridge forwards Redis-published envelopes into the local hub until
// the context is cancelled. Callers run it in its own goroutine.
func RunBridge(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.PSubscribe(ctx, redisChannelPrefix+"*")
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("broadcast: bad envelope on %s: %v", msg.Channel, err)
				continue
			}
			env.Channel = strings.TrimPrefix(msg.Channel, redisChannelPrefix)
			hub.deliver(env)
		}
	}
}
