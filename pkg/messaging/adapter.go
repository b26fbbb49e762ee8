package messaging

import (
	"context"
)

type channelPublisher struct {
	broker  Broker
	channel string
}

// NewChannelPublisher binds broker to a single channel.
func NewChannelPublisher(broker Broker, channel string) Publisher {
	return &channelPublisher{broker: broker, channel: channel}
}

func (p *channelPublisher) Publish(ctx context.Context, payload interface{}) error {
	return p.broker.Publish(ctx, p.channel, payload)
}
