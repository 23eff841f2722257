// Package telemetry republishes decoded device responses onto a Redis
// channel as CBOR, so a separate host-side process can observe uptime/
// clock/config/debug_result traffic without itself speaking the frame
// protocol.
//
// Grounded on librescoot-bluetooth-service/pkg/service/helpers.go's
// writeUARTMessage (one CBOR-encoded map built per message, keyed by
// message kind) and pkg/redis/client.go's Publish wrapper — generalized
// from that repo's fixed BLE MessageType/SubType key scheme to a plain
// string response name, since this protocol's response set is schema-
// driven rather than a fixed BLE characteristic table.
package telemetry

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// Reading is one decoded response ready to publish.
type Reading struct {
	Response string                 `cbor:"response"`
	Fields   map[string]interface{} `cbor:"fields"`
}

// Publisher republishes Readings to a Redis channel as CBOR payloads.
type Publisher struct {
	client  *redis.Client
	channel string
	log     func(string)
}

// New creates a Publisher against addr, publishing to channel.
func New(addr, password string, db int, channel string, logger func(string)) *Publisher {
	if logger == nil {
		logger = func(string) {}
	}
	return &Publisher{
		client:  redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		channel: channel,
		log:     logger,
	}
}

// Ping verifies the Redis connection is reachable, mirroring the teacher's
// connect-time Ping check in pkg/redis.New.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish CBOR-encodes r and publishes it to the configured channel.
func (p *Publisher) Publish(ctx context.Context, r Reading) error {
	data, err := cbor.Marshal(r)
	if err != nil {
		return fmt.Errorf("telemetry: marshal %s: %w", r.Response, err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("telemetry: publish %s: %w", r.Response, err)
	}
	p.log(fmt.Sprintf("telemetry: published %s (%d bytes)", r.Response, len(data)))
	return nil
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
