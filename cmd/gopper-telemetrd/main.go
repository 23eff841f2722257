// Command gopper-telemetrd taps a live serial connection to a running
// device, decodes its response traffic, and republishes each response to
// Redis as CBOR so other host-side processes can observe protocol
// telemetry without themselves speaking the frame format.
//
// Grounded on librescoot-bluetooth-service/cmd/bluetooth-service/main.go's
// flag layout and Redis-connect sequence.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/klipper-proto/gopperd/pkg/frame"
	"github.com/klipper-proto/gopperd/pkg/telemetry"
	"github.com/klipper-proto/gopperd/pkg/transport"
	"github.com/klipper-proto/gopperd/pkg/vlq"
)

var (
	serialDevice = flag.String("serial", "/dev/ttyACM0", "Serial device path to tap")
	baudRate     = flag.Int("baud", 250000, "Serial baud rate")
	redisAddr    = flag.String("redis-addr", "localhost:6379", "Redis server address")
	redisPass    = flag.String("redis-pass", "", "Redis password")
	redisDB      = flag.Int("redis-db", 0, "Redis database number")
	redisChannel = flag.String("redis-channel", "gopperd:telemetry", "Redis channel to publish on")
)

func main() {
	flag.Parse()
	zerolog.TimeFieldFormat = time.RFC3339

	pub := telemetry.New(*redisAddr, *redisPass, *redisDB, *redisChannel,
		func(msg string) { log.Debug().Msg(msg) })
	defer pub.Close()

	ctx := context.Background()
	if err := pub.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	log.Info().Str("addr", *redisAddr).Msg("connected to Redis")

	port, err := transport.OpenSerial(transport.SerialConfig{
		Device: *serialDevice, Baud: *baudRate, ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open serial device")
	}
	defer port.Close()

	framer := frame.New(func(msg string) { log.Debug().Msg(msg) })

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	log.Info().Str("device", *serialDevice).Msg("gopper-telemetrd watching for responses")
	for {
		select {
		case <-sigCh:
			log.Info().Msg("shutting down")
			return
		case <-ticker.C:
			fr, ok := framer.TryReadFrame(port)
			if !ok {
				continue
			}
			publishFrame(ctx, pub, fr.Payload)
			framer.Consume(port, fr)
		}
	}
}

// publishFrame reports the leading message ID and a best-effort VLQ decode
// of whatever follows it as a single reading. It cannot reliably walk
// multiple commands packed into one frame the way the device's own
// dispatcher does, since that requires the schema's per-command argument
// counts, which this standalone tap process does not have — so it treats
// the whole frame payload as one message and republishes the decoded values
// as raw_args.
func publishFrame(ctx context.Context, pub *telemetry.Publisher, payload []byte) {
	if len(payload) == 0 {
		return
	}
	msgID := payload[0]
	cursor := payload[1:]

	var args []uint32
	for len(cursor) > 0 {
		v, err := vlq.DecodeUint32(&cursor)
		if err != nil {
			break
		}
		args = append(args, v)
	}

	if err := pub.Publish(ctx, telemetry.Reading{
		Response: responseName(msgID),
		Fields:   map[string]interface{}{"msg_id": msgID, "raw_args": args},
	}); err != nil {
		log.Warn().Err(err).Msg("publish failed")
	}
}

func responseName(msgID byte) string {
	switch msgID {
	case 0:
		return "identify_response"
	default:
		return "response"
	}
}
