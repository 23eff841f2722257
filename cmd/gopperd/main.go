// Command gopperd runs the device side of the framed command protocol: it
// opens a serial transport, registers the bootstrap command set, and polls
// for frames until interrupted.
//
// Grounded on host/cmd/gopper-host/main.go's flag-based CLI and connect
// sequence, adapted from a host-side interactive REPL to a device-side
// poll-loop daemon, and on librescoot-bluetooth-service/cmd/bluetooth-
// service/main.go's signal-handling/graceful-shutdown structure.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/klipper-proto/gopperd/pkg/codec"
	"github.com/klipper-proto/gopperd/pkg/dictionary"
	"github.com/klipper-proto/gopperd/pkg/dispatch"
	"github.com/klipper-proto/gopperd/pkg/firmware"
	"github.com/klipper-proto/gopperd/pkg/frame"
	"github.com/klipper-proto/gopperd/pkg/schema"
	"github.com/klipper-proto/gopperd/pkg/shutdown"
	"github.com/klipper-proto/gopperd/pkg/transport"
)

var (
	device       = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud         = flag.Int("baud", 250000, "Baud rate (ignored for USB CDC)")
	pollInterval = flag.Duration("poll-interval", 2*time.Millisecond, "Poll loop interval")
	verbose      = flag.Bool("verbose", false, "Enable debug-level logging")
)

const (
	firmwareVersion = "gopperd-0.1.0"
	buildVersions   = "go-" + "runtime"
)

func main() {
	flag.Parse()
	zerolog.TimeFieldFormat = time.RFC3339
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Str("device", *device).Int("baud", *baud).Msg("opening serial transport")
	port, err := transport.OpenSerial(transport.SerialConfig{
		Device: *device, Baud: *baud, ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open serial device")
	}
	defer port.Close()

	builder := schema.NewBuilder()
	state := firmware.NewState()
	if err := firmware.Register(builder, state); err != nil {
		log.Fatal().Err(err).Msg("failed to register command set")
	}
	table := builder.Freeze()

	dict := dictionary.New(table, firmwareVersion, buildVersions)
	state.SetDictionary(dict)

	framer := frame.New(func(msg string) { log.Debug().Msg(msg) })
	responder := firmware.NewResponder(framer, table, port)
	state.Bind(responder)

	resetCh := make(chan struct{}, 1)
	state.SetResetHandler(func() {
		log.Warn().Msg("reset requested, re-initializing protocol state")
		select {
		case resetCh <- struct{}{}:
		default:
		}
	})

	d := dispatch.New(framer, table, func(msg string) { log.Debug().Msg(msg) })
	d.SetShutdownReply(func(reason string) {
		_ = responder.Send("is_shutdown", func(e *codec.Encoder) { e.PutString(reason) })
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*pollInterval)
	defer ticker.Stop()

	log.Info().Msg("gopperd ready, polling for frames")
	for {
		select {
		case <-sigCh:
			log.Info().Msg("shutting down")
			return
		case <-resetCh:
			shutdown.Reset()
			framer.Reset()
			log.Info().Msg("protocol state reset")
		case <-ticker.C:
			d.Poll(port)
			state.CheckPendingReset()
		}
	}
}
