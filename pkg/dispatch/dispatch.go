// Package dispatch implements the polled entrypoint (spec §4.5): one
// invocation drains at most one frame, looks up each embedded command by ID
// in the schema, invokes its handler with parsed arguments, and commits the
// frame.
package dispatch

import (
	"github.com/klipper-proto/gopperd/pkg/codec"
	"github.com/klipper-proto/gopperd/pkg/frame"
	"github.com/klipper-proto/gopperd/pkg/schema"
	"github.com/klipper-proto/gopperd/pkg/shutdown"
	"github.com/klipper-proto/gopperd/pkg/transport"
)

// Dispatcher wires a frame.Framer, a schema.Table, and a transport into the
// single poll entrypoint the external scheduler invokes repeatedly.
type Dispatcher struct {
	framer *frame.Framer
	table  *schema.Table
	log    func(string)

	// sendIsShutdown, if set, is used to reply is_shutdown to a
	// command skipped because the device is down. Optional: a firmware
	// that never registers is_shutdown leaves replies silent.
	sendIsShutdown func(reason string)
}

// New creates a Dispatcher.
func New(framer *frame.Framer, table *schema.Table, logger func(string)) *Dispatcher {
	if logger == nil {
		logger = func(string) {}
	}
	return &Dispatcher{framer: framer, table: table, log: logger}
}

// SetShutdownReply installs the callback invoked instead of a handler when
// a non-shutdown-safe command arrives while the device is down.
func (d *Dispatcher) SetShutdownReply(reply func(reason string)) {
	d.sendIsShutdown = reply
}

// Poll processes at most one frame, per §5's "large input backlogs are
// drained one frame per poll() so other tasks still run".
func (d *Dispatcher) Poll(t transport.Transport) {
	fr, ok := d.framer.TryReadFrame(t)
	if !ok {
		return
	}

	d.dispatchFrame(fr.Payload)
	d.framer.Consume(t, fr)
}

// dispatchFrame walks the commands embedded in one frame's payload,
// recovering a pkg/shutdown.Signal panic raised by any handler or by the
// codec itself — the same recover-around-handler idiom the teacher applies
// in protocol/transport.go's parseFrame, reused here as the mechanism that
// makes pkg/shutdown.Shutdown "not return" to its caller while still
// letting the dispatcher's own caller (the poll loop) keep running.
func (d *Dispatcher) dispatchFrame(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			if sig, ok := r.(shutdown.Signal); ok {
				d.log("dispatch: shutdown triggered: " + sig.Reason)
				return
			}
			panic(r)
		}
	}()

	p := payload
	for len(p) > 0 {
		cmdID := p[0]
		p = p[1:]

		parser, ok := d.table.Parser(cmdID)
		if !ok {
			shutdown.Shutdown("Invalid command")
		}

		args, consumed, outcome := codec.Parse(p, parser, d.sendIsShutdown)
		if outcome == codec.Skip {
			return
		}
		p = p[consumed:]

		if err := parser.Handler(args); err != nil {
			d.log("dispatch: handler " + parser.Name + ": " + err.Error())
		}
	}
}
