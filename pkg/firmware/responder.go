package firmware

import (
	"fmt"

	"github.com/klipper-proto/gopperd/pkg/codec"
	"github.com/klipper-proto/gopperd/pkg/frame"
	"github.com/klipper-proto/gopperd/pkg/schema"
	"github.com/klipper-proto/gopperd/pkg/transport"
)

// Responder sends a named response message, looking up its Encoder entry in
// the schema by name and building the payload via a codec.Encoder. This is
// the strongly typed replacement the spec's Design Notes call for in place
// of a variadic encode call, and mirrors the teacher's SendResponse/
// GetCommandByName pairing in core/commands.go — generalized off the global
// registry/transport the teacher uses so multiple Responders (and tests)
// can coexist.
type Responder struct {
	framer *frame.Framer
	table  *schema.Table
	out    transport.Transport
}

// NewResponder builds a Responder bound to one frame layer, schema, and
// output transport.
func NewResponder(framer *frame.Framer, table *schema.Table, out transport.Transport) *Responder {
	return &Responder{framer: framer, table: table, out: out}
}

// Send encodes and transmits the named response. It panics with
// pkg/shutdown.Signal (via codec.Encoder) if the response exceeds its
// declared max size, matching the spec's fatal "Message encode error".
func (r *Responder) Send(name string, build func(e *codec.Encoder)) error {
	enc, ok := r.table.EncoderByName(name)
	if !ok {
		return fmt.Errorf("firmware: response %q not registered", name)
	}
	e := codec.NewEncoder(enc)
	e.PutRawByte(enc.MsgID)
	if build != nil {
		build(e)
	}
	r.framer.Send(r.out, enc.MaxSize+1, e.Bytes())
	return nil
}
