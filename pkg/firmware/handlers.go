package firmware

import (
	"github.com/klipper-proto/gopperd/pkg/codec"
	"github.com/klipper-proto/gopperd/pkg/schema"
	"github.com/klipper-proto/gopperd/pkg/shutdown"
)

// configMoveCount mirrors core/commands.go's FirmwareState.moveCount: a
// fixed command-queue-depth constant Klipper's config response reports,
// with no analogue to a real stepper queue since motion control is out of
// scope here (see DESIGN.md).
const configMoveCount = 16

// Register installs the bootstrap command set into b in the exact order
// Klipper's host driver requires — identify_response then identify first,
// so they land on the hardcoded IDs 0 and 1 — followed by the rest of the
// core command set, grounded on core/commands.go's InitCoreCommands.
//
// A responder must be set on the registered handlers before any frame is
// dispatched; callers build the schema.Table from b, construct a
// pkg/firmware.Responder around it, then call Bind so handlers can send
// responses.
func Register(b *schema.Builder, st *State) error {
	h := &handlerSet{state: st}

	if _, err := b.RegisterEncoder("identify_response",
		[]schema.ParamType{schema.PTUint32, schema.PTBuffer}, 64); err != nil {
		return err
	}
	if _, err := b.RegisterParser("identify",
		[]schema.ParamType{schema.PTUint32, schema.PTByte}, schema.FlagInShutdown, h.identify); err != nil {
		return err
	}

	if _, err := b.RegisterEncoder("uptime",
		[]schema.ParamType{schema.PTUint32, schema.PTUint32}, 16); err != nil {
		return err
	}
	if _, err := b.RegisterParser("get_uptime", nil, schema.FlagInShutdown, h.getUptime); err != nil {
		return err
	}

	if _, err := b.RegisterEncoder("clock", []schema.ParamType{schema.PTUint32}, 8); err != nil {
		return err
	}
	if _, err := b.RegisterParser("get_clock", nil, schema.FlagInShutdown, h.getClock); err != nil {
		return err
	}

	if _, err := b.RegisterEncoder("config",
		[]schema.ParamType{schema.PTByte, schema.PTUint32, schema.PTByte, schema.PTUint16}, 16); err != nil {
		return err
	}
	if _, err := b.RegisterParser("get_config", nil, schema.FlagInShutdown, h.getConfig); err != nil {
		return err
	}
	if _, err := b.RegisterParser("config_reset", nil, schema.FlagNone, h.configReset); err != nil {
		return err
	}
	if _, err := b.RegisterParser("finalize_config",
		[]schema.ParamType{schema.PTUint32}, schema.FlagNone, h.finalizeConfig); err != nil {
		return err
	}
	if _, err := b.RegisterParser("allocate_oids",
		[]schema.ParamType{schema.PTByte}, schema.FlagNone, h.allocateOids); err != nil {
		return err
	}

	if _, err := b.RegisterParser("emergency_stop", nil, schema.FlagInShutdown, h.emergencyStop); err != nil {
		return err
	}
	if _, err := b.RegisterParser("reset", nil, schema.FlagInShutdown, h.reset); err != nil {
		return err
	}

	if _, err := b.RegisterEncoder("debug_result", []schema.ParamType{schema.PTUint32}, 8); err != nil {
		return err
	}
	if _, err := b.RegisterParser("debug_read",
		[]schema.ParamType{schema.PTByte, schema.PTUint32}, schema.FlagNone, h.debugRead); err != nil {
		return err
	}

	if _, err := b.RegisterEncoder("is_shutdown", []schema.ParamType{schema.PTString}, 64); err != nil {
		return err
	}

	st.handlers = h
	return nil
}

// Bind gives the handler set a Responder to send replies through, once the
// schema table has been frozen and a frame layer/output transport exist.
// Two-phase because the handlers must be registered (and thus the table
// frozen) before a Responder referencing that table can be built.
func (s *State) Bind(r *Responder) {
	s.handlers.responder = r
}

type handlerSet struct {
	state     *State
	responder *Responder
}

func (h *handlerSet) identify(args []schema.Arg) error {
	offset := uint32(args[0].Int)
	count := uint8(args[1].Int)

	var chunk []byte
	if h.state.dict != nil {
		chunk = h.state.dict.Chunk(offset, count)
	}

	return h.responder.Send("identify_response", func(e *codec.Encoder) {
		e.PutUint32(offset)
		e.PutBuffer(chunk)
	})
}

func (h *handlerSet) getUptime(args []schema.Arg) error {
	high, low := h.state.Uptime()
	return h.responder.Send("uptime", func(e *codec.Encoder) {
		e.PutUint32(high)
		e.PutUint32(low)
	})
}

func (h *handlerSet) getClock(args []schema.Arg) error {
	clock := h.state.Clock()
	return h.responder.Send("clock", func(e *codec.Encoder) {
		e.PutUint32(clock)
	})
}

func (h *handlerSet) getConfig(args []schema.Arg) error {
	crc := h.state.configCRCValue()
	isConfig := byte(0)
	if crc != 0 {
		isConfig = 1
	}
	isShutdown := byte(0)
	if shutdown.IsShutdown() {
		isShutdown = 1
	}
	return h.responder.Send("config", func(e *codec.Encoder) {
		e.PutByte(isConfig)
		e.PutUint32(crc)
		e.PutByte(isShutdown)
		e.PutUint16(configMoveCount)
	})
}

func (h *handlerSet) configReset(args []schema.Arg) error {
	h.state.resetConfig()
	return nil
}

func (h *handlerSet) finalizeConfig(args []schema.Arg) error {
	h.state.setConfigCRC(uint32(args[0].Int))
	return nil
}

func (h *handlerSet) allocateOids(args []schema.Arg) error {
	return nil
}

func (h *handlerSet) emergencyStop(args []schema.Arg) error {
	shutdown.Shutdown("emergency stop")
	return nil
}

func (h *handlerSet) reset(args []schema.Arg) error {
	h.state.markResetPending()
	return nil
}

func (h *handlerSet) debugRead(args []schema.Arg) error {
	order := uint32(args[0].Int)
	addr := uint32(args[1].Int)
	val := h.state.debugMem.Read(order, addr)
	return h.responder.Send("debug_result", func(e *codec.Encoder) {
		e.PutUint32(val)
	})
}
