// Package schema implements the immutable, read-only parser/encoder tables
// the command codec and dispatcher consume. A Builder assembles the tables
// once at process start from a firmware's Register* calls; Freeze returns a
// Table with no exported mutator, realizing the spec's "schema is
// compile-time-populated, read-only" requirement in a language with no
// build-time code generation step wired into this repo.
package schema

import "fmt"

// ParamType enumerates the argument types a parser or encoder entry can
// carry, per the wire format's argument type enumeration.
type ParamType uint8

const (
	PTUint32 ParamType = iota
	PTInt32
	PTUint16
	PTInt16
	PTByte
	PTString
	PTBuffer
	PTProgmemBuffer
)

// ParserFlag carries per-command behavior flags. Only InShutdown is defined
// by the spec: a command whose parser flags include it is safe to dispatch
// even while the device is in shutdown state.
type ParserFlag uint8

const (
	FlagNone       ParserFlag = 0
	FlagInShutdown ParserFlag = 1 << iota
)

// Handler is invoked by the dispatcher once a command's arguments have been
// parsed. args holds one Arg per entry of ParamTypes, in order; a
// buffer/progmem_buffer argument carries its length in Int and its data in
// Bytes within that single Arg.
type Handler func(args []Arg) error

// Arg is one decoded argument. Int holds a scalar value, or the length of a
// buffer argument; Bytes is set only for buffer arguments.
type Arg struct {
	Int   int32
	Bytes []byte // valid for PTBuffer / PTProgmemBuffer
}

// Parser describes one command the device can parse and dispatch.
type Parser struct {
	MsgID      uint8
	Name       string
	ParamTypes []ParamType
	Flags      ParserFlag
	Handler    Handler
}

// NumArgs returns the decoded-argument-vector length to allocate for this
// parser. A buffer/progmem_buffer parameter's length and bytes share one
// Arg, so NumArgs equals len(ParamTypes).
func (p *Parser) NumArgs() int { return len(p.ParamTypes) }

// Encoder describes one response message the device can emit.
type Encoder struct {
	MsgID      uint8
	Name       string
	ParamTypes []ParamType
	MaxSize    int
}

// Table is the frozen, read-only schema the codec and dispatcher consume.
type Table struct {
	parsers  []*Parser // indexed by MsgID; nil entry means unregistered
	encoders map[string]*Encoder
}

// Parser looks up a parser entry by message ID. ok is false for an
// out-of-range or unregistered ID — the dispatcher's "schema[cmdid] is
// null" case.
func (t *Table) Parser(msgID uint8) (*Parser, bool) {
	if int(msgID) >= len(t.parsers) {
		return nil, false
	}
	p := t.parsers[msgID]
	return p, p != nil
}

// EncoderByName looks up an encoder entry by response name, the convention
// SendResponse-style callers use (mirrors the teacher's
// GetCommandByName/SendResponse pairing).
func (t *Table) EncoderByName(name string) (*Encoder, bool) {
	e, ok := t.encoders[name]
	return e, ok
}

// Size returns the parser table size (schema.size in the spec's dispatcher
// bounds check).
func (t *Table) Size() int { return len(t.parsers) }

// Names returns every registered parser and encoder name and its numeric
// ID, for pkg/dictionary to build the host-facing dictionary from.
func (t *Table) Names() (commands map[string]int, responses map[string]int) {
	commands = make(map[string]int)
	responses = make(map[string]int)
	for _, p := range t.parsers {
		if p != nil {
			commands[p.Name] = int(p.MsgID)
		}
	}
	for _, e := range t.encoders {
		responses[e.Name] = int(e.MsgID)
	}
	return commands, responses
}

// Builder assembles a Table. It is mutable only during the registration
// phase; once Freeze is called the returned Table has no path back to
// mutation.
type Builder struct {
	nextID   uint8
	parsers  []*Parser
	encoders map[string]*Encoder
	byName   map[string]bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{encoders: make(map[string]*Encoder), byName: make(map[string]bool)}
}

// RegisterParser registers a command the device can parse and dispatch,
// assigning it the next sequential message ID. Registration order matters:
// callers must register identify_response then identify first to preserve
// Klipper's hardcoded bootstrap IDs 0 and 1 (see pkg/firmware).
func (b *Builder) RegisterParser(name string, paramTypes []ParamType, flags ParserFlag, handler Handler) (uint8, error) {
	if b.byName[name] {
		return 0, fmt.Errorf("schema: %q already registered", name)
	}
	id := b.nextID
	b.nextID++
	for len(b.parsers) <= int(id) {
		b.parsers = append(b.parsers, nil)
	}
	b.parsers[id] = &Parser{
		MsgID: id, Name: name, ParamTypes: paramTypes, Flags: flags, Handler: handler,
	}
	b.byName[name] = true
	return id, nil
}

// RegisterEncoder registers a response message the device can emit. maxSize
// bounds the encoded payload; exceeding it is a fatal "Message encode
// error" shutdown per the spec's error table.
func (b *Builder) RegisterEncoder(name string, paramTypes []ParamType, maxSize int) (uint8, error) {
	if b.byName[name] {
		return 0, fmt.Errorf("schema: %q already registered", name)
	}
	id := b.nextID
	b.nextID++
	b.encoders[name] = &Encoder{MsgID: id, Name: name, ParamTypes: paramTypes, MaxSize: maxSize}
	b.byName[name] = true
	return id, nil
}

// Freeze returns the immutable Table built so far. The Builder remains
// usable afterward only by convention of this repo's single call site
// (cmd/gopperd's main) never calling it twice; Table itself exposes no
// mutator regardless.
func (b *Builder) Freeze() *Table {
	parsers := make([]*Parser, len(b.parsers))
	copy(parsers, b.parsers)
	encoders := make(map[string]*Encoder, len(b.encoders))
	for k, v := range b.encoders {
		encoders[k] = v
	}
	return &Table{parsers: parsers, encoders: encoders}
}
