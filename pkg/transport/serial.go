package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialConfig configures a Serial transport.
type SerialConfig struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultSerialConfig matches the teacher's host CLI defaults.
func DefaultSerialConfig(device string) SerialConfig {
	return SerialConfig{Device: device, Baud: 250000, ReadTimeout: 100 * time.Millisecond}
}

// Serial is a Transport backed by a real serial port, grounded on
// host/serial/serial_native.go's NativePort. Incoming bytes are read by a
// background goroutine into an input ring so Peek/Pop never block; outgoing
// bytes are written straight through on Commit since tarm/serial's Write
// already blocks until accepted by the OS.
type Serial struct {
	port *serial.Port

	mu sync.Mutex
	in ring

	reserveBuf []byte
	reserved   int

	closeCh chan struct{}
}

// OpenSerial opens the named device and starts the background reader.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open serial port %s: %w", cfg.Device, err)
	}

	s := &Serial{
		port:    port,
		in:      newRing(4096),
		closeCh: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *Serial) readLoop() {
	buf := make([]byte, 256)
	for {
		select {
		case <-s.closeCh:
			return
		default:
		}
		n, err := s.port.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.in.write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			// Read timeouts are expected (ReadTimeout is set). No read
			// error ends the loop; it stops only once Close has been called.
			select {
			case <-s.closeCh:
				return
			default:
			}
		}
	}
}

// Peek implements Transport.
func (s *Serial) Peek() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.in.data()
}

// Pop implements Transport.
func (s *Serial) Pop(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.in.pop(n)
}

// Reserve implements Transport. Serial output has no size ceiling beyond
// what the caller asks for, since the OS write buffer absorbs it.
func (s *Serial) Reserve(n int) ([]byte, bool) {
	if cap(s.reserveBuf) < n {
		s.reserveBuf = make([]byte, n)
	}
	s.reserved = n
	return s.reserveBuf[:n], true
}

// Commit implements Transport: writes the first n reserved bytes straight
// to the port.
func (s *Serial) Commit(n int) {
	if n > s.reserved {
		n = s.reserved
	}
	if n == 0 {
		return
	}
	_, _ = s.port.Write(s.reserveBuf[:n])
	s.reserved = 0
}

// Close stops the reader goroutine and closes the underlying port.
func (s *Serial) Close() error {
	close(s.closeCh)
	return s.port.Close()
}
