package serialbus

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Wire protocol constants.
const (
	// cmdRead requests a 32-bit read
	cmdRead = 'R'

	// cmdWrite requests a 32-bit write
	cmdWrite = 'W'

	// Ack is the monitor's positive response
	Ack = 0x79

	// Nack is the monitor's rejection response
	Nack = 0x1F
)

// Bus talks the debug-monitor protocol over any byte stream and implements
// sefc.Bus. Requests are serialized internally.
type Bus struct {
	mu   sync.Mutex
	rw   io.ReadWriter
	port serial.Port
}

// New returns a Bus over an existing byte stream. The caller keeps
// ownership of rw.
func New(rw io.ReadWriter) *Bus {
	if rw == nil {
		panic("serialbus: stream cannot be nil")
	}
	return &Bus{rw: rw}
}

// Open opens the named serial port at the given baud rate and returns a Bus
// owning it. Close releases the port.
func Open(portName string, baudRate int) (*Bus, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	// Bounded reads so a dead monitor surfaces as an error instead of a
	// hung process.
	if err := port.SetReadTimeout(2 * time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Bus{rw: port, port: port}, nil
}

// Close closes the underlying serial port, if the Bus owns one.
func (b *Bus) Close() error {
	if b.port != nil {
		return b.port.Close()
	}
	return nil
}

// Read32 implements sefc.Bus.
func (b *Bus) Read32(addr uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frame := make([]byte, 0, 6)
	frame = append(frame, cmdRead)
	frame = binary.LittleEndian.AppendUint32(frame, addr)
	frame = append(frame, xorChecksum(frame))

	if _, err := b.rw.Write(frame); err != nil {
		return 0, fmt.Errorf("read 0x%08X: %w", addr, err)
	}
	if err := b.readAck(); err != nil {
		return 0, fmt.Errorf("read 0x%08X: %w", addr, err)
	}
	var value [4]byte
	if _, err := io.ReadFull(b.rw, value[:]); err != nil {
		return 0, fmt.Errorf("read 0x%08X: %w", addr, err)
	}
	return binary.LittleEndian.Uint32(value[:]), nil
}

// Write32 implements sefc.Bus.
func (b *Bus) Write32(addr uint32, value uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frame := make([]byte, 0, 10)
	frame = append(frame, cmdWrite)
	frame = binary.LittleEndian.AppendUint32(frame, addr)
	frame = binary.LittleEndian.AppendUint32(frame, value)
	frame = append(frame, xorChecksum(frame))

	if _, err := b.rw.Write(frame); err != nil {
		return fmt.Errorf("write 0x%08X: %w", addr, err)
	}
	if err := b.readAck(); err != nil {
		return fmt.Errorf("write 0x%08X: %w", addr, err)
	}
	return nil
}

func (b *Bus) readAck() error {
	var res [1]byte
	if _, err := io.ReadFull(b.rw, res[:]); err != nil {
		return fmt.Errorf("read ack: %w", err)
	}
	switch res[0] {
	case Ack:
		return nil
	case Nack:
		return fmt.Errorf("monitor returned NACK")
	default:
		return fmt.Errorf("unknown response 0x%02X", res[0])
	}
}

func xorChecksum(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
	}
	return crc
}
