// Package serialbus implements the sefc.Bus register window over a serial
// debug monitor: a target-resident stub that peeks and pokes 32-bit words on
// request.
//
// # Wire Protocol
//
// Each request is a single frame:
//
//	Read:  ['R'][ADDR(4, LE)][XOR]
//	Write: ['W'][ADDR(4, LE)][VALUE(4, LE)][XOR]
//
// where XOR is the exclusive-or of all preceding frame bytes. The monitor
// answers with ACK (0x79) followed, for reads, by the 4-byte little-endian
// value; NACK (0x1F) rejects the request.
//
// # Usage
//
//	bus, err := serialbus.Open("/dev/ttyUSB0", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Close()
//	drv, err := flashd.New(bus, sefc.PIC32CX2051MTG(),
//	    flashd.WithWaitTimeout(5*time.Second))
//
// The core works against any io.ReadWriter (see New), so tests and other
// transports can substitute the serial port.
package serialbus
