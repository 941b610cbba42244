package sefc

// Bus is the hardware boundary of the driver: word access to the target's
// physical address space, covering both the controller register windows and
// the flash read/write windows.
//
// The flash write path tolerates only 32-bit accesses; narrower stores corrupt
// the page buffer. Bus therefore exposes word operations only.
//
// Implementations may be a direct memory mapping, a debug-probe transport or a
// simulated device. Accesses through remote transports can fail, hence the
// error returns; memory-mapped implementations simply return nil.
//
// A Bus is used by at most one Driver at a time and does not need to be safe
// for concurrent use.
type Bus interface {
	// Read32 reads the 32-bit word at the given byte address.
	Read32(addr uint32) (uint32, error)

	// Write32 writes a 32-bit word to the given byte address.
	Write32(addr uint32, value uint32) error
}

// IAPFunc is the in-ROM In-Application-Programming trampoline: an opaque
// routine at a fixed ROM address that issues one command word to the selected
// bank's command register and loops internally until the controller is ready
// again. It is used instead of the direct register path when the executing
// code itself lives in the flash being modified.
//
// The returned value is the trampoline's own status word; the driver ignores
// it and samples the status register afterwards, matching the ROM contract.
type IAPFunc func(bank int, commandWord uint32) uint32
