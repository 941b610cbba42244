package flashos

import (
	"bytes"
	"context"

	"github.com/CristianGuemes/go-flashd/flashd"
)

// Status codes of the debug-algorithm contract. There is no richer taxonomy:
// every internal failure maps to StatusFailed.
const (
	StatusOK     uint32 = 0
	StatusFailed uint32 = 1
)

// Function codes passed by the debugger to Init and UnInit.
const (
	FuncErase   = 1
	FuncProgram = 2
	FuncVerify  = 3
)

// GPNVM boot-mode configuration bits set during Init.
const (
	gpnvmBootMode0 = 5
	gpnvmBootMode1 = 6
)

// Algorithm implements the debugger flash-algorithm contract on top of a
// flashd.Driver. Its methods never panic on debugger-supplied addresses;
// anything out of range is a StatusFailed.
type Algorithm struct {
	drv     *flashd.Driver
	dev     Device
	base    uint32
	lastErr error
}

// NewAlgorithm returns an Algorithm for the given driver and device
// descriptor.
func NewAlgorithm(drv *flashd.Driver, dev Device) *Algorithm {
	if drv == nil {
		panic("flashos: driver cannot be nil")
	}
	return &Algorithm{drv: drv, dev: dev}
}

// LastError returns the driver error behind the most recent StatusFailed,
// or nil once a later operation has succeeded. The debugger contract has no
// richer channel for diagnostics.
func (a *Algorithm) LastError() error {
	return a.lastErr
}

// Init prepares the device for the given function code. It initializes the
// driver, programs the GPNVM boot-mode bits and records the device base
// address for EraseChip.
func (a *Algorithm) Init(ctx context.Context, addr, clk uint32, fn int) uint32 {
	a.lastErr = nil
	if err := a.drv.Initialize(ctx); err != nil {
		return a.fail(err)
	}
	if err := a.drv.SetGPNVM(ctx, gpnvmBootMode0); err != nil {
		return a.fail(err)
	}
	if err := a.drv.SetGPNVM(ctx, gpnvmBootMode1); err != nil {
		return a.fail(err)
	}
	a.base = addr
	return StatusOK
}

// UnInit releases the device after the given function code. Nothing is held
// between operations, so it always succeeds.
func (a *Algorithm) UnInit(ctx context.Context, fn int) uint32 {
	return StatusOK
}

// EraseChip erases the complete flash memory.
func (a *Algorithm) EraseChip(ctx context.Context) uint32 {
	a.lastErr = nil
	if err := a.drv.EraseChip(ctx, a.base); err != nil {
		return a.fail(err)
	}
	return StatusOK
}

// EraseSector erases the sector containing addr, unlocking its full address
// range first.
func (a *Algorithm) EraseSector(ctx context.Context, addr uint32) uint32 {
	a.lastErr = nil
	addr &= a.dev.AddressMask
	sector, ok := a.dev.SectorAt(addr - a.dev.Base)
	if !ok {
		return StatusFailed
	}
	start := a.dev.Base + sector.Offset
	if _, _, err := a.drv.Unlock(ctx, start, start+sector.Size); err != nil {
		return a.fail(err)
	}
	if err := a.drv.EraseSector(ctx, addr); err != nil {
		return a.fail(err)
	}
	return StatusOK
}

// ProgramPage programs one page worth of data at addr.
func (a *Algorithm) ProgramPage(ctx context.Context, addr uint32, data []byte) uint32 {
	a.lastErr = nil
	addr &= a.dev.AddressMask
	if !a.inRange(addr, len(data)) {
		return StatusFailed
	}
	if err := a.drv.Write(ctx, addr, data); err != nil {
		return a.fail(err)
	}
	return StatusOK
}

// Verify compares flash contents at addr against data. It returns
// addr+len(data) when everything matches, or the address of the first
// mismatching byte.
func (a *Algorithm) Verify(ctx context.Context, addr uint32, data []byte) uint32 {
	a.lastErr = nil
	addr &= a.dev.AddressMask
	if !a.inRange(addr, len(data)) {
		return addr
	}
	actual := make([]byte, len(data))
	if err := a.drv.Read(ctx, addr, actual); err != nil {
		a.lastErr = err
		return addr
	}
	if i := firstMismatch(actual, data); i >= 0 {
		return addr + uint32(i)
	}
	return addr + uint32(len(data))
}

func (a *Algorithm) inRange(addr uint32, size int) bool {
	geo := a.drv.Geometry()
	return geo.Contains(addr) && uint64(addr)+uint64(size) <= uint64(geo.End())
}

func (a *Algorithm) fail(err error) uint32 {
	a.lastErr = err
	return StatusFailed
}

// firstMismatch returns the index of the first differing byte, or -1 when
// the slices are equal.
func firstMismatch(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
