package simulator

import (
	"encoding/binary"
	"fmt"

	"github.com/CristianGuemes/go-flashd/sefc"
)

// ErasedByte is the content of erased flash cells.
const ErasedByte = 0xFF

// registerWindowSize is the decoded span of one bank's register window.
const registerWindowSize = 0x10

// CommandRecord describes one command executed by the simulated controller.
type CommandRecord struct {
	Bank     int
	Command  sefc.Command
	Argument uint32
}

// bank holds the per-bank controller state.
type bank struct {
	fmr   uint32
	fsr   uint32
	frr   []uint32 // result FIFO, drained by FRR reads
	latch []byte   // page write buffer, filled through the write window
	lock  []uint32 // lock bits of this bank's regions, bit 0 = first region
}

// Device simulates the flash controller(s) and flash array of one chip
// variant. It implements sefc.Bus.
//
// Device is not safe for concurrent use, matching the single-operation
// contract of the driver.
type Device struct {
	geo     sefc.Geometry
	flash   []byte
	userSig []byte
	banks   []*bank
	gpnvm   uint32
	calib   uint32

	uniqueID   [4]uint32
	uniqueMode bool
	sigMode    bool

	records  []CommandRecord
	failWith uint32 // injected FSR error bits for the next command
}

// New returns a simulated device with the given geometry, fully erased and
// unlocked.
func New(geo sefc.Geometry) *Device {
	if err := geo.Validate(); err != nil {
		panic(fmt.Sprintf("simulator: %v", err))
	}
	d := &Device{
		geo:      geo,
		flash:    make([]byte, geo.Size),
		userSig:  make([]byte, geo.PageSize),
		uniqueID: [4]uint32{0x50494333, 0x32435832, 0x30353149, 0x44303031},
	}
	for i := range d.flash {
		d.flash[i] = ErasedByte
	}
	for i := range d.userSig {
		d.userSig[i] = ErasedByte
	}
	perBank := geo.LockBits / uint32(geo.Banks)
	for i := 0; i < geo.Banks; i++ {
		b := &bank{
			fsr:   sefc.StatusReady,
			latch: make([]byte, geo.PageSize),
			lock:  make([]uint32, (perBank+31)/32),
		}
		for j := range b.latch {
			b.latch[j] = ErasedByte
		}
		d.banks = append(d.banks, b)
	}
	return d
}

// Geometry returns the simulated chip geometry.
func (d *Device) Geometry() sefc.Geometry {
	return d.geo
}

// Flash exposes the backing flash array for test setup and inspection.
// Offset 0 corresponds to the geometry's base address.
func (d *Device) Flash() []byte {
	return d.flash
}

// UserSignature exposes the user signature page.
func (d *Device) UserSignature() []byte {
	return d.userSig
}

// SetUniqueID sets the factory unique ID returned in unique-ID mode.
func (d *Device) SetUniqueID(id [4]uint32) {
	d.uniqueID = id
}

// Records returns the log of executed commands, oldest first.
func (d *Device) Records() []CommandRecord {
	return d.records
}

// Count returns how many times the given command has been executed.
func (d *Device) Count(cmd sefc.Command) int {
	n := 0
	for _, r := range d.records {
		if r.Command == cmd {
			n++
		}
	}
	return n
}

// ResetLog clears the command log.
func (d *Device) ResetLog() {
	d.records = nil
}

// FailNext makes the next executed command complete with the given FSR error
// bits, for error-path testing.
func (d *Device) FailNext(statusBits uint32) {
	d.failWith = statusBits
}

// Locked reports whether the lock region with the given chip-wide index is
// locked.
func (d *Device) Locked(region uint32) bool {
	perBank := d.geo.LockBits / uint32(d.geo.Banks)
	b := d.banks[region/perBank]
	r := region % perBank
	return b.lock[r/32]&(1<<(r%32)) != 0
}

// IAP returns a trampoline that executes commands directly against the
// simulated controller, standing in for the in-ROM IAP routine.
func (d *Device) IAP() sefc.IAPFunc {
	return func(bankIdx int, commandWord uint32) uint32 {
		d.execCommandWord(bankIdx, commandWord)
		return 0
	}
}

// Read32 implements sefc.Bus.
func (d *Device) Read32(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, fmt.Errorf("simulator: unaligned read at 0x%08X", addr)
	}
	if b, reg, ok := d.decodeRegister(addr); ok {
		return d.readRegister(b, reg), nil
	}
	if d.geo.Contains(addr) {
		return d.readFlashWindow(addr), nil
	}
	// The write window aliases the flash for reads.
	if plain := addr &^ d.geo.WriteWindow; addr&d.geo.WriteWindow == d.geo.WriteWindow && d.geo.Contains(plain) {
		return d.readFlashWindow(plain), nil
	}
	return 0, fmt.Errorf("simulator: read from unmapped address 0x%08X", addr)
}

// Write32 implements sefc.Bus.
func (d *Device) Write32(addr uint32, value uint32) error {
	if addr%4 != 0 {
		return fmt.Errorf("simulator: unaligned write at 0x%08X", addr)
	}
	if b, reg, ok := d.decodeRegister(addr); ok {
		d.writeRegister(b, reg, value)
		return nil
	}
	if plain := addr &^ d.geo.WriteWindow; addr&d.geo.WriteWindow == d.geo.WriteWindow && d.geo.Contains(plain) {
		bankIdx, _, _ := d.geo.Translate(plain)
		latch := d.banks[bankIdx].latch
		off := (plain - d.geo.BankBase(bankIdx)) % d.geo.PageSize
		binary.LittleEndian.PutUint32(latch[off:], value)
		return nil
	}
	if d.geo.Contains(addr) {
		return fmt.Errorf("simulator: direct store to flash at 0x%08X (use the write window)", addr)
	}
	return fmt.Errorf("simulator: write to unmapped address 0x%08X", addr)
}

func (d *Device) decodeRegister(addr uint32) (bankIdx int, reg uint32, ok bool) {
	for i := 0; i < d.geo.Banks; i++ {
		base := d.geo.RegisterBase[i]
		if addr >= base && addr < base+registerWindowSize {
			return i, addr - base, true
		}
	}
	return 0, 0, false
}

func (d *Device) readRegister(bankIdx int, reg uint32) uint32 {
	b := d.banks[bankIdx]
	switch reg {
	case sefc.RegFMR:
		return b.fmr
	case sefc.RegFSR:
		// Error bits are sticky until read, then cleared.
		v := b.fsr
		b.fsr &= sefc.StatusReady
		return v
	case sefc.RegFRR:
		if len(b.frr) == 0 {
			return 0
		}
		v := b.frr[0]
		b.frr = b.frr[1:]
		return v
	default:
		return 0
	}
}

func (d *Device) readFlashWindow(addr uint32) uint32 {
	off := addr - d.geo.Base
	if d.uniqueMode {
		if off < 16 {
			return d.uniqueID[off/4]
		}
		return 0
	}
	if d.sigMode {
		if off < d.geo.PageSize {
			return binary.LittleEndian.Uint32(d.userSig[off:])
		}
		return 0
	}
	return binary.LittleEndian.Uint32(d.flash[off:])
}

func (d *Device) writeRegister(bankIdx int, reg uint32, value uint32) {
	b := d.banks[bankIdx]
	switch reg {
	case sefc.RegFMR:
		b.fmr = value
	case sefc.RegFCR:
		d.execCommandWord(bankIdx, value)
	}
}

func (d *Device) execCommandWord(bankIdx int, word uint32) {
	b := d.banks[bankIdx]
	if word>>24 != sefc.CommandKey {
		b.fsr |= sefc.StatusReady | sefc.StatusCommandError
		return
	}
	cmd := sefc.Command(word & 0xFF)
	arg := word >> 8 & 0xFFFF
	d.records = append(d.records, CommandRecord{Bank: bankIdx, Command: cmd, Argument: arg})

	if d.failWith != 0 {
		b.fsr |= sefc.StatusReady | d.failWith
		d.failWith = 0
		return
	}
	b.fsr |= d.execute(bankIdx, cmd, arg)
	// Unique-ID and signature read modes hold the ready flag low until the
	// matching stop command.
	if d.uniqueMode || d.sigMode {
		b.fsr &^= sefc.StatusReady
	} else {
		b.fsr |= sefc.StatusReady
	}
}

// execute runs one command and returns the FSR error bits it produced.
func (d *Device) execute(bankIdx int, cmd sefc.Command, arg uint32) uint32 {
	b := d.banks[bankIdx]
	switch cmd {
	case sefc.CmdGetDescriptor:
		b.frr = append(b.frr, uint32(0x00100000), d.geo.BankSize(), d.geo.PageSize, 1)
	case sefc.CmdWritePage:
		return d.programPage(bankIdx, arg, false)
	case sefc.CmdWritePageLock:
		return d.programPage(bankIdx, arg, true)
	case sefc.CmdEraseAll:
		d.eraseRange(d.geo.BankBase(bankIdx)-d.geo.Base, d.geo.BankSize())
	case sefc.CmdErasePages:
		return d.erasePages(bankIdx, arg)
	case sefc.CmdEraseSector:
		if !d.validPage(arg) {
			return sefc.StatusCommandError
		}
		start := (d.geo.BankBase(bankIdx) - d.geo.Base) + arg*d.geo.PageSize
		start -= start % d.geo.SectorSize
		d.eraseRange(start, d.geo.SectorSize)
	case sefc.CmdSetLockBit:
		if !d.validPage(arg) {
			return sefc.StatusCommandError
		}
		r := arg / d.geo.PagesPerRegion()
		b.lock[r/32] |= 1 << (r % 32)
	case sefc.CmdClearLockBit:
		if !d.validPage(arg) {
			return sefc.StatusCommandError
		}
		r := arg / d.geo.PagesPerRegion()
		b.lock[r/32] &^= 1 << (r % 32)
	case sefc.CmdGetLockBits:
		b.frr = append(b.frr, b.lock...)
	case sefc.CmdSetGPNVM:
		if arg >= d.geo.GPNVMBits {
			return sefc.StatusCommandError
		}
		d.gpnvm |= 1 << arg
	case sefc.CmdClearGPNVM:
		if arg >= d.geo.GPNVMBits {
			return sefc.StatusCommandError
		}
		d.gpnvm &^= 1 << arg
	case sefc.CmdGetGPNVM:
		b.frr = append(b.frr, d.gpnvm)
	case sefc.CmdGetCalibBits:
		b.frr = append(b.frr, d.calib)
	case sefc.CmdStartUniqueID:
		d.uniqueMode = true
	case sefc.CmdStopUniqueID:
		d.uniqueMode = false
	case sefc.CmdStartUserSignature:
		d.sigMode = true
	case sefc.CmdStopUserSignature:
		d.sigMode = false
	case sefc.CmdWriteUserSignature:
		copy(d.userSig, b.latch)
		d.resetLatch(b)
	case sefc.CmdEraseUserSignature:
		for i := range d.userSig {
			d.userSig[i] = ErasedByte
		}
	default:
		return sefc.StatusCommandError
	}
	return 0
}

func (d *Device) validPage(page uint32) bool {
	return page < d.geo.PagesPerBank()
}

// regionOf returns the chip-wide lock region index of a bank-relative page.
func (d *Device) regionOf(bankIdx int, page uint32) uint32 {
	perBank := d.geo.LockBits / uint32(d.geo.Banks)
	return uint32(bankIdx)*perBank + page/d.geo.PagesPerRegion()
}

func (d *Device) programPage(bankIdx int, page uint32, lockAfter bool) uint32 {
	if !d.validPage(page) {
		return sefc.StatusCommandError
	}
	b := d.banks[bankIdx]
	r := page / d.geo.PagesPerRegion()
	if b.lock[r/32]&(1<<(r%32)) != 0 {
		return sefc.StatusLockViolation
	}
	off := (d.geo.BankBase(bankIdx) - d.geo.Base) + page*d.geo.PageSize
	copy(d.flash[off:off+d.geo.PageSize], b.latch)
	d.resetLatch(b)
	if lockAfter {
		b.lock[r/32] |= 1 << (r % 32)
	}
	return 0
}

func (d *Device) resetLatch(b *bank) {
	for i := range b.latch {
		b.latch[i] = ErasedByte
	}
}

func (d *Device) eraseRange(off, size uint32) {
	for i := off; i < off+size; i++ {
		d.flash[i] = ErasedByte
	}
}

// erasePages implements the EPA argument encoding: FARG[15:2] is the first
// page, FARG[1:0] selects a block of 4, 8, 16 or 32 pages.
func (d *Device) erasePages(bankIdx int, farg uint32) uint32 {
	page := farg >> 2
	var n uint32
	switch farg & 3 {
	case 0:
		n = 4
	case 1:
		n = 8
	case 2:
		n = 16
	case 3:
		n = 32
	}
	page &^= n - 1
	if page+n > d.geo.PagesPerBank() {
		return sefc.StatusCommandError
	}
	for p := page; p < page+n; p++ {
		if d.Locked(d.regionOf(bankIdx, p)) {
			return sefc.StatusLockViolation
		}
	}
	off := (d.geo.BankBase(bankIdx) - d.geo.Base) + page*d.geo.PageSize
	d.eraseRange(off, n*d.geo.PageSize)
	return 0
}
