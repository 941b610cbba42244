package flashos

import "time"

// Sector describes one erase sector: its size and its byte offset from the
// device base address.
type Sector struct {
	Size   uint32
	Offset uint32
}

// Device is the static flash device descriptor consumed by programming
// tools: identity, geometry, timing hints and the ordered sector layout.
type Device struct {
	// Name identifies the device to tooling
	Name string

	// Base is the device start address
	Base uint32

	// Size is the total device size in bytes
	Size uint32

	// PageSize is the programming page size in bytes
	PageSize uint32

	// ErasedValue is the content of erased memory
	ErasedValue byte

	// ProgramTimeout is the page programming timeout hint
	ProgramTimeout time.Duration

	// EraseTimeout is the sector erase timeout hint
	EraseTimeout time.Duration

	// AddressMask is applied to addresses received from the debugger, which
	// may alias the flash through other mappings
	AddressMask uint32

	// Sectors is the ordered sector layout
	Sectors []Sector
}

// PIC32CXMTG returns the descriptor of the 2 MB PIC32CXMTG flash:
// sixteen 128 KB sectors.
func PIC32CXMTG() Device {
	const sectorSize = 0x20000
	d := Device{
		Name:           "PIC32CXMTG 2MB Flash",
		Base:           0x01000000,
		Size:           0x00200000,
		PageSize:       512,
		ErasedValue:    0xFF,
		ProgramTimeout: 300 * time.Millisecond,
		EraseTimeout:   3000 * time.Millisecond,
		AddressMask:    0x01FFFFFF,
	}
	for off := uint32(0); off < d.Size; off += sectorSize {
		d.Sectors = append(d.Sectors, Sector{Size: sectorSize, Offset: off})
	}
	return d
}

// SectorAt returns the sector containing the given device-relative offset
// and whether one exists.
func (d Device) SectorAt(offset uint32) (Sector, bool) {
	for _, s := range d.Sectors {
		if offset >= s.Offset && offset < s.Offset+s.Size {
			return s, true
		}
	}
	return Sector{}, false
}
