package sefc

import "fmt"

// MaxBanks is the maximum number of controller banks a chip variant can have.
const MaxBanks = 2

// Geometry describes the flash layout and controller wiring of one chip
// variant. It is plain data: a single binary can drive any variant by
// selecting the matching Geometry value at run time.
//
// Use one of the presets (PIC32CX2051MTG, PIC32CX0212MTG) or fill in a
// literal for other members of the family.
type Geometry struct {
	// Name identifies the chip variant
	Name string

	// Base is the byte address where the flash is mapped
	Base uint32

	// Size is the total flash size in bytes, across all banks
	Size uint32

	// PageSize is the programming granularity in bytes
	PageSize uint32

	// SectorSize is the erase-sector size in bytes
	SectorSize uint32

	// LockRegionSize is the write-protection granularity in bytes
	LockRegionSize uint32

	// Pages is the total number of pages, across all banks
	Pages uint32

	// LockBits is the number of lock regions, across all banks
	LockBits uint32

	// GPNVMBits is the number of general-purpose NVM fuse bits
	GPNVMBits uint32

	// Banks is the number of controller banks (1 or 2); dual-bank chips
	// split the mapped range evenly between the banks
	Banks int

	// RegisterBase holds the register window address of each bank
	RegisterBase [MaxBanks]uint32

	// WriteWindow is OR-ed into page addresses for stores into the internal
	// write buffer
	WriteWindow uint32

	// IAPEntry is the ROM address holding the IAP trampoline pointer
	IAPEntry uint32
}

// PIC32CX2051MTG returns the geometry of the PIC32CX2051MTG64/100/128
// variants: 2 MB of flash on a single bank.
func PIC32CX2051MTG() Geometry {
	return Geometry{
		Name:           "PIC32CX2051MTG",
		Base:           0x01000000,
		Size:           0x00200000,
		PageSize:       512,
		SectorSize:     0x20000,
		LockRegionSize: 8192,
		Pages:          4096,
		LockBits:       256,
		GPNVMBits:      9,
		Banks:          1,
		RegisterBase:   [MaxBanks]uint32{0x460E0000},
		WriteWindow:    0xA0000000,
		IAPEntry:       0x02000008,
	}
}

// PIC32CX0212MTG returns the geometry of the PIC32CX0212MTG/MTSH variants:
// 256 KB of flash on a single bank.
func PIC32CX0212MTG() Geometry {
	return Geometry{
		Name:           "PIC32CX0212MTG",
		Base:           0x01000000,
		Size:           0x00040000,
		PageSize:       512,
		SectorSize:     0x20000,
		LockRegionSize: 8192,
		Pages:          512,
		LockBits:       32,
		GPNVMBits:      9,
		Banks:          1,
		RegisterBase:   [MaxBanks]uint32{0x460E0000},
		WriteWindow:    0xA0000000,
		IAPEntry:       0x02000008,
	}
}

// Validate checks that the geometry is internally consistent.
func (g Geometry) Validate() error {
	if g.Banks < 1 || g.Banks > MaxBanks {
		return fmt.Errorf("geometry %q: bank count %d out of range [1, %d]", g.Name, g.Banks, MaxBanks)
	}
	if g.PageSize == 0 || g.PageSize%4 != 0 {
		return fmt.Errorf("geometry %q: page size %d is not a positive multiple of 4", g.Name, g.PageSize)
	}
	if g.Size != g.Pages*g.PageSize {
		return fmt.Errorf("geometry %q: size 0x%X does not match %d pages of %d bytes", g.Name, g.Size, g.Pages, g.PageSize)
	}
	if g.LockRegionSize == 0 || g.LockRegionSize%g.PageSize != 0 {
		return fmt.Errorf("geometry %q: lock region size %d is not a multiple of the page size", g.Name, g.LockRegionSize)
	}
	if g.LockBits*g.LockRegionSize != g.Size {
		return fmt.Errorf("geometry %q: %d lock bits do not cover 0x%X bytes", g.Name, g.LockBits, g.Size)
	}
	if g.Banks == 2 && g.Size%2 != 0 {
		return fmt.Errorf("geometry %q: dual-bank size 0x%X is odd", g.Name, g.Size)
	}
	for b := 0; b < g.Banks; b++ {
		if g.RegisterBase[b] == 0 {
			return fmt.Errorf("geometry %q: bank %d has no register window", g.Name, b)
		}
	}
	return nil
}

// End returns the first byte address past the mapped flash range.
func (g Geometry) End() uint32 {
	return g.Base + g.Size
}

// Contains reports whether addr lies within the mapped flash range.
func (g Geometry) Contains(addr uint32) bool {
	return addr >= g.Base && addr < g.End()
}

// BankSize returns the flash size of one bank.
func (g Geometry) BankSize() uint32 {
	return g.Size / uint32(g.Banks)
}

// BankBase returns the byte address where the given bank's flash begins.
func (g Geometry) BankBase(bank int) uint32 {
	if bank < 0 || bank >= g.Banks {
		panic(fmt.Sprintf("sefc: bank %d out of range for %q", bank, g.Name))
	}
	return g.Base + uint32(bank)*g.BankSize()
}

// PagesPerBank returns the number of pages in one bank.
func (g Geometry) PagesPerBank() uint32 {
	return g.Pages / uint32(g.Banks)
}

// PagesPerRegion returns the number of pages in one lock region.
func (g Geometry) PagesPerRegion() uint32 {
	return g.LockRegionSize / g.PageSize
}

// Translate maps a byte address to its (bank, page, offset) coordinate. The
// page index is relative to the bank holding the address.
//
// Translate panics if addr is outside the mapped flash range; callers are
// expected to have validated the address.
func (g Geometry) Translate(addr uint32) (bank int, page, offset uint32) {
	if !g.Contains(addr) {
		panic(fmt.Sprintf("sefc: address 0x%08X outside flash range [0x%08X, 0x%08X)", addr, g.Base, g.End()))
	}
	rel := addr - g.Base
	if g.Banks == 2 && rel >= g.BankSize() {
		bank = 1
		rel -= g.BankSize()
	}
	return bank, rel / g.PageSize, rel % g.PageSize
}

// PageAddress is the inverse of Translate: it maps a (bank, page, offset)
// coordinate back to a byte address. A page index one past the last page of
// the bank is accepted with offset zero, so that exclusive range ends can be
// expressed.
//
// PageAddress panics on out-of-range coordinates.
func (g Geometry) PageAddress(bank int, page, offset uint32) uint32 {
	base := g.BankBase(bank)
	if page > g.PagesPerBank() || (page == g.PagesPerBank() && offset != 0) {
		panic(fmt.Sprintf("sefc: page %d out of range for bank %d of %q", page, bank, g.Name))
	}
	if offset >= g.PageSize {
		panic(fmt.Sprintf("sefc: offset %d exceeds page size %d", offset, g.PageSize))
	}
	return base + page*g.PageSize + offset
}

// LockRange widens [start, end) to whole lock regions: start is rounded down
// and end rounded up to the lock-region granularity, so the returned range
// always covers the requested one. Applying LockRange to an already aligned
// range returns it unchanged.
//
// Both addresses must lie within the mapped flash range (end may equal the
// range end).
func (g Geometry) LockRange(start, end uint32) (actualStart, actualEnd uint32) {
	startBank, startPage, _ := g.Translate(start)
	endBank := startBank
	endPage := g.PagesPerBank()
	if end < g.End() {
		var endOffset uint32
		endBank, endPage, endOffset = g.Translate(end)
		// A tail ending mid-page still occupies that page.
		if endOffset != 0 {
			endPage++
		}
	} else if end == g.End() {
		endBank = g.Banks - 1
	} else {
		panic(fmt.Sprintf("sefc: address 0x%08X outside flash range [0x%08X, 0x%08X]", end, g.Base, g.End()))
	}

	perRegion := g.PagesPerRegion()
	startPage -= startPage % perRegion
	if rem := endPage % perRegion; rem != 0 {
		endPage += perRegion - rem
	}
	return g.PageAddress(startBank, startPage, 0), g.PageAddress(endBank, endPage, 0)
}
