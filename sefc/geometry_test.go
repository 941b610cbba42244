package sefc

import "testing"

// dualBankGeometry returns a 256 KB two-bank test geometry with the same
// page and lock-region sizes as the PIC32CX parts.
func dualBankGeometry() Geometry {
	return Geometry{
		Name:           "test-dual-bank",
		Base:           0x01000000,
		Size:           0x00040000,
		PageSize:       512,
		SectorSize:     0x20000,
		LockRegionSize: 8192,
		Pages:          512,
		LockBits:       32,
		GPNVMBits:      9,
		Banks:          2,
		RegisterBase:   [MaxBanks]uint32{0x460E0000, 0x460E0200},
		WriteWindow:    0xA0000000,
		IAPEntry:       0x02000008,
	}
}

func TestGeometryPresetsValidate(t *testing.T) {
	for _, geo := range []Geometry{PIC32CX2051MTG(), PIC32CX0212MTG(), dualBankGeometry()} {
		if err := geo.Validate(); err != nil {
			t.Errorf("%s: %v", geo.Name, err)
		}
	}
}

func TestGeometryValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Geometry)
	}{
		{"zero banks", func(g *Geometry) { g.Banks = 0 }},
		{"too many banks", func(g *Geometry) { g.Banks = 3 }},
		{"unaligned page size", func(g *Geometry) { g.PageSize = 510 }},
		{"size/page mismatch", func(g *Geometry) { g.Pages = 100 }},
		{"lock region not page multiple", func(g *Geometry) { g.LockRegionSize = 1000 }},
		{"lock bits do not cover flash", func(g *Geometry) { g.LockBits = 7 }},
		{"missing register window", func(g *Geometry) { g.RegisterBase[0] = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := PIC32CX2051MTG()
			tt.mutate(&geo)
			if err := geo.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestTranslateSingleBank(t *testing.T) {
	geo := PIC32CX2051MTG()

	tests := []struct {
		name   string
		addr   uint32
		page   uint32
		offset uint32
	}{
		{"flash base", geo.Base, 0, 0},
		{"mid first page", geo.Base + 100, 0, 100},
		{"last byte of first page", geo.Base + 511, 0, 511},
		{"second page", geo.Base + 512, 1, 0},
		{"arbitrary", geo.Base + 5*512 + 17, 5, 17},
		{"last byte of flash", geo.End() - 1, geo.Pages - 1, 511},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, page, offset := geo.Translate(tt.addr)
			if bank != 0 {
				t.Errorf("bank = %d, want 0", bank)
			}
			if page != tt.page || offset != tt.offset {
				t.Errorf("Translate(0x%08X) = (%d, %d), want (%d, %d)",
					tt.addr, page, offset, tt.page, tt.offset)
			}
		})
	}
}

func TestTranslateDualBank(t *testing.T) {
	geo := dualBankGeometry()
	half := geo.Base + geo.BankSize()

	tests := []struct {
		name   string
		addr   uint32
		bank   int
		page   uint32
		offset uint32
	}{
		{"bank 0 base", geo.Base, 0, 0, 0},
		{"last byte of bank 0", half - 1, 0, geo.PagesPerBank() - 1, 511},
		{"bank 1 base", half, 1, 0, 0},
		{"into bank 1", half + 3*512 + 9, 1, 3, 9},
		{"last byte of bank 1", geo.End() - 1, 1, geo.PagesPerBank() - 1, 511},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, page, offset := geo.Translate(tt.addr)
			if bank != tt.bank || page != tt.page || offset != tt.offset {
				t.Errorf("Translate(0x%08X) = (%d, %d, %d), want (%d, %d, %d)",
					tt.addr, bank, page, offset, tt.bank, tt.page, tt.offset)
			}
		})
	}
}

func TestTranslateRoundTrip(t *testing.T) {
	for _, geo := range []Geometry{PIC32CX2051MTG(), dualBankGeometry()} {
		t.Run(geo.Name, func(t *testing.T) {
			// Walk the full range with a stride that is coprime to the page
			// size, plus the boundary addresses.
			addrs := []uint32{geo.Base, geo.End() - 1}
			for a := geo.Base; a < geo.End(); a += 509 {
				addrs = append(addrs, a)
			}
			for _, addr := range addrs {
				bank, page, offset := geo.Translate(addr)
				if got := geo.PageAddress(bank, page, offset); got != addr {
					t.Fatalf("round trip of 0x%08X = 0x%08X (bank=%d page=%d offset=%d)",
						addr, got, bank, page, offset)
				}
			}
		})
	}
}

func TestTranslatePanicsOutsideRange(t *testing.T) {
	geo := PIC32CX2051MTG()

	for _, addr := range []uint32{0, geo.Base - 1, geo.End(), 0xFFFFFFFF} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Translate(0x%08X) did not panic", addr)
				}
			}()
			geo.Translate(addr)
		}()
	}
}

func TestPageAddressPanics(t *testing.T) {
	geo := PIC32CX2051MTG()

	tests := []struct {
		name   string
		bank   int
		page   uint32
		offset uint32
	}{
		{"bank out of range", 1, 0, 0},
		{"page past end", 0, geo.Pages + 1, 0},
		{"end page with offset", 0, geo.Pages, 4},
		{"offset past page", 0, 0, geo.PageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic")
				}
			}()
			geo.PageAddress(tt.bank, tt.page, tt.offset)
		})
	}
}

func TestLockRange(t *testing.T) {
	geo := PIC32CX2051MTG()
	region := geo.LockRegionSize

	tests := []struct {
		name      string
		start     uint32
		end       uint32
		wantStart uint32
		wantEnd   uint32
	}{
		{"already aligned", geo.Base, geo.Base + region, geo.Base, geo.Base + region},
		{"widen both ends", geo.Base + 100, geo.Base + region + 600, geo.Base, geo.Base + 2*region},
		{"mid region end", geo.Base + region + 4, geo.Base + region + 600, geo.Base + region, geo.Base + 2*region},
		{"tail in first page of a region", geo.Base, geo.Base + region + 100, geo.Base, geo.Base + 2*region},
		{"end on a page boundary", geo.Base, geo.Base + region + geo.PageSize, geo.Base, geo.Base + 2*region},
		{"full flash", geo.Base, geo.End(), geo.Base, geo.End()},
		{"tail region", geo.End() - 10, geo.End(), geo.End() - region, geo.End()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStart, gotEnd := geo.LockRange(tt.start, tt.end)
			if gotStart != tt.wantStart || gotEnd != tt.wantEnd {
				t.Errorf("LockRange(0x%08X, 0x%08X) = (0x%08X, 0x%08X), want (0x%08X, 0x%08X)",
					tt.start, tt.end, gotStart, gotEnd, tt.wantStart, tt.wantEnd)
			}
			if gotStart > tt.start {
				t.Errorf("actual start 0x%08X after requested start 0x%08X", gotStart, tt.start)
			}
			if gotEnd < tt.end {
				t.Errorf("actual end 0x%08X before requested end 0x%08X", gotEnd, tt.end)
			}
			if gotStart%region != geo.Base%region || gotEnd%region != geo.Base%region {
				t.Errorf("result not aligned to lock regions")
			}

			// Re-applying to an aligned range must be a no-op.
			again1, again2 := geo.LockRange(gotStart, gotEnd)
			if again1 != gotStart || again2 != gotEnd {
				t.Errorf("LockRange not idempotent: (0x%08X, 0x%08X) -> (0x%08X, 0x%08X)",
					gotStart, gotEnd, again1, again2)
			}
		})
	}
}
