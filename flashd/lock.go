package flashd

import (
	"context"
	"fmt"

	"github.com/CristianGuemes/go-flashd/sefc"
)

// Lock locks every lock region overlapping [start, end). The range is
// widened to whole lock regions; the actual locked range is returned.
// Regions are locked in address order and the first failing region aborts
// the sequence.
func (d *Driver) Lock(ctx context.Context, start, end uint32) (actualStart, actualEnd uint32, err error) {
	return d.lockRange(ctx, start, end, sefc.CmdSetLockBit)
}

// Unlock unlocks every lock region overlapping [start, end). The range is
// widened to whole lock regions; the actual unlocked range is returned.
func (d *Driver) Unlock(ctx context.Context, start, end uint32) (actualStart, actualEnd uint32, err error) {
	return d.lockRange(ctx, start, end, sefc.CmdClearLockBit)
}

func (d *Driver) lockRange(ctx context.Context, start, end uint32, cmd sefc.Command) (uint32, uint32, error) {
	actualStart, actualEnd := d.geo.LockRange(start, end)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.logDebug("updating lock bits",
		"cmd", cmd.String(),
		"start", fmt.Sprintf("0x%08X", actualStart),
		"end", fmt.Sprintf("0x%08X", actualEnd),
	)

	// One command per lock region, addressed by its first page.
	for addr := actualStart; addr < actualEnd; addr += d.geo.LockRegionSize {
		if err := ctx.Err(); err != nil {
			return actualStart, actualEnd, fmt.Errorf("cancelled: %w", err)
		}
		bank, page, _ := d.geo.Translate(addr)
		if err := d.banks[bank].PerformCommand(ctx, cmd, page); err != nil {
			return actualStart, actualEnd, err
		}
	}
	return actualStart, actualEnd, nil
}

// IsLocked returns the number of locked lock regions overlapping
// [start, end). The lock-bit vector of each involved bank is read as a
// single snapshot, not re-queried per region.
func (d *Driver) IsLocked(ctx context.Context, start, end uint32) (int, error) {
	if end < start {
		panic(fmt.Sprintf("flashd: lock query range reversed: end 0x%08X before start 0x%08X", end, start))
	}
	actualStart, actualEnd := d.geo.LockRange(start, end)

	d.mu.Lock()
	defer d.mu.Unlock()

	perRegion := d.geo.PagesPerRegion()
	locked := 0
	for bank := 0; bank < d.geo.Banks; bank++ {
		bankStart := d.geo.BankBase(bank)
		bankEnd := bankStart + d.geo.BankSize()
		if actualEnd <= bankStart || actualStart >= bankEnd {
			continue
		}

		bits, err := d.readLockBits(ctx, bank)
		if err != nil {
			return 0, err
		}

		first := uint32(0)
		if actualStart > bankStart {
			first = (actualStart - bankStart) / d.geo.PageSize / perRegion
		}
		last := d.geo.PagesPerBank() / perRegion
		if actualEnd < bankEnd {
			last = (actualEnd - bankStart) / d.geo.PageSize / perRegion
		}
		for r := first; r < last; r++ {
			if bits[r/32]&(1<<(r%32)) != 0 {
				locked++
			}
		}
	}
	return locked, nil
}

// readLockBits issues a single get-lock-bits command on the bank and drains
// the packed lock-bit vector from the result FIFO, 32 bits per read.
func (d *Driver) readLockBits(ctx context.Context, bank int) ([]uint32, error) {
	ctrl := d.banks[bank]
	if err := ctrl.PerformCommand(ctx, sefc.CmdGetLockBits, 0); err != nil {
		return nil, err
	}
	perBank := d.geo.LockBits / uint32(d.geo.Banks)
	words := (perBank + 31) / 32
	bits := make([]uint32, words)
	for i := range bits {
		w, err := ctrl.Result()
		if err != nil {
			return nil, fmt.Errorf("read lock bits: %w", err)
		}
		bits[i] = w
	}
	return bits, nil
}
