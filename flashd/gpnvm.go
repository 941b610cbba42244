package flashd

import (
	"context"
	"fmt"

	"github.com/CristianGuemes/go-flashd/sefc"
)

// IsGPNVMSet reports whether the given GPNVM fuse bit is currently set.
//
// The bit index must be below the geometry's GPNVMBits; violating this is a
// programming error and panics.
func (d *Driver) IsGPNVMSet(ctx context.Context, bit uint32) (bool, error) {
	d.assertGPNVM(bit)

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.isGPNVMSet(ctx, bit)
}

// SetGPNVM sets the given GPNVM fuse bit. Setting an already-set bit is a
// no-op and issues no hardware command.
func (d *Driver) SetGPNVM(ctx context.Context, bit uint32) error {
	d.assertGPNVM(bit)

	d.mu.Lock()
	defer d.mu.Unlock()

	set, err := d.isGPNVMSet(ctx, bit)
	if err != nil || set {
		return err
	}
	d.logDebug("setting GPNVM bit", "bit", bit)
	return d.banks[0].PerformCommand(ctx, sefc.CmdSetGPNVM, bit)
}

// ClearGPNVM clears the given GPNVM fuse bit. Clearing an already-clear bit
// is a no-op and issues no hardware command.
func (d *Driver) ClearGPNVM(ctx context.Context, bit uint32) error {
	d.assertGPNVM(bit)

	d.mu.Lock()
	defer d.mu.Unlock()

	set, err := d.isGPNVMSet(ctx, bit)
	if err != nil || !set {
		return err
	}
	d.logDebug("clearing GPNVM bit", "bit", bit)
	return d.banks[0].PerformCommand(ctx, sefc.CmdClearGPNVM, bit)
}

// isGPNVMSet reads the GPNVM bit vector and tests one bit. GPNVM bits live
// on the first controller regardless of bank count.
func (d *Driver) isGPNVMSet(ctx context.Context, bit uint32) (bool, error) {
	ctrl := d.banks[0]
	if err := ctrl.PerformCommand(ctx, sefc.CmdGetGPNVM, 0); err != nil {
		return false, err
	}
	bits, err := ctrl.Result()
	if err != nil {
		return false, fmt.Errorf("read GPNVM bits: %w", err)
	}
	return bits&(1<<bit) != 0, nil
}

func (d *Driver) assertGPNVM(bit uint32) {
	if bit >= d.geo.GPNVMBits {
		panic(fmt.Sprintf("flashd: GPNVM bit %d out of range [0, %d)", bit, d.geo.GPNVMBits))
	}
}
