package flashd

import (
	"context"
	"testing"

	"github.com/CristianGuemes/go-flashd/sefc"
)

func TestGPNVMSetClear(t *testing.T) {
	drv, _ := newSimDriver(t)
	ctx := context.Background()

	set, err := drv.IsGPNVMSet(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if set {
		t.Error("fresh device reports GPNVM bit 1 set")
	}

	if err := drv.SetGPNVM(ctx, 1); err != nil {
		t.Fatal(err)
	}
	set, err = drv.IsGPNVMSet(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !set {
		t.Error("GPNVM bit 1 not set after SetGPNVM")
	}

	// Neighbouring bits stay untouched.
	for _, bit := range []uint32{0, 2} {
		set, err := drv.IsGPNVMSet(ctx, bit)
		if err != nil {
			t.Fatal(err)
		}
		if set {
			t.Errorf("GPNVM bit %d set as a side effect", bit)
		}
	}

	if err := drv.ClearGPNVM(ctx, 1); err != nil {
		t.Fatal(err)
	}
	set, err = drv.IsGPNVMSet(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if set {
		t.Error("GPNVM bit 1 still set after ClearGPNVM")
	}
}

func TestGPNVMIdempotence(t *testing.T) {
	drv, dev := newSimDriver(t)
	ctx := context.Background()

	// Setting twice issues exactly one fuse command; the second call reads
	// the current state and stops.
	if err := drv.SetGPNVM(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if err := drv.SetGPNVM(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if n := dev.Count(sefc.CmdSetGPNVM); n != 1 {
		t.Errorf("issued %d set-fuse commands, want 1", n)
	}

	dev.ResetLog()
	if err := drv.ClearGPNVM(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if err := drv.ClearGPNVM(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if n := dev.Count(sefc.CmdClearGPNVM); n != 1 {
		t.Errorf("issued %d clear-fuse commands, want 1", n)
	}
}

func TestGPNVMPanicsOnBitOutOfRange(t *testing.T) {
	drv, _ := newSimDriver(t)
	bits := drv.Geometry().GPNVMBits

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for GPNVM bit %d", bits)
		}
	}()
	drv.SetGPNVM(context.Background(), bits)
}
