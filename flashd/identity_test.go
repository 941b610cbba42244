package flashd

import (
	"bytes"
	"context"
	"testing"

	"github.com/CristianGuemes/go-flashd/sefc"
	"github.com/CristianGuemes/go-flashd/simulator"
)

func TestReadUniqueID(t *testing.T) {
	drv, dev := newSimDriver(t)

	want := [4]uint32{0xDEADBEEF, 0x12345678, 0xCAFEBABE, 0x0BADF00D}
	dev.SetUniqueID(want)

	id, err := drv.ReadUniqueID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != want {
		t.Errorf("unique ID = %08X, want %08X", id, want)
	}

	if dev.Count(sefc.CmdStartUniqueID) != 1 || dev.Count(sefc.CmdStopUniqueID) != 1 {
		t.Error("unique-ID mode not entered and left exactly once")
	}

	// The mode must be left again: ordinary flash reads see flash content,
	// not the identifier.
	geo := drv.Geometry()
	buf := make([]byte, 4)
	if err := drv.Read(context.Background(), geo.Base, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("flash read after unique-ID mode = % X", buf)
	}
}

func TestReadDescriptor(t *testing.T) {
	drv, _ := newSimDriver(t)
	geo := drv.Geometry()

	desc, err := drv.ReadDescriptor(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if desc.Size != geo.BankSize() {
		t.Errorf("descriptor size = %d, want %d", desc.Size, geo.BankSize())
	}
	if desc.PageSize != geo.PageSize {
		t.Errorf("descriptor page size = %d, want %d", desc.PageSize, geo.PageSize)
	}
	if desc.Planes != 1 {
		t.Errorf("descriptor planes = %d, want 1", desc.Planes)
	}
	if desc.ID == 0 {
		t.Error("descriptor ID is zero")
	}
}

func TestUserSignatureRoundTrip(t *testing.T) {
	drv, dev := newSimDriver(t)
	ctx := context.Background()

	data := pattern(0x21, 24)
	if err := drv.WriteUserSignature(ctx, data); err != nil {
		t.Fatal(err)
	}

	sig := dev.UserSignature()
	if !bytes.Equal(sig[:24], data) {
		t.Error("signature page content mismatch")
	}
	for _, b := range sig[24:] {
		if b != simulator.ErasedByte {
			t.Fatal("signature padding not erased value")
		}
	}

	buf := make([]byte, 24)
	if err := drv.ReadUserSignature(ctx, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, data) {
		t.Errorf("ReadUserSignature = % X, want % X", buf, data)
	}

	if err := drv.EraseUserSignature(ctx); err != nil {
		t.Fatal(err)
	}
	for _, b := range dev.UserSignature() {
		if b != simulator.ErasedByte {
			t.Fatal("signature page not erased")
		}
	}
}

func TestUserSignatureSizeLimit(t *testing.T) {
	drv, _ := newSimDriver(t)
	geo := drv.Geometry()
	ctx := context.Background()

	if err := drv.WriteUserSignature(ctx, make([]byte, geo.PageSize+1)); err == nil {
		t.Error("oversized signature write accepted")
	}
	if err := drv.ReadUserSignature(ctx, make([]byte, geo.PageSize+1)); err == nil {
		t.Error("oversized signature read accepted")
	}
}
