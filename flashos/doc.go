// Package flashos adapts the flashd driver to the debugger flash-algorithm
// contract: Init / UnInit / EraseChip / EraseSector / ProgramPage / Verify
// with the flat 0-or-1 status codes debug tooling expects.
//
// The package also carries the static flash device descriptor (name,
// geometry, timeouts, sector layout) that programming tools consume.
//
//	dev := flashos.PIC32CXMTG()
//	alg := flashos.NewAlgorithm(drv, dev)
//	if alg.Init(ctx, dev.Base, 0, flashos.FuncProgram) != flashos.StatusOK {
//	    // ...
//	}
//	status := alg.ProgramPage(ctx, addr, page)
//
// Internally rich errors from the driver are collapsed to StatusFailed; the
// last error is retained and can be inspected through LastError.
package flashos
