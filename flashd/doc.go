// Package flashd provides the high-level flash programming interface for
// PIC32CX-MT class devices: erase, buffered page writes, region locking,
// GPNVM fuse bits, unique-ID and descriptor reads.
//
// # Overview
//
// The driver is built on the sefc controller layer and manages the sequences
// a programming session needs:
//   - Whole-chip, sector and page-block erase
//   - Buffered page writes with read-modify-write of partial pages
//   - Lock region protection and queries
//   - GPNVM boot-configuration fuse bits
//   - Factory unique ID and flash descriptor reads
//   - User signature page access
//
// # Basic Usage
//
//	// Any sefc.Bus: a debug probe, serial monitor or the simulator.
//	drv, err := flashd.New(bus, sefc.PIC32CX2051MTG())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := drv.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	start, end := addr, addr+uint32(len(image))
//	if _, _, err := drv.Unlock(ctx, start, end); err != nil {
//	    log.Fatal(err)
//	}
//	if err := drv.EraseSector(ctx, addr); err != nil {
//	    log.Fatal(err)
//	}
//	if err := drv.Write(ctx, addr, image); err != nil {
//	    log.Fatal(err)
//	}
//
// # Page Writes
//
// The flash write path commits whole pages only. Write rebuilds partial pages
// from the current flash contents plus the new data, so callers may program
// arbitrary byte ranges; bytes outside the written range keep their value.
// Data is staged through a driver-owned page buffer and pushed to the
// controller's write window with 32-bit stores, the only access width the
// hardware accepts on that path.
//
// # Concurrency
//
// Exactly one flash operation may be in flight at a time. The driver
// serializes its operations with an internal mutex, so a *Driver is safe to
// share between goroutines, but the underlying device still executes
// operations one by one.
//
// # Blocking and Timeouts
//
// All operations poll the controller until it reports completion, with no
// timeout by default: the hardware contract is that commands always complete
// or fault. Host-side tooling that must not hang on a dead target can set
// WithWaitTimeout, and every operation honors context cancellation between
// register accesses.
//
// # Error Handling
//
// Hardware-reported failures surface as *sefc.CommandError, which exposes the
// individual status conditions (lock violation, command error, lock-bit
// error). Multi-page and multi-region operations stop at the first failing
// command; already-programmed pages stay programmed. Precondition violations
// (address out of range, GPNVM index out of bounds) are programming errors
// and panic.
package flashd
