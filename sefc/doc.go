// Package sefc implements the low-level command interface of the SAM/PIC32CX
// Enhanced Embedded Flash Controller (EEFC/SEFC).
//
// # Controller Overview
//
// The flash controller is driven through four memory-mapped registers per bank:
//
//	FMR  Flash Mode Register      (wait states, ready-interrupt enable)
//	FCR  Flash Command Register   (write-only command word)
//	FSR  Flash Status Register    (ready flag and error bits)
//	FRR  Flash Result Register    (read-to-advance result FIFO)
//
// A command is started by writing a single word to FCR:
//
//	[FKEY(8)][FARG(16)][FCMD(8)]
//
// where FKEY must be the fixed unlock key (0x5A), FARG is the command argument
// (a page number, a GPNVM bit index, or unused) and FCMD is the command code.
// The controller then clears the FRDY flag in FSR and raises it again once the
// command has completed; error conditions are reported through the FCMDE,
// FLOCKE and FLERR status bits sampled at completion.
//
// # Issuing Commands
//
// Controller.PerformCommand implements the full issue-and-wait sequence:
//
//	ctrl, _ := sefc.NewController(bus, sefc.PIC32CX2051MTG(), 0)
//	err := ctrl.PerformCommand(ctx, sefc.CmdEraseSector, page)
//
// A non-nil error is either a *CommandError carrying the raw status bits, a
// transport error from the Bus, or a wait timeout/cancellation.
//
// Code that itself executes from the flash being modified cannot use the
// direct register path; for that case an in-ROM IAP trampoline can be
// installed on the controller (see IAPFunc).
//
// # Address Translation
//
// The Geometry type describes one chip variant (single or dual bank) and maps
// byte addresses to (bank, page, offset) coordinates and back:
//
//	bank, page, offset := geo.Translate(addr)
//	addr = geo.PageAddress(bank, page, offset)
//
// Translation is a bijection over the mapped flash range. Passing an address
// outside that range is a programming error and panics.
package sefc
