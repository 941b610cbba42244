// Package simulator provides a software model of the PIC32CX/SAM embedded
// flash controller and its flash array, implementing the sefc.Bus boundary.
//
// The model decodes the per-bank register windows (FMR/FCR/FSR/FRR), executes
// the EEFC command set against an in-memory flash array, enforces lock bits
// on page programming, and reproduces the result-FIFO and unique-ID-mode
// behaviors of the hardware.
//
// It exists for three consumers: package tests (it records every executed
// command so tests can assert on command counts and arguments), the runnable
// examples, and the flashd CLI's --sim target.
//
//	dev := simulator.New(sefc.PIC32CX2051MTG())
//	drv, _ := flashd.New(dev, dev.Geometry())
//	err := drv.Write(ctx, addr, data)
//	fmt.Println(dev.Count(sefc.CmdWritePage)) // pages programmed
//
// The simulator is not a timing model: commands complete instantly and the
// ready flag is observable as set on the first status poll after a command.
package simulator
