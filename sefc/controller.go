package sefc

import (
	"context"
	"fmt"
	"time"
)

// Controller drives one flash controller bank. It holds no state beyond its
// configuration: every operation reads and writes the bank's registers
// through the Bus.
//
// The exported fields may be adjusted after NewController and before first
// use; they are not safe to change while a command is in flight.
type Controller struct {
	bus  Bus
	geo  Geometry
	bank int
	regs uint32

	// IAP, when non-nil, routes commands through the in-ROM trampoline
	// instead of the direct register path. Required when the executing code
	// lives in the flash being modified.
	IAP IAPFunc

	// WaitTimeout bounds how long WaitReady polls for the ready flag. Zero
	// means no bound: the call blocks until the hardware reports completion.
	WaitTimeout time.Duration

	// PollInterval inserts a delay between status polls. Zero polls as fast
	// as the Bus allows; slow transports may want a small interval.
	PollInterval time.Duration
}

// NewController returns a Controller for the given bank of the geometry.
func NewController(bus Bus, geo Geometry, bank int) (*Controller, error) {
	if bus == nil {
		panic("sefc: bus cannot be nil")
	}
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if bank < 0 || bank >= geo.Banks {
		return nil, fmt.Errorf("bank %d out of range for %q", bank, geo.Name)
	}
	return &Controller{
		bus:  bus,
		geo:  geo,
		bank: bank,
		regs: geo.RegisterBase[bank],
	}, nil
}

// Bank returns the bank index this controller drives.
func (c *Controller) Bank() int {
	return c.bank
}

// Geometry returns the chip geometry the controller was created with.
func (c *Controller) Geometry() Geometry {
	return c.geo
}

// Status reads the flash status register. Reading FSR clears the sticky
// error bits, so callers must not re-read expecting the same value.
func (c *Controller) Status() (uint32, error) {
	return c.bus.Read32(c.regs + RegFSR)
}

// Result reads one word from the flash result FIFO. Each read advances the
// FIFO; multi-word results (lock bits, descriptor) are collected by calling
// Result repeatedly.
func (c *Controller) Result() (uint32, error) {
	return c.bus.Read32(c.regs + RegFRR)
}

// IssueCommand writes the encoded command word to the command register
// without waiting for completion. Most callers want PerformCommand; the raw
// form exists for the unique-ID and user-signature modes, where the ready
// flag behaves inversely and the normal wait cannot be used.
func (c *Controller) IssueCommand(cmd Command, arg uint32) error {
	return c.bus.Write32(c.regs+RegFCR, commandWord(cmd, arg))
}

// WaitReady polls the status register until the ready flag is set. With a
// zero WaitTimeout it blocks indefinitely, matching the hardware contract;
// host-side tooling that must not hang on a dead target sets WaitTimeout
// through the driver options.
//
// The returned status is the last sampled FSR value, which carries the error
// bits of the command that just completed.
func (c *Controller) WaitReady(ctx context.Context) (uint32, error) {
	var deadline time.Time
	if c.WaitTimeout > 0 {
		deadline = time.Now().Add(c.WaitTimeout)
	}
	for {
		status, err := c.Status()
		if err != nil {
			return 0, fmt.Errorf("read status: %w", err)
		}
		if status&StatusReady != 0 {
			return status, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return 0, fmt.Errorf("bank %d: %w", c.bank, ErrWaitTimeout)
		}
		if c.PollInterval > 0 {
			time.Sleep(c.PollInterval)
		}
	}
}

// PerformCommand issues a command and blocks until the controller reports
// completion, then checks the sampled status for error bits. It either fully
// succeeds or fails as a unit; there is no partial outcome per invocation.
//
// With an IAP trampoline installed, the trampoline is invoked with the bank
// index and the encoded command word; it loops internally until completion.
// The status register is still sampled afterwards for the error bits. Note
// that the ROM gives no explicit ready handshake on return, so the sample
// relies on the trampoline's internal wait having completed.
func (c *Controller) PerformCommand(ctx context.Context, cmd Command, arg uint32) error {
	var status uint32
	if c.IAP != nil {
		c.IAP(c.bank, commandWord(cmd, arg))
		s, err := c.Status()
		if err != nil {
			return fmt.Errorf("%s: read status: %w", cmd, err)
		}
		status = s
	} else {
		if err := c.IssueCommand(cmd, arg); err != nil {
			return fmt.Errorf("%s: write command: %w", cmd, err)
		}
		s, err := c.WaitReady(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		status = s
	}

	if status&statusErrorMask != 0 {
		return &CommandError{Command: cmd, Bank: c.bank, Status: status}
	}
	return nil
}

// EnableReadyInterrupt enables the flash-ready interrupt source. The driver
// itself polls; the interrupt controls exist for firmware that wants
// event-driven completion.
func (c *Controller) EnableReadyInterrupt() error {
	return c.updateMode(func(fmr uint32) uint32 { return fmr | ModeReadyInterrupt })
}

// DisableReadyInterrupt disables the flash-ready interrupt source.
func (c *Controller) DisableReadyInterrupt() error {
	return c.updateMode(func(fmr uint32) uint32 { return fmr &^ ModeReadyInterrupt })
}

// SetWaitStates programs the number of wait cycles for flash read/write
// accesses. The correct value depends on the master clock frequency; see the
// electrical characteristics of the datasheet.
func (c *Controller) SetWaitStates(cycles uint8) error {
	return c.updateMode(func(fmr uint32) uint32 {
		return fmr&^fmrWaitStateMask | uint32(cycles)<<fmrWaitStateShift&fmrWaitStateMask
	})
}

func (c *Controller) updateMode(f func(uint32) uint32) error {
	fmr, err := c.bus.Read32(c.regs + RegFMR)
	if err != nil {
		return fmt.Errorf("read mode: %w", err)
	}
	if err := c.bus.Write32(c.regs+RegFMR, f(fmr)); err != nil {
		return fmt.Errorf("write mode: %w", err)
	}
	return nil
}
