package sefc

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeBus is a scripted register bus. Reads of FSR consume statusSeq one
// value at a time, repeating the last entry once the script is exhausted.
type fakeBus struct {
	statusSeq  []uint32
	statusIdx  int
	resultSeq  []uint32
	resultIdx  int
	fmr        uint32
	writes     []busWrite
	readErr    error
	writeErr   error
	statusRead int
}

type busWrite struct {
	addr  uint32
	value uint32
}

func (b *fakeBus) Read32(addr uint32) (uint32, error) {
	if b.readErr != nil {
		return 0, b.readErr
	}
	base := PIC32CX2051MTG().RegisterBase[0]
	switch addr {
	case base + RegFMR:
		return b.fmr, nil
	case base + RegFSR:
		b.statusRead++
		if len(b.statusSeq) == 0 {
			return StatusReady, nil
		}
		s := b.statusSeq[b.statusIdx]
		if b.statusIdx < len(b.statusSeq)-1 {
			b.statusIdx++
		}
		return s, nil
	case base + RegFRR:
		if b.resultIdx >= len(b.resultSeq) {
			return 0, nil
		}
		r := b.resultSeq[b.resultIdx]
		b.resultIdx++
		return r, nil
	}
	return 0, nil
}

func (b *fakeBus) Write32(addr, value uint32) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.writes = append(b.writes, busWrite{addr, value})
	return nil
}

func (b *fakeBus) lastWrite(t *testing.T) busWrite {
	t.Helper()
	if len(b.writes) == 0 {
		t.Fatal("no register writes recorded")
	}
	return b.writes[len(b.writes)-1]
}

func newTestController(t *testing.T, bus Bus) *Controller {
	t.Helper()
	ctrl, err := NewController(bus, PIC32CX2051MTG(), 0)
	if err != nil {
		t.Fatal(err)
	}
	return ctrl
}

func TestNewControllerValidation(t *testing.T) {
	bus := &fakeBus{}

	if _, err := NewController(bus, PIC32CX2051MTG(), 1); err == nil {
		t.Error("expected error for bank beyond geometry")
	}
	if _, err := NewController(bus, PIC32CX2051MTG(), -1); err == nil {
		t.Error("expected error for negative bank")
	}

	bad := PIC32CX2051MTG()
	bad.PageSize = 0
	if _, err := NewController(bus, bad, 0); err == nil {
		t.Error("expected error for invalid geometry")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil bus")
		}
	}()
	NewController(nil, PIC32CX2051MTG(), 0)
}

func TestCommandWordEncoding(t *testing.T) {
	tests := []struct {
		cmd  Command
		arg  uint32
		want uint32
	}{
		{CmdGetDescriptor, 0, 0x5A000000},
		{CmdWritePage, 37, 0x5A002501},
		{CmdEraseAll, 0, 0x5A000005},
		{CmdErasePages, 32<<2 | 2, 0x5A008207},
		{CmdSetGPNVM, 8, 0x5A00080B},
		// Argument is truncated to the 16-bit FARG field.
		{CmdWritePage, 0x1FFFF, 0x5AFFFF01},
	}

	for _, tt := range tests {
		if got := commandWord(tt.cmd, tt.arg); got != tt.want {
			t.Errorf("commandWord(%s, %d) = 0x%08X, want 0x%08X", tt.cmd, tt.arg, got, tt.want)
		}
	}
}

func TestPerformCommandWritesCommandRegister(t *testing.T) {
	bus := &fakeBus{statusSeq: []uint32{StatusReady}}
	ctrl := newTestController(t, bus)

	if err := ctrl.PerformCommand(context.Background(), CmdWritePage, 37); err != nil {
		t.Fatal(err)
	}

	w := bus.lastWrite(t)
	wantAddr := PIC32CX2051MTG().RegisterBase[0] + RegFCR
	if w.addr != wantAddr {
		t.Errorf("wrote to 0x%08X, want FCR at 0x%08X", w.addr, wantAddr)
	}
	if w.value != 0x5A002501 {
		t.Errorf("command word = 0x%08X, want 0x5A002501", w.value)
	}
}

func TestPerformCommandWaitsForReady(t *testing.T) {
	bus := &fakeBus{statusSeq: []uint32{0, 0, StatusReady}}
	ctrl := newTestController(t, bus)

	if err := ctrl.PerformCommand(context.Background(), CmdEraseAll, 0); err != nil {
		t.Fatal(err)
	}
	if bus.statusRead != 3 {
		t.Errorf("status polled %d times, want 3", bus.statusRead)
	}
}

func TestPerformCommandErrorBits(t *testing.T) {
	tests := []struct {
		name          string
		status        uint32
		lockViolation bool
		commandFailed bool
		lockBitError  bool
	}{
		{"lock violation", StatusReady | StatusLockViolation, true, false, false},
		{"command error", StatusReady | StatusCommandError, false, true, false},
		{"lock-bit error", StatusReady | StatusLockBitError, false, false, true},
		{"combined", StatusReady | StatusLockViolation | StatusCommandError, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{statusSeq: []uint32{tt.status}}
			ctrl := newTestController(t, bus)

			err := ctrl.PerformCommand(context.Background(), CmdWritePage, 0)
			ce, ok := IsCommandError(err)
			if !ok {
				t.Fatalf("expected CommandError, got %v", err)
			}
			if ce.Command != CmdWritePage || ce.Bank != 0 {
				t.Errorf("CommandError = %+v", ce)
			}
			if ce.LockViolation() != tt.lockViolation ||
				ce.CommandFailed() != tt.commandFailed ||
				ce.LockBitError() != tt.lockBitError {
				t.Errorf("condition predicates wrong for FSR=0x%X: %v", tt.status, ce)
			}
		})
	}
}

func TestPerformCommandBusReadError(t *testing.T) {
	busErr := errors.New("transport dropped")
	bus := &fakeBus{readErr: busErr}
	ctrl := newTestController(t, bus)

	err := ctrl.PerformCommand(context.Background(), CmdWritePage, 0)
	if !errors.Is(err, busErr) {
		t.Errorf("expected wrapped bus error, got %v", err)
	}
}

func TestWaitReadyTimeout(t *testing.T) {
	bus := &fakeBus{statusSeq: []uint32{0}}
	ctrl := newTestController(t, bus)
	ctrl.WaitTimeout = time.Millisecond

	_, err := ctrl.WaitReady(context.Background())
	if !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("expected ErrWaitTimeout, got %v", err)
	}
}

func TestWaitReadyContextCancel(t *testing.T) {
	bus := &fakeBus{statusSeq: []uint32{0}}
	ctrl := newTestController(t, bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ctrl.WaitReady(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWaitReadyReturnsLastStatus(t *testing.T) {
	bus := &fakeBus{statusSeq: []uint32{0, StatusReady | StatusCommandError}}
	ctrl := newTestController(t, bus)

	status, err := ctrl.WaitReady(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status != StatusReady|StatusCommandError {
		t.Errorf("status = 0x%X, want error bit preserved", status)
	}
}

func TestPerformCommandIAPPath(t *testing.T) {
	bus := &fakeBus{statusSeq: []uint32{StatusReady}}
	ctrl := newTestController(t, bus)

	var gotBank int
	var gotWord uint32
	ctrl.IAP = func(bank int, word uint32) uint32 {
		gotBank = bank
		gotWord = word
		return StatusReady
	}

	if err := ctrl.PerformCommand(context.Background(), CmdEraseAll, 0); err != nil {
		t.Fatal(err)
	}
	if gotBank != 0 || gotWord != 0x5A000005 {
		t.Errorf("IAP invoked with (%d, 0x%08X)", gotBank, gotWord)
	}
	// The trampoline path must not touch the command register.
	for _, w := range bus.writes {
		if w.addr == PIC32CX2051MTG().RegisterBase[0]+RegFCR {
			t.Error("FCR write on IAP path")
		}
	}
}

func TestResultFIFO(t *testing.T) {
	bus := &fakeBus{resultSeq: []uint32{0x11, 0x22, 0x33}}
	ctrl := newTestController(t, bus)

	for _, want := range []uint32{0x11, 0x22, 0x33, 0} {
		got, err := ctrl.Result()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Result() = 0x%X, want 0x%X", got, want)
		}
	}
}

func TestInterruptAndWaitStates(t *testing.T) {
	bus := &fakeBus{fmr: 0}
	ctrl := newTestController(t, bus)
	fmrAddr := PIC32CX2051MTG().RegisterBase[0] + RegFMR

	if err := ctrl.EnableReadyInterrupt(); err != nil {
		t.Fatal(err)
	}
	if w := bus.lastWrite(t); w.addr != fmrAddr || w.value&ModeReadyInterrupt == 0 {
		t.Errorf("enable wrote 0x%08X to 0x%08X", w.value, w.addr)
	}

	bus.fmr = ModeReadyInterrupt | 3<<fmrWaitStateShift
	if err := ctrl.DisableReadyInterrupt(); err != nil {
		t.Fatal(err)
	}
	if w := bus.lastWrite(t); w.value != 3<<fmrWaitStateShift {
		t.Errorf("disable wrote 0x%08X, want wait states preserved", w.value)
	}

	bus.fmr = ModeReadyInterrupt | 3<<fmrWaitStateShift
	if err := ctrl.SetWaitStates(6); err != nil {
		t.Fatal(err)
	}
	if w := bus.lastWrite(t); w.value != ModeReadyInterrupt|6<<fmrWaitStateShift {
		t.Errorf("SetWaitStates wrote 0x%08X", w.value)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CmdGetDescriptor, "GETD"},
		{CmdWritePage, "WP"},
		{CmdErasePages, "EPA"},
		{CmdSetGPNVM, "SGPB"},
		{CmdStartUniqueID, "STUI"},
		{CmdEraseSector, "ES"},
		{Command(0x42), "FCMD(0x42)"},
	}

	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("Command(0x%02X).String() = %q, want %q", uint8(tt.cmd), got, tt.want)
		}
	}
}
