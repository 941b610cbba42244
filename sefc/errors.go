package sefc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrWaitTimeout is returned (wrapped) when a controller does not raise the
// ready flag within the configured WaitTimeout. The default configuration has
// no timeout, matching the hardware contract that commands always complete or
// fault.
var ErrWaitTimeout = errors.New("flash controller ready timeout")

// CommandError reports a command that completed with one or more error bits
// set in the status register. The zero value of Status never occurs: a
// CommandError always carries at least one of the three error conditions.
type CommandError struct {
	// Command is the command that failed
	Command Command

	// Bank is the controller bank the command was issued to
	Bank int

	// Status is the raw status register value sampled at completion
	Status uint32
}

// LockViolation reports whether the command touched a locked region (FLOCKE).
func (e *CommandError) LockViolation() bool {
	return e.Status&StatusLockViolation != 0
}

// CommandFailed reports a rejected command or bad argument (FCMDE).
func (e *CommandError) CommandFailed() bool {
	return e.Status&StatusCommandError != 0
}

// LockBitError reports a lock-bit storage failure (FLERR).
func (e *CommandError) LockBitError() bool {
	return e.Status&StatusLockBitError != 0
}

func (e *CommandError) Error() string {
	var conds []string
	if e.LockViolation() {
		conds = append(conds, "lock violation")
	}
	if e.CommandFailed() {
		conds = append(conds, "command error")
	}
	if e.LockBitError() {
		conds = append(conds, "lock-bit error")
	}
	if len(conds) == 0 {
		conds = append(conds, "unknown status")
	}
	return fmt.Sprintf("%s on bank %d failed: %s (FSR=0x%08X)",
		e.Command, e.Bank, strings.Join(conds, ", "), e.Status)
}

// IsCommandError returns the CommandError in err's chain, if any.
func IsCommandError(err error) (*CommandError, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
