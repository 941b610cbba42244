package sefc

import "fmt"

// Command is an EEFC command code, written to the FCMD field of the flash
// command register.
type Command uint8

// Command codes per the PIC32CX-MT / SAM EEFC datasheet.
const (
	// CmdGetDescriptor reads the flash descriptor through the result FIFO
	CmdGetDescriptor Command = 0x00

	// CmdWritePage programs one page from the internal write buffer
	CmdWritePage Command = 0x01

	// CmdWritePageLock programs one page and sets its region lock bit
	CmdWritePageLock Command = 0x02

	// CmdEraseAll erases the whole bank
	CmdEraseAll Command = 0x05

	// CmdErasePages erases a block of 4, 8, 16 or 32 pages
	CmdErasePages Command = 0x07

	// CmdSetLockBit sets the lock bit of one lock region
	CmdSetLockBit Command = 0x08

	// CmdClearLockBit clears the lock bit of one lock region
	CmdClearLockBit Command = 0x09

	// CmdGetLockBits reads the lock-bit vector through the result FIFO
	CmdGetLockBits Command = 0x0A

	// CmdSetGPNVM sets one GPNVM fuse bit
	CmdSetGPNVM Command = 0x0B

	// CmdClearGPNVM clears one GPNVM fuse bit
	CmdClearGPNVM Command = 0x0C

	// CmdGetGPNVM reads the GPNVM bits through the result FIFO
	CmdGetGPNVM Command = 0x0D

	// CmdStartUniqueID enters unique-ID read mode
	CmdStartUniqueID Command = 0x0E

	// CmdStopUniqueID leaves unique-ID read mode
	CmdStopUniqueID Command = 0x0F

	// CmdGetCalibBits reads the calibration bits through the result FIFO
	CmdGetCalibBits Command = 0x10

	// CmdEraseSector erases the sector containing the argument page
	CmdEraseSector Command = 0x11

	// CmdWriteUserSignature programs the user signature page
	CmdWriteUserSignature Command = 0x12

	// CmdEraseUserSignature erases the user signature page
	CmdEraseUserSignature Command = 0x13

	// CmdStartUserSignature enters user-signature read mode
	CmdStartUserSignature Command = 0x14

	// CmdStopUserSignature leaves user-signature read mode
	CmdStopUserSignature Command = 0x15
)

// String returns the datasheet mnemonic for the command.
func (c Command) String() string {
	switch c {
	case CmdGetDescriptor:
		return "GETD"
	case CmdWritePage:
		return "WP"
	case CmdWritePageLock:
		return "WPL"
	case CmdEraseAll:
		return "EA"
	case CmdErasePages:
		return "EPA"
	case CmdSetLockBit:
		return "SLB"
	case CmdClearLockBit:
		return "CLB"
	case CmdGetLockBits:
		return "GLB"
	case CmdSetGPNVM:
		return "SGPB"
	case CmdClearGPNVM:
		return "CGPB"
	case CmdGetGPNVM:
		return "GGPB"
	case CmdStartUniqueID:
		return "STUI"
	case CmdStopUniqueID:
		return "SPUI"
	case CmdGetCalibBits:
		return "GCALB"
	case CmdEraseSector:
		return "ES"
	case CmdWriteUserSignature:
		return "WUS"
	case CmdEraseUserSignature:
		return "EUS"
	case CmdStartUserSignature:
		return "STUS"
	case CmdStopUserSignature:
		return "SPUS"
	default:
		return fmt.Sprintf("FCMD(0x%02X)", uint8(c))
	}
}

// Register offsets within one controller bank's register window.
const (
	// RegFMR is the flash mode register offset
	RegFMR = 0x00

	// RegFCR is the flash command register offset
	RegFCR = 0x04

	// RegFSR is the flash status register offset
	RegFSR = 0x08

	// RegFRR is the flash result register offset
	RegFRR = 0x0C
)

// Flash command register (FCR) field layout.
const (
	// CommandKey is the fixed FKEY unlock value; FCR writes with any other
	// key are ignored by the controller
	CommandKey = 0x5A

	fcrKeyShift = 24
	fcrArgShift = 8
	fcrArgMask  = 0xFFFF
	fcrCmdMask  = 0xFF
)

// Flash status register (FSR) bits.
const (
	// StatusReady (FRDY) is set when the controller can accept a command
	StatusReady uint32 = 1 << 0

	// StatusCommandError (FCMDE) reports a bad command or argument
	StatusCommandError uint32 = 1 << 1

	// StatusLockViolation (FLOCKE) reports a write or erase of a locked region
	StatusLockViolation uint32 = 1 << 2

	// StatusLockBitError (FLERR) reports a lock-bit storage error
	StatusLockBitError uint32 = 1 << 3

	// statusErrorMask selects the error bits sampled after each command
	statusErrorMask = StatusCommandError | StatusLockViolation | StatusLockBitError
)

// Flash mode register (FMR) bits.
const (
	// ModeReadyInterrupt (FRDY) enables the flash-ready interrupt source
	ModeReadyInterrupt uint32 = 1 << 0

	fmrWaitStateShift = 8
	fmrWaitStateMask  = uint32(0xF) << fmrWaitStateShift
)

// commandWord encodes the FCR word for a command and argument.
func commandWord(cmd Command, arg uint32) uint32 {
	return CommandKey<<fcrKeyShift | (arg&fcrArgMask)<<fcrArgShift | uint32(cmd)&fcrCmdMask
}
