package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagLockStart string
	flagLockEnd   string
)

// lockCmd represents the lock command
var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock a flash address range",
	Long: `Locks every lock region overlapping [--start, --end). The range is
widened to whole lock regions; the actually locked range is printed.
Without flags the whole flash is locked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLockCommand(true)
	},
}

// unlockCmd represents the unlock command
var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock a flash address range",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLockCommand(false)
	},
}

func runLockCommand(lock bool) error {
	drv, cleanup, err := openDriver()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if err := drv.Initialize(ctx); err != nil {
		return err
	}
	geo := drv.Geometry()

	start, end := geo.Base, geo.End()
	if flagLockStart != "" {
		if start, err = parseAddress(flagLockStart); err != nil {
			return err
		}
	}
	if flagLockEnd != "" {
		if end, err = parseAddress(flagLockEnd); err != nil {
			return err
		}
	}

	var verb string
	var actualStart, actualEnd uint32
	if lock {
		verb = "Locked"
		actualStart, actualEnd, err = drv.Lock(ctx, start, end)
	} else {
		verb = "Unlocked"
		actualStart, actualEnd, err = drv.Unlock(ctx, start, end)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s [0x%08X, 0x%08X)\n", verb, actualStart, actualEnd)

	locked, err := drv.IsLocked(ctx, geo.Base, geo.End())
	if err != nil {
		return err
	}
	fmt.Printf("%d of %d regions locked\n", locked, geo.LockBits)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{lockCmd, unlockCmd} {
		c.Flags().StringVar(&flagLockStart, "start", "", "range start address (default: flash base)")
		c.Flags().StringVar(&flagLockEnd, "end", "", "range end address, exclusive (default: flash end)")
	}
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
}
