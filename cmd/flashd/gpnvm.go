package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// gpnvmCmd represents the gpnvm command
var gpnvmCmd = &cobra.Command{
	Use:   "gpnvm <get|set|clear> [bit]",
	Short: "Inspect or change GPNVM fuse bits",
	Long: `gpnvm get without a bit prints all fuse bits. With a bit index,
get prints that bit, and set/clear change it. Setting an already-set bit
(or clearing a clear one) is a no-op.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		if args[0] == "get" && len(args) == 1 {
			for bit := uint32(0); bit < geo.GPNVMBits; bit++ {
				set, err := drv.IsGPNVMSet(ctx, bit)
				if err != nil {
					return err
				}
				fmt.Printf("GPNVM%d = %v\n", bit, boolBit(set))
			}
			return nil
		}
		if len(args) != 2 {
			return fmt.Errorf("%s needs a bit index", args[0])
		}

		bit64, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("bad bit index %q: %w", args[1], err)
		}
		bit := uint32(bit64)
		if bit >= geo.GPNVMBits {
			return fmt.Errorf("bit %d out of range: %s has %d GPNVM bits", bit, geo.Name, geo.GPNVMBits)
		}

		switch args[0] {
		case "get":
			set, err := drv.IsGPNVMSet(ctx, bit)
			if err != nil {
				return err
			}
			fmt.Printf("GPNVM%d = %v\n", bit, boolBit(set))
			return nil
		case "set":
			if err := drv.SetGPNVM(ctx, bit); err != nil {
				return err
			}
			fmt.Printf("GPNVM%d set\n", bit)
			return nil
		case "clear":
			if err := drv.ClearGPNVM(ctx, bit); err != nil {
				return err
			}
			fmt.Printf("GPNVM%d cleared\n", bit)
			return nil
		default:
			return fmt.Errorf("unknown action %q (want get, set or clear)", args[0])
		}
	},
}

func boolBit(set bool) int {
	if set {
		return 1
	}
	return 0
}

// uniqueidCmd represents the uniqueid command
var uniqueidCmd = &cobra.Command{
	Use:   "uniqueid",
	Short: "Read the 128-bit factory unique identifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		drv, cleanup, err := openDriver()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		if err := drv.Initialize(ctx); err != nil {
			return err
		}
		id, err := drv.ReadUniqueID(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%08X%08X%08X%08X\n", id[0], id[1], id[2], id[3])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gpnvmCmd)
	rootCmd.AddCommand(uniqueidCmd)
}
