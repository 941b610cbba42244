package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show chip, descriptor, lock and fuse state",
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

		fmt.Printf("Chip:         %s\n", geo.Name)
		fmt.Printf("Flash:        0x%08X - 0x%08X (%d KB, %d banks)\n",
			geo.Base, geo.End(), geo.Size/1024, geo.Banks)
		fmt.Printf("Page size:    %d bytes (%d pages)\n", geo.PageSize, geo.Pages)
		fmt.Printf("Lock regions: %d x %d KB\n", geo.LockBits, geo.LockRegionSize/1024)

		desc, err := drv.ReadDescriptor(ctx)
		if err != nil {
			return fmt.Errorf("read descriptor: %w", err)
		}
		fmt.Printf("Descriptor:   id=0x%08X size=%d page=%d planes=%d\n",
			desc.ID, desc.Size, desc.PageSize, desc.Planes)

		id, err := drv.ReadUniqueID(ctx)
		if err != nil {
			return fmt.Errorf("read unique ID: %w", err)
		}
		fmt.Printf("Unique ID:    %08X%08X%08X%08X\n", id[0], id[1], id[2], id[3])

		locked, err := drv.IsLocked(ctx, geo.Base, geo.End())
		if err != nil {
			return fmt.Errorf("read lock bits: %w", err)
		}
		fmt.Printf("Locked:       %d of %d regions\n", locked, geo.LockBits)

		fmt.Printf("GPNVM:        ")
		for bit := geo.GPNVMBits; bit > 0; bit-- {
			set, err := drv.IsGPNVMSet(ctx, bit-1)
			if err != nil {
				return fmt.Errorf("read GPNVM bit %d: %w", bit-1, err)
			}
			if set {
				fmt.Printf("1")
			} else {
				fmt.Printf("0")
			}
		}
		fmt.Printf(" (bit %d..0)\n", geo.GPNVMBits-1)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
