package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	flagEraseSector string
	flagErasePages  int
)

// eraseCmd represents the erase command
var eraseCmd = &cobra.Command{
	Use:   "erase [address]",
	Short: "Erase the chip, a sector or a block of pages",
	Long: `Without flags the whole chip is erased. With --sector the sector
containing the given address is erased; with --pages N an aligned block of
4, 8, 16 or 32 pages containing the address is erased.`,
	Args: cobra.MaximumNArgs(1),
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

		addr := geo.Base
		if len(args) == 1 {
			addr, err = parseAddress(args[0])
			if err != nil {
				return err
			}
		}

		switch {
		case flagEraseSector != "":
			addr, err = parseAddress(flagEraseSector)
			if err != nil {
				return err
			}
			if err := drv.EraseSector(ctx, addr); err != nil {
				return err
			}
			fmt.Printf("Erased sector containing 0x%08X\n", addr)
		case flagErasePages != 0:
			if err := drv.ErasePages(ctx, addr, flagErasePages); err != nil {
				return err
			}
			fmt.Printf("Erased %d pages at 0x%08X\n", flagErasePages, addr)
		default:
			if err := drv.EraseChip(ctx, addr); err != nil {
				return err
			}
			fmt.Println("Chip erased")
		}
		return nil
	},
}

func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return uint32(v), nil
}

func init() {
	eraseCmd.Flags().StringVar(&flagEraseSector, "sector", "", "erase the sector containing this address")
	eraseCmd.Flags().IntVar(&flagErasePages, "pages", 0, "erase this many pages (4, 8, 16 or 32)")
	rootCmd.AddCommand(eraseCmd)
}
