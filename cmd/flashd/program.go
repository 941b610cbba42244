package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CristianGuemes/go-flashd/flashd"
	"github.com/CristianGuemes/go-flashd/hexfile"
)

var (
	flagNoErase bool
	flagVerify  bool
	flagLock    bool
)

// programCmd represents the program command
var programCmd = &cobra.Command{
	Use:   "program <image.hex>",
	Short: "Program an Intel HEX image into flash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := hexfile.Load(args[0])
		if err != nil {
			return err
		}

		drv, cleanup, err := openDriver(flashd.WithProgressCallback(printProgress))
		if err != nil {
			return err
		}
		defer cleanup()

		geo := drv.Geometry()
		if err := img.Validate(geo); err != nil {
			return err
		}

		ctx := context.Background()
		if err := drv.Initialize(ctx); err != nil {
			return err
		}

		if _, _, err := drv.Unlock(ctx, img.Start(), img.End()); err != nil {
			return fmt.Errorf("unlock: %w", err)
		}
		if !flagNoErase {
			fmt.Println("Erasing chip...")
			if err := drv.EraseChip(ctx, geo.Base); err != nil {
				return fmt.Errorf("erase: %w", err)
			}
		}

		for _, seg := range img.Segments {
			fmt.Printf("Programming %d bytes at 0x%08X\n", len(seg.Data), seg.Address)
			if err := drv.Write(ctx, seg.Address, seg.Data); err != nil {
				return fmt.Errorf("program: %w", err)
			}
			fmt.Println()
		}

		if flagVerify {
			if err := verifyImage(ctx, drv, img); err != nil {
				return err
			}
			fmt.Println("Verify OK")
		}
		if flagLock {
			start, end, err := drv.Lock(ctx, img.Start(), img.End())
			if err != nil {
				return fmt.Errorf("lock: %w", err)
			}
			fmt.Printf("Locked [0x%08X, 0x%08X)\n", start, end)
		}

		fmt.Printf("Done: %d bytes programmed\n", img.TotalBytes())
		return nil
	},
}

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <image.hex>",
	Short: "Compare flash contents against an Intel HEX image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := hexfile.Load(args[0])
		if err != nil {
			return err
		}

		drv, cleanup, err := openDriver()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		if err := drv.Initialize(ctx); err != nil {
			return err
		}
		if err := img.Validate(drv.Geometry()); err != nil {
			return err
		}
		if err := verifyImage(ctx, drv, img); err != nil {
			return err
		}
		fmt.Println("Verify OK")
		return nil
	},
}

func verifyImage(ctx context.Context, drv *flashd.Driver, img *hexfile.Image) error {
	for _, seg := range img.Segments {
		actual := make([]byte, len(seg.Data))
		if err := drv.Read(ctx, seg.Address, actual); err != nil {
			return fmt.Errorf("read back 0x%08X: %w", seg.Address, err)
		}
		for i := range actual {
			if actual[i] != seg.Data[i] {
				return fmt.Errorf("verify failed at 0x%08X: flash 0x%02X, image 0x%02X",
					seg.Address+uint32(i), actual[i], seg.Data[i])
			}
		}
	}
	return nil
}

func printProgress(p flashd.Progress) {
	fmt.Printf("\r  page %d/%d (%3.0f%%)", p.PagesDone, p.TotalPages, p.Percentage)
}

func init() {
	programCmd.Flags().BoolVar(&flagNoErase, "no-erase", false, "skip the chip erase before programming")
	programCmd.Flags().BoolVar(&flagVerify, "verify", false, "read back and compare after programming")
	programCmd.Flags().BoolVar(&flagLock, "lock", false, "lock the programmed range afterwards")
	rootCmd.AddCommand(programCmd)
	rootCmd.AddCommand(verifyCmd)
}
