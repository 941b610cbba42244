// Package hexfile loads Intel HEX firmware images into address-sorted data
// segments ready for flash programming.
//
// # Usage
//
// Load an image from disk and check it fits the target flash:
//
//	img, err := hexfile.Load("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := img.Validate(sefc.PIC32CX2051MTG()); err != nil {
//	    log.Fatal(err)
//	}
//	for _, seg := range img.Segments {
//	    drv.Write(ctx, seg.Address, seg.Data)
//	}
//
// Parsing is delegated to github.com/marcinbor85/gohex; this package adds
// the segment model and geometry validation the programming flow needs.
package hexfile
