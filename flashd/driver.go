package flashd

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/CristianGuemes/go-flashd/sefc"
)

// Driver manages programming, erasing, locking and unlocking sequences for
// one flash device. It owns one controller per bank and a single page-sized
// staging buffer; an internal mutex serializes operations so at most one is
// in flight at a time.
type Driver struct {
	bus    sefc.Bus
	geo    sefc.Geometry
	config Config
	banks  []*sefc.Controller

	mu      sync.Mutex
	pageBuf []byte
}

// New creates a Driver for the given device geometry. The bus is the
// hardware boundary: direct memory mapping, debug-probe transport or the
// simulator.
//
// Example:
//
//	drv, err := flashd.New(bus, sefc.PIC32CX2051MTG(),
//	    flashd.WithWaitTimeout(5*time.Second),
//	)
func New(bus sefc.Bus, geo sefc.Geometry, opts ...Option) (*Driver, error) {
	if bus == nil {
		panic("flashd: bus cannot be nil")
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Driver{
		bus:     bus,
		geo:     geo,
		config:  cfg,
		pageBuf: make([]byte, geo.PageSize),
	}
	for bank := 0; bank < geo.Banks; bank++ {
		ctrl, err := sefc.NewController(bus, geo, bank)
		if err != nil {
			return nil, err
		}
		ctrl.IAP = cfg.IAP
		ctrl.WaitTimeout = cfg.WaitTimeout
		ctrl.PollInterval = cfg.PollInterval
		d.banks = append(d.banks, ctrl)
	}
	return d, nil
}

// Geometry returns the device geometry the driver was created with.
func (d *Driver) Geometry() sefc.Geometry {
	return d.geo
}

// Initialize prepares the controllers for polled operation by disabling the
// flash-ready interrupt source on every bank. Call it once before the first
// flash operation.
func (d *Driver) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ctrl := range d.banks {
		if err := ctrl.DisableReadyInterrupt(); err != nil {
			return fmt.Errorf("bank %d: %w", ctrl.Bank(), err)
		}
	}
	d.logDebug("driver initialized", "chip", d.geo.Name, "banks", d.geo.Banks)
	return nil
}

// EraseChip erases the entire bank containing the given address.
func (d *Driver) EraseChip(ctx context.Context, addr uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctrl, _, _ := d.controllerFor(addr)
	d.logInfo("erasing chip", "bank", ctrl.Bank())
	return ctrl.PerformCommand(ctx, sefc.CmdEraseAll, 0)
}

// EraseSector erases the sector containing the given address. Sector
// granularity is fixed by hardware; the caller is responsible for unlocking
// the affected range first.
func (d *Driver) EraseSector(ctx context.Context, addr uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctrl, page, _ := d.controllerFor(addr)
	d.logDebug("erasing sector", "bank", ctrl.Bank(), "page", page)
	return ctrl.PerformCommand(ctx, sefc.CmdEraseSector, page)
}

// ErasePages erases a naturally aligned block of 4, 8, 16 or 32 pages
// containing the given address. The page number is aligned down to the block
// size, as required by the EPA command encoding.
func (d *Driver) ErasePages(ctx context.Context, addr uint32, pages int) error {
	var code uint32
	switch pages {
	case 4:
		code = 0
	case 8:
		code = 1
	case 16:
		code = 2
	case 32:
		code = 3
	default:
		return fmt.Errorf("erase block of %d pages not supported (must be 4, 8, 16 or 32)", pages)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctrl, page, _ := d.controllerFor(addr)
	page &^= uint32(pages) - 1
	d.logDebug("erasing pages", "bank", ctrl.Bank(), "page", page, "count", pages)
	return ctrl.PerformCommand(ctx, sefc.CmdErasePages, page<<2|code)
}

// Write programs a data buffer into the flash. The address and size need not
// be page aligned: partial pages are rebuilt from the current flash contents
// before programming, so bytes outside [addr, addr+len(data)) keep their
// value. The flash range being written should be erased first.
//
// Write returns nil only if every page in the range programmed without
// error; the first failing page aborts the operation and its error is
// returned. Pages already programmed stay programmed.
//
// Write panics if the byte range does not lie within the mapped flash range.
func (d *Driver) Write(ctx context.Context, addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	d.assertRange(addr, len(data))

	d.mu.Lock()
	defer d.mu.Unlock()

	bank, page, offset := d.geo.Translate(addr)
	pageSize := d.geo.PageSize

	totalPages := int((offset + uint32(len(data)) + pageSize - 1) / pageSize)
	written := 0
	pagesDone := 0
	start := time.Now()

	for remaining := data; len(remaining) > 0; {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
		if page == d.geo.PagesPerBank() {
			// Crossed into the next bank.
			bank++
			page = 0
		}
		ctrl := d.banks[bank]

		chunk := int(pageSize - offset)
		if chunk > len(remaining) {
			chunk = len(remaining)
		}

		if err := d.stagePage(bank, page, offset, remaining[:chunk]); err != nil {
			return fmt.Errorf("stage page %d: %w", page, err)
		}
		if err := d.flushPage(bank, page); err != nil {
			return fmt.Errorf("write page buffer %d: %w", page, err)
		}
		if err := ctrl.PerformCommand(ctx, sefc.CmdWritePage, page); err != nil {
			return fmt.Errorf("program page %d: %w", page, err)
		}

		remaining = remaining[chunk:]
		written += chunk
		pagesDone++
		page++
		offset = 0

		d.reportProgress(Progress{
			Page:         page - 1,
			PagesDone:    pagesDone,
			TotalPages:   totalPages,
			BytesWritten: written,
			TotalBytes:   len(data),
			Percentage:   float64(written) / float64(len(data)) * 100,
		})
	}

	d.logInfo("write complete",
		"addr", fmt.Sprintf("0x%08X", addr),
		"bytes", len(data),
		"pages", totalPages,
		"elapsed", time.Since(start).String(),
	)
	return nil
}

// stagePage fills the staging buffer with one page's worth of data: the
// caller's chunk at [offset, offset+len(chunk)), and the page's current
// flash contents everywhere else. The hardware commits whole pages only, so
// the untouched prefix and suffix must be rebuilt from flash on every
// partial write.
func (d *Driver) stagePage(bank int, page, offset uint32, chunk []byte) error {
	if offset == 0 && uint32(len(chunk)) == d.geo.PageSize {
		copy(d.pageBuf, chunk)
		return nil
	}
	pageAddr := d.geo.PageAddress(bank, page, 0)
	if err := d.readWords(pageAddr, d.pageBuf); err != nil {
		return err
	}
	copy(d.pageBuf[offset:], chunk)
	return nil
}

// flushPage pushes the staging buffer into the controller's internal write
// buffer through the write window. Only word-sized stores are used: byte and
// half-word stores on this path corrupt data on the real hardware.
func (d *Driver) flushPage(bank int, page uint32) error {
	dst := d.geo.PageAddress(bank, page, 0) | d.geo.WriteWindow
	for i := uint32(0); i < d.geo.PageSize; i += 4 {
		word := binary.LittleEndian.Uint32(d.pageBuf[i:])
		if err := d.bus.Write32(dst+i, word); err != nil {
			return err
		}
	}
	return nil
}

// Read copies len(buf) bytes of flash content starting at addr into buf,
// using word accesses on the bus.
//
// Read panics if the byte range does not lie within the mapped flash range.
func (d *Driver) Read(ctx context.Context, addr uint32, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	d.assertRange(addr, len(buf))

	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < len(buf); {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
		cur := addr + uint32(i)
		wordAddr := cur &^ 3
		word, err := d.bus.Read32(wordAddr)
		if err != nil {
			return fmt.Errorf("read 0x%08X: %w", wordAddr, err)
		}
		var wb [4]byte
		binary.LittleEndian.PutUint32(wb[:], word)
		i += copy(buf[i:], wb[cur-wordAddr:])
	}
	return nil
}

// readWords fills buf with flash content starting at the word-aligned addr.
// len(buf) must be a multiple of 4.
func (d *Driver) readWords(addr uint32, buf []byte) error {
	for i := uint32(0); i < uint32(len(buf)); i += 4 {
		word, err := d.bus.Read32(addr + i)
		if err != nil {
			return fmt.Errorf("read 0x%08X: %w", addr+i, err)
		}
		binary.LittleEndian.PutUint32(buf[i:], word)
	}
	return nil
}

// controllerFor translates an address and returns the controller of the
// bank holding it. Panics on an out-of-range address.
func (d *Driver) controllerFor(addr uint32) (*sefc.Controller, uint32, uint32) {
	bank, page, offset := d.geo.Translate(addr)
	return d.banks[bank], page, offset
}

// assertRange panics unless [addr, addr+size) lies within the mapped flash.
func (d *Driver) assertRange(addr uint32, size int) {
	end := uint64(addr) + uint64(size)
	if !d.geo.Contains(addr) || end > uint64(d.geo.End()) {
		panic(fmt.Sprintf("flashd: range [0x%08X, 0x%X) outside flash [0x%08X, 0x%08X)",
			addr, end, d.geo.Base, d.geo.End()))
	}
}

// reportProgress calls the progress callback if configured.
func (d *Driver) reportProgress(progress Progress) {
	if d.config.ProgressCallback != nil {
		d.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (d *Driver) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Driver) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Driver) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
