package flashd

import (
	"context"
	"fmt"

	"github.com/CristianGuemes/go-flashd/sefc"
)

// ReadUserSignature reads len(buf) bytes of the user signature page, which
// the controller maps over the start of the flash window while the
// signature-read mode is active. Like the unique-ID mode, the ready flag
// behaves inversely while the mode is active.
func (d *Driver) ReadUserSignature(ctx context.Context, buf []byte) error {
	if uint32(len(buf)) > d.geo.PageSize {
		return fmt.Errorf("user signature read of %d bytes exceeds the %d-byte page", len(buf), d.geo.PageSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctrl := d.banks[0]
	if err := ctrl.IssueCommand(sefc.CmdStartUserSignature, 0); err != nil {
		return fmt.Errorf("start signature mode: %w", err)
	}
	if err := d.readWords(d.geo.Base, d.pageBuf); err != nil {
		return err
	}
	if err := ctrl.IssueCommand(sefc.CmdStopUserSignature, 0); err != nil {
		return fmt.Errorf("stop signature mode: %w", err)
	}
	if _, err := ctrl.WaitReady(ctx); err != nil {
		return fmt.Errorf("stop signature mode: %w", err)
	}
	copy(buf, d.pageBuf)
	return nil
}

// WriteUserSignature programs the user signature page with data, padding the
// remainder of the page with the erased value. The page must be erased
// first (see EraseUserSignature).
func (d *Driver) WriteUserSignature(ctx context.Context, data []byte) error {
	if uint32(len(data)) > d.geo.PageSize {
		return fmt.Errorf("user signature of %d bytes exceeds the %d-byte page", len(data), d.geo.PageSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n := copy(d.pageBuf, data)
	for i := n; i < len(d.pageBuf); i++ {
		d.pageBuf[i] = 0xFF
	}
	if err := d.flushPage(0, 0); err != nil {
		return fmt.Errorf("write signature buffer: %w", err)
	}
	return d.banks[0].PerformCommand(ctx, sefc.CmdWriteUserSignature, 0)
}

// EraseUserSignature erases the user signature page.
func (d *Driver) EraseUserSignature(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.banks[0].PerformCommand(ctx, sefc.CmdEraseUserSignature, 0)
}
