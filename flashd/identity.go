package flashd

import (
	"context"
	"fmt"

	"github.com/CristianGuemes/go-flashd/sefc"
)

// Descriptor is the flash descriptor reported by the controller.
type Descriptor struct {
	// ID is the flash interface description word
	ID uint32

	// Size is the flash size in bytes
	Size uint32

	// PageSize is the page size in bytes
	PageSize uint32

	// Planes is the number of flash planes
	Planes uint32
}

// descriptorWords is the number of result words read for the descriptor.
const descriptorWords = 4

// uniqueIDWords is the size of the factory unique ID in 32-bit words.
const uniqueIDWords = 4

// ReadUniqueID reads the 128-bit factory-programmed unique identifier.
//
// The controller maps the identifier over the start of the flash window
// while unique-ID mode is active, so the sequence is: start the mode, read
// four words from the flash base, stop the mode, then wait for ready. The
// ready flag behaves inversely while the mode is active (it falls when the
// identifier becomes readable), so the start command bypasses the normal
// command-wait helper.
//
// On the target itself this sequence must execute from a non-flash context:
// ordinary fetches from flash are invalid while the mode is active. For
// host-side transports this does not apply.
func (d *Driver) ReadUniqueID(ctx context.Context) ([uniqueIDWords]uint32, error) {
	var id [uniqueIDWords]uint32

	d.mu.Lock()
	defer d.mu.Unlock()

	ctrl := d.banks[0]
	if err := ctrl.IssueCommand(sefc.CmdStartUniqueID, 0); err != nil {
		return id, fmt.Errorf("start unique-ID mode: %w", err)
	}

	// The reference sequence reads immediately after STUI without waiting
	// for the falling ready flag; see the family errata before "fixing"
	// this with a wait on hardware.
	for i := range id {
		w, err := d.bus.Read32(d.geo.Base + uint32(i)*4)
		if err != nil {
			return id, fmt.Errorf("read unique ID word %d: %w", i, err)
		}
		id[i] = w
	}

	if err := ctrl.IssueCommand(sefc.CmdStopUniqueID, 0); err != nil {
		return id, fmt.Errorf("stop unique-ID mode: %w", err)
	}
	if _, err := ctrl.WaitReady(ctx); err != nil {
		return id, fmt.Errorf("stop unique-ID mode: %w", err)
	}
	return id, nil
}

// ReadDescriptor reads and parses the flash descriptor of the first bank.
func (d *Driver) ReadDescriptor(ctx context.Context) (*Descriptor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctrl := d.banks[0]
	if _, err := ctrl.WaitReady(ctx); err != nil {
		return nil, err
	}
	if err := ctrl.PerformCommand(ctx, sefc.CmdGetDescriptor, 0); err != nil {
		return nil, err
	}

	var words [descriptorWords]uint32
	for i := range words {
		w, err := ctrl.Result()
		if err != nil {
			return nil, fmt.Errorf("read descriptor word %d: %w", i, err)
		}
		words[i] = w
	}
	return &Descriptor{
		ID:       words[0],
		Size:     words[1],
		PageSize: words[2],
		Planes:   words[3],
	}, nil
}
