package hexfile

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/marcinbor85/gohex"

	"github.com/CristianGuemes/go-flashd/sefc"
)

// Segment is one contiguous run of image data at an absolute address.
type Segment struct {
	// Address is the absolute load address of the first byte
	Address uint32

	// Data is the segment content
	Data []byte
}

// End returns the first address past the segment.
func (s Segment) End() uint32 {
	return s.Address + uint32(len(s.Data))
}

// Image is a parsed firmware image: its data segments sorted by address.
type Image struct {
	Segments []Segment
}

// Load parses an Intel HEX file from the given path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadReader parses an Intel HEX image from any io.Reader.
func LoadReader(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("parse Intel HEX: %w", err)
	}

	img := &Image{}
	for _, seg := range mem.GetDataSegments() {
		img.Segments = append(img.Segments, Segment{Address: seg.Address, Data: seg.Data})
	}
	sort.Slice(img.Segments, func(i, j int) bool {
		return img.Segments[i].Address < img.Segments[j].Address
	})
	if len(img.Segments) == 0 {
		return nil, fmt.Errorf("image contains no data")
	}
	return img, nil
}

// TotalBytes returns the number of data bytes across all segments.
func (i *Image) TotalBytes() int {
	n := 0
	for _, s := range i.Segments {
		n += len(s.Data)
	}
	return n
}

// Start returns the lowest address covered by the image.
func (i *Image) Start() uint32 {
	return i.Segments[0].Address
}

// End returns the first address past the highest covered byte.
func (i *Image) End() uint32 {
	end := uint32(0)
	for _, s := range i.Segments {
		if s.End() > end {
			end = s.End()
		}
	}
	return end
}

// Validate checks that every segment lies within the mapped flash range of
// the given geometry.
func (i *Image) Validate(geo sefc.Geometry) error {
	for _, s := range i.Segments {
		if !geo.Contains(s.Address) || uint64(s.Address)+uint64(len(s.Data)) > uint64(geo.End()) {
			return fmt.Errorf("segment [0x%08X, 0x%08X) outside flash range [0x%08X, 0x%08X) of %s",
				s.Address, s.End(), geo.Base, geo.End(), geo.Name)
		}
	}
	return nil
}
