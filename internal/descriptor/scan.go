package descriptor

import (
	"fmt"
	"io"

	"github.com/disclens/isofs/isoerr"
)

// Set is the decoded outcome of walking the volume descriptor set starting
// at sector 16, per ECMA-119 6.2.1. Boot records and the partition
// descriptor type are read by the teacher but unused by a read-only
// ISO9660/Joliet/Rock Ridge reader, so this Set keeps only what C5-C9 need:
// the Primary descriptor and every Supplementary descriptor encountered, in
// disc order.
type Set struct {
	Primary       *Common
	Supplementary []*Common
}

// Scan reads 2048-byte sectors from r starting at sector 16 and decodes
// each volume descriptor until it hits a Set Terminator or runs out of
// readable sectors, grounded on ISO9660Image.Parse's scan loop in iso.go.
// size is the total readable length of r; the scan stops once it would
// read past size even without seeing a terminator, since some discs are
// truncated mid-descriptor-set.
func Scan(r io.ReaderAt, size int64) (*Set, error) {
	const firstSector = 16

	sector := make([]byte, SectorSize)
	set := &Set{}

	for idx := int64(firstSector); (idx+1)*SectorSize <= size; idx++ {
		if _, err := r.ReadAt(sector, idx*SectorSize); err != nil {
			return nil, fmt.Errorf("reading volume descriptor sector %d: %w", idx, err)
		}

		hdr, err := ParseHeader(sector)
		if err != nil {
			return nil, fmt.Errorf("parsing volume descriptor header at sector %d: %w", idx, err)
		}
		if hdr.Identifier != StandardIdentifier {
			return nil, fmt.Errorf("sector %d: %w", idx, isoerr.ErrNotISO9660)
		}

		switch hdr.Type {
		case TypePrimary:
			common, err := ParseCommon(sector, false)
			if err != nil {
				return nil, fmt.Errorf("parsing primary volume descriptor at sector %d: %w", idx, err)
			}
			set.Primary = common
		case TypeSupplementary:
			common, err := ParseCommon(sector, true)
			if err != nil {
				return nil, fmt.Errorf("parsing supplementary volume descriptor at sector %d: %w", idx, err)
			}
			set.Supplementary = append(set.Supplementary, common)
		case TypeSetTerminator:
			if set.Primary == nil {
				return nil, fmt.Errorf("sector %d: %w", idx, isoerr.ErrMalformed)
			}
			return set, nil
		case TypeBootRecord, TypePartition:
			// Out of scope for a read-only filesystem reader: neither
			// contributes a directory tree. Skipped, not an error.
		default:
			// Unknown descriptor types are tolerated the same way the
			// teacher tolerates them (a logged warning, not an abort);
			// this package has no logger, so the caller decides whether
			// to warn.
		}
	}

	if set.Primary == nil {
		return nil, isoerr.ErrNotISO9660
	}
	// Never reached a Set Terminator before the end of the readable image:
	// the end of the image ends the scan as a terminator would, and the
	// Primary descriptor found so far is returned without an error.
	return set, nil
}
