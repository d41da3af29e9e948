package isofs

import (
	"fmt"

	"github.com/disclens/isofs/internal/descriptor"
	"github.com/disclens/isofs/internal/directory"
	"github.com/disclens/isofs/isoerr"
)

// children returns dir's entries, decoding them from its extent data on
// first use and caching the result, same as the teacher's
// DirectoryEntry.GetChildren lazy population.
func (ctx *Context) children(dir *Entry) ([]*Entry, error) {
	if dir.childrenLoaded {
		return dir.children, nil
	}
	if !dir.isDirectory {
		return nil, fmt.Errorf("%s: %w", dir.name, isoerr.ErrNotADirectory)
	}

	records, err := ctx.readDirectoryRecords(dir)
	if err != nil {
		return nil, err
	}

	var children []*Entry
	for _, group := range groupMultiExtent(records) {
		if group[0].IsSelf() || group[0].IsParent() {
			continue
		}
		child, err := buildEntry(ctx, group, false)
		if err != nil {
			return nil, fmt.Errorf("building entry %q: %w", group[0].Identifier, err)
		}
		// A Rock Ridge RE entry marks the real location a CL placeholder
		// elsewhere points at (see applyRockRidge); it surfaces through
		// that placeholder, not as a child of its actual on-disc parent
		// (conventionally a top-level "RR_MOVED" directory).
		if child.relocationTarget {
			continue
		}
		children = append(children, child)
	}

	dir.children = children
	dir.childrenLoaded = true
	return children, nil
}

// readDirectoryRecords decodes every directory record stored across dir's
// extents, in disc order. Records never cross a sector boundary per
// ECMA-119, so each sector is decoded independently, matching the
// teacher's PopulateChildren sector loop.
func (ctx *Context) readDirectoryRecords(dir *Entry) ([]*directory.Record, error) {
	const sectorSize = int64(descriptor.SectorSize)

	var records []*directory.Record
	buf := make([]byte, sectorSize)

	for _, ext := range dir.extents {
		for offset := int64(0); offset < int64(ext.length); offset += sectorSize {
			readOffset := int64(ext.lba)*sectorSize + offset
			if _, err := ctx.reader.ReadAt(buf, readOffset); err != nil {
				return nil, fmt.Errorf("reading directory sector at offset %d: %w", readOffset, err)
			}

			for o := 0; o < len(buf); {
				length := int(buf[o])
				if length == 0 {
					break
				}
				if o+length > len(buf) {
					break
				}
				rec, err := directory.Unmarshal(buf[o:o+length], ctx.encoding)
				if err != nil {
					return nil, fmt.Errorf("decoding directory record at sector offset %d: %w", o, err)
				}
				records = append(records, rec)
				o += length
			}
		}
	}

	return records, nil
}

// groupMultiExtent collapses runs of directory records that share a name
// across several extents (the MultiExtent flag on every record but the
// last in the run) into single groups, per spec.md's multi-extent file
// handling described in SPEC_FULL.md.
func groupMultiExtent(records []*directory.Record) [][]*directory.Record {
	var groups [][]*directory.Record
	var cur []*directory.Record
	for _, r := range records {
		cur = append(cur, r)
		if !r.Flags.MultiExtent {
			groups = append(groups, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}
