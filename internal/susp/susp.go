// Package susp walks the System Use Sharing Protocol area trailing a
// directory record: the tag/length/version/payload entries and the CE
// continuation-area mechanism that lets a record's system-use data spill
// into extra sectors. Rock Ridge interpretation of the entries lives in
// the sibling package rockridge. Grounded on iso-kit's pkg/susp, but
// decoupled from directory.Record (see internal/directory's package doc).
package susp

import (
	"fmt"
	"io"

	"github.com/disclens/isofs/internal/codec"
)

// Tag is the two-byte SUSP entry signature, e.g. "CE", "NM", "PX".
type Tag string

const (
	TagContinuation Tag = "CE"
	TagPadding      Tag = "PD"
	TagSharing      Tag = "SP"
	TagTerminator   Tag = "ST"
	TagExtension    Tag = "ER"
	TagSelector     Tag = "ES"
)

// Entry is one decoded SUSP entry: its tag, the SUSP version byte, and its
// payload (the bytes after tag+length+version).
type Entry struct {
	Tag     Tag
	Version byte
	Payload []byte
}

// Parse walks the system-use bytes trailing a directory record, following
// CE continuation entries via r, and returns every entry encountered
// across the chain in disc order. A CE block location is only ever
// followed once; a repeat means the chain loops and Parse reports an
// error rather than hanging, mirroring iso-kit's ParseSystemUseEntries
// visited-set guard.
func Parse(data []byte, r io.ReaderAt) ([]Entry, error) {
	return parse(data, r, make(map[uint32]bool))
}

func parse(data []byte, r io.ReaderAt, visited map[uint32]bool) ([]Entry, error) {
	var entries []Entry

	for offset := 0; offset < len(data); {
		if data[offset] == 0x00 {
			break // padding to the end of the system-use area
		}
		remaining := len(data) - offset
		if remaining < 4 {
			break
		}

		length := int(data[offset+2])
		if length < 4 {
			return nil, fmt.Errorf("susp entry at offset %d has invalid length %d", offset, length)
		}
		if length > remaining {
			return nil, fmt.Errorf("susp entry at offset %d length %d exceeds remaining %d bytes", offset, length, remaining)
		}

		e := Entry{
			Tag:     Tag(data[offset : offset+2]),
			Version: data[offset+3],
			Payload: append([]byte(nil), data[offset+4:offset+length]...),
		}

		if e.Tag == TagContinuation {
			loc, skip, blockLen, err := parseContinuation(e.Payload)
			if err != nil {
				return nil, err
			}
			if visited[loc] {
				return nil, fmt.Errorf("susp continuation area at block %d forms a loop", loc)
			}
			visited[loc] = true

			buf := make([]byte, blockLen)
			readOffset := int64(loc)*2048 + int64(skip)
			if _, err := r.ReadAt(buf, readOffset); err != nil {
				return nil, fmt.Errorf("reading susp continuation area at offset %d: %w", readOffset, err)
			}
			continued, err := parse(buf, r, visited)
			if err != nil {
				return nil, err
			}
			entries = append(entries, continued...)
		} else {
			entries = append(entries, e)
		}

		offset += length
	}

	return entries, nil
}

// parseContinuation decodes a CE entry's payload: the block location,
// offset within that block, and the length of the continuation area.
func parseContinuation(payload []byte) (location uint32, offset uint32, length uint32, err error) {
	if len(payload) < 24 {
		return 0, 0, 0, fmt.Errorf("CE entry payload too short: %d bytes", len(payload))
	}
	location = codec.Uint32BothEndian(payload[0:8])
	offset = codec.Uint32BothEndian(payload[8:16])
	length = codec.Uint32BothEndian(payload[16:24])
	return location, offset, length, nil
}

// DetectSharingProtocol reports whether entries opens with a valid SP
// marker (the 0xBE 0xEF magic SUSP defines in SUSP 5.3) and, if so, the
// "skip bytes" count recorded alongside it — the number of leading bytes
// every other directory record's system-use area is meant to ignore, to
// make room for vendor fields (e.g. CD-ROM XA) that sit ahead of the SUSP
// area on non-root records. Per spec.md §4.4, SP is only ever looked for
// on the root directory's self record, at offset 0 of its system-use data.
func DetectSharingProtocol(entries []Entry) (skipBytes int, ok bool) {
	if len(entries) == 0 || entries[0].Tag != TagSharing {
		return 0, false
	}
	p := entries[0].Payload
	if len(p) < 3 || p[0] != 0xBE || p[1] != 0xEF {
		return 0, false
	}
	return int(p[2]), true
}

// Find returns the payload of the first entry matching tag, if any.
func Find(entries []Entry, tag Tag) ([]byte, bool) {
	for _, e := range entries {
		if e.Tag == tag {
			return e.Payload, true
		}
	}
	return nil, false
}

// FindAll returns every entry matching tag, in disc order.
func FindAll(entries []Entry, tag Tag) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	return out
}
