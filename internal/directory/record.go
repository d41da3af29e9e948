// Package directory decodes ECMA-119 directory records: the fixed-width
// header, the file identifier (ASCII or Joliet UCS-2BE), and the trailing
// system-use area. It does not interpret the system-use bytes itself —
// that's left to package susp — so this package has no dependency on SUSP
// or Rock Ridge at all, unlike the teacher's directory.DirectoryRecord,
// which calls straight into susp.GetSystemUseEntries from Unmarshal.
package directory

import (
	"fmt"
	"time"

	"github.com/disclens/isofs/internal/codec"
)

// Flags is the bitfield at directory record byte 25.
type Flags struct {
	Hidden         bool
	Directory      bool
	AssociatedFile bool
	Record         bool
	Protection     bool
	MultiExtent    bool
}

func parseFlags(b byte) Flags {
	return Flags{
		Hidden:         b&0x01 != 0,
		Directory:      b&0x02 != 0,
		AssociatedFile: b&0x04 != 0,
		Record:         b&0x08 != 0,
		Protection:     b&0x10 != 0,
		MultiExtent:    b&0x80 != 0,
	}
}

// Record is a single decoded directory record, minus any interpretation of
// its system-use bytes.
type Record struct {
	Length         uint8
	ExtAttrLength  uint8
	ExtentLBA      uint32
	DataLength     uint32
	RecordingTime  time.Time
	Flags          Flags
	FileUnitSize   uint8
	InterleaveGap  uint8
	VolumeSeq      uint16
	Identifier     string
	RawIdentifier  []byte
	SystemUse      []byte
}

// IsSelf reports whether the record is the "." self-reference (raw
// identifier byte 0x00).
func (r *Record) IsSelf() bool {
	return len(r.RawIdentifier) == 1 && r.RawIdentifier[0] == 0x00
}

// IsParent reports whether the record is the ".." parent reference (raw
// identifier byte 0x01).
func (r *Record) IsParent() bool {
	return len(r.RawIdentifier) == 1 && r.RawIdentifier[0] == 0x01
}

// Unmarshal decodes a single directory record from data, which must start
// at the record's length byte and extend at least Length bytes (the full
// record, including the padded system-use tail). enc selects ASCII or
// UCS-2BE identifier decoding; pass codec.UCS2BE only under a confirmed
// Joliet supplementary descriptor.
func Unmarshal(data []byte, enc codec.Encoding) (*Record, error) {
	if len(data) < 34 {
		return nil, fmt.Errorf("directory record shorter than minimum 34 bytes: %d", len(data))
	}

	length := data[0]
	if int(length) > len(data) {
		return nil, fmt.Errorf("directory record length %d exceeds available %d bytes", length, len(data))
	}
	rec := data[:length]

	idLen := int(rec[32])
	if 33+idLen > len(rec) {
		return nil, fmt.Errorf("file identifier length %d extends beyond record", idLen)
	}
	rawID := rec[33 : 33+idLen]

	r := &Record{
		Length:        length,
		ExtAttrLength: rec[1],
		ExtentLBA:     codec.Uint32BothEndian(rec[2:10]),
		DataLength:    codec.Uint32BothEndian(rec[10:18]),
		RecordingTime: codec.DirectoryTime(rec[18:25]),
		Flags:         parseFlags(rec[25]),
		FileUnitSize:  rec[26],
		InterleaveGap: rec[27],
		VolumeSeq:     codec.Uint16BothEndian(rec[28:32]),
		RawIdentifier: append([]byte(nil), rawID...),
	}

	if idLen == 1 && (rawID[0] == 0x00 || rawID[0] == 0x01) {
		r.Identifier = string(rawID)
	} else {
		r.Identifier = codec.DecodeString(rawID, enc)
	}

	sysUseStart := 33 + idLen
	if idLen%2 == 0 {
		sysUseStart++ // padding byte
	}
	if sysUseStart < len(rec) {
		r.SystemUse = append([]byte(nil), rec[sysUseStart:]...)
	}

	return r, nil
}
