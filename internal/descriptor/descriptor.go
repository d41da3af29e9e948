// Package descriptor decodes ECMA-119 volume descriptors: the common
// header every descriptor shares, and the Primary/Supplementary layout
// that carries the root directory record and path table pointers.
// Grounded on iso-kit's pkg/descriptor, generalized so Primary and
// Supplementary (Joliet) share one decoder instead of two near-identical
// structs.
package descriptor

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/disclens/isofs/internal/codec"
	"github.com/disclens/isofs/internal/directory"
)

func leUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func beUint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// Type is the volume descriptor type byte at sector offset 0.
type Type byte

const (
	TypeBootRecord    Type = 0x00
	TypePrimary       Type = 0x01
	TypeSupplementary Type = 0x02
	TypePartition     Type = 0x03
	TypeSetTerminator Type = 0xFF
)

// StandardIdentifier is the 5-byte magic every volume descriptor carries
// at offset 1, "CD001".
const StandardIdentifier = "CD001"

const SectorSize = 2048

// Header is the 7-byte prefix common to every volume descriptor.
type Header struct {
	Type       Type
	Identifier string
	Version    int8
}

// ParseHeader reads the type/identifier/version common to all volume
// descriptors without interpreting the type-specific payload.
func ParseHeader(sector []byte) (Header, error) {
	if len(sector) < 7 {
		return Header{}, fmt.Errorf("volume descriptor sector shorter than header: %d bytes", len(sector))
	}
	return Header{
		Type:       Type(sector[0]),
		Identifier: string(sector[1:6]),
		Version:    int8(sector[6]),
	}, nil
}

// Common is the Primary/Supplementary volume descriptor layout, which is
// byte-identical apart from the Supplementary descriptor's escape
// sequences and Joliet-encoded string fields. One decoder serves both:
// the teacher keeps PrimaryVolumeDescriptor and SupplementaryVolumeDescriptor
// as separate, almost entirely duplicated structs; this repo collapses them
// since nothing here differs structurally.
type Common struct {
	Header

	SystemIdentifier  string
	VolumeIdentifier  string
	VolumeSpaceSize   uint32
	EscapeSequences   [32]byte
	VolumeSetSize     uint16
	VolumeSeqNumber   uint16
	LogicalBlockSize  uint16
	PathTableSize     uint32
	LPathTableLBA     uint32
	MPathTableLBA     uint32
	RootDirectory     *directory.Record
	VolumeSetID       string
	PublisherID       string
	DataPreparerID    string
	ApplicationID     string
	CopyrightFileID   string
	AbstractFileID    string
	BibliographicID   string
	CreationTime      time.Time
	ModificationTime  time.Time
	ExpirationTime    time.Time
	EffectiveTime     time.Time
	FileStructureVers byte

	// Encoding is ASCII for a Primary descriptor, or UCS2BE for a
	// Supplementary descriptor whose escape sequence confirmed Joliet.
	Encoding codec.Encoding
	IsJoliet bool
}

// ParseCommon decodes a Primary or Supplementary volume descriptor sector.
// For a Supplementary descriptor, the caller must inspect the returned
// IsJoliet before trusting Joliet-specific decoding: an SVD without a
// recognized Joliet escape sequence is a plain (non-Joliet) supplementary
// descriptor and its strings must be read as ASCII.
func ParseCommon(sector []byte, candidateJoliet bool) (*Common, error) {
	if len(sector) < SectorSize {
		return nil, fmt.Errorf("volume descriptor sector shorter than %d bytes: %d", SectorSize, len(sector))
	}

	hdr, err := ParseHeader(sector)
	if err != nil {
		return nil, err
	}

	c := &Common{Header: hdr}
	copy(c.EscapeSequences[:], sector[88:120])

	enc := codec.ASCII
	if candidateJoliet {
		if e, ok := codec.JolietEscapeEncoding(c.EscapeSequences[:]); ok {
			enc = e
			c.IsJoliet = true
		}
	}
	c.Encoding = enc

	rootData := sector[156:190]
	root, err := directory.Unmarshal(rootData, enc)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded root directory record: %w", err)
	}
	c.RootDirectory = root

	c.SystemIdentifier = codec.DecodeString(sector[8:40], enc)
	c.VolumeIdentifier = codec.DecodeString(sector[40:72], enc)
	c.VolumeSpaceSize = codec.Uint32BothEndian(sector[80:88])
	c.VolumeSetSize = codec.Uint16BothEndian(sector[120:124])
	c.VolumeSeqNumber = codec.Uint16BothEndian(sector[124:128])
	c.LogicalBlockSize = codec.Uint16BothEndian(sector[128:132])
	c.PathTableSize = codec.Uint32BothEndian(sector[132:140])
	// Unlike the fields above, the L/M path table locations are each a
	// single-endian 32-bit value (ECMA-119 8.4.14-8.4.17), not a both-endian
	// pair, so they're read directly rather than through Uint32BothEndian.
	c.LPathTableLBA = leUint32(sector[140:144])
	c.MPathTableLBA = beUint32(sector[148:152])

	c.VolumeSetID = codec.DecodeString(sector[190:318], enc)
	c.PublisherID = codec.DecodeString(sector[318:446], enc)
	c.DataPreparerID = codec.DecodeString(sector[446:574], enc)
	c.ApplicationID = codec.DecodeString(sector[574:702], enc)
	c.CopyrightFileID = codec.DecodeString(sector[702:739], enc)
	c.AbstractFileID = codec.DecodeString(sector[739:776], enc)
	c.BibliographicID = codec.DecodeString(sector[776:813], enc)
	c.CreationTime = codec.VolumeTime(sector[813:830])
	c.ModificationTime = codec.VolumeTime(sector[830:847])
	c.ExpirationTime = codec.VolumeTime(sector[847:864])
	c.EffectiveTime = codec.VolumeTime(sector[864:881])
	c.FileStructureVers = sector[881]

	return c, nil
}
