// Package codec implements the primitive byte-level decoders ECMA-119 needs:
// both-endian integers, the bit-swapped path-table LBA, encoded strings, and
// the two on-disc date formats. Every function is (buffer, offset) -> value
// and side-effect free, grounded on iso-kit's pkg/encoding package.
package codec

import (
	"encoding/binary"
	"strings"
	"time"
	"unicode/utf16"
)

// Uint16BothEndian reads a 16-bit value stored LE-then-BE (ECMA-119 7.2.3)
// and returns the little-endian half. It does not check that the two
// halves agree: real-world discs disagree, and spec.md requires tolerating
// that rather than erroring.
func Uint16BothEndian(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b[0:2])
}

// Uint32BothEndian reads a 32-bit value stored LE-then-BE (ECMA-119 7.3.3)
// and returns the little-endian half, with the same non-validating policy
// as Uint16BothEndian.
func Uint32BothEndian(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b[0:4])
}

// PutUint32BothEndian is the inverse of Uint32BothEndian, writing both
// halves. Not used by the reader but kept alongside the decode half since
// the pair is what ECMA-119 7.3.3 actually defines.
func PutUint32BothEndian(dst []byte, v uint32) {
	_ = dst[7]
	binary.LittleEndian.PutUint32(dst[0:4], v)
	binary.BigEndian.PutUint32(dst[4:8], v)
}

// SwapUint32 reverses the byte order of an already-little-endian-read
// 32-bit value. The type-M (big-endian) path table location in a volume
// descriptor is read as a plain big-endian uint32 already; this helper is
// for callers that only have an LE-decoded copy and need the BE bytes back,
// e.g. when cross-checking the L and M path tables describe the same tree.
func SwapUint32(v uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return binary.BigEndian.Uint32(b[:])
}

// Encoding selects how directory identifiers and volume strings are
// decoded: plain ASCII (ISO-9660 / Rock Ridge) or UCS-2BE (Joliet).
type Encoding int

const (
	ASCII Encoding = iota
	UCS2BE
)

// DecodeString decodes n bytes at the given encoding and right-trims ASCII
// spaces. A length of 1 is returned verbatim as a single-character string
// so that the special identifiers 0x00 ("\x00", self) and 0x01 ("\x01",
// parent) survive decoding unmangled, per spec.md §4.1.
func DecodeString(b []byte, enc Encoding) string {
	if len(b) == 1 {
		return string(b)
	}
	switch enc {
	case UCS2BE:
		return decodeUCS2BE(b)
	default:
		return strings.TrimRight(string(b), " ")
	}
}

func decodeUCS2BE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(b[i*2 : i*2+2])
	}
	s := string(utf16.Decode(units))
	return strings.TrimRight(s, " ")
}

// JolietEscapeEncoding inspects the 32-byte escape-sequence field at volume
// descriptor offset 88 and reports whether it signals one of the Joliet
// levels (25 2F {40|43|45}).
func JolietEscapeEncoding(escape []byte) (Encoding, bool) {
	if len(escape) < 3 {
		return ASCII, false
	}
	if escape[0] != 0x25 || escape[1] != 0x2F {
		return ASCII, false
	}
	switch escape[2] {
	case 0x40, 0x43, 0x45:
		return UCS2BE, true
	default:
		return ASCII, false
	}
}

// clamp constrains v into [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// VolumeTime decodes the 17-byte volume-descriptor timestamp: 16 ASCII
// digits (YYYYMMDDHHMMSShh) followed by a signed 15-minute GMT-offset byte.
// Burned discs sometimes write NUL instead of '0' in the digit field; those
// are replaced before parsing. Out-of-range month, day, and time-of-day
// fields are clamped into their legal ranges. An all-zero/all-NUL digit
// field, a non-digit character, a year of 0, or a buffer that is not 17
// bytes long yields the epoch sentinel rather than an error, matching
// spec.md §4.1's "do not throw" policy.
func VolumeTime(b []byte) time.Time {
	epoch := time.Unix(0, 0).UTC()
	if len(b) != 17 {
		return epoch
	}

	digits := make([]byte, 16)
	allZero := true
	for i := 0; i < 16; i++ {
		c := b[i]
		if c == 0x00 {
			c = '0'
		}
		if c != '0' {
			allZero = false
		}
		digits[i] = c
	}
	if allZero {
		return epoch
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return epoch
		}
	}

	atoi := func(s string) int {
		n := 0
		for _, c := range s {
			n = n*10 + int(c-'0')
		}
		return n
	}

	year := atoi(string(digits[0:4]))
	month := clamp(atoi(string(digits[4:6])), 1, 12)
	day := clamp(atoi(string(digits[6:8])), 1, 31)
	hour := clamp(atoi(string(digits[8:10])), 0, 23)
	minute := clamp(atoi(string(digits[10:12])), 0, 59)
	second := clamp(atoi(string(digits[12:14])), 0, 59)
	hundredths := clamp(atoi(string(digits[14:16])), 0, 99)
	offset := int(int8(b[16]))

	if year < 1 || year > 9999 {
		return epoch
	}

	loc := time.FixedZone("", offset*15*60)
	return time.Date(year, time.Month(month), day, hour, minute, second, hundredths*10_000_000, loc)
}

// DirectoryTime decodes the 7-byte directory-record timestamp: years since
// 1900, month, day, hour, minute, second, and a signed 15-minute GMT
// offset. Out-of-range fields are clamped rather than rejected; the only
// case that yields the epoch sentinel is a buffer that is not 7 bytes long.
func DirectoryTime(b []byte) time.Time {
	if len(b) != 7 {
		return time.Unix(0, 0).UTC()
	}
	year := 1900 + int(b[0])
	month := clamp(int(b[1]), 1, 12)
	day := clamp(int(b[2]), 1, 31)
	hour := clamp(int(b[3]), 0, 23)
	minute := clamp(int(b[4]), 0, 59)
	second := clamp(int(b[5]), 0, 59)
	offset := int(int8(b[6]))

	loc := time.FixedZone("", offset*15*60)
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
}
