package codec

import (
	"testing"
	"time"
)

var epoch = time.Unix(0, 0).UTC()

func TestUint16BothEndianReturnsLittleHalf(t *testing.T) {
	// 0x1234 stored LE then BE: 34 12 12 34
	b := []byte{0x34, 0x12, 0x12, 0x34}
	got := Uint16BothEndian(b)
	if got != 0x1234 {
		t.Errorf("Uint16BothEndian() = %#x, want 0x1234", got)
	}
}

func TestUint16BothEndianToleratesMismatch(t *testing.T) {
	// LE half says 1, BE half says something else entirely; spec requires
	// trusting the LE half without validating, not erroring.
	b := []byte{0x01, 0x00, 0xff, 0xff}
	got := Uint16BothEndian(b)
	if got != 1 {
		t.Errorf("Uint16BothEndian() = %#x, want 1 (mismatched BE half must be ignored)", got)
	}
}

func TestUint32BothEndian(t *testing.T) {
	// 0x00000800 (2048) stored LE then BE.
	b := []byte{0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x08, 0x00}
	got := Uint32BothEndian(b)
	if got != 2048 {
		t.Errorf("Uint32BothEndian() = %d, want 2048", got)
	}
}

func TestPutUint32BothEndianRoundTrips(t *testing.T) {
	buf := make([]byte, 8)
	PutUint32BothEndian(buf, 2048)
	if got := Uint32BothEndian(buf); got != 2048 {
		t.Errorf("round trip got %d, want 2048", got)
	}
}

func TestSwapUint32(t *testing.T) {
	if got := SwapUint32(0x00000800); got != 0x00080000 {
		t.Errorf("SwapUint32() = %#x, want 0x00080000", got)
	}
}

func TestDecodeStringASCIITrimsTrailingSpaces(t *testing.T) {
	got := DecodeString([]byte("README.TXT;1   "), ASCII)
	if got != "README.TXT;1" {
		t.Errorf("DecodeString() = %q, want %q", got, "README.TXT;1")
	}
}

func TestDecodeStringPreservesSpecialSingleByteIdentifiers(t *testing.T) {
	if got := DecodeString([]byte{0x00}, ASCII); got != "\x00" {
		t.Errorf("self identifier decoded as %q, want \\x00", got)
	}
	if got := DecodeString([]byte{0x01}, ASCII); got != "\x01" {
		t.Errorf("parent identifier decoded as %q, want \\x01", got)
	}
}

func TestDecodeStringUCS2BE(t *testing.T) {
	// "hi" in UCS-2BE followed by two trailing spaces (0x0020).
	b := []byte{0x00, 'h', 0x00, 'i', 0x00, ' ', 0x00, ' '}
	got := DecodeString(b, UCS2BE)
	if got != "hi" {
		t.Errorf("DecodeString(UCS2BE) = %q, want %q", got, "hi")
	}
}

func TestJolietEscapeEncodingDetectsAllThreeLevels(t *testing.T) {
	cases := []struct {
		name string
		b    []byte
		want bool
	}{
		{"level1", []byte{0x25, 0x2F, 0x40}, true},
		{"level2", []byte{0x25, 0x2F, 0x43}, true},
		{"level3", []byte{0x25, 0x2F, 0x45}, true},
		{"unrelated", []byte{0x25, 0x2F, 0x2F}, false},
		{"empty", []byte{0x00, 0x00, 0x00}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			enc, ok := JolietEscapeEncoding(c.b)
			if ok != c.want {
				t.Fatalf("JolietEscapeEncoding(%v) ok = %v, want %v", c.b, ok, c.want)
			}
			if ok && enc != UCS2BE {
				t.Errorf("accepted escape sequence did not select UCS2BE")
			}
		})
	}
}

func TestVolumeTimeValid(t *testing.T) {
	b := []byte("2023061512300000")
	b = append(b, 0x00) // GMT offset 0
	got := VolumeTime(b)
	if got.Year() != 2023 || got.Month() != 6 || got.Day() != 15 {
		t.Errorf("VolumeTime() = %v, want 2023-06-15", got)
	}
	if got.Hour() != 12 || got.Minute() != 30 {
		t.Errorf("VolumeTime() time-of-day = %v, want 12:30", got)
	}
}

func TestVolumeTimeAllZeroIsEpochSentinel(t *testing.T) {
	b := make([]byte, 17)
	for i := range b {
		b[i] = '0'
	}
	got := VolumeTime(b)
	if !got.Equal(epoch) {
		t.Errorf("VolumeTime(all zero) = %v, want epoch sentinel", got)
	}
}

func TestVolumeTimeNULBurnerBugTreatedAsZeroDigits(t *testing.T) {
	b := make([]byte, 17) // all NUL
	got := VolumeTime(b)
	if !got.Equal(epoch) {
		t.Errorf("VolumeTime(all NUL) = %v, want epoch sentinel", got)
	}
}

func TestVolumeTimeOutOfRangeMonthClamped(t *testing.T) {
	b := []byte("2023139912300000")
	b = append(b, 0x00)
	got := VolumeTime(b)
	if got.Month() != 12 {
		t.Errorf("VolumeTime() month = %v, want clamped to 12", got.Month())
	}
	if got.Day() != 31 {
		t.Errorf("VolumeTime() day = %v, want clamped to 31", got.Day())
	}
}

func TestDirectoryTimeBasic(t *testing.T) {
	b := []byte{123, 6, 15, 12, 30, 0, 0} // 1900+123 = 2023-06-15 12:30:00 GMT
	got := DirectoryTime(b)
	if got.Year() != 2023 || got.Month() != 6 || got.Day() != 15 {
		t.Errorf("DirectoryTime() = %v, want 2023-06-15", got)
	}
}

func TestDirectoryTimeClampsOutOfRangeFields(t *testing.T) {
	b := []byte{123, 13, 40, 30, 70, 70, 0}
	got := DirectoryTime(b)
	if got.Month() != 12 {
		t.Errorf("month = %v, want clamped to 12", got.Month())
	}
	if got.Day() != 31 {
		t.Errorf("day = %v, want clamped to 31", got.Day())
	}
	if got.Hour() != 23 {
		t.Errorf("hour = %v, want clamped to 23", got.Hour())
	}
	if got.Minute() != 59 || got.Second() != 59 {
		t.Errorf("minute/second = %v/%v, want clamped to 59/59", got.Minute(), got.Second())
	}
}
