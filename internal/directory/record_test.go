package directory

import (
	"testing"

	"github.com/disclens/isofs/internal/codec"
)

// buildRecord assembles a minimal, well-formed directory record for name,
// with a 4-byte "RR" system-use entry.
func buildRecord(name string, isDir bool) []byte {
	id := []byte(name)
	idLen := len(id)
	padded := idLen%2 == 0
	sysUseLen := 4
	length := 33 + idLen
	if padded {
		length++
	}
	length += sysUseLen

	b := make([]byte, length)
	b[0] = byte(length)
	b[1] = 0 // ext attr
	codec.PutUint32BothEndian(b[2:10], 100)   // extent LBA
	codec.PutUint32BothEndian(b[10:18], 2048) // data length
	copy(b[18:25], []byte{123, 6, 15, 12, 0, 0, 0})
	flags := byte(0)
	if isDir {
		flags |= 0x02
	}
	b[25] = flags
	b[32] = byte(idLen)
	copy(b[33:33+idLen], id)
	off := 33 + idLen
	if padded {
		off++
	}
	copy(b[off:], []byte{'R', 'R', 0x02, 0x00})
	return b
}

func TestUnmarshalBasicFields(t *testing.T) {
	b := buildRecord("FILE.TXT;1", false)
	r, err := Unmarshal(b, codec.ASCII)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.Identifier != "FILE.TXT;1" {
		t.Errorf("Identifier = %q, want FILE.TXT;1", r.Identifier)
	}
	if r.ExtentLBA != 100 {
		t.Errorf("ExtentLBA = %d, want 100", r.ExtentLBA)
	}
	if r.DataLength != 2048 {
		t.Errorf("DataLength = %d, want 2048", r.DataLength)
	}
	if r.Flags.Directory {
		t.Errorf("Flags.Directory = true, want false")
	}
	if len(r.SystemUse) != 4 {
		t.Errorf("SystemUse length = %d, want 4", len(r.SystemUse))
	}
}

func TestUnmarshalDirectoryFlag(t *testing.T) {
	b := buildRecord("SUBDIR", true)
	r, err := Unmarshal(b, codec.ASCII)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !r.Flags.Directory {
		t.Errorf("Flags.Directory = false, want true")
	}
}

func TestUnmarshalFileUnitSizeAndInterleaveGap(t *testing.T) {
	b := buildRecord("INTERLEAVED.DAT;1", false)
	b[26] = 4
	b[27] = 2
	r, err := Unmarshal(b, codec.ASCII)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.FileUnitSize != 4 {
		t.Errorf("FileUnitSize = %d, want 4", r.FileUnitSize)
	}
	if r.InterleaveGap != 2 {
		t.Errorf("InterleaveGap = %d, want 2", r.InterleaveGap)
	}
}

func TestUnmarshalSelfAndParentIdentifiers(t *testing.T) {
	for _, tc := range []struct {
		raw  byte
		self bool
		prnt bool
	}{
		{0x00, true, false},
		{0x01, false, true},
	} {
		b := make([]byte, 34)
		b[0] = 34
		b[32] = 1
		b[33] = tc.raw
		r, err := Unmarshal(b, codec.ASCII)
		if err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if r.IsSelf() != tc.self {
			t.Errorf("IsSelf() = %v, want %v", r.IsSelf(), tc.self)
		}
		if r.IsParent() != tc.prnt {
			t.Errorf("IsParent() = %v, want %v", r.IsParent(), tc.prnt)
		}
	}
}

func TestUnmarshalRejectsShortBuffer(t *testing.T) {
	_, err := Unmarshal(make([]byte, 10), codec.ASCII)
	if err == nil {
		t.Fatal("Unmarshal() error = nil, want error on short buffer")
	}
}

func TestUnmarshalJolietName(t *testing.T) {
	// "hi" encoded UCS-2BE.
	id := []byte{0x00, 'h', 0x00, 'i'}
	length := 33 + len(id) // even id length (4) -> +1 padding
	length++
	b := make([]byte, length)
	b[0] = byte(length)
	b[32] = byte(len(id))
	copy(b[33:33+len(id)], id)

	r, err := Unmarshal(b, codec.UCS2BE)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.Identifier != "hi" {
		t.Errorf("Identifier = %q, want hi", r.Identifier)
	}
}
