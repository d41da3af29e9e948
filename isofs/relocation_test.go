package isofs

import (
	"testing"

	"github.com/disclens/isofs/internal/codec"
	"github.com/disclens/isofs/internal/descriptor"
	"github.com/disclens/isofs/internal/directory"
	"github.com/disclens/isofs/internal/logging"
)

// fakeRelocationReader serves an in-memory image holding whatever sectors
// the test places in it (a relocated directory's "." self record, or a
// directory sector to list).
type fakeRelocationReader struct{ image []byte }

func (f *fakeRelocationReader) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, f.image[off:]), nil
}

// susBytes builds one raw SUSP tag/length/version/payload entry.
func susBytes(tag string, payload []byte) []byte {
	b := make([]byte, 4+len(payload))
	copy(b[0:2], tag)
	b[2] = byte(4 + len(payload))
	b[3] = 1
	copy(b[4:], payload)
	return b
}

// buildRecordWithSystemUse is buildDirRecord plus a trailing system-use area.
func buildRecordWithSystemUse(lba, dataLen uint32, name string, isDir bool, sysUse []byte) []byte {
	id := []byte(name)
	idLen := len(id)
	base := 33 + idLen
	pad := 0
	if idLen%2 == 0 {
		pad = 1
	}
	length := base + pad + len(sysUse)
	b := make([]byte, length)
	b[0] = byte(length)
	codec.PutUint32BothEndian(b[2:10], lba)
	codec.PutUint32BothEndian(b[10:18], dataLen)
	copy(b[18:25], []byte{123, 6, 15, 12, 0, 0, 0})
	if isDir {
		b[25] = 0x02
	}
	b[32] = byte(idLen)
	copy(b[33:33+idLen], id)
	copy(b[base+pad:], sysUse)
	return b
}

func TestApplyRockRidgeFollowsCLRelocation(t *testing.T) {
	const relocatedLBA = 50
	const relocatedSectors = 2

	image := make([]byte, (relocatedLBA+relocatedSectors+1)*descriptor.SectorSize)
	selfRecord := buildSelfOrParent(relocatedLBA, uint32(relocatedSectors*descriptor.SectorSize), 0x00)
	copy(image[relocatedLBA*descriptor.SectorSize:], selfRecord)

	clPayload := make([]byte, 8)
	codec.PutUint32BothEndian(clPayload, relocatedLBA)
	sysUse := susBytes("CL", clPayload)

	// The placeholder sits at a throwaway LBA/length: CL relocation must
	// discard both in favor of the real self record it points at.
	raw := buildRecordWithSystemUse(1, 0, "DEEPLYNESTEDDIR", false, sysUse)
	rec, err := directory.Unmarshal(raw, codec.ASCII)
	if err != nil {
		t.Fatalf("directory.Unmarshal() error = %v", err)
	}

	ctx := &Context{
		reader:  &fakeRelocationReader{image: image},
		logger:  logging.Discard(),
		options: Options{rockRidgeEnabled: true},
	}

	e, err := buildEntry(ctx, []*directory.Record{rec}, false)
	if err != nil {
		t.Fatalf("buildEntry() error = %v", err)
	}

	if !e.IsDir() {
		t.Errorf("IsDir() = false, want true after CL relocation")
	}
	if len(e.extents) != 1 || e.extents[0].lba != relocatedLBA {
		t.Fatalf("extents = %+v, want single extent at LBA %d", e.extents, relocatedLBA)
	}
	if e.Size() != int64(relocatedSectors*descriptor.SectorSize) {
		t.Errorf("Size() = %d, want %d (recovered from the relocated self record, not the placeholder)", e.Size(), relocatedSectors*descriptor.SectorSize)
	}
}

func TestChildrenSkipsRockRidgeRelocationTarget(t *testing.T) {
	reEntry := susBytes("RE", nil)
	raw := buildRecordWithSystemUse(testSubdirLBA, uint32(testSectorSize), "RR_MOVED", true, reEntry)
	rec, err := directory.Unmarshal(raw, codec.ASCII)
	if err != nil {
		t.Fatalf("directory.Unmarshal() error = %v", err)
	}

	image := make([]byte, testSectorSize)
	copy(image, raw)

	ctx := &Context{
		reader:  &fakeRelocationReader{image: image},
		logger:  logging.Discard(),
		options: Options{rockRidgeEnabled: true},
	}

	e, err := buildEntry(ctx, []*directory.Record{rec}, false)
	if err != nil {
		t.Fatalf("buildEntry() error = %v", err)
	}
	if !e.relocationTarget {
		t.Fatalf("relocationTarget = false, want true for an entry carrying RE")
	}

	parent := &Entry{ctx: ctx, name: "/", isDirectory: true, extents: []extent{{lba: 0, length: uint32(testSectorSize)}}}
	children, err := ctx.children(parent)
	if err != nil {
		t.Fatalf("children() error = %v", err)
	}
	if len(children) != 0 {
		t.Errorf("children() returned %d entries, want 0 (the RE-marked directory must be skipped)", len(children))
	}
}
