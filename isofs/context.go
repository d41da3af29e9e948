package isofs

import (
	"io"
	"sync"

	"github.com/disclens/isofs/internal/codec"
	"github.com/disclens/isofs/internal/descriptor"
	"github.com/disclens/isofs/internal/directory"
	"github.com/go-logr/logr"
)

// Variant identifies which ECMA-119 extension supplied the tree Context
// traverses. Selection priority is Joliet, then Rock Ridge, then plain
// ISO9660, per spec.md and the REDESIGN FLAG fix described in
// SPEC_FULL.md: a Supplementary descriptor that fails the Joliet escape
// check never silently wins the Joliet branch.
type Variant int

const (
	VariantISO9660 Variant = iota
	VariantRockRidge
	VariantJoliet
)

func (v Variant) String() string {
	switch v {
	case VariantJoliet:
		return "joliet"
	case VariantRockRidge:
		return "rockridge"
	default:
		return "iso9660"
	}
}

// Context is the immutable, read-only view over one opened ISO image: the
// backing reader, the descriptor set that was scanned, which variant was
// selected, and the resolved Root entry. It corresponds to the teacher's
// ISO9660Image after Parse() has run, minus everything this repo's
// Non-goals exclude (El Torito, write support, CLI boot extraction).
type Context struct {
	reader  io.ReaderAt
	size    int64
	logger  logr.Logger
	options Options

	descriptors *descriptor.Set
	variant     Variant
	encoding    codec.Encoding

	// SUSP state discovered from the root directory's self record, per
	// spec.md's C5 container ("skip bytes, detected?, extensions,
	// identifier"). suspSkipBytes is only meaningful, and only applied,
	// to non-root records: the root record's own system-use data is where
	// the SP entry was found, at offset 0, unskipped.
	suspDetected     bool
	suspSkipBytes    int
	rockRidgeID      string
	suspExtensionIDs []string

	rootOnce sync.Once
	root     *Entry
	rootErr  error
}

// Variant reports which of Joliet/RockRidge/ISO9660 this Context selected.
func (c *Context) Variant() Variant { return c.variant }

// VolumeLabel returns the volume identifier from whichever descriptor the
// selected variant reads from.
func (c *Context) VolumeLabel() string {
	return c.activeDescriptor().VolumeIdentifier
}

func (c *Context) activeDescriptor() *descriptor.Common {
	if c.variant == VariantJoliet {
		for _, svd := range c.descriptors.Supplementary {
			if svd.IsJoliet {
				return svd
			}
		}
	}
	return c.descriptors.Primary
}

// RockRidgeIdentifier returns the Rock Ridge extension identifier found in
// the root directory's ER entry (or the RRIP_1991A default inferred from a
// legacy RR entry), or "" if Rock Ridge wasn't detected or was detected
// only from direct PX/NM/TF entries.
func (c *Context) RockRidgeIdentifier() string { return c.rockRidgeID }

// Extensions returns the identifiers of every other ER entry found on the
// root directory besides the one identifying Rock Ridge, in disc order.
func (c *Context) Extensions() []string { return c.suspExtensionIDs }

// HasSUSP reports whether the root directory's self record carried a
// valid SP marker, i.e. whether this image uses the System Use Sharing
// Protocol at all (Rock Ridge is one SUSP consumer, but not the only
// possible one).
func (c *Context) HasSUSP() bool { return c.suspDetected }

// Root returns the filesystem root entry, resolving it (and its Rock
// Ridge attributes, if enabled) on first use. The embedded root directory
// record carried by the volume descriptor is capped at 34 bytes (no room
// for system-use data), so this re-reads the real self record from the
// root directory's own extent when possible, falling back to the embedded
// copy if that re-read fails for any reason.
func (c *Context) Root() (*Entry, error) {
	c.rootOnce.Do(func() {
		rootRecord := c.activeDescriptor().RootDirectory
		if self, err := readRootSelfRecord(rootRecord, c.reader); err == nil {
			rootRecord = self
		}
		c.root, c.rootErr = buildEntry(c, []*directory.Record{rootRecord}, true)
		if c.root != nil {
			c.root.name = "/"
		}
	})
	return c.root, c.rootErr
}
