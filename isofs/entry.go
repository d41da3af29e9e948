package isofs

import (
	"io/fs"
	"strings"
	"time"

	"github.com/disclens/isofs/internal/directory"
	"github.com/disclens/isofs/internal/susp"
	"github.com/disclens/isofs/internal/susp/rockridge"
)

// extent is one contiguous run of logical blocks backing part of a file's
// data. A file with the MultiExtent directory flag set is represented as
// several of these joined end to end, per spec.md's multi-extent handling
// (see SPEC_FULL.md's "Multi-extent PathToClusters/OpenFile" supplement).
type extent struct {
	lba    uint32
	length uint32
}

// Entry is a single file or directory in the tree, already resolved to
// whichever variant (Joliet, Rock Ridge, or plain ISO9660) the Context
// selected. It implements io/fs.FileInfo the way the teacher's
// DirectoryEntry does, and additionally exposes the Rock Ridge symlink
// target when IsSymlink reports true.
type Entry struct {
	ctx *Context

	rawIdentifier string // the on-disc identifier, version suffix included
	name          string // the display name: Rock Ridge NM, Joliet, or stripped ISO9660
	extents       []extent
	dataLength    int64
	recordingTime time.Time
	isDirectory   bool
	isSymlink     bool
	symlinkTarget string
	mode          fs.FileMode
	uid, gid      uint32
	fileUnitSize  uint8
	interleaveGap uint8

	// relocationTarget is true for the entry carrying an RE system-use
	// tag: the actual directory a CL placeholder elsewhere in the tree
	// points at (RRIP 4.1.5.2). It's reachable through that placeholder,
	// not through its own parent directory's listing, so children()
	// excludes it from enumeration the same way it already excludes "."
	// and "..".
	relocationTarget bool

	childrenLoaded bool
	children       []*Entry
}

var _ fs.FileInfo = (*Entry)(nil)

// Name returns the entry's display name: the Rock Ridge alternate name if
// present, else the Joliet or ISO9660 identifier with any ";N" version
// suffix stripped according to the Context's StripVersionInfo option.
func (e *Entry) Name() string { return e.name }

// Size returns the total byte length of the entry's data across every
// extent it spans.
func (e *Entry) Size() int64 { return e.dataLength }

// Mode returns the POSIX mode from Rock Ridge PX when present, or
// otherwise fs.ModeDir|0555 for a directory and 0444 for a file.
func (e *Entry) Mode() fs.FileMode { return e.mode }

// ModTime returns the directory record's recording timestamp, or the Rock
// Ridge TF modification timestamp when present.
func (e *Entry) ModTime() time.Time { return e.recordingTime }

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool { return e.isDirectory }

// Sys returns nil; there is no OS-specific stat data behind an ISO image.
func (e *Entry) Sys() any { return nil }

// IsSymlink reports whether the entry is a Rock Ridge symbolic link.
func (e *Entry) IsSymlink() bool { return e.isSymlink }

// SymlinkTarget returns the raw, slash-joined Rock Ridge SL target. Only
// meaningful when IsSymlink reports true.
func (e *Entry) SymlinkTarget() string { return e.symlinkTarget }

// stripVersion removes a trailing ";N" ISO9660 version suffix, same shape
// as the teacher's iso.go stripVersion helper.
func stripVersion(name string) string {
	if i := strings.LastIndexByte(name, ';'); i >= 0 {
		return name[:i]
	}
	return name
}

// buildEntry assembles an Entry from one or more directory.Record values
// sharing the same identifier (multiple only when chained via the
// MultiExtent flag), resolving Rock Ridge attributes if enabled. isRoot
// must be true only for the root directory's record (its "." self record,
// or the descriptor's embedded copy when that cannot be re-read): that's
// the one record whose system-use data is read unskipped,
// since it's where the SP entry establishing Context.suspSkipBytes was
// found in the first place (spec.md §4.4/§4.5). Every other record's
// system-use area has ctx.suspSkipBytes bytes of leading vendor padding
// (e.g. CD-ROM XA fields) skipped before SUSP entries are parsed.
func buildEntry(ctx *Context, records []*directory.Record, isRoot bool) (*Entry, error) {
	first := records[0]

	e := &Entry{
		ctx:           ctx,
		rawIdentifier: first.Identifier,
		isDirectory:   first.Flags.Directory,
		recordingTime: first.RecordingTime,
		fileUnitSize:  first.FileUnitSize,
		interleaveGap: first.InterleaveGap,
	}

	for _, r := range records {
		e.extents = append(e.extents, extent{lba: r.ExtentLBA, length: r.DataLength})
		e.dataLength += int64(r.DataLength)
	}

	name := first.Identifier
	if ctx.options.stripVersionInfo {
		name = stripVersion(name)
	}
	e.name = name

	if e.isDirectory {
		e.mode = fs.ModeDir | 0555
	} else {
		e.mode = 0444
	}

	if ctx.options.rockRidgeEnabled && len(first.SystemUse) > 0 {
		sysUse := first.SystemUse
		if !isRoot && ctx.suspSkipBytes > 0 && ctx.suspSkipBytes < len(sysUse) {
			sysUse = sysUse[ctx.suspSkipBytes:]
		}
		entries, err := susp.Parse(sysUse, ctx.reader)
		if err != nil {
			ctx.logger.Error(err, "failed to parse system use entries", "identifier", first.Identifier)
		} else {
			applyRockRidge(ctx, e, entries)
		}
	}

	return e, nil
}

// applyRockRidge overrides the ISO9660 name, mode, timestamp, symlink, and
// (for a relocated directory) extent of e from the Rock Ridge entries
// attached to its directory record.
func applyRockRidge(ctx *Context, e *Entry, entries []susp.Entry) {
	if name, isCurrent, isParent, ok := rockridge.ResolveName(entries); ok && !isCurrent && !isParent {
		e.name = name
	}

	if payload, ok := susp.Find(entries, "PX"); ok {
		if px, err := rockridge.ParsePX(payload); err == nil {
			e.mode = px.Mode
			e.uid = px.UID
			e.gid = px.GID
			e.isDirectory = px.Mode.IsDir()
			e.isSymlink = px.Mode&fs.ModeSymlink != 0
		}
	}

	if payload, ok := susp.Find(entries, "TF"); ok {
		if ts, err := rockridge.ParseTF(payload); err == nil && ts.Modification != nil {
			e.recordingTime = *ts.Modification
		}
	}

	if _, ok := susp.Find(entries, "RE"); ok {
		e.relocationTarget = true
	}

	if e.isSymlink {
		if target, ok := rockridge.ResolveSymlink(entries); ok {
			e.symlinkTarget = target
		}
	}

	// CL relocates a deeply-nested directory: the placeholder record at
	// this position in the tree carries no trustworthy length of its own
	// (RRIP 4.1.5.1), so the real extent and data length are recovered by
	// reading the relocated directory's own "." self record.
	if reloc := rockridge.ParseRelocation(entries); reloc.HasChild {
		e.isDirectory = true
		e.isSymlink = false
		if self, err := readSelfRecordAt(reloc.ChildLBA, ctx.reader); err == nil {
			e.extents = []extent{{lba: reloc.ChildLBA, length: self.DataLength}}
			e.dataLength = int64(self.DataLength)
		} else {
			e.extents = []extent{{lba: reloc.ChildLBA, length: 0}}
			e.dataLength = 0
		}
	}
}
