// Package isofs is a read-only driver for ECMA-119 (ISO9660) disc images,
// including the Joliet supplementary extension and SUSP/Rock Ridge
// extensions. Open an image with Open, then navigate it with Context's
// methods; every method that would mutate the image returns
// isoerr.ErrUnsupported.
package isofs

import (
	"fmt"
	"io"

	"github.com/disclens/isofs/internal/descriptor"
	"github.com/disclens/isofs/internal/vfs"
	"github.com/disclens/isofs/isoerr"
)

// resolverAdapter lets Context drive the variant-agnostic traversal core
// in internal/vfs without that package knowing anything about ECMA-119.
type resolverAdapter struct{ ctx *Context }

func (a resolverAdapter) Root() vfs.Node {
	// Root always succeeds once Open has returned; Open itself resolves
	// and caches it, surfacing any failure before a Context ever exists.
	root, _ := a.ctx.Root()
	return root
}

func (a resolverAdapter) Children(n vfs.Node) ([]vfs.Node, error) {
	children, err := a.ctx.children(n.(*Entry))
	if err != nil {
		return nil, err
	}
	out := make([]vfs.Node, len(children))
	for i, c := range children {
		out[i] = c
	}
	return out, nil
}

func (a resolverAdapter) SymlinkTarget(n vfs.Node) (string, error) {
	return n.(*Entry).symlinkTarget, nil
}

func (c *Context) resolver() vfs.Resolver { return resolverAdapter{c} }

// Stat resolves path (following any Rock Ridge symlinks along the way) to
// the Entry it names.
func (c *Context) Stat(path string) (*Entry, error) {
	node, err := vfs.Resolve(c.resolver(), path)
	if err != nil {
		return nil, err
	}
	return node.(*Entry), nil
}

// Exists reports whether path resolves to anything, file or directory.
func (c *Context) Exists(path string) bool {
	_, err := c.Stat(path)
	return err == nil
}

// DirectoryExists reports whether path resolves to a directory.
func (c *Context) DirectoryExists(path string) bool {
	e, err := c.Stat(path)
	return err == nil && e.IsDir()
}

// FileExists reports whether path resolves to a regular file.
func (c *Context) FileExists(path string) bool {
	e, err := c.Stat(path)
	return err == nil && !e.IsDir()
}

// GetFileSystemEntries lists path's entries matching pattern (an ECMA-119
// style wildcard; "*" if pattern is empty), optionally descending into
// subdirectories.
func (c *Context) GetFileSystemEntries(path, pattern string, recursive bool) ([]*Entry, error) {
	dir, err := c.Stat(path)
	if err != nil {
		return nil, err
	}
	if !dir.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, isoerr.ErrNotADirectory)
	}
	if pattern == "" {
		pattern = "*"
	}

	nodes, err := vfs.Enumerate(c.resolver(), dir, pattern, recursive)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, len(nodes))
	for i, n := range nodes {
		out[i] = n.(*Entry)
	}
	return out, nil
}

// GetDirectories lists only the subdirectories matching pattern.
func (c *Context) GetDirectories(path, pattern string, recursive bool) ([]*Entry, error) {
	return c.filteredEntries(path, pattern, recursive, true)
}

// GetFiles lists only the files matching pattern.
func (c *Context) GetFiles(path, pattern string, recursive bool) ([]*Entry, error) {
	return c.filteredEntries(path, pattern, recursive, false)
}

func (c *Context) filteredEntries(path, pattern string, recursive, wantDir bool) ([]*Entry, error) {
	all, err := c.GetFileSystemEntries(path, pattern, recursive)
	if err != nil {
		return nil, err
	}
	var out []*Entry
	for _, e := range all {
		if e.IsDir() == wantDir {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetFileLength returns the byte length of the file at path.
func (c *Context) GetFileLength(path string) (int64, error) {
	e, err := c.Stat(path)
	if err != nil {
		return 0, err
	}
	if e.IsDir() {
		return 0, fmt.Errorf("%s: %w", path, isoerr.ErrIsADirectory)
	}
	return e.Size(), nil
}

// OpenFile returns a reader over the file at path's data, concatenating
// extents in disc order for a multi-extent file.
func (c *Context) OpenFile(path string) (io.Reader, error) {
	e, err := c.Stat(path)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, isoerr.ErrIsADirectory)
	}
	return c.openEntry(e)
}

func (c *Context) openEntry(e *Entry) (io.Reader, error) {
	if len(e.extents) == 0 {
		return io.LimitReader(io.MultiReader(), 0), nil
	}
	readers := make([]io.Reader, len(e.extents))
	for i, ext := range e.extents {
		readers[i] = io.NewSectionReader(c.reader, int64(ext.lba)*descriptor.SectorSize, int64(ext.length))
	}
	if len(readers) == 1 {
		return readers[0], nil
	}
	return io.MultiReader(readers...), nil
}

// ClusterRange is one contiguous run of logical blocks, addressed by its
// starting LBA and a count whose unit matches spec.md's §4.8 contract: for
// a directory, the number of 2048-byte sectors spanned (ceil(dataLength /
// 2048)); for a file, the same per-extent sector count, so a multi-extent
// file's ranges sum to at least its byte length the way testable property
// 3 expects.
type ClusterRange struct {
	LBA   uint32
	Count uint64
}

// PathToClusters exposes path's on-disc physical layout: the list of
// logical-block ranges backing its directory extent or, for a file, every
// extent record sharing its identifier in disc order (see
// groupMultiExtent). Grounded on spec.md §4.8's PathToClusters contract.
func (c *Context) PathToClusters(path string) ([]ClusterRange, error) {
	e, err := c.Stat(path)
	if err != nil {
		return nil, err
	}

	if e.isDirectory {
		if e.fileUnitSize != 0 || e.interleaveGap != 0 {
			return nil, fmt.Errorf("%s: %w", path, isoerr.ErrUnsupported)
		}
		if len(e.extents) == 0 {
			return nil, nil
		}
		ext := e.extents[0]
		count := (uint64(ext.length) + descriptor.SectorSize - 1) / descriptor.SectorSize
		return []ClusterRange{{LBA: ext.lba, Count: count}}, nil
	}

	out := make([]ClusterRange, len(e.extents))
	for i, ext := range e.extents {
		out[i] = ClusterRange{
			LBA:   ext.lba,
			Count: (uint64(ext.length) + descriptor.SectorSize - 1) / descriptor.SectorSize,
		}
	}
	return out, nil
}

// CreateDirectory, WriteFile, and Remove all report ErrUnsupported: this
// is a read-only filesystem driver, matching spec.md's scope.

func (c *Context) CreateDirectory(string) error      { return isoerr.ErrUnsupported }
func (c *Context) WriteFile(string, io.Reader) error { return isoerr.ErrUnsupported }
func (c *Context) Remove(string) error               { return isoerr.ErrUnsupported }
