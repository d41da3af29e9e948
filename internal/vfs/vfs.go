// Package vfs implements the filesystem-shape-independent traversal core:
// path splitting, bounded symlink resolution, and wildcard enumeration.
// It knows nothing about ECMA-119, Joliet, or Rock Ridge — it operates
// purely against the small capability interfaces below, the way the
// teacher's directory.DirectoryEntry implements fs.FileInfo and leaves
// path semantics to its callers in iso.go. Package isofs is the only
// caller; it adapts its ISO-specific entries to these interfaces.
package vfs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/disclens/isofs/isoerr"
)

// MaxSymlinkHops bounds symlink resolution, per spec.md.
const MaxSymlinkHops = 20

// Node is the smallest capability every filesystem entry exposes.
type Node interface {
	Name() string
	IsDir() bool
	IsSymlink() bool
}

// Resolver is how the traversal core reaches into a concrete filesystem.
// In this repo, isofs's resolverAdapter (a thin wrapper over isofs.Context)
// satisfies it.
type Resolver interface {
	// Root returns the filesystem's root directory node.
	Root() Node
	// Children lists dir's entries. dir must satisfy IsDir().
	Children(dir Node) ([]Node, error)
	// SymlinkTarget returns the raw target path recorded on a symlink
	// node. n must satisfy IsSymlink().
	SymlinkTarget(n Node) (string, error)
}

// SplitPath breaks path into path components. Backslashes and forward
// slashes are both treated as separators; an embedded empty component
// (a run of separators, or a leading separator after the first) resets
// the accumulated path rather than being ignored, matching the "absolute
// replaces base" combine quirk spec.md calls out: "a/b//c" resolves the
// same as just "c" from the root, not "a/b/c".
func SplitPath(path string) []string {
	normalized := strings.NewReplacer("\\", "/").Replace(path)
	raw := strings.Split(normalized, "/")

	var out []string
	for _, seg := range raw {
		if seg == "" {
			out = out[:0]
			continue
		}
		if seg == "." {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// lookup finds the child of dir named name, case-insensitively.
func lookup(r Resolver, dir Node, name string) (Node, error) {
	children, err := r.Children(dir)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if strings.EqualFold(c.Name(), name) {
			return c, nil
		}
	}
	return nil, nil
}

// Resolve walks path from the filesystem root, following directories,
// resolving symlinks as it encounters them (bounded at MaxSymlinkHops),
// and returns the node the full path names.
func Resolve(r Resolver, path string) (Node, error) {
	return resolve(r, r.Root(), SplitPath(path), 0)
}

func resolve(r Resolver, cur Node, segments []string, hops int) (Node, error) {
	for i, seg := range segments {
		if cur.IsSymlink() {
			var err error
			cur, hops, err = followSymlink(r, cur, hops)
			if err != nil {
				return nil, err
			}
		}
		if !cur.IsDir() {
			return nil, fmt.Errorf("%q: %w", seg, isoerr.ErrNotADirectory)
		}

		next, err := lookup(r, cur, seg)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("%q: %w", strings.Join(segments[:i+1], "/"), isoerr.ErrFileNotFound)
		}
		cur = next
	}

	if cur.IsSymlink() {
		var err error
		cur, _, err = followSymlink(r, cur, hops)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func followSymlink(r Resolver, n Node, hops int) (Node, int, error) {
	for n.IsSymlink() {
		hops++
		if hops > MaxSymlinkHops {
			return nil, hops, isoerr.ErrSymlinkLoop
		}
		target, err := r.SymlinkTarget(n)
		if err != nil {
			return nil, hops, err
		}
		resolved, err := resolve(r, r.Root(), SplitPath(target), hops)
		if err != nil {
			return nil, hops, err
		}
		n = resolved
	}
	return n, hops, nil
}

// WildcardToRegexp translates an ECMA-119-style enumeration pattern into an
// anchored, case-insensitive regular expression: '*' becomes ".*", '?'
// becomes "[^.]" (a single non-dot character, matching the classic 8.3
// wildcard semantics the teacher's disc images still use), and every other
// regexp metacharacter is escaped literally. Compiled once per call, never
// cached across calls, per spec.md's enumeration contract.
//
// spec.md §4.7 also describes a DOS-era quirk where a pattern with no
// literal '.' gets one appended before conversion (so an extension-less
// search only matches extension-less on-disc identifiers, which ECMA-119
// stores with a trailing separator dot). That's deliberately not applied
// here: spec.md's own §6/§9 contract defines the default enumeration
// pattern as bare "*", and "*" itself has no literal '.' — appending one
// would turn the documented "list everything" default into "list only
// names with a trailing dot", which real-world images routinely omit for
// extension-less entries. See DESIGN.md.
func WildcardToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString("[^.]")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// Enumerate lists the children of dir whose names match pattern, optionally
// descending into subdirectories.
func Enumerate(r Resolver, dir Node, pattern string, recursive bool) ([]Node, error) {
	re, err := WildcardToRegexp(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling wildcard pattern %q: %w", pattern, err)
	}
	var out []Node
	if err := enumerate(r, dir, re, recursive, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func enumerate(r Resolver, dir Node, re *regexp.Regexp, recursive bool, out *[]Node) error {
	children, err := r.Children(dir)
	if err != nil {
		return err
	}
	for _, c := range children {
		if re.MatchString(c.Name()) {
			*out = append(*out, c)
		}
		if recursive && c.IsDir() {
			if err := enumerate(r, c, re, recursive, out); err != nil {
				return err
			}
		}
	}
	return nil
}
