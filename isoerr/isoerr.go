// Package isoerr defines the error kinds surfaced by package isofs.
//
// Every kind is a sentinel that callers can match with errors.Is; where the
// decoder has offset/path context it wraps the sentinel with
// fmt.Errorf("...: %w", ...) at the point that detected the problem, and
// otherwise returns it bare, so the kind stays matchable either way.
package isoerr

import "errors"

var (
	// ErrNotISO9660 means a volume descriptor sector's standard identifier
	// did not read "CD001", or the image ended before any Primary volume
	// descriptor was found.
	ErrNotISO9660 = errors.New("not an iso9660 image")

	// ErrMalformed means the volume descriptor set reached its Set
	// Terminator before any Primary volume descriptor. Other decode
	// failures (a truncated descriptor, a record length overflow, a CE
	// chain that loops) are reported as plain errors that do not wrap it.
	ErrMalformed = errors.New("malformed iso9660 structure")

	// ErrNoSupportedVariant means none of the Joliet/RockRidge/ISO9660
	// variant checks accepted a root directory to read from.
	ErrNoSupportedVariant = errors.New("no supported iso9660 variant found")

	// ErrFileNotFound means a path resolved to nothing.
	ErrFileNotFound = errors.New("file not found")

	// ErrDirectoryNotFound means a directory path resolved to nothing.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrNotADirectory means a non-final path component resolved to a file.
	ErrNotADirectory = errors.New("not a directory")

	// ErrIsADirectory means a caller tried to open a directory as a file.
	ErrIsADirectory = errors.New("is a directory")

	// ErrUnsupported covers any write/create attempt and non-contiguous
	// extent layouts PathToClusters can't express as a single range.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrSymlinkLoop means resolution exceeded the 20-hop bound.
	ErrSymlinkLoop = errors.New("symlink resolution exceeded hop limit")
)

// Is reports whether err wraps target anywhere in its chain. It exists only
// so call sites that don't want to import "errors" directly for a single
// check can use isoerr.Is; everything else should just use errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
