package ramfs

import (
	"fmt"

	"github.com/secs-dev/vtfs"
)

// Options sets the fixed capacities of a store. None of them can change after
// [New].
type Options struct {
	// MaxInodes is the number of files and directories that can exist at once,
	// not counting the root directory.
	MaxInodes uint
	// MaxEntries is the number of names that can exist at once. Every file and
	// directory uses one, and every extra hard link uses another.
	MaxEntries uint
	// MaxNameLength is the longest allowed name, in bytes.
	MaxNameLength uint
	// MaxFileSize is the capacity of each file's content buffer, in bytes.
	MaxFileSize int64
}

// DefaultOptions returns a small configuration: 16 files of at most 4 KiB with
// names of up to 31 bytes.
func DefaultOptions() Options {
	return Options{
		MaxInodes:     16,
		MaxEntries:    16,
		MaxNameLength: 31,
		MaxFileSize:   4096,
	}
}

// Validate checks that every capacity is usable.
func (opts Options) Validate() error {
	if opts.MaxInodes == 0 {
		return vtfs.ErrInvalidArgument.WithMessage("MaxInodes must be at least 1")
	}
	if opts.MaxEntries == 0 {
		return vtfs.ErrInvalidArgument.WithMessage("MaxEntries must be at least 1")
	}
	if opts.MaxNameLength == 0 {
		return vtfs.ErrInvalidArgument.WithMessage("MaxNameLength must be at least 1")
	}
	if opts.MaxFileSize < 0 {
		return vtfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("MaxFileSize can't be negative, got %d", opts.MaxFileSize),
		)
	}
	return nil
}
