package vtfs

import (
	"github.com/secs-dev/vtfs/errors"
)

// DriverError is the error type returned by every store operation. See
// [errors.DriverError].
type DriverError = errors.DriverError

// Errno is a portable POSIX error code.
type Errno = errors.Errno

// Error kinds. Match them with errors.Is; messages added through WithMessage or
// Wrap don't break the match.
var (
	// ErrNotFound: no such name, or an identity that isn't live.
	ErrNotFound = errors.ErrNotFound
	// ErrExists: the name is already taken in that directory.
	ErrExists = errors.ErrExists
	// ErrNoSpaceOnDevice: a slot table or a content buffer is full.
	ErrNoSpaceOnDevice = errors.ErrNoSpaceOnDevice
	ErrNotADirectory   = errors.ErrNotADirectory
	ErrIsADirectory    = errors.ErrIsADirectory
	// ErrDirectoryNotEmpty is returned by rmdir only; nothing recurses.
	ErrDirectoryNotEmpty = errors.ErrDirectoryNotEmpty
	// ErrNotPermitted: a stream was used against its open flags. Modes are
	// stored, never enforced.
	ErrNotPermitted = errors.ErrNotPermitted
	// ErrPermissionDenied: removing the root directory.
	ErrPermissionDenied = errors.ErrPermissionDenied
	// ErrInvalidFileDescriptor: I/O on a closed stream.
	ErrInvalidFileDescriptor = errors.ErrInvalidFileDescriptor
	ErrInvalidArgument       = errors.ErrInvalidArgument
	ErrNameTooLong           = errors.ErrNameTooLong
	ErrFileSystemCorrupted   = errors.ErrFileSystemCorrupted
)

// ErrnoOf returns the errno code of `err`; see [errors.ErrnoOf].
func ErrnoOf(err error) Errno {
	return errors.ErrnoOf(err)
}
