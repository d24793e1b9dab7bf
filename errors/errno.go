// This is a compatibility shim for POSIX-defined errno codes across platforms.
// The syscall package doesn't define all the values we need on all systems,
// particularly things like EUCLEAN.

package errors

import (
	"fmt"
	"syscall"
)

type Errno int

const (
	EOK Errno = iota
	EPERM
	ENOENT
	EIO
	EBADF
	EACCES
	EEXIST
	ENOTDIR
	EISDIR
	EINVAL
	ENOSPC
	ENAMETOOLONG
	ENOTEMPTY
	EALREADY
	EUCLEAN
)

// errorMessagesByCode must be ready before the sentinels below are built, since
// New reads it.
var errorMessagesByCode = map[Errno]string{
	EOK:          "Success",
	EPERM:        "Operation not permitted",
	ENOENT:       "No such file or directory",
	EIO:          "Input/output error",
	EBADF:        "Bad file descriptor",
	EACCES:       "Permission denied",
	EEXIST:       "File exists",
	ENOTDIR:      "Not a directory",
	EISDIR:       "Is a directory",
	EINVAL:       "Invalid argument",
	ENOSPC:       "No space left on device",
	ENAMETOOLONG: "File name too long",
	ENOTEMPTY:    "Directory not empty",
	EALREADY:     "Operation already in progress",
	EUCLEAN:      "Structure needs cleaning",
}

var ErrNotPermitted = New(EPERM)
var ErrNotFound = New(ENOENT)
var ErrInvalidFileDescriptor = New(EBADF)
var ErrPermissionDenied = New(EACCES)
var ErrExists = New(EEXIST)
var ErrNotADirectory = New(ENOTDIR)
var ErrIsADirectory = New(EISDIR)
var ErrInvalidArgument = New(EINVAL)
var ErrNoSpaceOnDevice = New(ENOSPC)
var ErrNameTooLong = New(ENAMETOOLONG)
var ErrDirectoryNotEmpty = New(ENOTEMPTY)
var ErrAlreadyInProgress = New(EALREADY)
var ErrFileSystemCorrupted = New(EUCLEAN)

func StrError(code Errno) string {
	message, ok := errorMessagesByCode[code]
	if ok {
		return message
	}
	return fmt.Sprintf("error %d not recognized.", int(code))
}

// syscallCodes maps our portable codes onto the host's. EUCLEAN has no
// portable equivalent and degrades to EIO.
var syscallCodes = map[Errno]syscall.Errno{
	EPERM:        syscall.EPERM,
	ENOENT:       syscall.ENOENT,
	EIO:          syscall.EIO,
	EBADF:        syscall.EBADF,
	EACCES:       syscall.EACCES,
	EEXIST:       syscall.EEXIST,
	ENOTDIR:      syscall.ENOTDIR,
	EISDIR:       syscall.EISDIR,
	EINVAL:       syscall.EINVAL,
	ENOSPC:       syscall.ENOSPC,
	ENAMETOOLONG: syscall.ENAMETOOLONG,
	ENOTEMPTY:    syscall.ENOTEMPTY,
	EALREADY:     syscall.EALREADY,
	EUCLEAN:      syscall.EIO,
}

// ToSyscall converts a code to the host's [syscall.Errno], which is what a
// dispatcher hands back to the kernel or to a FUSE library. EOK maps to 0.
func ToSyscall(code Errno) syscall.Errno {
	if sysCode, ok := syscallCodes[code]; ok {
		return sysCode
	}
	if code == EOK {
		return 0
	}
	return syscall.EIO
}
