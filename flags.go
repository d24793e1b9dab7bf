package vtfs

import "os"

const (
	S_IXOTH = 1 << iota // 00001
	S_IWOTH = 1 << iota // 00002
	S_IROTH = 1 << iota
	S_IXGRP = 1 << iota
	S_IWGRP = 1 << iota // 00010
	S_IRGRP = 1 << iota
	S_IXUSR = 1 << iota
	S_IWUSR = 1 << iota
	S_IRUSR = 1 << iota // 00100
	S_ISVTX = 1 << iota
	S_ISGID = 1 << iota
	S_ISUID = 1 << iota
	S_IFIFO = 1 << iota // 01000
	S_IFCHR = 1 << iota // 02000
	S_IFDIR = 1 << iota // 04000
	S_IFREG = 1 << iota // 08000
)

const S_IFMT = 0xf000

const S_IRWXO = S_IXOTH | S_IWOTH | S_IROTH
const S_IRWXG = S_IXGRP | S_IWGRP | S_IRGRP
const S_IRWXU = S_IXUSR | S_IWUSR | S_IRUSR

// PermissionBits are the bits of a mode the store keeps from callers. Type
// bits are always derived from the inode type.
const PermissionBits = S_ISUID | S_ISGID | S_ISVTX | S_IRWXU | S_IRWXG | S_IRWXO

// ToFileMode converts POSIX mode bits to an [os.FileMode].
func ToFileMode(mode uint32) os.FileMode {
	fileMode := os.FileMode(mode & (S_IRWXU | S_IRWXG | S_IRWXO))
	if mode&S_IFMT == S_IFDIR {
		fileMode |= os.ModeDir
	}
	if mode&S_ISUID != 0 {
		fileMode |= os.ModeSetuid
	}
	if mode&S_ISGID != 0 {
		fileMode |= os.ModeSetgid
	}
	if mode&S_ISVTX != 0 {
		fileMode |= os.ModeSticky
	}
	return fileMode
}

// FromFileMode is the inverse of [ToFileMode]. Only permission bits survive;
// the type is never taken from a caller.
func FromFileMode(fileMode os.FileMode) uint32 {
	mode := uint32(fileMode.Perm())
	if fileMode&os.ModeSetuid != 0 {
		mode |= S_ISUID
	}
	if fileMode&os.ModeSetgid != 0 {
		mode |= S_ISGID
	}
	if fileMode&os.ModeSticky != 0 {
		mode |= S_ISVTX
	}
	return mode
}

// IOFlags are the open(2) flags understood by file handles. The store itself
// never sees them: append and truncate are resolved into offsets and sizes
// before a read or write reaches it.
type IOFlags int

const (
	O_RDONLY = IOFlags(os.O_RDONLY)
	O_WRONLY = IOFlags(os.O_WRONLY)
	O_RDWR   = IOFlags(os.O_RDWR)
	O_APPEND = IOFlags(os.O_APPEND)
	O_CREATE = IOFlags(os.O_CREATE)
	O_EXCL   = IOFlags(os.O_EXCL)
	O_SYNC   = IOFlags(os.O_SYNC)
	O_TRUNC  = IOFlags(os.O_TRUNC)
)

const accessModeMask = O_RDONLY | O_WRONLY | O_RDWR

func (flags IOFlags) Read() bool {
	access := flags & accessModeMask
	return access == O_RDONLY || access == O_RDWR
}

func (flags IOFlags) Write() bool {
	access := flags & accessModeMask
	return access == O_WRONLY || access == O_RDWR
}

func (flags IOFlags) Append() bool {
	return flags&O_APPEND != 0
}

func (flags IOFlags) Create() bool {
	return flags&O_CREATE != 0
}

func (flags IOFlags) Exclusive() bool {
	return flags&O_EXCL != 0
}

func (flags IOFlags) Synchronous() bool {
	return flags&O_SYNC != 0
}

func (flags IOFlags) Truncate() bool {
	return flags&O_TRUNC != 0
}

// RequiresWritePerm is true if the flags allow any modification of the file,
// including creating it.
func (flags IOFlags) RequiresWritePerm() bool {
	return flags.Write() || flags.Create() || flags.Truncate() || flags.Append()
}
