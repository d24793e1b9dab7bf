// Package vtfs defines the naming and I/O model of a bounded in-memory file
// store: inode identities, attributes, directory entries and the operations a
// dispatcher maps its requests onto.
package vtfs

import (
	"fmt"
	"os"
)

// InodeID is the stable identity of an inode. Identities are handed out in
// increasing order and are never given to a second inode.
type InodeID uint64

// InvalidInodeID is never assigned to an inode.
const InvalidInodeID = InodeID(0)

// RootInodeID is the well-known identity of the root directory.
const RootInodeID = InodeID(100)

// FileType distinguishes regular files from directories. Nothing else exists
// on this file system.
type FileType uint8

const (
	TypeRegular FileType = iota + 1
	TypeDirectory
)

func (t FileType) String() string {
	switch t {
	case TypeRegular:
		return "file"
	case TypeDirectory:
		return "dir"
	default:
		return fmt.Sprintf("FileType(%d)", uint8(t))
	}
}

// ModeBits returns the S_IFMT bits for the type.
func (t FileType) ModeBits() uint32 {
	if t == TypeDirectory {
		return S_IFDIR
	}
	return S_IFREG
}

// Attr is a snapshot of an inode's metadata. It's a copy; changing it changes
// nothing in the store.
type Attr struct {
	Inode InodeID
	Type  FileType
	// Mode holds the type bits (S_IFDIR or S_IFREG) and the permission bits.
	Mode  uint32
	Size  int64
	Nlink uint32
}

func (attr Attr) IsDir() bool {
	return attr.Type == TypeDirectory
}

func (attr Attr) IsFile() bool {
	return attr.Type == TypeRegular
}

// FileMode returns the mode as an [os.FileMode].
func (attr Attr) FileMode() os.FileMode {
	return ToFileMode(attr.Mode)
}

// DirectoryEntry is one item of a directory listing. The "." and ".." entries
// are synthesized and have no backing entry in the store.
type DirectoryEntry struct {
	Name  string
	Inode InodeID
	Type  FileType
}

func (dirent DirectoryEntry) IsDir() bool {
	return dirent.Type == TypeDirectory
}

// Directory cursor positions. The two synthesized entries come first, and the
// directory's own entries start at FirstEntryPos.
const (
	DotPos        = int64(0)
	DotDotPos     = int64(1)
	FirstEntryPos = int64(2)
)

// FSStat describes how full the store is.
type FSStat struct {
	TotalInodes   uint64
	FreeInodes    uint64
	TotalEntries  uint64
	FreeEntries   uint64
	MaxFileSize   int64
	MaxNameLength uint
}

// Store is the set of operations a dispatcher maps onto the file system. All
// of them are synchronous and atomic: they either fully commit or change
// nothing.
type Store interface {
	// Root returns the identity of the root directory.
	Root() InodeID

	// Lookup resolves `name` inside the directory `parent`.
	Lookup(parent InodeID, name string) (Attr, error)
	// Getattr returns the attributes of a live inode.
	Getattr(id InodeID) (Attr, error)

	// Create makes an empty regular file. It fails if the name exists.
	Create(parent InodeID, name string, mode uint32) (InodeID, error)
	// Mkdir makes an empty directory. It fails if the name exists.
	Mkdir(parent InodeID, name string, mode uint32) (InodeID, error)
	// Unlink removes a name of a regular file. The inode is reclaimed when its
	// last name goes away.
	Unlink(parent InodeID, name string) error
	// Rmdir removes an empty directory.
	Rmdir(parent InodeID, name string) error
	// Link gives the regular file `target` an additional name.
	Link(target InodeID, newParent InodeID, newName string) error

	// Read returns up to `length` bytes starting at `offset`. `eof` is true if
	// the read reached the end of the data.
	Read(id InodeID, offset int64, length int) (data []byte, eof bool, err error)
	// Write copies `data` into the file at `offset`, growing it as needed.
	Write(id InodeID, offset int64, data []byte) (int, error)
	// Truncate sets the logical size of a regular file.
	Truncate(id InodeID, size int64) error
	// Chmod replaces the permission bits of an inode.
	Chmod(id InodeID, mode uint32) error

	// ReadDirAt returns the entry at cursor `pos` of directory `dir`, and the
	// cursor of the entry after it. At the end it returns io.EOF.
	ReadDirAt(dir InodeID, pos int64) (DirectoryEntry, int64, error)
	// Iterate feeds entries starting at `pos` to `emit` until the directory is
	// exhausted or `emit` returns false, and returns the cursor to resume from.
	// An entry `emit` refused is produced again on the next call.
	Iterate(dir InodeID, pos int64, emit func(DirectoryEntry) bool) (int64, error)

	// StatFS reports table usage.
	StatFS() FSStat
}
