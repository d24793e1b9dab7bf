package driver

import (
	"io"
	"os"
	posixpath "path"
	"time"

	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/common/basicstream"
)

// FileInfo gives detailed information about a file or directory. It implements
// both the [os.FileInfo] and [os.DirEntry] interfaces.
type FileInfo struct {
	name string
	attr vtfs.Attr
}

var (
	_ os.FileInfo = FileInfo{}
	_ os.DirEntry = FileInfo{}
)

func newFileInfo(name string, attr vtfs.Attr) FileInfo {
	return FileInfo{name: name, attr: attr}
}

// os.FileInfo implementation --------------------------------------------------

func (info FileInfo) Name() string {
	return info.name
}

func (info FileInfo) Size() int64 {
	return info.attr.Size
}

// Mode returns the mode flags for the file or directory. It's functionally
// identical to Type(), but used to implement the [os.FileInfo] interface.
func (info FileInfo) Mode() os.FileMode {
	return info.attr.FileMode()
}

// ModTime always returns the zero time. The store keeps no timestamps.
func (info FileInfo) ModTime() time.Time {
	return time.Time{}
}

func (info FileInfo) IsDir() bool {
	return info.attr.IsDir()
}

// Sys returns the [vtfs.Attr] the information was built from.
func (info FileInfo) Sys() any {
	return info.attr
}

// os.DirEntry implementation --------------------------------------------------

// Type returns the type bits of the mode.
func (info FileInfo) Type() os.FileMode {
	return info.attr.FileMode().Type()
}

// Info is part of the [os.DirEntry] interface. It returns the `FileInfo` it was
// called on, since that implements both interfaces.
func (info FileInfo) Info() (os.FileInfo, error) {
	return info, nil
}

// Attr returns the inode attributes.
func (info FileInfo) Attr() vtfs.Attr {
	return info.attr
}

////////////////////////////////////////////////////////////////////////////////

// directoryObject stands in for the content of a directory opened for
// listing. Any I/O on it fails.
type directoryObject struct {
	basicstream.InodeObject
}

func (object directoryObject) ReadAt([]byte, int64) (int, error) {
	return 0, vtfs.ErrIsADirectory
}

func (object directoryObject) WriteAt([]byte, int64) (int, error) {
	return 0, vtfs.ErrIsADirectory
}

func (object directoryObject) Truncate(int64) error {
	return vtfs.ErrIsADirectory
}

// File is a (more or less) drop-in replacement for [os.File].
type File struct {
	// Embed
	*basicstream.BasicStream

	// Fields
	owningDriver *Driver
	inode        vtfs.InodeID
	isDir        bool
	absolutePath string
	ioFlags      vtfs.IOFlags

	// dirPos is the cursor of the next entry ReadDir returns.
	dirPos int64
}

func newFile(driver *Driver, attr vtfs.Attr, absPath string, ioFlags vtfs.IOFlags) (*File, error) {
	inode := basicstream.InodeObject{Store: driver.store, Inode: attr.Inode}
	var object basicstream.Object = inode
	if attr.IsDir() {
		object = directoryObject{inode}
	}

	stream, err := basicstream.New(object, ioFlags)
	if err != nil {
		return nil, err
	}

	return &File{
		BasicStream:  stream,
		owningDriver: driver,
		inode:        attr.Inode,
		isDir:        attr.IsDir(),
		absolutePath: absPath,
		ioFlags:      ioFlags,
		dirPos:       vtfs.FirstEntryPos,
	}, nil
}

// Name returns the absolute path the file was opened with.
func (file *File) Name() string {
	return file.absolutePath
}

// Inode returns the identity of the open inode.
func (file *File) Inode() vtfs.InodeID {
	return file.inode
}

func (file *File) Chmod(mode os.FileMode) error {
	return file.owningDriver.store.Chmod(file.inode, vtfs.FromFileMode(mode))
}

// Stat returns up-to-date information about the open inode, which may have been
// changed through other names or handles.
func (file *File) Stat() (os.FileInfo, error) {
	attr, err := file.owningDriver.store.Getattr(file.inode)
	if err != nil {
		return nil, err
	}
	return newFileInfo(posixpath.Base(file.absolutePath), attr), nil
}

// ReadDir reads the next `n` entries of a directory, skipping "." and "..". It
// follows [os.File.ReadDir]: with n > 0 it returns [io.EOF] once nothing is
// left, and with n <= 0 it returns everything that remains and a nil error.
func (file *File) ReadDir(n int) ([]os.DirEntry, error) {
	infos, err := file.readDir(n)
	entries := make([]os.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = info
	}
	return entries, err
}

func (file *File) readDir(n int) ([]FileInfo, error) {
	if !file.isDir {
		return nil, vtfs.ErrNotADirectory.WithMessage(file.absolutePath)
	}
	if err := file.Sync(); err != nil {
		return nil, err
	}

	store := file.owningDriver.store
	var output []FileInfo
	for n <= 0 || len(output) < n {
		entry, next, err := store.ReadDirAt(file.inode, file.dirPos)
		if err == io.EOF {
			break
		} else if err != nil {
			return output, err
		}

		attr, err := store.Getattr(entry.Inode)
		if err != nil {
			return output, err
		}
		output = append(output, newFileInfo(entry.Name, attr))
		file.dirPos = next
	}

	if n > 0 && len(output) == 0 {
		return output, io.EOF
	}
	return output, nil
}

func (file *File) Readdir(n int) ([]os.FileInfo, error) {
	dirents, err := file.readDir(n)
	if err == io.EOF {
		// If we hit EOF, return an empty slice, not nil.
		return make([]os.FileInfo, 0), err
	} else if err != nil {
		// Unknown error
		return nil, err
	}

	infoList := make([]os.FileInfo, len(dirents))
	for i, dirent := range dirents {
		infoList[i] = dirent
	}
	return infoList, nil
}

func (file *File) Readdirnames(n int) ([]string, error) {
	dirents, err := file.readDir(n)
	if err == io.EOF {
		// If we hit EOF, return an empty slice not nil.
		return make([]string, 0), err
	} else if err != nil {
		// Unknown error
		return nil, err
	}

	names := make([]string, len(dirents))
	for i, dirent := range dirents {
		names[i] = dirent.Name()
	}
	return names, nil
}
