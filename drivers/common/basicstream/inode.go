package basicstream

import (
	"io"

	"github.com/secs-dev/vtfs"
)

// InodeObject is an [Object] backed by one inode of a [vtfs.Store].
type InodeObject struct {
	Store vtfs.Store
	Inode vtfs.InodeID
}

// Open creates a stream over inode `id` of `store`. It fails with
// [vtfs.ErrIsADirectory] for directories.
func Open(store vtfs.Store, id vtfs.InodeID, flags vtfs.IOFlags) (*BasicStream, error) {
	object := InodeObject{Store: store, Inode: id}
	attr, err := object.Attr()
	if err != nil {
		return nil, err
	}
	if attr.IsDir() {
		return nil, vtfs.ErrIsADirectory.WithMessage("can't open a directory as a stream")
	}
	return New(object, flags)
}

func (object InodeObject) Attr() (vtfs.Attr, error) {
	return object.Store.Getattr(object.Inode)
}

func (object InodeObject) ReadAt(buffer []byte, offset int64) (int, error) {
	data, eof, err := object.Store.Read(object.Inode, offset, len(buffer))
	if err != nil {
		return 0, err
	}
	n := copy(buffer, data)
	if n < len(buffer) || (eof && n == 0) {
		return n, io.EOF
	}
	return n, nil
}

func (object InodeObject) WriteAt(buffer []byte, offset int64) (int, error) {
	return object.Store.Write(object.Inode, offset, buffer)
}

func (object InodeObject) Truncate(size int64) error {
	return object.Store.Truncate(object.Inode, size)
}
