// Package ramfs implements [vtfs.Store] entirely in memory, over two
// fixed-size slot tables: one of inodes and one of directory entries. Nothing
// is allocated after [New] returns except the copies handed back by reads.
package ramfs

import (
	"io"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/common"
)

var log = logging.Logger("vtfs/ramfs")

// Driver is an in-memory file store. The zero value isn't usable; create one
// with [New].
//
// A single mutex serializes every operation, so each call is atomic with
// respect to all others.
type Driver struct {
	lock sync.Mutex

	opts    Options
	inodes  *common.SlotTable[inode]
	entries *common.SlotTable[dirent]

	// buffers holds the content of the inode in the slot with the same index.
	// Each one is allocated once, at full capacity.
	buffers [][]byte

	nextID vtfs.InodeID
}

var _ vtfs.Store = (*Driver)(nil)

// New creates a store containing only the root directory.
func New(opts Options) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// One extra inode slot for the root, which doesn't count against the
	// caller's limit.
	totalInodes := opts.MaxInodes + 1
	driver := &Driver{
		opts:    opts,
		inodes:  common.NewSlotTable[inode](totalInodes),
		entries: common.NewSlotTable[dirent](opts.MaxEntries),
		buffers: make([][]byte, totalInodes),
		nextID:  vtfs.RootInodeID,
	}
	for i := range driver.buffers {
		driver.buffers[i] = make([]byte, opts.MaxFileSize)
	}

	rootID, err := driver.allocateInode(vtfs.TypeDirectory, 0o777)
	if err != nil {
		return nil, err
	}
	log.Debugw("store initialized",
		"root", rootID,
		"maxInodes", opts.MaxInodes,
		"maxEntries", opts.MaxEntries,
		"maxFileSize", opts.MaxFileSize,
	)
	return driver, nil
}

// Options returns the capacities the store was created with.
func (driver *Driver) Options() Options {
	return driver.opts
}

func (driver *Driver) Root() vtfs.InodeID {
	return vtfs.RootInodeID
}

func (driver *Driver) StatFS() vtfs.FSStat {
	driver.lock.Lock()
	defer driver.lock.Unlock()

	return vtfs.FSStat{
		TotalInodes:   uint64(driver.opts.MaxInodes),
		FreeInodes:    uint64(driver.inodes.Free()),
		TotalEntries:  uint64(driver.entries.Cap()),
		FreeEntries:   uint64(driver.entries.Free()),
		MaxFileSize:   driver.opts.MaxFileSize,
		MaxNameLength: driver.opts.MaxNameLength,
	}
}

func (driver *Driver) Lookup(parent vtfs.InodeID, name string) (vtfs.Attr, error) {
	driver.lock.Lock()
	defer driver.lock.Unlock()

	if _, err := driver.getDirectory(parent); err != nil {
		return vtfs.Attr{}, err
	}
	target, err := driver.lookupEntry(name, parent)
	if err != nil {
		return vtfs.Attr{}, err
	}
	node, err := driver.getInode(target)
	if err != nil {
		return vtfs.Attr{}, err
	}
	return node.attr(), nil
}

func (driver *Driver) Getattr(id vtfs.InodeID) (vtfs.Attr, error) {
	driver.lock.Lock()
	defer driver.lock.Unlock()

	node, err := driver.getInode(id)
	if err != nil {
		return vtfs.Attr{}, err
	}
	return node.attr(), nil
}

func (driver *Driver) Create(parent vtfs.InodeID, name string, mode uint32) (vtfs.InodeID, error) {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.createObject(parent, name, vtfs.TypeRegular, mode)
}

func (driver *Driver) Mkdir(parent vtfs.InodeID, name string, mode uint32) (vtfs.InodeID, error) {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.createObject(parent, name, vtfs.TypeDirectory, mode)
}

func (driver *Driver) Unlink(parent vtfs.InodeID, name string) error {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.unlink(parent, name)
}

func (driver *Driver) Rmdir(parent vtfs.InodeID, name string) error {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.rmdir(parent, name)
}

func (driver *Driver) Link(target vtfs.InodeID, newParent vtfs.InodeID, newName string) error {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.link(target, newParent, newName)
}

func (driver *Driver) Read(id vtfs.InodeID, offset int64, length int) ([]byte, bool, error) {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.read(id, offset, length)
}

func (driver *Driver) Write(id vtfs.InodeID, offset int64, data []byte) (int, error) {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.write(id, offset, data)
}

func (driver *Driver) Truncate(id vtfs.InodeID, size int64) error {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.truncate(id, size)
}

func (driver *Driver) Chmod(id vtfs.InodeID, mode uint32) error {
	driver.lock.Lock()
	defer driver.lock.Unlock()

	node, err := driver.getInode(id)
	if err != nil {
		return err
	}
	node.mode = mode & vtfs.PermissionBits
	return nil
}

func (driver *Driver) ReadDirAt(dir vtfs.InodeID, pos int64) (vtfs.DirectoryEntry, int64, error) {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.readDirAt(dir, pos)
}

// Iterate implements [vtfs.Store.Iterate]. The lock is dropped while `emit`
// runs, so `emit` may call back into the store. Every step rescans the entry
// table, so changes made in between shift the positions of later entries.
func (driver *Driver) Iterate(
	dir vtfs.InodeID,
	pos int64,
	emit func(vtfs.DirectoryEntry) bool,
) (int64, error) {
	for {
		entry, next, err := driver.ReadDirAt(dir, pos)
		if err == io.EOF {
			return pos, nil
		} else if err != nil {
			return pos, err
		}

		if !emit(entry) {
			return pos, nil
		}
		pos = next
	}
}

// Check verifies the consistency of both tables. See [Driver.check].
func (driver *Driver) Check() error {
	driver.lock.Lock()
	defer driver.lock.Unlock()
	return driver.check()
}
