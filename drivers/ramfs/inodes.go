package ramfs

import (
	"fmt"

	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/common"
)

// inode is the metadata of a file or directory. Its content lives in
// Driver.buffers at the same slot index.
type inode struct {
	id    vtfs.InodeID
	typ   vtfs.FileType
	mode  uint32
	size  int64
	nlink uint32
	slot  common.SlotIndex
}

func (node *inode) isDir() bool {
	return node.typ == vtfs.TypeDirectory
}

func (node *inode) attr() vtfs.Attr {
	return vtfs.Attr{
		Inode: node.id,
		Type:  node.typ,
		Mode:  node.typ.ModeBits() | node.mode,
		Size:  node.size,
		Nlink: node.nlink,
	}
}

// allocateInode reserves a slot for a new inode with a link count of 1 and no
// content, and gives it the next identity.
func (driver *Driver) allocateInode(typ vtfs.FileType, mode uint32) (vtfs.InodeID, error) {
	slot, node, err := driver.inodes.Allocate()
	if err != nil {
		return vtfs.InvalidInodeID, err
	}

	*node = inode{
		id:    driver.nextID,
		typ:   typ,
		mode:  mode & vtfs.PermissionBits,
		nlink: 1,
		slot:  slot,
	}
	driver.nextID++
	return node.id, nil
}

// getInode returns the live inode with the given identity.
func (driver *Driver) getInode(id vtfs.InodeID) (*inode, error) {
	_, node, ok := driver.inodes.Find(func(_ common.SlotIndex, node *inode) bool {
		return node.id == id
	})
	if !ok {
		return nil, vtfs.ErrNotFound.WithMessage(fmt.Sprintf("no inode %d", id))
	}
	return node, nil
}

// getDirectory is getInode, but fails with ENOTDIR if the inode isn't a
// directory.
func (driver *Driver) getDirectory(id vtfs.InodeID) (*inode, error) {
	node, err := driver.getInode(id)
	if err != nil {
		return nil, err
	}
	if !node.isDir() {
		return nil, vtfs.ErrNotADirectory.WithMessage(fmt.Sprintf("inode %d", id))
	}
	return node, nil
}

// getRegularFile is getInode, but fails with EISDIR for directories.
func (driver *Driver) getRegularFile(id vtfs.InodeID) (*inode, error) {
	node, err := driver.getInode(id)
	if err != nil {
		return nil, err
	}
	if node.isDir() {
		return nil, vtfs.ErrIsADirectory.WithMessage(fmt.Sprintf("inode %d", id))
	}
	return node, nil
}

// resizeCheck fails with ENOSPC if `node` can't hold `newSize` bytes.
func (driver *Driver) resizeCheck(node *inode, newSize int64) error {
	if newSize < 0 {
		return vtfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("inode %d: size %d is negative", node.id, newSize),
		)
	}
	if newSize > driver.opts.MaxFileSize {
		return vtfs.ErrNoSpaceOnDevice.WithMessage(
			fmt.Sprintf(
				"inode %d: %d bytes exceeds the capacity of %d",
				node.id,
				newSize,
				driver.opts.MaxFileSize,
			),
		)
	}
	return nil
}

func (driver *Driver) incLink(node *inode) {
	node.nlink++
}

// decLink drops one link from `node` and returns how many are left. At zero
// the inode is reclaimed and `node` must not be used again.
func (driver *Driver) decLink(node *inode) uint32 {
	if node.nlink > 0 {
		node.nlink--
	}
	remaining := node.nlink
	if remaining == 0 {
		driver.reclaim(node)
	}
	return remaining
}

// reclaim wipes the content buffer of `node` and frees its slot. The identity
// isn't reused, so anybody still holding it gets ENOENT from now on.
func (driver *Driver) reclaim(node *inode) {
	id, slot := node.id, node.slot
	clear(driver.buffers[slot])

	if err := driver.inodes.Release(slot); err != nil {
		// The slot came from a live inode, so this means the table is broken.
		log.Errorw("failed to release inode slot", "inode", id, "slot", slot, "error", err)
		return
	}
	log.Debugw("inode reclaimed", "inode", id, "slot", slot)
}

// truncate sets the logical size of a regular file. Bytes past the new end are
// zeroed, so growing the file again never brings old data back.
func (driver *Driver) truncate(id vtfs.InodeID, size int64) error {
	node, err := driver.getRegularFile(id)
	if err != nil {
		return err
	}
	if err := driver.resizeCheck(node, size); err != nil {
		return err
	}

	if size < node.size {
		clear(driver.buffers[node.slot][size:node.size])
	}
	node.size = size
	return nil
}
