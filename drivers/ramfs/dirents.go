package ramfs

import (
	"fmt"
	"strings"

	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/common"
)

// dirent gives the inode `target` the name `name` inside directory `parent`.
// Entries refer to inodes only by identity.
type dirent struct {
	name   string
	parent vtfs.InodeID
	target vtfs.InodeID
}

// validateName rejects names that can't be stored as a single path component.
func (driver *Driver) validateName(name string) error {
	switch {
	case name == "":
		return vtfs.ErrInvalidArgument.WithMessage("empty name")
	case name == "." || name == "..":
		return vtfs.ErrInvalidArgument.WithMessage(fmt.Sprintf("reserved name %q", name))
	case strings.ContainsRune(name, '/'):
		return vtfs.ErrInvalidArgument.WithMessage(fmt.Sprintf("name %q contains a slash", name))
	case uint(len(name)) > driver.opts.MaxNameLength:
		return vtfs.ErrNameTooLong.WithMessage(
			fmt.Sprintf("%q is longer than %d bytes", name, driver.opts.MaxNameLength),
		)
	}
	return nil
}

func (driver *Driver) findEntry(name string, parent vtfs.InodeID) (common.SlotIndex, *dirent, bool) {
	return driver.entries.Find(func(_ common.SlotIndex, entry *dirent) bool {
		return entry.parent == parent && entry.name == name
	})
}

// addEntry inserts a new name. The (name, parent) pair must not exist yet.
func (driver *Driver) addEntry(name string, parent, target vtfs.InodeID) error {
	if _, _, exists := driver.findEntry(name, parent); exists {
		return vtfs.ErrExists.WithMessage(fmt.Sprintf("%q in directory %d", name, parent))
	}

	_, entry, err := driver.entries.Allocate()
	if err != nil {
		return err
	}
	*entry = dirent{name: name, parent: parent, target: target}
	return nil
}

// lookupEntry returns the identity `name` refers to inside `parent`.
func (driver *Driver) lookupEntry(name string, parent vtfs.InodeID) (vtfs.InodeID, error) {
	_, entry, ok := driver.findEntry(name, parent)
	if !ok {
		return vtfs.InvalidInodeID,
			vtfs.ErrNotFound.WithMessage(fmt.Sprintf("%q in directory %d", name, parent))
	}
	return entry.target, nil
}

// removeEntry deletes a name and returns the identity it referred to. The
// target's link count is the caller's business.
func (driver *Driver) removeEntry(name string, parent vtfs.InodeID) (vtfs.InodeID, error) {
	slot, entry, ok := driver.findEntry(name, parent)
	if !ok {
		return vtfs.InvalidInodeID,
			vtfs.ErrNotFound.WithMessage(fmt.Sprintf("%q in directory %d", name, parent))
	}
	target := entry.target
	if err := driver.entries.Release(slot); err != nil {
		return vtfs.InvalidInodeID, err
	}
	return target, nil
}

// childrenOf calls `fn` for each entry of directory `parent` in table order
// until it returns false.
func (driver *Driver) childrenOf(parent vtfs.InodeID, fn func(*dirent) bool) {
	driver.entries.Each(func(_ common.SlotIndex, entry *dirent) bool {
		if entry.parent != parent {
			return true
		}
		return fn(entry)
	})
}

func (driver *Driver) hasChildren(dir vtfs.InodeID) bool {
	found := false
	driver.childrenOf(dir, func(*dirent) bool {
		found = true
		return false
	})
	return found
}

// parentOf returns the directory containing `dir`. The root is its own
// parent.
func (driver *Driver) parentOf(dir vtfs.InodeID) vtfs.InodeID {
	if dir == vtfs.RootInodeID {
		return dir
	}
	_, entry, ok := driver.entries.Find(func(_ common.SlotIndex, entry *dirent) bool {
		return entry.target == dir
	})
	if !ok {
		return dir
	}
	return entry.parent
}

// createObject implements both Create and Mkdir. The inode is only kept if the
// entry naming it could be added.
func (driver *Driver) createObject(
	parent vtfs.InodeID,
	name string,
	typ vtfs.FileType,
	mode uint32,
) (vtfs.InodeID, error) {
	if err := driver.validateName(name); err != nil {
		return vtfs.InvalidInodeID, err
	}
	if _, err := driver.getDirectory(parent); err != nil {
		return vtfs.InvalidInodeID, err
	}
	if _, _, exists := driver.findEntry(name, parent); exists {
		return vtfs.InvalidInodeID,
			vtfs.ErrExists.WithMessage(fmt.Sprintf("%q in directory %d", name, parent))
	}
	if driver.entries.Free() == 0 {
		return vtfs.InvalidInodeID, vtfs.ErrNoSpaceOnDevice.WithMessage(
			fmt.Sprintf("can't create %q: no free directory entries", name),
		)
	}

	id, err := driver.allocateInode(typ, mode)
	if err != nil {
		return vtfs.InvalidInodeID, err
	}

	if err := driver.addEntry(name, parent, id); err != nil {
		// Roll back so no inode is left without a name.
		node, getErr := driver.getInode(id)
		if getErr == nil {
			driver.decLink(node)
		}
		return vtfs.InvalidInodeID, err
	}

	log.Debugw("created", "type", typ, "name", name, "parent", parent, "inode", id)
	return id, nil
}

func (driver *Driver) unlink(parent vtfs.InodeID, name string) error {
	if _, err := driver.getDirectory(parent); err != nil {
		return err
	}
	target, err := driver.lookupEntry(name, parent)
	if err != nil {
		return err
	}
	node, err := driver.getInode(target)
	if err != nil {
		return err
	}
	if node.isDir() {
		return vtfs.ErrIsADirectory.WithMessage(
			fmt.Sprintf("can't unlink %q: use rmdir", name),
		)
	}

	if _, err := driver.removeEntry(name, parent); err != nil {
		return err
	}
	remaining := driver.decLink(node)
	log.Debugw("unlinked", "name", name, "parent", parent, "inode", target, "nlink", remaining)
	return nil
}

func (driver *Driver) rmdir(parent vtfs.InodeID, name string) error {
	if _, err := driver.getDirectory(parent); err != nil {
		return err
	}
	target, err := driver.lookupEntry(name, parent)
	if err != nil {
		return err
	}
	node, err := driver.getDirectory(target)
	if err != nil {
		return err
	}
	if driver.hasChildren(target) {
		return vtfs.ErrDirectoryNotEmpty.WithMessage(
			fmt.Sprintf("can't remove %q", name),
		)
	}

	if _, err := driver.removeEntry(name, parent); err != nil {
		return err
	}
	driver.decLink(node)
	log.Debugw("removed directory", "name", name, "parent", parent, "inode", target)
	return nil
}

func (driver *Driver) link(target vtfs.InodeID, newParent vtfs.InodeID, newName string) error {
	if err := driver.validateName(newName); err != nil {
		return err
	}
	node, err := driver.getInode(target)
	if err != nil {
		return err
	}
	if node.isDir() {
		return vtfs.ErrIsADirectory.WithMessage(
			fmt.Sprintf("can't hard link directory %d", target),
		)
	}
	if _, err := driver.getDirectory(newParent); err != nil {
		return err
	}

	if err := driver.addEntry(newName, newParent, target); err != nil {
		return err
	}
	driver.incLink(node)
	log.Debugw("linked", "inode", target, "name", newName, "parent", newParent, "nlink", node.nlink)
	return nil
}
