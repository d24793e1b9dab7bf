package ramfs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/common"
)

// check walks both tables and reports every broken invariant it finds, each as
// an EUCLEAN error. It returns nil if the store is consistent.
//
// Checked:
//   - every entry's target and parent are live, and the parent is a directory
//   - no two entries share a name within a directory
//   - each inode's link count matches the entries naming it, plus one for the
//     root, and no directory has more than one name
//   - no file is larger than its buffer
//   - identities are unique and below the next one to be assigned
func (driver *Driver) check() error {
	var result *multierror.Error
	report := func(format string, args ...any) {
		result = multierror.Append(
			result,
			vtfs.ErrFileSystemCorrupted.WithMessage(fmt.Sprintf(format, args...)),
		)
	}

	type inodeInfo struct {
		node    *inode
		entries uint32
	}
	live := make(map[vtfs.InodeID]*inodeInfo, driver.inodes.Len())

	driver.inodes.Each(func(slot common.SlotIndex, node *inode) bool {
		if _, dup := live[node.id]; dup {
			report("inode %d appears in more than one slot", node.id)
		}
		if node.id >= driver.nextID {
			report("inode %d was never assigned (next is %d)", node.id, driver.nextID)
		}
		if node.slot != slot {
			report("inode %d thinks it's in slot %d but is in %d", node.id, node.slot, slot)
		}
		if node.size < 0 || node.size > driver.opts.MaxFileSize {
			report("inode %d has size %d outside [0, %d]", node.id, node.size, driver.opts.MaxFileSize)
		}
		live[node.id] = &inodeInfo{node: node}
		return true
	})

	if root, ok := live[vtfs.RootInodeID]; !ok {
		report("root directory %d is missing", vtfs.RootInodeID)
	} else if !root.node.isDir() {
		report("root inode %d is not a directory", vtfs.RootInodeID)
	}

	type entryKey struct {
		parent vtfs.InodeID
		name   string
	}
	seen := make(map[entryKey]bool, driver.entries.Len())

	driver.entries.Each(func(slot common.SlotIndex, entry *dirent) bool {
		key := entryKey{parent: entry.parent, name: entry.name}
		if seen[key] {
			report("name %q appears twice in directory %d", entry.name, entry.parent)
		}
		seen[key] = true

		if parent, ok := live[entry.parent]; !ok {
			report("entry %q (slot %d) is in missing directory %d", entry.name, slot, entry.parent)
		} else if !parent.node.isDir() {
			report("entry %q (slot %d) is in inode %d, which isn't a directory", entry.name, slot, entry.parent)
		}

		target, ok := live[entry.target]
		if !ok {
			report("entry %q (slot %d) points at missing inode %d", entry.name, slot, entry.target)
			return true
		}
		target.entries++
		if entry.target == vtfs.RootInodeID {
			report("entry %q (slot %d) names the root directory", entry.name, slot)
		}
		return true
	})

	// Second pass in table order so the report is the same on every run.
	seenIDs := make(map[vtfs.InodeID]bool, len(live))
	driver.inodes.Each(func(_ common.SlotIndex, node *inode) bool {
		id := node.id
		if seenIDs[id] {
			return true
		}
		seenIDs[id] = true

		info := live[id]
		expected := info.entries
		if id == vtfs.RootInodeID {
			expected++
		}
		if info.node.nlink != expected {
			report("inode %d has link count %d but %d references", id, info.node.nlink, expected)
		}
		if info.node.isDir() && info.entries > 1 {
			report("directory %d has %d names", id, info.entries)
		}
		return true
	})

	return result.ErrorOrNil()
}
