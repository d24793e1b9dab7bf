package ramfs

import (
	"fmt"
	"io"

	"github.com/secs-dev/vtfs"
)

// readDirAt is a pure function of the table contents and (dir, pos): no state
// is kept between calls. Position 0 is ".", 1 is "..", and N >= 2 is the
// (N-2)th child of `dir` in table scan order.
func (driver *Driver) readDirAt(dir vtfs.InodeID, pos int64) (vtfs.DirectoryEntry, int64, error) {
	if _, err := driver.getDirectory(dir); err != nil {
		return vtfs.DirectoryEntry{}, pos, err
	}
	if pos < 0 {
		return vtfs.DirectoryEntry{}, pos,
			vtfs.ErrInvalidArgument.WithMessage(fmt.Sprintf("negative cursor %d", pos))
	}

	switch pos {
	case vtfs.DotPos:
		entry := vtfs.DirectoryEntry{Name: ".", Inode: dir, Type: vtfs.TypeDirectory}
		return entry, pos + 1, nil
	case vtfs.DotDotPos:
		entry := vtfs.DirectoryEntry{
			Name:  "..",
			Inode: driver.parentOf(dir),
			Type:  vtfs.TypeDirectory,
		}
		return entry, pos + 1, nil
	}

	skip := pos - vtfs.FirstEntryPos
	var found *dirent
	driver.childrenOf(dir, func(entry *dirent) bool {
		if skip == 0 {
			found = entry
			return false
		}
		skip--
		return true
	})
	if found == nil {
		return vtfs.DirectoryEntry{}, pos, io.EOF
	}

	entry := vtfs.DirectoryEntry{Name: found.name, Inode: found.target}
	target, err := driver.getInode(found.target)
	if err != nil {
		return vtfs.DirectoryEntry{}, pos, vtfs.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf("entry %q points at missing inode %d", found.name, found.target),
		)
	}
	entry.Type = target.typ
	return entry, pos + 1, nil
}
