package ramfs

import (
	"fmt"

	"github.com/secs-dev/vtfs"
)

// read copies up to `length` bytes of the file starting at `offset`. Reading
// at or past the logical end is not an error: it returns no data and sets
// `eof`. Bytes between the logical size and the buffer capacity are never
// returned.
func (driver *Driver) read(id vtfs.InodeID, offset int64, length int) ([]byte, bool, error) {
	node, err := driver.getRegularFile(id)
	if err != nil {
		return nil, false, err
	}
	if offset < 0 || length < 0 {
		return nil, false, vtfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("read of %d bytes at offset %d", length, offset),
		)
	}

	if offset >= node.size {
		return []byte{}, true, nil
	}

	toRead := node.size - offset
	if int64(length) < toRead {
		toRead = int64(length)
	}

	output := make([]byte, toRead)
	copy(output, driver.buffers[node.slot][offset:offset+toRead])
	return output, offset+toRead >= node.size, nil
}

// write copies `data` into the file at `offset`. If the write would end past
// the buffer capacity nothing is written and ENOSPC is returned. Writing past
// the logical end leaves a hole of null bytes, since buffers are zeroed on
// reclaim and truncate.
func (driver *Driver) write(id vtfs.InodeID, offset int64, data []byte) (int, error) {
	node, err := driver.getRegularFile(id)
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, vtfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("write at negative offset %d", offset),
		)
	}

	// Compare before adding so a huge offset can't wrap around.
	if offset > driver.opts.MaxFileSize-int64(len(data)) {
		return 0, vtfs.ErrNoSpaceOnDevice.WithMessage(
			fmt.Sprintf(
				"inode %d: %d bytes at offset %d exceeds the capacity of %d",
				node.id,
				len(data),
				offset,
				driver.opts.MaxFileSize,
			),
		)
	}

	end := offset + int64(len(data))
	copy(driver.buffers[node.slot][offset:end], data)
	if end > node.size {
		node.size = end
	}
	return len(data), nil
}
