// Package testing has helpers shared by the tests of the store and the
// layers built on it. Import it as `vtfstest`.
package testing

import (
	"crypto/rand"
	"io"
	"sort"
	"testing"

	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/ramfs"
	"github.com/stretchr/testify/require"
)

// NewStore creates a store with the default capacities, changed by any of the
// `tweaks`. It fails the test if the store can't be created.
func NewStore(t *testing.T, tweaks ...func(*ramfs.Options)) *ramfs.Driver {
	opts := ramfs.DefaultOptions()
	for _, tweak := range tweaks {
		tweak(&opts)
	}

	store, err := ramfs.New(opts)
	require.NoError(t, err, "failed to create store")
	return store
}

// WithCapacity sets both the inode and entry limits.
func WithCapacity(inodes, entries uint) func(*ramfs.Options) {
	return func(opts *ramfs.Options) {
		opts.MaxInodes = inodes
		opts.MaxEntries = entries
	}
}

// WithMaxFileSize sets the size of every content buffer.
func WithMaxFileSize(size int64) func(*ramfs.Options) {
	return func(opts *ramfs.Options) {
		opts.MaxFileSize = size
	}
}

// RandomBytes returns `size` random bytes, or fails the test.
func RandomBytes(t *testing.T, size int) []byte {
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoErrorf(t, err, "failed to generate %d random bytes", size)
	return data
}

// RequireConsistent fails the test if the store's tables are inconsistent.
func RequireConsistent(t *testing.T, store *ramfs.Driver) {
	require.NoError(t, store.Check(), "store is inconsistent")
}

// ListDir reads every entry of `dir`, including "." and "..", one cursor step
// at a time.
func ListDir(t *testing.T, store vtfs.Store, dir vtfs.InodeID) []vtfs.DirectoryEntry {
	var output []vtfs.DirectoryEntry
	pos := int64(0)
	for {
		entry, next, err := store.ReadDirAt(dir, pos)
		if err == io.EOF {
			require.Equal(t, pos, next, "cursor moved at the end of the directory")
			return output
		}
		require.NoErrorf(t, err, "failed to read entry %d of directory %d", pos, dir)
		require.Equal(t, pos+1, next, "cursor didn't advance by one")
		output = append(output, entry)
		pos = next
	}
}

// ChildNames returns the names in `dir` without "." and "..", sorted.
func ChildNames(t *testing.T, store vtfs.Store, dir vtfs.InodeID) []string {
	names := []string{}
	for _, entry := range ListDir(t, store, dir) {
		if entry.Name != "." && entry.Name != ".." {
			names = append(names, entry.Name)
		}
	}
	sort.Strings(names)
	return names
}
