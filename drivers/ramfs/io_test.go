package ramfs_test

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/secs-dev/vtfs"
	vtfstest "github.com/secs-dev/vtfs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	store := vtfstest.NewStore(t)
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)

	for _, size := range []int{0, 1, 100, 4095, 4096} {
		data := vtfstest.RandomBytes(t, size)
		require.NoError(t, store.Truncate(file, 0))

		n, err := store.Write(file, 0, data)
		require.NoErrorf(t, err, "write of %d bytes", size)
		assert.Equal(t, size, n)

		output, eof, err := store.Read(file, 0, size)
		require.NoErrorf(t, err, "read of %d bytes", size)
		assert.True(t, bytes.Equal(data, output), "read back different data for size %d", size)
		assert.True(t, eof)
	}
}

func TestReadClampsToLogicalSize(t *testing.T) {
	store := vtfstest.NewStore(t)
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)
	_, err = store.Write(file, 0, []byte("0123456789"))
	require.NoError(t, err)

	data, eof, err := store.Read(file, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, "456", string(data))
	assert.False(t, eof)

	data, eof, err = store.Read(file, 7, 100)
	require.NoError(t, err)
	assert.Equal(t, "789", string(data))
	assert.True(t, eof)

	data, eof, err = store.Read(file, 10, 5)
	require.NoError(t, err, "reading at the end is not an error")
	assert.Empty(t, data)
	assert.True(t, eof)

	data, eof, err = store.Read(file, 500, 5)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.True(t, eof)
}

func TestReadReturnsCopy(t *testing.T) {
	store := vtfstest.NewStore(t)
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)
	_, err = store.Write(file, 0, []byte("abc"))
	require.NoError(t, err)

	data, _, err := store.Read(file, 0, 3)
	require.NoError(t, err)
	data[0] = 'X'

	again, _, err := store.Read(file, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestWriteOverflowChangesNothing(t *testing.T) {
	store := vtfstest.NewStore(t, vtfstest.WithMaxFileSize(16))
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)
	_, err = store.Write(file, 0, []byte("original"))
	require.NoError(t, err)

	n, err := store.Write(file, 10, []byte("0123456789"))
	assert.ErrorIs(t, err, vtfs.ErrNoSpaceOnDevice)
	assert.Equal(t, 0, n)

	n, err = store.Write(file, 0, bytes.Repeat([]byte{'z'}, 17))
	assert.ErrorIs(t, err, vtfs.ErrNoSpaceOnDevice)
	assert.Equal(t, 0, n)

	n, err = store.Write(file, math.MaxInt64-1, []byte("hello"))
	assert.ErrorIs(t, err, vtfs.ErrNoSpaceOnDevice, "offset + length must not wrap around")
	assert.Equal(t, 0, n)

	attr, err := store.Getattr(file)
	require.NoError(t, err)
	assert.EqualValues(t, 8, attr.Size)
	data, _, err := store.Read(file, 0, 16)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	// Exactly filling the buffer is fine.
	n, err = store.Write(file, 8, []byte("12345678"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestWritePastEndLeavesZeroGap(t *testing.T) {
	store := vtfstest.NewStore(t)
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)

	_, err = store.Write(file, 0, []byte("ab"))
	require.NoError(t, err)
	_, err = store.Write(file, 6, []byte("cd"))
	require.NoError(t, err)

	data, eof, err := store.Read(file, 0, 100)
	require.NoError(t, err)
	assert.True(t, eof)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0, 0, 'c', 'd'}, data)
}

func TestWriteInsideDoesNotShrink(t *testing.T) {
	store := vtfstest.NewStore(t)
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)

	_, err = store.Write(file, 0, []byte("hello world"))
	require.NoError(t, err)
	_, err = store.Write(file, 0, []byte("HELLO"))
	require.NoError(t, err)

	data, _, err := store.Read(file, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "HELLO world", string(data))
}

func TestTruncateZeroesTail(t *testing.T) {
	store := vtfstest.NewStore(t)
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)

	_, err = store.Write(file, 0, []byte("secret data"))
	require.NoError(t, err)
	require.NoError(t, store.Truncate(file, 2))
	require.NoError(t, store.Truncate(file, 6))

	data, _, err := store.Read(file, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte{'s', 'e', 0, 0, 0, 0}, data)

	assert.ErrorIs(t, store.Truncate(file, 4097), vtfs.ErrNoSpaceOnDevice)
	assert.ErrorIs(t, store.Truncate(file, -1), vtfs.ErrInvalidArgument)
}

func TestReclaimedBufferIsClean(t *testing.T) {
	store := vtfstest.NewStore(t, vtfstest.WithCapacity(1, 1))
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)
	_, err = store.Write(file, 0, []byte("leftover"))
	require.NoError(t, err)
	require.NoError(t, store.Unlink(store.Root(), "f"))

	// Only one inode slot exists, so the new file reuses it.
	file, err = store.Create(store.Root(), "g", 0o644)
	require.NoError(t, err)
	require.NoError(t, store.Truncate(file, 8))

	data, _, err := store.Read(file, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), data, "old content leaked into a reused slot")
}

func TestIOErrors(t *testing.T) {
	store := vtfstest.NewStore(t)
	dir, err := store.Mkdir(store.Root(), "d", 0o755)
	require.NoError(t, err)
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)

	_, _, err = store.Read(dir, 0, 10)
	assert.ErrorIs(t, err, vtfs.ErrIsADirectory)
	_, err = store.Write(dir, 0, []byte("x"))
	assert.ErrorIs(t, err, vtfs.ErrIsADirectory)
	assert.ErrorIs(t, store.Truncate(dir, 0), vtfs.ErrIsADirectory)

	_, _, err = store.Read(9999, 0, 10)
	assert.ErrorIs(t, err, vtfs.ErrNotFound)
	_, err = store.Write(9999, 0, []byte("x"))
	assert.ErrorIs(t, err, vtfs.ErrNotFound)

	_, _, err = store.Read(file, -1, 10)
	assert.ErrorIs(t, err, vtfs.ErrInvalidArgument)
	_, _, err = store.Read(file, 0, -1)
	assert.ErrorIs(t, err, vtfs.ErrInvalidArgument)
	_, err = store.Write(file, -1, []byte("x"))
	assert.ErrorIs(t, err, vtfs.ErrInvalidArgument)
}

func TestStaleIdentityAfterReclaim(t *testing.T) {
	store := vtfstest.NewStore(t)
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)
	require.NoError(t, store.Unlink(store.Root(), "f"))

	_, err = store.Create(store.Root(), "g", 0o644)
	require.NoError(t, err)

	_, err = store.Write(file, 0, []byte("late"))
	assert.ErrorIs(t, err, vtfs.ErrNotFound, "a stale identity must not reach the new inode")
}

// Random writes are compared against an independent model of the file.
func TestRandomWritesMatchModel(t *testing.T) {
	const limit = 512
	store := vtfstest.NewStore(t, vtfstest.WithMaxFileSize(limit))
	file, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)

	model := vtfstest.NewContentModel(t, limit)
	rng := rand.New(rand.NewSource(1234))

	for i := 0; i < 200; i++ {
		offset := rng.Int63n(limit + 64)
		data := vtfstest.RandomBytes(t, rng.Intn(96))

		n, err := store.Write(file, offset, data)
		if model.Fits(offset, len(data)) {
			require.NoErrorf(t, err, "write %d: %d bytes at %d", i, len(data), offset)
			assert.Equal(t, len(data), n)
			model.WriteAt(offset, data)
		} else {
			require.ErrorIsf(t, err, vtfs.ErrNoSpaceOnDevice, "write %d should overflow", i)
		}
	}

	attr, err := store.Getattr(file)
	require.NoError(t, err)
	assert.Equal(t, model.Size(), attr.Size)

	data, eof, err := store.Read(file, 0, limit)
	require.NoError(t, err)
	assert.True(t, eof)
	assert.Equal(t, model.Bytes(), data)
}
