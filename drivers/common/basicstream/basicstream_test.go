package basicstream_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/common/basicstream"
	vtfstest "github.com/secs-dev/vtfs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFile(t *testing.T, contents string) (vtfs.Store, vtfs.InodeID) {
	store := vtfstest.NewStore(t)
	id, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)
	if contents != "" {
		_, err = store.Write(id, 0, []byte(contents))
		require.NoError(t, err)
	}
	return store, id
}

func TestReadAll(t *testing.T) {
	store, id := newFile(t, "hello world")
	stream, err := basicstream.Open(store, id, vtfs.O_RDONLY)
	require.NoError(t, err)

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.EqualValues(t, 11, stream.Tell())

	n, err := stream.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestReadAtShortIsEOF(t *testing.T) {
	store, id := newFile(t, "abcdef")
	stream, err := basicstream.Open(store, id, vtfs.O_RDONLY)
	require.NoError(t, err)

	buffer := make([]byte, 4)
	n, err := stream.ReadAt(buffer, 4)
	assert.Equal(t, 2, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "ef", string(buffer[:n]))

	n, err = stream.ReadAt(buffer, 0)
	assert.Equal(t, 4, n)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, stream.Tell(), "ReadAt must not move the pointer")
}

func TestWriteAndSeek(t *testing.T) {
	store, id := newFile(t, "")
	stream, err := basicstream.Open(store, id, vtfs.O_RDWR)
	require.NoError(t, err)

	_, err = stream.WriteString("hello")
	require.NoError(t, err)
	pos, err := stream.Seek(-2, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pos)
	_, err = stream.WriteString("P!")
	require.NoError(t, err)

	pos, err = stream.Seek(2, io.SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 7, pos)
	_, err = stream.Write([]byte("x"))
	require.NoError(t, err)

	data, _, err := store.Read(id, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, []byte{'h', 'e', 'l', 'P', '!', 0, 0, 'x'}, data)

	_, err = stream.Seek(-100, io.SeekStart)
	assert.ErrorIs(t, err, vtfs.ErrInvalidArgument)
	_, err = stream.Seek(0, 42)
	assert.ErrorIs(t, err, vtfs.ErrInvalidArgument)
}

func TestAppendForcesEnd(t *testing.T) {
	store, id := newFile(t, "abc")
	stream, err := basicstream.Open(store, id, vtfs.O_WRONLY|vtfs.O_APPEND)
	require.NoError(t, err)

	_, err = stream.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = stream.WriteString("def")
	require.NoError(t, err)

	_, err = stream.WriteAt([]byte("zzz"), 0)
	assert.ErrorIs(t, err, vtfs.ErrNotPermitted)

	data, _, err := store.Read(id, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(data))
}

func TestTruncateOnOpen(t *testing.T) {
	store, id := newFile(t, "old contents")
	_, err := basicstream.Open(store, id, vtfs.O_WRONLY|vtfs.O_TRUNC)
	require.NoError(t, err)

	attr, err := store.Getattr(id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, attr.Size)
}

func TestPermissions(t *testing.T) {
	store, id := newFile(t, "abc")

	reader, err := basicstream.Open(store, id, vtfs.O_RDONLY)
	require.NoError(t, err)
	_, err = reader.Write([]byte("x"))
	assert.ErrorIs(t, err, vtfs.ErrNotPermitted)
	assert.ErrorIs(t, reader.Truncate(0), vtfs.ErrNotPermitted)

	writer, err := basicstream.Open(store, id, vtfs.O_WRONLY)
	require.NoError(t, err)
	_, err = writer.Read(make([]byte, 1))
	assert.ErrorIs(t, err, vtfs.ErrNotPermitted)

	_, err = basicstream.Open(store, id, vtfs.O_RDONLY|vtfs.O_TRUNC)
	assert.ErrorIs(t, err, vtfs.ErrNotPermitted, "O_TRUNC needs write access")
}

func TestClosedStream(t *testing.T) {
	store, id := newFile(t, "abc")
	stream, err := basicstream.Open(store, id, vtfs.O_RDWR)
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	_, err = stream.Read(make([]byte, 1))
	assert.ErrorIs(t, err, vtfs.ErrInvalidFileDescriptor)
	_, err = stream.Write([]byte("x"))
	assert.ErrorIs(t, err, vtfs.ErrInvalidFileDescriptor)
	assert.ErrorIs(t, stream.Close(), vtfs.ErrInvalidFileDescriptor)
}

func TestOverflowIsReported(t *testing.T) {
	store := vtfstest.NewStore(t, vtfstest.WithMaxFileSize(8))
	id, err := store.Create(store.Root(), "f", 0o644)
	require.NoError(t, err)
	stream, err := basicstream.Open(store, id, vtfs.O_WRONLY)
	require.NoError(t, err)

	_, err = stream.WriteString("12345678")
	require.NoError(t, err)
	n, err := stream.WriteString("9")
	assert.ErrorIs(t, err, vtfs.ErrNoSpaceOnDevice)
	assert.Equal(t, 0, n)
	assert.EqualValues(t, 8, stream.Tell())
}

func TestCopyBetweenStreams(t *testing.T) {
	store := vtfstest.NewStore(t)
	payload := vtfstest.RandomBytes(t, 3000)

	src, err := store.Create(store.Root(), "src", 0o644)
	require.NoError(t, err)
	dst, err := store.Create(store.Root(), "dst", 0o644)
	require.NoError(t, err)

	writer, err := basicstream.Open(store, src, vtfs.O_WRONLY)
	require.NoError(t, err)
	n, err := writer.ReadFrom(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), n)

	reader, err := basicstream.Open(store, src, vtfs.O_RDONLY)
	require.NoError(t, err)
	target, err := basicstream.Open(store, dst, vtfs.O_WRONLY)
	require.NoError(t, err)
	copied, err := reader.WriteTo(target)
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), copied)

	data, _, err := store.Read(dst, 0, len(payload))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, data))
}

func TestOpenDirectoryFails(t *testing.T) {
	store := vtfstest.NewStore(t)
	_, err := basicstream.Open(store, store.Root(), vtfs.O_RDONLY)
	assert.ErrorIs(t, err, vtfs.ErrIsADirectory)

	_, err = basicstream.Open(store, 4242, vtfs.O_RDONLY)
	assert.ErrorIs(t, err, vtfs.ErrNotFound)
}

// SeekInfo is a struct useful for testing seeking in a stream using relative
// offsets.
type SeekInfo struct {
	Offset                int64
	Whence                int
	ExpectedFinalPosition int64
}

func TestBasicStream__SeekSequence(t *testing.T) {
	store, id := newFile(t, "0123456789")
	stream, err := basicstream.Open(store, id, vtfs.O_RDONLY)
	require.NoError(t, err)

	steps := []SeekInfo{
		{4, io.SeekStart, 4},
		{2, io.SeekCurrent, 6},
		{-6, io.SeekCurrent, 0},
		{-1, io.SeekEnd, 9},
		{5, io.SeekEnd, 15},
		{-15, io.SeekCurrent, 0},
	}

	for i, step := range steps {
		pos, err := stream.Seek(step.Offset, step.Whence)
		require.NoErrorf(t, err, "seek %d failed", i)
		assert.Equalf(t, step.ExpectedFinalPosition, pos, "seek %d: wrong position", i)
		assert.Equalf(t, step.ExpectedFinalPosition, stream.Tell(), "seek %d: Tell disagrees", i)
	}
}
