// Package basicstream implements a basic file-like abstraction around a single
// inode of a store.

package basicstream

import (
	"fmt"
	"io"

	"github.com/secs-dev/vtfs"
)

// Object is the storage a [BasicStream] reads and writes. ReadAt follows the
// [io.ReaderAt] contract. WriteAt must write everything or nothing.
type Object interface {
	Attr() (vtfs.Attr, error)
	ReadAt(buffer []byte, offset int64) (int, error)
	WriteAt(buffer []byte, offset int64) (int, error)
	Truncate(size int64) error
}

// BasicStream is a file-like wrapper around an [Object] that emulates a
// subset of the functionality provided by an [os.File] instance.
//
// The size isn't cached: other names for the same inode may change it at any
// time, so it's fetched from the object whenever it's needed.
type BasicStream struct {
	// Interfaces
	io.Closer
	io.ReaderAt
	io.ReaderFrom
	io.ReadWriteSeeker
	io.StringWriter
	io.WriterAt
	io.WriterTo

	// Fields
	position int64
	object   Object
	ioFlags  vtfs.IOFlags
	closed   bool
}

// New creates a BasicStream on top of `object`, starting at offset 0.
//
// All relevant behaviors of [vtfs.IOFlags] are implemented. In particular:
//
//   - Read/write permissions are enforced, e.g. attempting to write a file
//     opened with [vtfs.O_RDONLY] will fail with [vtfs.ErrNotPermitted].
//   - [vtfs.O_APPEND] and [vtfs.O_TRUNC] are obeyed. [vtfs.O_SYNC] has no
//     effect because every write goes straight to the object.
func New(object Object, flags vtfs.IOFlags) (*BasicStream, error) {
	stream := &BasicStream{
		object:  object,
		ioFlags: flags,
	}

	if flags.Truncate() {
		return stream, stream.Truncate(0)
	}
	return stream, nil
}

func (stream *BasicStream) checkOpen() error {
	if stream.closed {
		return vtfs.ErrInvalidFileDescriptor.WithMessage("stream is closed")
	}
	return nil
}

func (stream *BasicStream) checkReadable() error {
	if err := stream.checkOpen(); err != nil {
		return err
	}
	if !stream.ioFlags.Read() {
		return vtfs.ErrNotPermitted.WithMessage("stream isn't open for reading")
	}
	return nil
}

func (stream *BasicStream) checkWritable() error {
	if err := stream.checkOpen(); err != nil {
		return err
	}
	if !stream.ioFlags.Write() {
		return vtfs.ErrNotPermitted.WithMessage("stream isn't open for writing")
	}
	return nil
}

// Close marks the stream closed. Every later operation fails with
// [vtfs.ErrInvalidFileDescriptor].
func (stream *BasicStream) Close() error {
	if err := stream.checkOpen(); err != nil {
		return err
	}
	stream.closed = true
	return nil
}

func (stream *BasicStream) Read(buffer []byte) (int, error) {
	totalRead, err := stream.ReadAt(buffer, stream.position)
	stream.position += int64(totalRead)
	return totalRead, err
}

func (stream *BasicStream) ReadAt(buffer []byte, offset int64) (int, error) {
	if err := stream.checkReadable(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, vtfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("negative read offset %d", offset),
		)
	}
	return stream.object.ReadAt(buffer, offset)
}

func (stream *BasicStream) ReadFrom(r io.Reader) (n int64, err error) {
	if err := stream.checkWritable(); err != nil {
		return 0, err
	}

	buffer := make([]byte, 512)
	totalBytesRead := int64(0)
	for {
		lastReadSize, readErr := r.Read(buffer)
		totalBytesRead += int64(lastReadSize)

		if lastReadSize > 0 {
			if _, writeErr := stream.Write(buffer[:lastReadSize]); writeErr != nil {
				return totalBytesRead, writeErr
			}
		}
		if readErr == io.EOF {
			return totalBytesRead, nil
		} else if readErr != nil {
			return totalBytesRead, readErr
		}
	}
}

// Seek resets the stream pointer to `offset` bytes from the origin specified in
// `whence`. It must be one of [io.SeekStart], [io.SeekCurrent], or [io.SeekEnd].
//
// Seeking past the end of the file is possible; the gap is filled with null
// bytes upon the first write. Attempting to read past the end of the file
// returns no data.
func (stream *BasicStream) Seek(offset int64, whence int) (int64, error) {
	if err := stream.checkOpen(); err != nil {
		return stream.position, err
	}

	var absoluteOffset int64
	switch whence {
	case io.SeekStart:
		absoluteOffset = offset
	case io.SeekCurrent:
		absoluteOffset = stream.position + offset
	case io.SeekEnd:
		size, err := stream.Size()
		if err != nil {
			return stream.position, err
		}
		absoluteOffset = size + offset
	default:
		return stream.position, vtfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("invalid seek origin: %d", whence),
		)
	}

	if absoluteOffset < 0 {
		return stream.position, vtfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"result of Seek(offset=%d, whence=%d) is negative",
				offset,
				whence,
			),
		)
	}

	stream.position = absoluteOffset
	return absoluteOffset, nil
}

// Size returns the current size of the file, in bytes.
func (stream *BasicStream) Size() (int64, error) {
	attr, err := stream.object.Attr()
	if err != nil {
		return 0, err
	}
	return attr.Size, nil
}

// Sync is a no-op apart from failing on a closed stream. There's nothing to
// flush.
func (stream *BasicStream) Sync() error {
	return stream.checkOpen()
}

// Tell returns the current stream position. It's a more concise way of calling
// `Seek(0, io.SeekCurrent)`.
func (stream *BasicStream) Tell() int64 {
	return stream.position
}

// Truncate resizes the file to the given number of bytes but does not move
// the stream pointer.
func (stream *BasicStream) Truncate(size int64) error {
	if err := stream.checkWritable(); err != nil {
		return err
	}
	return stream.object.Truncate(size)
}

func (stream *BasicStream) Write(buffer []byte) (int, error) {
	if err := stream.checkWritable(); err != nil {
		return 0, err
	}

	// Force the stream pointer to the end of the file if O_APPEND was set.
	if stream.ioFlags.Append() {
		if _, err := stream.Seek(0, io.SeekEnd); err != nil {
			return 0, err
		}
	}

	// NB we must call implWriteAt, not WriteAt, since WriteAt fails if the
	// O_APPEND flag is set.
	totalWritten, err := stream.implWriteAt(buffer, stream.position)
	stream.position += int64(totalWritten)
	return totalWritten, err
}

// implWriteAt implements the bulk of WriteAt with the exception that it doesn't
// check for the O_APPEND flag.
func (stream *BasicStream) implWriteAt(buffer []byte, offset int64) (int, error) {
	if err := stream.checkWritable(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, vtfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("negative write offset %d", offset),
		)
	}
	return stream.object.WriteAt(buffer, offset)
}

func (stream *BasicStream) WriteAt(buffer []byte, offset int64) (int, error) {
	if stream.ioFlags.Append() {
		return 0, vtfs.ErrNotPermitted.WithMessage("WriteAt on a stream opened with O_APPEND")
	}
	return stream.implWriteAt(buffer, offset)
}

// WriteString writes a string to the stream.
func (stream *BasicStream) WriteString(s string) (int, error) {
	return stream.Write([]byte(s))
}

func (stream *BasicStream) WriteTo(w io.Writer) (n int64, err error) {
	buffer := make([]byte, 512)
	totalWritten := int64(0)

	for {
		blockSize, err := stream.Read(buffer)

		// Always write the data we've read in regardless of whether an error
		// occurred or not.
		if blockSize > 0 {
			written, writeErr := w.Write(buffer[:blockSize])
			totalWritten += int64(written)
			if writeErr != nil {
				return totalWritten, writeErr
			}
		}

		// If we hit EOF, we're done. Any other error is fatal.
		if err == io.EOF {
			return totalWritten, nil
		} else if err != nil {
			return totalWritten, err
		}
	}
}
