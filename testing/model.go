package testing

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// ContentModel is an independent reference for what a file's content should be
// after a series of writes. It's backed by a fixed buffer the size of the
// store's content buffers.
type ContentModel struct {
	t       *testing.T
	backing io.ReadWriteSeeker
	size    int64
	limit   int64
}

// NewContentModel creates an empty model of a file with capacity `limit`.
func NewContentModel(t *testing.T, limit int64) *ContentModel {
	return &ContentModel{
		t:       t,
		backing: bytesextra.NewReadWriteSeeker(make([]byte, limit)),
		limit:   limit,
	}
}

// Fits reports whether a write of `length` bytes at `offset` is within capacity.
func (model *ContentModel) Fits(offset int64, length int) bool {
	return offset >= 0 && offset+int64(length) <= model.limit
}

// WriteAt records a write the store is expected to accept.
func (model *ContentModel) WriteAt(offset int64, data []byte) {
	require.Truef(model.t, model.Fits(offset, len(data)), "model write at %d overflows", offset)

	if len(data) > 0 {
		_, err := model.backing.Seek(offset, io.SeekStart)
		require.NoError(model.t, err)
		n, err := model.backing.Write(data)
		require.NoError(model.t, err)
		require.Equal(model.t, len(data), n)
	}

	if end := offset + int64(len(data)); end > model.size {
		model.size = end
	}
}

// Bytes returns the expected content, up to the logical size.
func (model *ContentModel) Bytes() []byte {
	_, err := model.backing.Seek(0, io.SeekStart)
	require.NoError(model.t, err)

	output := make([]byte, model.size)
	if model.size > 0 {
		_, err = io.ReadFull(model.backing, output)
		require.NoError(model.t, err)
	}
	return output
}

// Size returns the expected logical size.
func (model *ContentModel) Size() int64 {
	return model.size
}
