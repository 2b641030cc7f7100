package blockfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := Store{Dir: t.TempDir()}

	out := bytes.Repeat([]byte{0x5A}, BlockSize)
	require.NoError(t, s.Save(0x12, out))

	raw, err := os.ReadFile(filepath.Join(s.Dir, "0012.blk"))
	require.NoError(t, err)
	assert.Equal(t, out, raw)

	in := make([]byte, BlockSize)
	require.NoError(t, s.Load(0x12, in))
	assert.Equal(t, out, in)
}

func TestStoreIDFormatting(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	buf := make([]byte, BlockSize)

	require.NoError(t, s.Save(0, buf))
	require.NoError(t, s.Save(0xBEEF, buf))
	require.NoError(t, s.Save(0x1BEEF, buf), "ids wrap at 16 bits")

	for _, name := range []string{"0000.blk", "beef.blk"} {
		_, err := os.Stat(filepath.Join(s.Dir, name))
		assert.NoError(t, err, "expected %s", name)
	}
}

func TestStoreBufferSize(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	assert.Error(t, s.Save(1, make([]byte, 10)))
	assert.Error(t, s.Load(1, make([]byte, 10)))
}

func TestStoreMissingAndShort(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	buf := make([]byte, BlockSize)

	assert.Error(t, s.Load(7, buf), "missing block file")

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "0008.blk"), []byte("short"), 0o644))
	assert.Error(t, s.Load(8, buf), "short block file")
}

func TestStoreDefaultDir(t *testing.T) {
	var s Store
	assert.Equal(t, "./0001.blk", s.path(1), "empty dir means the working directory")
}
