package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("tests", ".snapshots", "math.yaml.snap"), PathFor(filepath.Join("tests", "math.yaml"), ""))
	assert.Equal(t, filepath.Join("tests", "__snap__", "math.yaml.snap"), PathFor(filepath.Join("tests", "math.yaml"), "__snap__"))
}

func TestEncodeFormat(t *testing.T) {
	out := Encode(map[string]string{
		"math > adds #1": `"Success  : 1"`,
	})
	assert.Equal(t, "# specrun snapshot v1\n--- 14 14\nmath > adds #1\n\"Success  : 1\"\n", string(out))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := map[string]string{
		"a #1":                 "plain",
		"b > c #2":             "multi\nline\n--- 3 3\nfake record",
		"trailing newline #1":  "ends with newline\n",
		"empty #1":             "",
		"quotes ]] \"' #1":     "]]=] [[ \\ \"",
		"key\nwith newline #1": "v",
	}

	decoded, err := Decode(Encode(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}

func TestEncodeIsSorted(t *testing.T) {
	a := Encode(map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, "# specrun snapshot v1\n--- 1 1\na\n1\n--- 1 1\nb\n2\n", string(a))
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no header", "--- 1 1\na\n1\n"},
		{"bad record header", "# specrun snapshot v1\n+++ 1 1\na\n1\n"},
		{"bad length", "# specrun snapshot v1\n--- x 1\na\n1\n"},
		{"short value", "# specrun snapshot v1\n--- 1 5\na\n1\n"},
		{"missing terminator", "# specrun snapshot v1\n--- 1 1\na\n12"},
		{"truncated header", "# specrun snapshot v1\n--- 1"},
		{"duplicate key", "# specrun snapshot v1\n--- 1 1\na\n1\n--- 1 1\na\n2\n"},
		{"oversized length", "# specrun snapshot v1\n--- 1 999999999\na\n1\n"},
		{"overflowing lengths", "# specrun snapshot v1\n--- 9223372036854775807 1\na\n1\n"},
		{"overflowing value length", "# specrun snapshot v1\n--- 1 9223372036854775807\na\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.ErrorIs(t, err, ErrCorruptStore)
		})
	}
}

func TestLoadStoreMissingFile(t *testing.T) {
	st, err := LoadStore(filepath.Join(t.TempDir(), "nope.snap"))
	require.NoError(t, err)
	assert.False(t, st.Existed)
	assert.Empty(t, st.Entries)
}

func TestStoreSaveLoadRemove(t *testing.T) {
	path := PathFor(filepath.Join(t.TempDir(), "file.yaml"), "")
	st := &Store{Path: path, Entries: map[string]string{"k #1": "v"}}
	require.NoError(t, st.Save())
	assert.True(t, st.Existed)

	loaded, err := LoadStore(path)
	require.NoError(t, err)
	assert.True(t, loaded.Existed)
	assert.Equal(t, map[string]string{"k #1": "v"}, loaded.Entries)

	require.NoError(t, loaded.Remove())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, loaded.Remove(), "removing twice is a no-op")
}

func TestLoadStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	_, err := LoadStore(path)
	require.ErrorIs(t, err, ErrCorruptStore)
}
