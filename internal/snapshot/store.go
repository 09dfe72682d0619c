package snapshot

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultDir is the directory, beside each test file, holding its store.
	DefaultDir = ".snapshots"

	// Extension is appended to the test file name to name its store.
	Extension = ".snap"

	header       = "# specrun snapshot v1"
	recordPrefix = "--- "
)

// ErrCorruptStore is returned when a store file cannot be decoded.
var ErrCorruptStore = errors.New("corrupt snapshot store")

// Store is the persisted key to value mapping of one test file.
type Store struct {
	Path    string
	Entries map[string]string

	// Existed reports whether the file was present when loaded. It lets a
	// flush tell "never existed" apart from "existed and became empty".
	Existed bool
}

// PathFor returns the store path for testFile. An empty dir means DefaultDir.
func PathFor(testFile, dir string) string {
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(filepath.Dir(testFile), dir, filepath.Base(testFile)+Extension)
}

// LoadStore reads the store at path.
// A missing file is not an error: an empty store with Existed=false is returned.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{Path: path, Entries: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("read snapshot store: %w", err)
	}

	entries, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Store{Path: path, Entries: entries, Existed: true}, nil
}

// Save replaces the file with the current entries.
// The write goes through a temporary file so a crash never leaves a torn store.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".tmp-*"+Extension)
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(Encode(s.Entries)); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace snapshot store: %w", err)
	}
	s.Existed = true
	return nil
}

// Remove deletes the store file. Removing a missing store is a no-op.
func (s *Store) Remove() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot store: %w", err)
	}
	s.Existed = false
	return nil
}

// Encode serializes entries, sorted by key.
func Encode(entries map[string]string) []byte {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte('\n')
	for _, k := range keys {
		v := entries[k]
		fmt.Fprintf(&buf, "%s%d %d\n", recordPrefix, len(k), len(v))
		buf.WriteString(k)
		buf.WriteByte('\n')
		buf.WriteString(v)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Decode parses data produced by Encode.
func Decode(data []byte) (map[string]string, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	first, err := r.ReadString('\n')
	if err != nil || strings.TrimSuffix(first, "\n") != header {
		return nil, fmt.Errorf("%w: missing header", ErrCorruptStore)
	}

	entries := make(map[string]string)
	for n := 1; ; n++ {
		line, err := r.ReadString('\n')
		if err == io.EOF && line == "" {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: truncated header", ErrCorruptStore, n)
		}

		klen, vlen, err := parseRecordHeader(strings.TrimSuffix(line, "\n"))
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorruptStore, n, err)
		}
		if klen > len(data) || vlen > len(data)-klen {
			return nil, fmt.Errorf("%w: record %d: length exceeds file size", ErrCorruptStore, n)
		}
		key, err := readField(r, klen)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d key: %v", ErrCorruptStore, n, err)
		}
		val, err := readField(r, vlen)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d value: %v", ErrCorruptStore, n, err)
		}
		if _, dup := entries[key]; dup {
			return nil, fmt.Errorf("%w: record %d: duplicate key %q", ErrCorruptStore, n, key)
		}
		entries[key] = val
	}
}

func parseRecordHeader(line string) (int, int, error) {
	rest, ok := strings.CutPrefix(line, recordPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("bad record header %q", line)
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("bad record header %q", line)
	}
	klen, err := strconv.Atoi(fields[0])
	if err != nil || klen < 0 {
		return 0, 0, fmt.Errorf("bad key length %q", fields[0])
	}
	vlen, err := strconv.Atoi(fields[1])
	if err != nil || vlen < 0 {
		return 0, 0, fmt.Errorf("bad value length %q", fields[1])
	}
	return klen, vlen, nil
}

// readField reads n bytes followed by the newline the writer always appends.
func readField(r *bufio.Reader, n int) (string, error) {
	buf := make([]byte, n+1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("short read")
	}
	if buf[n] != '\n' {
		return "", fmt.Errorf("missing terminator")
	}
	return string(buf[:n]), nil
}
