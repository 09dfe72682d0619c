package snapshot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/specrun/internal/canon"
)

// DefaultEnvVar is the environment toggle selecting update mode when set to "1".
const DefaultEnvVar = "SPECRUN_UPDATE_SNAPSHOTS"

// Mode selects whether assertions verify or record.
type Mode int

const (
	// ModeVerify compares values against the stored snapshots.
	ModeVerify Mode = iota
	// ModeUpdate records values for the end-of-run flush.
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "verify"
}

// ModeFromEnv reads the toggle named envVar through getenv.
// An empty envVar means DefaultEnvVar.
func ModeFromEnv(getenv func(string) string, envVar string) Mode {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	if getenv(envVar) == "1" {
		return ModeUpdate
	}
	return ModeVerify
}

// ErrDuplicateKey is returned when update mode records the same key twice.
var ErrDuplicateKey = errors.New("duplicate snapshot key")

// Pending is a value recorded in update mode, waiting for Flush.
type Pending struct {
	Key   string
	Value string
}

// Stats summarizes what a flush changed.
type Stats struct {
	Updated int // keys whose value is new or differs from the old store
	Removed int // old keys no longer exercised
}

// Result is the outcome of one snapshot check.
type Result struct {
	Key      string
	Match    bool
	Missing  bool   // verify mode only: no stored value for Key
	Actual   string // serialized asserted value
	Expected string // stored value, empty when Missing
}

// MissingMessage is the directive shown when verify mode finds no stored value.
func (r Result) MissingMessage(envVar string) string {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	return fmt.Sprintf("snapshot not found for %q: rerun with %s=1 to record it", r.Key, envVar)
}

// Session owns the snapshot state of one test-file run: the cached store and
// the pending queue. A Session is not safe for concurrent use.
type Session struct {
	mode    Mode
	path    string
	store   *Store
	pending []Pending
	queued  map[string]struct{}
	logger  *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates a session for the store at storePath (see PathFor).
func NewSession(storePath string, mode Mode, opts ...SessionOption) *Session {
	s := &Session{
		mode:   mode,
		path:   storePath,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the session mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Path returns the store path.
func (s *Session) Path() string {
	return s.path
}

// Pending returns the values queued so far.
func (s *Session) Pending() []Pending {
	return s.pending
}

// load reads the store once per session.
func (s *Session) load() (*Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	st, err := LoadStore(s.path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("snapshot store loaded", "path", s.path, "existed", st.Existed, "entries", len(st.Entries))
	s.store = st
	return st, nil
}

// Check serializes value and either records it (update) or compares it with
// the stored value for key (verify). An error means the value could not be
// serialized or the store could not be read; callers treat it as a fault.
func (s *Session) Check(key string, value any) (Result, error) {
	actual, err := canon.MarshalString(value)
	if err != nil {
		return Result{}, err
	}
	res := Result{Key: key, Actual: actual}

	if s.mode == ModeUpdate {
		if _, dup := s.queued[key]; dup {
			return Result{}, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		if s.queued == nil {
			s.queued = make(map[string]struct{})
		}
		s.queued[key] = struct{}{}
		s.pending = append(s.pending, Pending{Key: key, Value: actual})
		res.Match = true
		return res, nil
	}

	st, err := s.load()
	if err != nil {
		return Result{}, err
	}
	expected, ok := st.Entries[key]
	if !ok {
		res.Missing = true
		return res, nil
	}
	res.Expected = expected
	res.Match = actual == expected
	return res, nil
}

// Flush writes the pending values, replacing the store. It is a no-op in
// verify mode. With nothing pending the store file is deleted, and otherwise
// it is rewritten only when something changed. A store that cannot be
// decoded is replaced as if it held no entries.
func (s *Session) Flush() (Stats, error) {
	var stats Stats
	if s.mode != ModeUpdate {
		return stats, nil
	}

	old, err := s.load()
	if errors.Is(err, ErrCorruptStore) {
		s.logger.Warn("replacing unreadable snapshot store", "path", s.path, "error", err)
		old = &Store{Path: s.path, Entries: map[string]string{}, Existed: true}
		s.store = old
	} else if err != nil {
		return stats, err
	}

	if len(s.pending) == 0 {
		if old.Existed {
			stats.Removed = len(old.Entries)
			if err := old.Remove(); err != nil {
				return stats, err
			}
			s.logger.Info("snapshot store removed", "path", s.path, "removed", stats.Removed)
		}
		return stats, nil
	}

	next := make(map[string]string, len(s.pending))
	for _, p := range s.pending {
		next[p.Key] = p.Value
	}
	for k, v := range next {
		if prev, ok := old.Entries[k]; !ok || prev != v {
			stats.Updated++
		}
	}
	for k := range old.Entries {
		if _, ok := next[k]; !ok {
			stats.Removed++
		}
	}

	if stats.Updated+stats.Removed == 0 {
		return stats, nil
	}

	replaced := &Store{Path: s.path, Entries: next, Existed: old.Existed}
	if err := replaced.Save(); err != nil {
		return stats, err
	}
	s.store = replaced
	s.logger.Info("snapshot store written", "path", s.path, "updated", stats.Updated, "removed", stats.Removed)
	return stats, nil
}
