// Package state owns the durable tracker state: the subscriber list and the
// last-seen sold counts.  Everything lives in a single JSON file so it can
// be inspected or hand-edited while the process is down.
package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/magiaym/cartelera/internal/model"
)

// Store reads and writes the state file.  It deliberately holds no cached
// copy: every operation re-reads the file, so the poll loop and the command
// handlers stay consistent without a lock as long as they share one process.
type Store struct {
	path string
}

// New returns a store bound to the given file path.  The file does not have
// to exist yet.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state.  A missing file, unreadable file or
// malformed JSON all yield the zero state; corruption of the state file is
// never fatal to the poll loop.
func (s *Store) Load() model.PersistedState {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return model.NewPersistedState()
	}
	var st model.PersistedState
	if err := json.Unmarshal(b, &st); err != nil {
		log.Printf("state: ignoring corrupt %s: %v", s.path, err)
		return model.NewPersistedState()
	}
	if st.Subscribers == nil {
		st.Subscribers = []int64{}
	}
	if st.Counts == nil {
		st.Counts = map[string]int{}
	}
	return st
}

// Save overwrites the state file with the given state.  It writes a sibling
// temp file and renames it into place, which is atomic on the same
// filesystem; a crash mid-save leaves the previous state intact.  Failures
// are returned so callers can log and carry on — the next cycle simply
// starts from whatever is actually on disk.
func (s *Store) Save(st model.PersistedState) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir state dir: %w", err)
		}
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Subscribe registers a recipient for alerts.  It returns true when the
// subscriber was added and false when it was already present; only an
// actual change is saved.
func (s *Store) Subscribe(chatID int64) bool {
	st := s.Load()
	for _, id := range st.Subscribers {
		if id == chatID {
			return false
		}
	}
	st.Subscribers = append(st.Subscribers, chatID)
	s.saveLogged(st)
	return true
}

// Unsubscribe removes a recipient.  It returns true when the subscriber was
// present and removed, false when there was nothing to remove.
func (s *Store) Unsubscribe(chatID int64) bool {
	st := s.Load()
	for i, id := range st.Subscribers {
		if id == chatID {
			st.Subscribers = append(st.Subscribers[:i], st.Subscribers[i+1:]...)
			s.saveLogged(st)
			return true
		}
	}
	return false
}

// IsSubscribed reports membership against the state as currently on disk.
func (s *Store) IsSubscribed(chatID int64) bool {
	for _, id := range s.Load().Subscribers {
		if id == chatID {
			return true
		}
	}
	return false
}

func (s *Store) saveLogged(st model.PersistedState) {
	if err := s.Save(st); err != nil {
		log.Printf("state: save failed: %v", err)
	}
}
