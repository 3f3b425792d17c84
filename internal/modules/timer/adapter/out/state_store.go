package out

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pomodoro/internal/modules/timer/domain"
	timerout "pomodoro/internal/modules/timer/port/out"
	apperrors "pomodoro/internal/platform/errors"
)

// FileStateStore keeps the timer snapshot in a JSON file written atomically.
type FileStateStore struct {
	mu   sync.Mutex
	path string
}

var _ timerout.StateStore = (*FileStateStore)(nil)

func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

// Load returns the idle state when no snapshot exists yet.
func (s *FileStateStore) Load(_ context.Context) (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.IdleState(), nil
		}
		return domain.IdleState(), apperrors.Persistence("read timer state", err)
	}
	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.IdleState(), apperrors.Persistence("parse timer state", err)
	}
	if !state.Valid() {
		return domain.IdleState(), apperrors.Persistence("parse timer state", fmt.Errorf("inconsistent phase %q", state.Phase))
	}
	return state, nil
}

func (s *FileStateStore) Save(_ context.Context, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Persistence("create state dir", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return apperrors.Persistence("marshal timer state", err)
	}
	if existing, err := os.ReadFile(s.path); err == nil && bytes.Equal(existing, data) {
		return nil
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return apperrors.Persistence("create temp state file", err)
	}
	name := tmp.Name()
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(name)
		return apperrors.Persistence("write temp state file", err)
	}
	if err := os.Rename(name, s.path); err != nil {
		_ = os.Remove(name)
		return apperrors.Persistence("rename state file", err)
	}
	return nil
}
