package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Projectworkpls/Observer/internal/domain"
)

type metaData struct {
	Sessions     map[string]domain.Session  `json:"sessions"`
	Observations []domain.ObservationRecord `json:"observations"`
}

// Store is the zero-infrastructure persistence backend: sessions and
// recorded observations in a single JSON file, written atomically.
type Store struct {
	mu   sync.RWMutex
	path string
	data metaData
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store := &Store{path: filepath.Join(baseDir, "meta.json")}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = metaData{
		Sessions: map[string]domain.Session{},
	}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("open meta file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			return s.saveLocked()
		}
		return fmt.Errorf("decode meta file: %w", err)
	}

	if s.data.Sessions == nil {
		s.data.Sessions = map[string]domain.Session{}
	}
	return nil
}

func (s *Store) CreateSession(session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.ProcessingStatus == "" {
		session.ProcessingStatus = domain.ProcessingStatusPending
	}
	now := time.Now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	s.data.Sessions[session.ID] = session

	if err := s.saveLocked(); err != nil {
		return domain.Session{}, err
	}

	return session, nil
}

func (s *Store) GetSession(id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data.Sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %s not found", id)
	}
	return session, nil
}

func (s *Store) ListSessions() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]domain.Session, 0, len(s.data.Sessions))
	for _, session := range s.data.Sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (s *Store) UpdateSession(session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data.Sessions[session.ID]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %s not found", session.ID)
	}

	if session.CreatedAt == 0 {
		session.CreatedAt = existing.CreatedAt
	}
	if session.ProcessingStatus == "" {
		session.ProcessingStatus = existing.ProcessingStatus
	}

	session.UpdatedAt = time.Now().Unix()
	s.data.Sessions[session.ID] = session

	if err := s.saveLocked(); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Sessions[id]; !ok {
		return fmt.Errorf("session %s not found", id)
	}

	delete(s.data.Sessions, id)

	return s.saveLocked()
}

// Record appends a flat observation record; the Store doubles as the
// default pipeline Recorder when no database is configured.
func (s *Store) Record(_ context.Context, rec domain.ObservationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Observations = append(s.data.Observations, rec)
	return s.saveLocked()
}

// ListObservations returns recorded observations, newest last.
func (s *Store) ListObservations() []domain.ObservationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ObservationRecord, len(s.data.Observations))
	copy(out, s.data.Observations)
	return out
}

func (s *Store) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "meta-*.json")
	if err != nil {
		return fmt.Errorf("create temp meta: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode meta: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp meta: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace meta file: %w", err)
	}

	return nil
}
