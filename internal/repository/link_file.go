package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"playlink/internal/models"
)

// LinkFile is a snapshot-file backed LinkStore for deployments that run
// without a database. The whole record map is loaded at startup and rewritten
// on every mutation; a failed flush rolls the in-memory map back so a caller
// never gets a success for an unpersisted write.
type LinkFile struct {
	mu   sync.Mutex
	path string
	recs map[string]models.LinkRecord
}

func NewLinkFile(path string) (*LinkFile, error) {
	s := &LinkFile{
		path: path,
		recs: make(map[string]models.LinkRecord),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read link store file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.recs); err != nil {
		return nil, fmt.Errorf("failed to parse link store file: %w", err)
	}
	return s, nil
}

func (s *LinkFile) Put(rec models.LinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.recs[rec.Code]
	s.recs[rec.Code] = rec
	if err := s.flushLocked(); err != nil {
		if had {
			s.recs[rec.Code] = prev
		} else {
			delete(s.recs, rec.Code)
		}
		return err
	}
	return nil
}

func (s *LinkFile) Get(code string) (*models.LinkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[code]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *LinkFile) Delete(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.recs[code]
	if !had {
		return nil
	}
	delete(s.recs, code)
	if err := s.flushLocked(); err != nil {
		s.recs[code] = prev
		return err
	}
	return nil
}

func (s *LinkFile) FindByCaller(callerID string) ([]models.LinkRecord, error) {
	return s.filter(func(rec models.LinkRecord) bool { return rec.CallerID == callerID })
}

func (s *LinkFile) FindByGameAccount(gameAccountID string) ([]models.LinkRecord, error) {
	return s.filter(func(rec models.LinkRecord) bool { return rec.GameAccountID == gameAccountID })
}

func (s *LinkFile) All() ([]models.LinkRecord, error) {
	return s.filter(func(models.LinkRecord) bool { return true })
}

func (s *LinkFile) filter(keep func(models.LinkRecord) bool) ([]models.LinkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []models.LinkRecord
	for _, rec := range s.recs {
		if keep(rec) {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

// flushLocked writes the snapshot to a temp file and renames it over the
// store path, so a crash mid-write never leaves a truncated snapshot.
func (s *LinkFile) flushLocked() error {
	data, err := json.MarshalIndent(s.recs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode link store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create link store dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write link store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace link store file: %w", err)
	}
	return nil
}
