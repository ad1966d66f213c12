// Package store persists the current and previous specification snapshots on
// disk so comparisons survive process restarts.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Slot names one of the two snapshot positions.
type Slot string

const (
	SlotCurrent  Slot = "current"
	SlotPrevious Slot = "previous"
)

// Store holds JSON snapshots under a storage directory.
type Store struct {
	logger *logrus.Logger
	dir    string
}

// New creates a new Store instance, creating the storage directory if
// needed.
func New(logger *logrus.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spec storage dir: %w", err)
	}
	return &Store{logger: logger, dir: dir}, nil
}

// Load reads the snapshot in the given slot. A missing snapshot returns nil
// without an error.
func (s *Store) Load(slot Slot) (map[string]any, error) {
	data, err := os.ReadFile(s.path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s spec: %w", slot, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse stored %s spec: %w", slot, err)
	}
	return doc, nil
}

// Save writes the document into the given slot.
func (s *Store) Save(slot Slot, doc map[string]any) error {
	file, err := os.Create(s.path(slot))
	if err != nil {
		return fmt.Errorf("failed to create %s spec file: %w", slot, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to write %s spec: %w", slot, err)
	}
	return nil
}

// Promote rotates the snapshots: the existing current snapshot becomes
// previous and doc becomes the new current. Callers invoke this only after
// the corresponding notification was accepted, so two racing comparisons
// cannot half-commit.
func (s *Store) Promote(doc map[string]any) error {
	if doc == nil {
		return fmt.Errorf("cannot promote a nil spec")
	}

	current, err := s.Load(SlotCurrent)
	if err != nil {
		return err
	}
	if current != nil {
		if err := s.Save(SlotPrevious, current); err != nil {
			return err
		}
		s.logger.Info("Current specification moved to previous")
	}

	if err := s.Save(SlotCurrent, doc); err != nil {
		return err
	}
	s.logger.Info("New specification saved as current")
	return nil
}

func (s *Store) path(slot Slot) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_spec.json", slot))
}
