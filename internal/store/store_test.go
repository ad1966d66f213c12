package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func testDoc(version string) map[string]any {
	return map[string]any{
		"openapi": "3.0.0",
		"info":    map[string]any{"title": "Test API", "version": version},
		"paths":   map[string]any{},
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	s, err := New(newTestLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	doc, err := s.Load(SlotCurrent)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc != nil {
		t.Errorf("Load() of missing snapshot = %v, want nil", doc)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s, err := New(newTestLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Save(SlotCurrent, testDoc("1.0.0")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	doc, err := s.Load(SlotCurrent)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	info := doc["info"].(map[string]any)
	if info["version"] != "1.0.0" {
		t.Errorf("loaded version = %v, want 1.0.0", info["version"])
	}
}

func TestPromoteRotatesSnapshots(t *testing.T) {
	s, err := New(newTestLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// First promotion with no existing current leaves previous empty.
	if err := s.Promote(testDoc("1.0.0")); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}
	previous, err := s.Load(SlotPrevious)
	if err != nil {
		t.Fatalf("Load(previous) error = %v", err)
	}
	if previous != nil {
		t.Errorf("previous after first promote = %v, want nil", previous)
	}

	// Second promotion rotates.
	if err := s.Promote(testDoc("2.0.0")); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}

	current, err := s.Load(SlotCurrent)
	if err != nil {
		t.Fatalf("Load(current) error = %v", err)
	}
	previous, err = s.Load(SlotPrevious)
	if err != nil {
		t.Fatalf("Load(previous) error = %v", err)
	}
	if v := current["info"].(map[string]any)["version"]; v != "2.0.0" {
		t.Errorf("current version = %v, want 2.0.0", v)
	}
	if v := previous["info"].(map[string]any)["version"]; v != "1.0.0" {
		t.Errorf("previous version = %v, want 1.0.0", v)
	}
}

func TestPromoteNilDoc(t *testing.T) {
	s, err := New(newTestLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Promote(nil); err == nil {
		t.Error("Promote(nil) expected error")
	}
}

func TestNewCreatesStorageDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "api_specs")
	if _, err := New(newTestLogger(), dir); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("storage dir not created: %v", err)
	}
}
