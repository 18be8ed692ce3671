package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryPreferenceStore keeps overrides in process memory. Values are stored
// verbatim; an empty string is a configured value, not an absent one.
type MemoryPreferenceStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{entries: map[string]string{}}
}

func (s *MemoryPreferenceStore) Get(_ context.Context, key string) (string, bool, error) {
	if s == nil {
		return "", false, fmt.Errorf("core: preference store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("core: preference key is required")
	}
	s.mu.RLock()
	value, ok := s.entries[key]
	s.mu.RUnlock()
	return value, ok, nil
}

func (s *MemoryPreferenceStore) Set(_ context.Context, key string, value string) error {
	if s == nil {
		return fmt.Errorf("core: preference store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("core: preference key is required")
	}
	s.mu.Lock()
	if s.entries == nil {
		s.entries = map[string]string{}
	}
	s.entries[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryPreferenceStore) Clear(_ context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("core: preference store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("core: preference key is required")
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// LoadPreferenceRecord reads both override keys from store.
func LoadPreferenceRecord(ctx context.Context, store PreferenceStore) (PreferenceRecord, error) {
	if store == nil {
		return PreferenceRecord{}, fmt.Errorf("core: preference store is not configured")
	}
	record := PreferenceRecord{}
	absoluteURL, ok, err := store.Get(ctx, PreferenceKeyAbsoluteProfileURL)
	if err != nil {
		return PreferenceRecord{}, fmt.Errorf("core: read %s: %w", PreferenceKeyAbsoluteProfileURL, err)
	}
	if ok {
		record.AbsoluteProfileURL = &absoluteURL
	}
	subjectID, ok, err := store.Get(ctx, PreferenceKeyOverrideSubjectID)
	if err != nil {
		return PreferenceRecord{}, fmt.Errorf("core: read %s: %w", PreferenceKeyOverrideSubjectID, err)
	}
	if ok {
		record.OverrideSubjectID = &subjectID
	}
	return record, nil
}
