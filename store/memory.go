package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ZaguanLabs/vertrans"
)

// memoryEntry holds a stored text with its timestamps.
type memoryEntry struct {
	text      string
	createdAt time.Time
	updatedAt time.Time
}

// Memory is a thread-safe in-memory translation store.
type Memory struct {
	mu       sync.RWMutex
	data     map[vertrans.StoreKey]map[string]memoryEntry
	statuses map[vertrans.StoreKey]vertrans.TranslationStatus
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[vertrans.StoreKey]map[string]memoryEntry),
		statuses: make(map[vertrans.StoreKey]vertrans.TranslationStatus),
		now:      time.Now,
	}
}

// Upsert stores text for fieldName under key, replacing any previous text.
func (m *Memory) Upsert(_ context.Context, key vertrans.StoreKey, fieldName, text string) error {
	key = key.Normalize()
	if err := vertrans.ValidateUpsert(key, fieldName); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fields := m.data[key]
	if fields == nil {
		fields = make(map[string]memoryEntry)
		m.data[key] = fields
	}

	now := m.now().UTC()
	entry, ok := fields[fieldName]
	if !ok {
		entry.createdAt = now
	}
	entry.text = text
	entry.updatedAt = now
	fields[fieldName] = entry
	return nil
}

// Get returns all fields stored under key. A missing key yields an empty map.
func (m *Memory) Get(_ context.Context, key vertrans.StoreKey) (map[string]string, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	fields := m.data[key]
	result := make(map[string]string, len(fields))
	for name, entry := range fields {
		result[name] = entry.text
	}
	return result, nil
}

// SetStatus records the translation outcome for key.
func (m *Memory) SetStatus(_ context.Context, key vertrans.StoreKey, status vertrans.TranslationStatus) error {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[key] = status
	return nil
}

// Status returns the recorded outcome for key.
func (m *Memory) Status(_ context.Context, key vertrans.StoreKey) (vertrans.TranslationStatus, error) {
	key = key.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[key]
	if !ok {
		return "", &vertrans.NotFoundError{Kind: "translation status", Name: key.String()}
	}
	return status, nil
}

// Len returns the number of stored field translations.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, fields := range m.data {
		n += len(fields)
	}
	return n
}

// Entries returns all stored field translations ordered by key and field name.
// This is used for store export.
func (m *Memory) Entries(_ context.Context) ([]vertrans.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []vertrans.Entry
	for key, fields := range m.data {
		for name, e := range fields {
			entries = append(entries, vertrans.Entry{
				Key:       key,
				FieldName: name,
				Text:      e.text,
				CreatedAt: e.createdAt,
				UpdatedAt: e.updatedAt,
			})
		}
	}
	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []vertrans.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if ka, kb := a.Key.String(), b.Key.String(); ka != kb {
			return ka < kb
		}
		return a.FieldName < b.FieldName
	})
}

var (
	_ Store  = (*Memory)(nil)
	_ Lister = (*Memory)(nil)
)
