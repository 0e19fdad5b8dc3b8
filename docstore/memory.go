// Package docstore provides DocumentStore implementations: an in-memory
// store for tests and embedding, and a REST client for Frappe sites.
package docstore

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/vertrans"
)

// Memory is an in-memory document store.
type Memory struct {
	mu      sync.RWMutex
	schemas map[string][]vertrans.FieldSchema
	records map[string]map[string]vertrans.Record
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{
		schemas: make(map[string][]vertrans.FieldSchema),
		records: make(map[string]map[string]vertrans.Record),
	}
}

// PutSchema registers the field schema of a record type.
func (m *Memory) PutSchema(recordType string, fields []vertrans.FieldSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[recordType] = append([]vertrans.FieldSchema(nil), fields...)
}

// PutRecord stores or replaces a record.
func (m *Memory) PutRecord(r vertrans.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID := m.records[r.Type]
	if byID == nil {
		byID = make(map[string]vertrans.Record)
		m.records[r.Type] = byID
	}
	r.Fields = copyValues(r.Fields)
	byID[r.ID] = r
}

// Schema returns the field schema of recordType.
func (m *Memory) Schema(_ context.Context, recordType string) ([]vertrans.FieldSchema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.schemas[recordType]
	if !ok {
		return nil, &vertrans.NotFoundError{Kind: "record type", Name: recordType}
	}
	return append([]vertrans.FieldSchema(nil), fields...), nil
}

// Record returns a snapshot of the record.
func (m *Memory) Record(_ context.Context, recordType, recordID string) (vertrans.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[recordType][recordID]
	if !ok {
		return vertrans.Record{}, &vertrans.NotFoundError{Kind: "record", Name: recordType + "/" + recordID}
	}
	r.Fields = copyValues(r.Fields)
	return r, nil
}

func copyValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ vertrans.DocumentStore = (*Memory)(nil)
